package xmppc

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// mucAdminNS is the XEP-0045 namespace for role administration.
const mucAdminNS = "http://jabber.org/protocol/muc#admin"

// adminQuery mirrors the muc#admin query element carried inside an IQ,
// used both for role list results and role change requests.
type adminQuery struct {
	XMLName xml.Name    `xml:"query"`
	Items   []adminItem `xml:"item"`
}

type adminItem struct {
	JID    string `xml:"jid,attr,omitempty"`
	Nick   string `xml:"nick,attr,omitempty"`
	Role   string `xml:"role,attr,omitempty"`
	Reason string `xml:"reason,omitempty"`
}

// setRoleIQ renders the IQ that changes an occupant's role in a room.
func setRoleIQ(id, room, nick, role, reason string) (string, error) {
	query := adminQuery{Items: []adminItem{{Nick: nick, Role: role, Reason: reason}}}
	body, err := marshalQuery(query)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<iq to=%q type='set' id=%q>%s</iq>",
		escapeAttr(room), escapeAttr(id), body), nil
}

// roleListIQ renders the IQ that requests the list of occupants holding
// a role in a room.
func roleListIQ(id, room, role string) (string, error) {
	query := adminQuery{Items: []adminItem{{Role: role}}}
	body, err := marshalQuery(query)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("<iq to=%q type='get' id=%q>%s</iq>",
		escapeAttr(room), escapeAttr(id), body), nil
}

func marshalQuery(query adminQuery) (string, error) {
	inner, err := xml.Marshal(query)
	if err != nil {
		return "", fmt.Errorf("marshal muc#admin query: %w", err)
	}
	// encoding/xml cannot emit an xmlns attribute on a struct without a
	// dedicated field, splice it into the opening tag instead.
	return fmt.Sprintf("<query xmlns=%q%s", mucAdminNS, inner[len("<query"):]), nil
}

// parseAdminQuery extracts the items of a muc#admin result. The raw
// bytes come straight from the IQ payload and may or may not include
// the surrounding query element.
func parseAdminQuery(raw []byte) ([]adminItem, error) {
	var query adminQuery
	if err := xml.Unmarshal(raw, &query); err != nil {
		return nil, fmt.Errorf("parse muc#admin result: %w", err)
	}
	return query.Items, nil
}

func escapeAttr(s string) string {
	var b bytes.Buffer
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
