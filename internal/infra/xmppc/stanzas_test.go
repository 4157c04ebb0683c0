package xmppc

import (
	"strings"
	"testing"
)

func TestSetRoleIQ(t *testing.T) {
	stanza, err := setRoleIQ("id1", "arena@conference.example.org", "bob", "visitor", "spam & more")
	if err != nil {
		t.Fatalf("setRoleIQ: %v", err)
	}

	for _, want := range []string{
		`to="arena@conference.example.org"`,
		`type='set'`,
		`id="id1"`,
		mucAdminNS,
		`nick="bob"`,
		`role="visitor"`,
		`<reason>spam &amp; more</reason>`,
	} {
		if !strings.Contains(stanza, want) {
			t.Errorf("stanza misses %q:\n%s", want, stanza)
		}
	}
}

func TestRoleListIQ(t *testing.T) {
	stanza, err := roleListIQ("id2", "arena@conference.example.org", "participant")
	if err != nil {
		t.Fatalf("roleListIQ: %v", err)
	}
	if !strings.Contains(stanza, `type='get'`) || !strings.Contains(stanza, `role="participant"`) {
		t.Fatalf("stanza = %s", stanza)
	}
}

func TestParseAdminQuery(t *testing.T) {
	raw := []byte(`<query xmlns="http://jabber.org/protocol/muc#admin">
		<item jid="bob@example.org/0ad" nick="bob" role="participant"/>
		<item jid="alice@example.org/0ad" nick="alice" role="moderator"/>
	</query>`)

	items, err := parseAdminQuery(raw)
	if err != nil {
		t.Fatalf("parseAdminQuery: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Nick != "bob" || items[0].Role != "participant" || items[0].JID != "bob@example.org/0ad" {
		t.Fatalf("first item = %+v", items[0])
	}
}

func TestParseAdminQueryRejectsGarbage(t *testing.T) {
	if _, err := parseAdminQuery([]byte("not xml at all <<")); err == nil {
		t.Fatal("expected parse error")
	}
}
