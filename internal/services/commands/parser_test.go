package commands

import (
	"strings"
	"testing"
)

func TestMatch(t *testing.T) {
	cases := []struct {
		body    string
		want    string
		matched bool
	}{
		{"!mute bob 5m spam", "mute bob 5m spam", true},
		{"ModBot: mute bob 5m spam", "mute bob 5m spam", true},
		{"modbot !mutelist", "mutelist", true},
		{"MODBOT: !help", "help", true},
		{"  !kick bob spam  ", "kick bob spam", true},
		{"hello everyone", "", false},
		{"mute bob 5m spam", "", false},
		{"", "", false},
	}

	for _, tc := range cases {
		got, matched := Match(tc.body, "ModBot")
		if matched != tc.matched || got != tc.want {
			t.Errorf("Match(%q) = %q, %v, want %q, %v", tc.body, got, matched, tc.want, tc.matched)
		}
	}
}

func TestParseMute(t *testing.T) {
	cmd, reply := Parse(`mute bob "2 hours" repeated spam`)
	if reply != "" {
		t.Fatalf("unexpected reply: %q", reply)
	}
	want := Command{Kind: KindMute, User: "bob", Duration: "2 hours", Reason: "repeated spam"}
	if cmd != want {
		t.Fatalf("Parse = %+v, want %+v", cmd, want)
	}
}

func TestParseUnmuteAndKick(t *testing.T) {
	cmd, reply := Parse("unmute bob resolved")
	if reply != "" || cmd.Kind != KindUnmute || cmd.User != "bob" || cmd.Reason != "resolved" {
		t.Fatalf("unmute: cmd=%+v reply=%q", cmd, reply)
	}

	cmd, reply = Parse("kick bob being rude")
	if reply != "" || cmd.Kind != KindKick || cmd.User != "bob" || cmd.Reason != "being rude" {
		t.Fatalf("kick: cmd=%+v reply=%q", cmd, reply)
	}
}

func TestParseUsageOnMissingArguments(t *testing.T) {
	cases := []string{
		"mute",
		"mute bob",
		"mute bob 5m",
		"unmute",
		"unmute bob",
		"kick bob",
		"profanitylist",
	}
	for _, text := range cases {
		cmd, reply := Parse(text)
		if cmd.Kind != KindNone {
			t.Errorf("Parse(%q) returned command %+v, want usage", text, cmd)
		}
		if reply == "" {
			t.Errorf("Parse(%q) returned no usage text", text)
		}
	}
}

func TestParseUnknownCommand(t *testing.T) {
	cmd, reply := Parse("dance")
	if cmd.Kind != KindNone {
		t.Fatalf("unexpected command: %+v", cmd)
	}
	if !strings.Contains(reply, "invalid command: !dance") {
		t.Fatalf("reply = %q", reply)
	}
	if !strings.Contains(reply, "!mute") {
		t.Fatalf("reply misses command list: %q", reply)
	}
}

func TestParseHelp(t *testing.T) {
	_, reply := Parse("help")
	if !strings.Contains(reply, "!mutelist") {
		t.Fatalf("help reply = %q", reply)
	}

	_, reply = Parse("help mute")
	if !strings.Contains(reply, "duration") {
		t.Fatalf("mute usage reply = %q", reply)
	}

	_, reply = Parse("help dance")
	if !strings.Contains(reply, "invalid command: !dance") {
		t.Fatalf("unknown help reply = %q", reply)
	}
}

func TestParseUnbalancedQuote(t *testing.T) {
	cmd, reply := Parse(`mute bob "2 hours spam`)
	if cmd.Kind != KindNone || reply == "" {
		t.Fatalf("expected error reply, got cmd=%+v reply=%q", cmd, reply)
	}
}

func TestParseCaseInsensitiveKeyword(t *testing.T) {
	cmd, reply := Parse("MuteList")
	if reply != "" || cmd.Kind != KindMuteList {
		t.Fatalf("cmd=%+v reply=%q", cmd, reply)
	}
}

func TestParseProfanityList(t *testing.T) {
	cmd, reply := Parse("profanitylist en")
	if reply != "" || cmd.Kind != KindProfanityList || cmd.Lang != "en" {
		t.Fatalf("cmd=%+v reply=%q", cmd, reply)
	}
}
