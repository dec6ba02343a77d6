package redact_test

import (
	"testing"

	"github.com/bdobrica/voicedesk/common/redact"
)

func TestString_RedactsSensitiveValues(t *testing.T) {
	password := "zqkfw7"
	line := "generated credential zqkfw7 for profile jdoe"
	got := redact.String(line, password)
	if got == line {
		t.Fatal("expected redaction, got unchanged string")
	}
	const want = "generated credential [REDACTED] for profile jdoe"
	if got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestString_SkipsShortValues(t *testing.T) {
	line := "abc code"
	// "abc" is only 3 chars, too short to redact
	got := redact.String(line, "abc")
	if got != line {
		t.Fatalf("short value should not be redacted; got %q", got)
	}
}

func TestString_MultipleValues(t *testing.T) {
	password := "zqkfw7pass"
	code := "482913"
	line := "pw=zqkfw7pass code=482913 end"
	got := redact.String(line, password, code)
	if got == line {
		t.Fatal("expected redaction")
	}
	// Both values should be replaced
	if got != "pw=[REDACTED] code=[REDACTED] end" {
		t.Fatalf("unexpected result: %q", got)
	}
}

func TestMap_RedactsSensitiveKeys(t *testing.T) {
	m := map[string]any{
		"userprf":  "alice",
		"password": "s3cr3t",
		"code":     "482913",
		"send_mod": "sms",
		"count":    42,
	}
	out := redact.Map(m)

	if out["userprf"] != "alice" {
		t.Errorf("userprf should not be redacted, got %v", out["userprf"])
	}
	if out["password"] != "[REDACTED]" {
		t.Errorf("password should be redacted, got %v", out["password"])
	}
	if out["code"] != "[REDACTED]" {
		t.Errorf("code should be redacted, got %v", out["code"])
	}
	if out["send_mod"] != "sms" {
		t.Errorf("send_mod should not be redacted, got %v", out["send_mod"])
	}
	if out["count"] != 42 {
		t.Errorf("non-string count should be unchanged, got %v", out["count"])
	}
}

func TestMap_DoesNotMutateOriginal(t *testing.T) {
	m := map[string]any{"password": "secret"}
	redact.Map(m)
	if m["password"] != "secret" {
		t.Error("Map mutated the original; expected shallow copy")
	}
}
