package env

import "testing"

func TestGetPrefersPrefixedVariable(t *testing.T) {
	t.Setenv("LOG_FORMAT", "console")
	if got := Get("LOG_FORMAT", "json"); got != "console" {
		t.Fatalf("expected bare variable, got %q", got)
	}
	t.Setenv("AURA_LOG_FORMAT", "json")
	if got := Get("LOG_FORMAT", "text"); got != "json" {
		t.Fatalf("expected prefixed variable, got %q", got)
	}
	if got := Get("UNSET_FOR_TEST", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
}
