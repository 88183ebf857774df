package instance

import "testing"

func TestIDPrefersEnvironment(t *testing.T) {
	t.Setenv("AURA_INSTANCE_ID", "publisher-2")
	if got := ID(); got != "publisher-2" {
		t.Fatalf("expected publisher-2, got %q", got)
	}
}

func TestIDFallsBack(t *testing.T) {
	t.Setenv("AURA_INSTANCE_ID", "")
	if ID() == "" {
		t.Fatal("expected a non-empty id")
	}
}
