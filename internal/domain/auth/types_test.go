package auth

import "testing"

func TestIdentity_Valid(t *testing.T) {
	if (Identity{}).Valid() {
		t.Fatalf("empty identity must not be valid")
	}
	if !(Identity{UserID: "u", Source: SourceDev}).Valid() {
		t.Fatalf("expected valid identity")
	}
}
