package utils

import (
	"testing"

	"slotbook/config"
)

func TestActorTokenRoundtrip(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"

	token, err := GenerateActorToken("prov-42", "provider")
	if err != nil {
		t.Fatalf("GenerateActorToken: %v", err)
	}

	actorID, role, err := ExtractActorFromToken(token)
	if err != nil {
		t.Fatalf("ExtractActorFromToken: %v", err)
	}
	if actorID != "prov-42" || role != "provider" {
		t.Errorf("got %s/%s, want prov-42/provider", actorID, role)
	}
}

func TestActorTokenRejectsUnknownRole(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	if _, err := GenerateActorToken("x", "admin"); err == nil {
		t.Fatal("unknown role must be rejected")
	}
}

func TestTamperedTokenRejected(t *testing.T) {
	config.AppConfig.JWTSecret = "test-secret"
	token, err := GenerateActorToken("cust-1", "customer")
	if err != nil {
		t.Fatalf("GenerateActorToken: %v", err)
	}

	config.AppConfig.JWTSecret = "rotated-secret"
	if _, _, err := ExtractActorFromToken(token); err == nil {
		t.Fatal("token signed with another secret must be rejected")
	}
}
