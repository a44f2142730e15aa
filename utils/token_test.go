package utils

import "testing"

func TestJwtRoundTrip(t *testing.T) {
	t.Setenv("API_SECRET", "test-secret")
	t.Setenv("TOKEN_HOUR_LIFESPAN", "1")

	token, err := JwtGenerate(7, "mechanic")
	if err != nil {
		t.Fatalf("JwtGenerate: %v", err)
	}
	parsed, err := JwtValidate(token)
	if err != nil || !parsed.Valid {
		t.Fatalf("JwtValidate: %v", err)
	}
	claim, ok := parsed.Claims.(*JwtCustomClaim)
	if !ok || claim.ID != 7 || claim.Role != "mechanic" {
		t.Fatalf("unexpected claims %+v", parsed.Claims)
	}

	t.Setenv("API_SECRET", "other-secret")
	if _, err := JwtValidate(token); err == nil {
		t.Fatalf("token signed with another secret must not validate")
	}
}

func TestJwtGenerateNeedsLifespan(t *testing.T) {
	t.Setenv("TOKEN_HOUR_LIFESPAN", "")
	if _, err := JwtGenerate(1, "staff"); err == nil {
		t.Fatalf("expected error without TOKEN_HOUR_LIFESPAN")
	}
}
