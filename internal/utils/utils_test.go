package utils

import (
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	tok, err := NewAccessToken("s3cret", "5550001111", "Alice", true, time.Hour)
	if err != nil {
		t.Fatalf("NewAccessToken returned error: %v", err)
	}
	if time.Until(tok.Exp) <= 59*time.Minute {
		t.Fatalf("Exp = %s, want about one hour from now", tok.Exp)
	}

	claims, err := ParseAccessToken("s3cret", tok.Token)
	if err != nil {
		t.Fatalf("ParseAccessToken returned error: %v", err)
	}
	if claims.Subject != "5550001111" || claims.Name != "Alice" || !claims.Admin {
		t.Fatalf("claims = %+v", claims)
	}

	t.Run("wrong secret", func(t *testing.T) {
		if _, err := ParseAccessToken("other", tok.Token); err == nil {
			t.Fatal("expected error for wrong secret")
		}
	})

	t.Run("expired", func(t *testing.T) {
		old, err := NewAccessToken("s3cret", "5550001111", "Alice", false, -time.Minute)
		if err != nil {
			t.Fatalf("NewAccessToken returned error: %v", err)
		}
		if _, err := ParseAccessToken("s3cret", old.Token); err == nil {
			t.Fatal("expected error for expired token")
		}
	})

	t.Run("garbage", func(t *testing.T) {
		if _, err := ParseAccessToken("s3cret", "not.a.token"); err == nil {
			t.Fatal("expected error for malformed token")
		}
	})
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("1234", bcrypt.MinCost)
	if err != nil {
		t.Fatalf("HashPassword returned error: %v", err)
	}
	if !VerifyPassword(hash, "1234") {
		t.Fatal("VerifyPassword rejected the right PIN")
	}
	if VerifyPassword(hash, "4321") {
		t.Fatal("VerifyPassword accepted the wrong PIN")
	}
}
