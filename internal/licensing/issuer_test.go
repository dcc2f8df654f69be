package licensing

import (
	"regexp"
	"testing"

	"github.com/google/uuid"

	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
)

var tokenFormat = regexp.MustCompile(`^[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}-[A-Z0-9]{4}$`)

func TestIssueProducesWellFormedTokens(t *testing.T) {
	issuer := NewIssuer(DefaultMaxAttempts)
	productID := uuid.New()
	orderID := uuid.New()

	for i := 0; i < 100; i++ {
		token, err := issuer.Issue(productID, orderID, nil)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if !tokenFormat.MatchString(token) {
			t.Fatalf("token %q does not match XXXX-XXXX-XXXX-XXXX", token)
		}
	}
}

func TestIssueTokensDoNotRepeat(t *testing.T) {
	issuer := NewIssuer(DefaultMaxAttempts)
	productID := uuid.New()
	orderID := uuid.New()

	seen := map[string]bool{}
	for i := 0; i < 1000; i++ {
		token, err := issuer.Issue(productID, orderID, nil)
		if err != nil {
			t.Fatalf("issue: %v", err)
		}
		if seen[token] {
			t.Fatalf("token %q issued twice", token)
		}
		seen[token] = true
	}
}

func TestIssueRetriesOnCollision(t *testing.T) {
	issuer := NewIssuer(3)
	collisions := 0
	taken := func(token string) (bool, error) {
		if collisions < 2 {
			collisions++
			return true, nil
		}
		return false, nil
	}

	token, err := issuer.Issue(uuid.New(), uuid.New(), taken)
	if err != nil {
		t.Fatalf("issue after collisions: %v", err)
	}
	if token == "" {
		t.Fatal("expected a token after retries")
	}
	if collisions != 2 {
		t.Fatalf("expected 2 collisions consumed, got %d", collisions)
	}
}

func TestIssueFailsAfterExhaustingAttempts(t *testing.T) {
	issuer := NewIssuer(3)
	attempts := 0
	taken := func(token string) (bool, error) {
		attempts++
		return true, nil
	}

	_, err := issuer.Issue(uuid.New(), uuid.New(), taken)
	if err == nil {
		t.Fatal("expected issuance failure")
	}
	if !pkgerrors.HasCode(err, pkgerrors.CodeInternal) {
		t.Fatalf("expected internal error code, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}
