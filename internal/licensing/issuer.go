// Package licensing issues the license tokens attached to settled order line
// items. Tokens are derived from a one-way hash over the product, the order,
// and a random nonce, so they cannot be predicted from the identifiers alone.
package licensing

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	pkgerrors "github.com/digishelf/digishelf-backend/pkg/errors"
)

const (
	// tokenAlphabet is the uppercase alphanumeric set used for token groups.
	tokenAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	tokenGroups   = 4
	groupLen      = 4

	// DefaultMaxAttempts bounds the collision retry loop.
	DefaultMaxAttempts = 3
)

// TakenFunc reports whether a candidate token is already granted. It is
// consulted once per attempt; the database unique index remains the final
// arbiter under concurrency.
type TakenFunc func(token string) (bool, error)

// Issuer produces license tokens in the XXXX-XXXX-XXXX-XXXX format.
type Issuer struct {
	maxAttempts int
}

// NewIssuer builds an issuer with the given collision retry budget.
func NewIssuer(maxAttempts int) *Issuer {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Issuer{maxAttempts: maxAttempts}
}

// Issue generates a unique token for the (product, order) pair. Each attempt
// uses a fresh nonce; after maxAttempts collisions it fails rather than loop.
func (i *Issuer) Issue(productID, orderID uuid.UUID, taken TakenFunc) (string, error) {
	for attempt := 0; attempt < i.maxAttempts; attempt++ {
		token, err := generateToken(productID, orderID)
		if err != nil {
			return "", pkgerrors.Wrap(pkgerrors.CodeInternal, err, "license token generation failed")
		}
		if taken == nil {
			return token, nil
		}
		exists, err := taken(token)
		if err != nil {
			return "", err
		}
		if !exists {
			return token, nil
		}
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal,
		fmt.Sprintf("license issuance failed after %d attempts", i.maxAttempts))
}

func generateToken(productID, orderID uuid.UUID) (string, error) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	h := sha256.New()
	h.Write(productID[:])
	h.Write(orderID[:])
	h.Write(nonce)
	var ts [8]byte
	binary.BigEndian.PutUint64(ts[:], uint64(time.Now().UnixNano()))
	h.Write(ts[:])
	digest := h.Sum(nil)

	var b strings.Builder
	b.Grow(tokenGroups*groupLen + tokenGroups - 1)
	for group := 0; group < tokenGroups; group++ {
		if group > 0 {
			b.WriteByte('-')
		}
		for pos := 0; pos < groupLen; pos++ {
			idx := digest[group*groupLen+pos] % byte(len(tokenAlphabet))
			b.WriteByte(tokenAlphabet[idx])
		}
	}
	return b.String(), nil
}
