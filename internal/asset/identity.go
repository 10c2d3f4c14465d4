// Package asset defines the asset data model: identities, metadata
// documents, lifecycle events, and the reconstructed record view.
package asset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gabipgz/haras-project/internal/apperr"
)

// Identity names one minted unit: the token class it belongs to and its
// serial number within the class. Canonical string form is
// "<tokenID>:<serial>".
type Identity struct {
	TokenID string
	Serial  int64
}

// String returns the canonical encoding.
func (id Identity) String() string {
	return fmt.Sprintf("%s:%d", id.TokenID, id.Serial)
}

// ParseIdentity decodes the canonical form. The token id must be
// non-empty and the serial a number >= 1.
func ParseIdentity(s string) (Identity, error) {
	tokenID, serialStr, ok := strings.Cut(s, ":")
	if !ok || tokenID == "" || serialStr == "" {
		return Identity{}, fmt.Errorf("%w: %q", apperr.ErrInvalidIdentity, s)
	}
	serial, err := strconv.ParseInt(serialStr, 10, 64)
	if err != nil || serial < 1 {
		return Identity{}, fmt.Errorf("%w: bad serial in %q", apperr.ErrInvalidIdentity, s)
	}
	return Identity{TokenID: tokenID, Serial: serial}, nil
}
