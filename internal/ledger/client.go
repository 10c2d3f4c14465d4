// Package ledger abstracts the distributed ledger: token classes,
// minted units, pub/sub topics, and immutable files.
package ledger

import (
	"context"
	"time"
)

// InlineMetadataLimit is the ledger's native mint-time metadata budget
// in bytes. Documents that might exceed it go through the content store
// and are minted by handle.
const InlineMetadataLimit = 100

// Message is one topic message as delivered by the ledger, in consensus
// order.
type Message struct {
	Contents      []byte
	ConsensusTime time.Time
	Sequence      uint64
}

// Subscription is a live topic stream. Unsubscribe is idempotent.
type Subscription interface {
	Unsubscribe()
}

// ClassInfo is the ledger's view of a token class.
type ClassInfo struct {
	TokenID     string
	Name        string
	Symbol      string
	Memo        string
	TotalSupply int64
	MaxSupply   int64
}

// UnitInfo is the ledger's view of one minted unit.
type UnitInfo struct {
	TokenID   string
	Serial    int64
	Owner     string
	Metadata  []byte
	CreatedAt time.Time
}

// Client is the capability set the service needs from the ledger. All
// mutating operations require an active operator identity and fail with
// apperr.ErrConfiguration when none is set.
type Client interface {
	// CreateAssetClass creates a non-fungible token class and returns
	// its token id.
	CreateAssetClass(ctx context.Context, name, symbol string) (string, error)

	// MintUnit mints one unit with the given mint-time metadata bytes
	// (at most InlineMetadataLimit) and returns its serial number.
	MintUnit(ctx context.Context, tokenID string, metadata []byte) (int64, error)

	// CreateTopic creates an append-only message channel with the
	// given memo and returns its topic id.
	CreateTopic(ctx context.Context, memo string) (string, error)

	// SubmitMessage appends one message to a topic and returns the
	// consensus status string.
	SubmitMessage(ctx context.Context, topicID string, payload []byte) (string, error)

	// Subscribe opens a long-lived stream delivering every message
	// from start onward to onMessage, and transport failures to
	// onError. The caller owns the returned subscription.
	Subscribe(ctx context.Context, topicID string, start time.Time,
		onMessage func(Message), onError func(error)) (Subscription, error)

	// CreateFile stores an immutable blob on the ledger file service
	// and returns its handle.
	CreateFile(ctx context.Context, contents []byte) (string, error)

	// FileContents retrieves an immutable blob by handle.
	FileContents(ctx context.Context, fileID string) ([]byte, error)

	// ClassInfo looks up a token class; apperr.ErrNotFound if absent.
	ClassInfo(ctx context.Context, tokenID string) (*ClassInfo, error)

	// UnitInfo looks up one minted unit; apperr.ErrNotFound if absent.
	UnitInfo(ctx context.Context, tokenID string, serial int64) (*UnitInfo, error)
}
