package ledger

import (
	"fmt"
	"log/slog"
	"regexp"
	"sync"

	"github.com/hashgraph/hedera-sdk-go/v2"

	"github.com/gabipgz/haras-project/internal/apperr"
)

var accountRefPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// Session holds the process-wide operator identity and the Hedera
// client bound to it. Credentials are set by login and cleared by
// logout; the swap is atomic with respect to in-flight operations:
// operations hold the read lock for their whole call, so a swap waits
// for them to finish and no new operation starts against a stale
// client.
type Session struct {
	network string

	mu       sync.RWMutex
	client   *hedera.Client
	operator hedera.AccountID
	key      hedera.PrivateKey
}

// NewSession creates a session for the named network (testnet, mainnet
// or previewnet) with no operator configured.
func NewSession(network string) *Session {
	return &Session{network: network}
}

// SetOperator installs new operator credentials, tearing down any live
// client first.
func (s *Session) SetOperator(accountRef, privateKey string) error {
	if !accountRefPattern.MatchString(accountRef) {
		return fmt.Errorf("%w: account ref %q", apperr.ErrConfiguration, accountRef)
	}
	account, err := hedera.AccountIDFromString(accountRef)
	if err != nil {
		return fmt.Errorf("%w: %v", apperr.ErrConfiguration, err)
	}
	key, err := hedera.PrivateKeyFromString(privateKey)
	if err != nil {
		return fmt.Errorf("%w: bad private key", apperr.ErrConfiguration)
	}
	client, err := hedera.ClientForName(s.network)
	if err != nil {
		return fmt.Errorf("ledger: client for %q: %w", s.network, err)
	}
	client.SetOperator(account, key)

	s.mu.Lock()
	old := s.client
	s.client = client
	s.operator = account
	s.key = key
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	slog.Info("operator identity set",
		slog.String("account", accountRef),
		slog.String("network", s.network))
	return nil
}

// Clear drops the operator identity and closes the client.
func (s *Session) Clear() {
	s.mu.Lock()
	old := s.client
	s.client = nil
	s.operator = hedera.AccountID{}
	s.key = hedera.PrivateKey{}
	s.mu.Unlock()

	if old != nil {
		_ = old.Close()
	}
	slog.Info("operator identity cleared")
}

// Active reports whether an operator identity is configured.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.client != nil
}

// Operator returns the active account ref, or "" when logged out.
func (s *Session) Operator() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.client == nil {
		return ""
	}
	return s.operator.String()
}

// acquire takes the read lock and returns the live client plus a
// release func. Callers hold the lock for the duration of one ledger
// operation.
func (s *Session) acquire() (*hedera.Client, hedera.AccountID, hedera.PrivateKey, func(), error) {
	s.mu.RLock()
	if s.client == nil {
		s.mu.RUnlock()
		return nil, hedera.AccountID{}, hedera.PrivateKey{}, nil, apperr.ErrConfiguration
	}
	return s.client, s.operator, s.key, s.mu.RUnlock, nil
}
