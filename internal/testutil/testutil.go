// Package testutil provides shared test doubles, most importantly an
// in-memory ledger with scripted failure modes.
package testutil

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gabipgz/haras-project/internal/apperr"
	"github.com/gabipgz/haras-project/internal/ledger"
)

// FakeOperator is the account that owns everything minted on a FakeLedger.
const FakeOperator = "0.0.1001"

// FakeLedger is an in-memory ledger.Client. Failure modes are scripted
// through the exported fields; the zero values mean "behave normally".
type FakeLedger struct {
	mu         sync.Mutex
	configured bool
	nextEntity int
	classes    map[string]*ledger.ClassInfo
	units      map[string][]*ledger.UnitInfo
	topics     map[string][]ledger.Message
	files      map[string][]byte
	clock      time.Time

	// SetupFailures makes the next N Subscribe calls fail at setup.
	SetupFailures int
	// FailStreamAfter, when > 0, delivers that many messages on the
	// next subscription and then reports a transport error. One shot.
	FailStreamAfter int
	// UnitFailures injects per-serial lookup errors into UnitInfo.
	UnitFailures map[int64]error
	// SubscribeCalls counts Subscribe attempts, including failed ones.
	SubscribeCalls int
}

// NewFakeLedger returns a configured, empty ledger.
func NewFakeLedger() *FakeLedger {
	return &FakeLedger{
		configured: true,
		classes:    make(map[string]*ledger.ClassInfo),
		units:      make(map[string][]*ledger.UnitInfo),
		topics:     make(map[string][]ledger.Message),
		files:      make(map[string][]byte),
		clock:      time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// SetConfigured toggles the "operator identity present" state.
func (f *FakeLedger) SetConfigured(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.configured = on
}

func (f *FakeLedger) newEntityID() string {
	f.nextEntity++
	return fmt.Sprintf("0.0.%d", 5000+f.nextEntity)
}

func (f *FakeLedger) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *FakeLedger) guard() error {
	if !f.configured {
		return apperr.ErrConfiguration
	}
	return nil
}

// CreateAssetClass registers a new token class.
func (f *FakeLedger) CreateAssetClass(_ context.Context, name, symbol string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return "", err
	}
	id := f.newEntityID()
	f.classes[id] = &ledger.ClassInfo{
		TokenID:   id,
		Name:      name,
		Symbol:    symbol,
		MaxSupply: 1_000_000,
	}
	return id, nil
}

// MintUnit appends a unit to a class.
func (f *FakeLedger) MintUnit(_ context.Context, tokenID string, metadata []byte) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return 0, err
	}
	if len(metadata) > ledger.InlineMetadataLimit {
		return 0, fmt.Errorf("metadata too large: %d bytes", len(metadata))
	}
	class, ok := f.classes[tokenID]
	if !ok {
		return 0, fmt.Errorf("%w: token id %q", apperr.ErrNotFound, tokenID)
	}
	serial := int64(len(f.units[tokenID]) + 1)
	f.units[tokenID] = append(f.units[tokenID], &ledger.UnitInfo{
		TokenID:   tokenID,
		Serial:    serial,
		Owner:     FakeOperator,
		Metadata:  append([]byte(nil), metadata...),
		CreatedAt: f.tick(),
	})
	class.TotalSupply = serial
	return serial, nil
}

// CreateTopic registers an empty topic.
func (f *FakeLedger) CreateTopic(_ context.Context, memo string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return "", err
	}
	id := f.newEntityID()
	f.topics[id] = nil
	return id, nil
}

// SubmitMessage appends a message to a topic.
func (f *FakeLedger) SubmitMessage(_ context.Context, topicID string, payload []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return "", err
	}
	if _, ok := f.topics[topicID]; !ok {
		return "", fmt.Errorf("%w: topic %q", apperr.ErrNotFound, topicID)
	}
	seq := uint64(len(f.topics[topicID]) + 1)
	f.topics[topicID] = append(f.topics[topicID], ledger.Message{
		Contents:      append([]byte(nil), payload...),
		ConsensusTime: f.tick(),
		Sequence:      seq,
	})
	return "SUCCESS", nil
}

type fakeSub struct {
	once sync.Once
	done chan struct{}
}

func (s *fakeSub) Unsubscribe() { s.once.Do(func() { close(s.done) }) }

// Subscribe replays the topic's messages from start onward on a
// background goroutine, honouring the scripted failure modes.
func (f *FakeLedger) Subscribe(_ context.Context, topicID string, start time.Time,
	onMessage func(ledger.Message), onError func(error)) (ledger.Subscription, error) {

	f.mu.Lock()
	f.SubscribeCalls++
	if err := f.guard(); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if f.SetupFailures > 0 {
		f.SetupFailures--
		f.mu.Unlock()
		return nil, errors.New("subscription setup refused")
	}
	var snapshot []ledger.Message
	for _, m := range f.topics[topicID] {
		if !m.ConsensusTime.Before(start) {
			snapshot = append(snapshot, m)
		}
	}
	failAfter := f.FailStreamAfter
	if failAfter > 0 {
		f.FailStreamAfter = 0
	}
	f.mu.Unlock()

	sub := &fakeSub{done: make(chan struct{})}
	go func() {
		for i, m := range snapshot {
			if failAfter > 0 && i == failAfter {
				onError(errors.New("stream reset"))
				return
			}
			select {
			case <-sub.done:
				return
			default:
			}
			onMessage(m)
		}
	}()
	return sub, nil
}

// CreateFile stores an immutable blob.
func (f *FakeLedger) CreateFile(_ context.Context, contents []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.guard(); err != nil {
		return "", err
	}
	id := f.newEntityID()
	f.files[id] = append([]byte(nil), contents...)
	return id, nil
}

// FileContents reads back a stored blob.
func (f *FakeLedger) FileContents(_ context.Context, fileID string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.files[fileID]
	if !ok {
		return nil, fmt.Errorf("%w: file %q", apperr.ErrNotFound, fileID)
	}
	return data, nil
}

// ClassInfo looks up a class.
func (f *FakeLedger) ClassInfo(_ context.Context, tokenID string) (*ledger.ClassInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	class, ok := f.classes[tokenID]
	if !ok {
		return nil, fmt.Errorf("%w: token id %q", apperr.ErrNotFound, tokenID)
	}
	copied := *class
	return &copied, nil
}

// UnitInfo looks up a unit, honouring injected per-serial failures.
func (f *FakeLedger) UnitInfo(_ context.Context, tokenID string, serial int64) (*ledger.UnitInfo, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.UnitFailures[serial]; ok {
		return nil, err
	}
	units := f.units[tokenID]
	if serial < 1 || serial > int64(len(units)) {
		return nil, fmt.Errorf("%w: unit %s:%d", apperr.ErrNotFound, tokenID, serial)
	}
	copied := *units[serial-1]
	return &copied, nil
}

// SeedTopic creates a topic pre-filled with raw message payloads.
func (f *FakeLedger) SeedTopic(payloads ...[]byte) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	id := f.newEntityID()
	f.topics[id] = nil
	for i, p := range payloads {
		f.topics[id] = append(f.topics[id], ledger.Message{
			Contents:      append([]byte(nil), p...),
			ConsensusTime: f.tick(),
			Sequence:      uint64(i + 1),
		})
	}
	return id
}

// TopicMessages returns a copy of a topic's log.
func (f *FakeLedger) TopicMessages(topicID string) []ledger.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]ledger.Message(nil), f.topics[topicID]...)
}

var _ ledger.Client = (*FakeLedger)(nil)
