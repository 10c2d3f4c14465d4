// Package assetservice composes the ledger, the content store, and the
// topic subscriber into asset records.
package assetservice

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gabipgz/haras-project/internal/apperr"
	"github.com/gabipgz/haras-project/internal/asset"
	"github.com/gabipgz/haras-project/internal/contentstore"
	"github.com/gabipgz/haras-project/internal/ledger"
	"github.com/gabipgz/haras-project/internal/registry"
	"github.com/gabipgz/haras-project/internal/topic"
)

// History retrieval policy. Tunable per instance, these are the
// deployment defaults.
const (
	DefaultHistoryCount   = 100
	DefaultHistoryTimeout = 10 * time.Second
	DefaultListLimit      = 4
)

// Service is the asset-record orchestrator. It is the sole caller of
// the ledger client, the content store, and the topic subscriber.
type Service struct {
	ledger     ledger.Client
	store      contentstore.Store
	subscriber *topic.Subscriber
	cache      *registry.DB // optional write-through cache, may be nil

	historyCount   int
	historyTimeout time.Duration
	listLimit      int
}

// Option configures a Service.
type Option func(*Service)

// WithHistoryPolicy tunes how much event history a record read replays
// and how long it may wait.
func WithHistoryPolicy(count int, timeout time.Duration) Option {
	return func(s *Service) {
		s.historyCount = count
		s.historyTimeout = timeout
	}
}

// WithListLimit bounds how many per-serial lookups run concurrently
// during a class listing.
func WithListLimit(n int) Option {
	return func(s *Service) { s.listLimit = n }
}

// WithCache attaches the local registry cache.
func WithCache(db *registry.DB) Option {
	return func(s *Service) { s.cache = db }
}

// New creates the service.
func New(c ledger.Client, store contentstore.Store, sub *topic.Subscriber, opts ...Option) *Service {
	s := &Service{
		ledger:         c,
		store:          store,
		subscriber:     sub,
		historyCount:   DefaultHistoryCount,
		historyTimeout: DefaultHistoryTimeout,
		listLimit:      DefaultListLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateClass creates a token class and records it in the cache.
func (s *Service) CreateClass(ctx context.Context, name, symbol, memo string) (*asset.ClassInfo, error) {
	tokenID, err := s.ledger.CreateAssetClass(ctx, name, symbol)
	if err != nil {
		return nil, err
	}
	info := &asset.ClassInfo{
		TokenID:   tokenID,
		Name:      name,
		Symbol:    symbol,
		Memo:      memo,
		CreatedAt: time.Now().UTC(),
		MaxSupply: 1_000_000,
	}
	s.cacheClass(info)
	return info, nil
}

// GetClass looks up a token class on the ledger.
func (s *Service) GetClass(ctx context.Context, tokenID string) (*asset.ClassInfo, error) {
	info, err := s.ledger.ClassInfo(ctx, tokenID)
	if err != nil {
		return nil, err
	}
	return &asset.ClassInfo{
		TokenID:     info.TokenID,
		Name:        info.Name,
		Symbol:      info.Symbol,
		Memo:        info.Memo,
		TotalSupply: info.TotalSupply,
		MaxSupply:   info.MaxSupply,
	}, nil
}

// CreateAsset registers a new horse in the given class: it creates the
// event topic, writes the metadata document (inline when it fits the
// mint budget, through the content store otherwise), mints the unit,
// and appends the initial CREATION event.
//
// The steps span three systems and are not transactional. If the
// creation event fails after the mint succeeded, the asset exists with
// an empty history; the error from the failing step is surfaced and
// nothing is rolled back or retried.
func (s *Service) CreateAsset(ctx context.Context, tokenID string, attrs asset.Metadata) (asset.Identity, error) {
	topicID, err := s.ledger.CreateTopic(ctx, fmt.Sprintf("Horse event log - %s", tokenID))
	if err != nil {
		return asset.Identity{}, err
	}

	attrs.TopicID = topicID
	if attrs.CreatedAt == "" {
		attrs.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}
	doc, err := json.Marshal(attrs)
	if err != nil {
		return asset.Identity{}, fmt.Errorf("assetservice: encode metadata: %w", err)
	}

	mintValue := doc
	if len(doc) > ledger.InlineMetadataLimit {
		handle, putErr := s.store.Put(ctx, doc)
		if putErr != nil {
			return asset.Identity{}, putErr
		}
		mintValue = []byte(handle)
	}

	serial, err := s.ledger.MintUnit(ctx, tokenID, mintValue)
	if err != nil {
		return asset.Identity{}, err
	}
	id := asset.Identity{TokenID: tokenID, Serial: serial}
	slog.Info("asset created",
		slog.String("identity", id.String()),
		slog.String("topic_id", topicID),
		slog.String("name", attrs.Name))

	creation := asset.Event{
		Name:        "Horse Created",
		Description: fmt.Sprintf("Horse %s was registered in the system", attrs.Name),
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		EventType:   asset.EventCreation,
		Data: map[string]any{
			"name":      attrs.Name,
			"breed":     attrs.Breed,
			"birthDate": attrs.BirthDate,
			"sex":       attrs.Sex,
		},
	}
	if err := s.submitEvent(ctx, topicID, creation); err != nil {
		// Known gap: the asset now exists with no creation event.
		return id, err
	}

	s.cacheAsset(id, attrs.Name)
	return id, nil
}

// GetRecord reconstructs the full asset record: unit info, resolved
// metadata, and a bounded replay of the event topic.
func (s *Service) GetRecord(ctx context.Context, identity string) (*asset.Record, error) {
	id, err := asset.ParseIdentity(identity)
	if err != nil {
		return nil, err
	}
	unit, err := s.ledger.UnitInfo(ctx, id.TokenID, id.Serial)
	if err != nil {
		return nil, err
	}

	meta := s.resolveMetadata(ctx, unit.Metadata)

	events := []asset.Event{}
	if meta.TopicID != "" {
		events, err = s.subscriber.Collect(ctx, meta.TopicID,
			time.Unix(0, 0), s.historyCount, s.historyTimeout)
		if err != nil {
			return nil, err
		}
	}

	return &asset.Record{
		Identity: id,
		Owner:    unit.Owner,
		Metadata: meta,
		Events:   events,
		MintedAt: unit.CreatedAt,
	}, nil
}

// AppendEvent resolves the asset's topic and submits the event. The
// event timestamp is advisory and defaulted when absent; ordering comes
// from topic consensus, never from this field.
func (s *Service) AppendEvent(ctx context.Context, identity string, ev asset.Event) error {
	id, err := asset.ParseIdentity(identity)
	if err != nil {
		return err
	}
	unit, err := s.ledger.UnitInfo(ctx, id.TokenID, id.Serial)
	if err != nil {
		return err
	}
	meta := s.resolveMetadata(ctx, unit.Metadata)
	if meta.TopicID == "" {
		return fmt.Errorf("%w: asset %s has no event topic", apperr.ErrNotFound, identity)
	}
	if ev.Timestamp == "" {
		ev.Timestamp = time.Now().UTC().Format(time.RFC3339)
	}
	return s.submitEvent(ctx, meta.TopicID, ev)
}

// ListUnits reconstructs every unit in a class, serials 1..totalSupply.
// Lookups run with bounded concurrency; a serial that individually
// fails is logged and skipped, never failing the batch.
func (s *Service) ListUnits(ctx context.Context, tokenID string) ([]*asset.Record, error) {
	class, err := s.ledger.ClassInfo(ctx, tokenID)
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	records := make([]*asset.Record, 0, class.TotalSupply)

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(s.listLimit)
	for serial := int64(1); serial <= class.TotalSupply; serial++ {
		id := asset.Identity{TokenID: tokenID, Serial: serial}
		g.Go(func() error {
			rec, recErr := s.GetRecord(gCtx, id.String())
			if recErr != nil {
				slog.Warn("skipping unit in class listing",
					slog.String("identity", id.String()),
					slog.String("error", recErr.Error()))
				return nil
			}
			mu.Lock()
			records = append(records, rec)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	sort.Slice(records, func(i, j int) bool {
		return records[i].Identity.Serial < records[j].Identity.Serial
	})
	return records, nil
}

// resolveMetadata interprets the mint-time metadata value: a content
// handle is fetched and decoded, anything else is treated as an inline
// document. Resolution never fails the read; an unresolvable handle or
// unparseable document degrades to a raw representation.
func (s *Service) resolveMetadata(ctx context.Context, mintValue []byte) asset.Metadata {
	// Other clients may mint handles with stray whitespace.
	value := strings.TrimSpace(string(mintValue))
	if s.store.IsHandle(value) {
		doc, err := s.store.Get(ctx, value)
		if err != nil {
			slog.Warn("metadata handle did not resolve",
				slog.String("handle", value),
				slog.String("error", err.Error()))
			return asset.Metadata{Raw: map[string]any{"rawMetadata": value}}
		}
		return asset.DecodeMetadata(doc)
	}
	return asset.DecodeMetadata([]byte(value))
}

func (s *Service) submitEvent(ctx context.Context, topicID string, ev asset.Event) error {
	payload, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("assetservice: encode event: %w", err)
	}
	status, err := s.ledger.SubmitMessage(ctx, topicID, payload)
	if err != nil {
		return err
	}
	slog.Info("event appended",
		slog.String("topic_id", topicID),
		slog.String("event_type", ev.EventType),
		slog.String("status", status))
	return nil
}

// cacheClass and cacheAsset record what this process created in the
// local registry. The cache is convenience only; failures are logged
// and never surfaced.
func (s *Service) cacheClass(info *asset.ClassInfo) {
	if s.cache == nil {
		return
	}
	if err := s.cache.UpsertCollection(registry.Collection{
		TokenID:   info.TokenID,
		Name:      info.Name,
		Symbol:    info.Symbol,
		Memo:      info.Memo,
		CreatedAt: info.CreatedAt,
	}); err != nil {
		slog.Warn("registry cache write failed",
			slog.String("token_id", info.TokenID),
			slog.String("error", err.Error()))
	}
}

func (s *Service) cacheAsset(id asset.Identity, name string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.UpsertAsset(registry.Asset{
		Identity:  id.String(),
		TokenID:   id.TokenID,
		Serial:    id.Serial,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}); err != nil {
		slog.Warn("registry cache write failed",
			slog.String("identity", id.String()),
			slog.String("error", err.Error()))
	}
}
