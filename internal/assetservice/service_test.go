package assetservice

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/gabipgz/haras-project/internal/apperr"
	"github.com/gabipgz/haras-project/internal/asset"
	"github.com/gabipgz/haras-project/internal/contentstore"
	"github.com/gabipgz/haras-project/internal/testutil"
	"github.com/gabipgz/haras-project/internal/topic"
)

func newTestService(t *testing.T) (*Service, *testutil.FakeLedger) {
	t.Helper()
	fake := testutil.NewFakeLedger()
	store := contentstore.NewFileService(fake)
	sub := topic.NewSubscriber(fake, topic.WithRetryPolicy(3, 5*time.Millisecond))
	svc := New(fake, store, sub, WithHistoryPolicy(100, 500*time.Millisecond))
	return svc, fake
}

func createClass(t *testing.T, svc *Service) string {
	t.Helper()
	info, err := svc.CreateClass(context.Background(), "Haras Central", "HRS", "stable")
	if err != nil {
		t.Fatalf("CreateClass: %v", err)
	}
	return info.TokenID
}

func TestCreateAsset_EndToEnd(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	id, err := svc.CreateAsset(ctx, tokenID, asset.Metadata{
		Name:      "Thunder",
		Breed:     "Arabian",
		BirthDate: "2020-05-01",
		Sex:       "stallion",
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	if id.TokenID != tokenID || id.Serial != 1 {
		t.Errorf("identity = %+v", id)
	}
	if !strings.Contains(id.String(), ":") {
		t.Errorf("identity string %q not in class:serial form", id.String())
	}

	rec, err := svc.GetRecord(ctx, id.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Metadata.Name != "Thunder" || rec.Metadata.Breed != "Arabian" {
		t.Errorf("metadata = %+v", rec.Metadata)
	}
	if rec.Metadata.TopicID == "" {
		t.Error("metadata lost the topic id")
	}
	if rec.Owner != testutil.FakeOperator {
		t.Errorf("owner = %q", rec.Owner)
	}
	if len(rec.Events) != 1 {
		t.Fatalf("events = %d, want exactly one creation event", len(rec.Events))
	}
	if rec.Events[0].EventType != asset.EventCreation {
		t.Errorf("event type = %q", rec.Events[0].EventType)
	}
}

func TestCreateAsset_LargeMetadataGoesThroughStore(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	id, err := svc.CreateAsset(ctx, tokenID, asset.Metadata{
		Name:  "Thunder",
		Breed: "Arabian",
		MedicalHistory: []asset.MedicalEntry{
			{Date: "2023-01-01", Type: "exam", Description: "annual checkup", Veterinarian: "Dr. Silva"},
		},
	})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}

	unit, err := fake.UnitInfo(ctx, tokenID, id.Serial)
	if err != nil {
		t.Fatalf("UnitInfo: %v", err)
	}
	if len(unit.Metadata) > 100 {
		t.Fatalf("mint metadata is %d bytes, want a handle within the budget", len(unit.Metadata))
	}
	store := contentstore.NewFileService(fake)
	if !store.IsHandle(string(unit.Metadata)) {
		t.Fatalf("mint metadata %q is not a content handle", unit.Metadata)
	}

	rec, err := svc.GetRecord(ctx, id.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if len(rec.Metadata.MedicalHistory) != 1 {
		t.Errorf("medical history lost through the store round trip: %+v", rec.Metadata)
	}
}

func TestGetRecord_PaddedHandleResolves(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	doc, _ := json.Marshal(asset.Metadata{Name: "Zafira", Breed: "Criollo"})
	handle, err := fake.CreateFile(ctx, doc)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	// Another client minted the handle with stray whitespace.
	serial, err := fake.MintUnit(ctx, tokenID, []byte("  "+handle+" \n"))
	if err != nil {
		t.Fatalf("MintUnit: %v", err)
	}

	rec, err := svc.GetRecord(ctx, asset.Identity{TokenID: tokenID, Serial: serial}.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Metadata.Name != "Zafira" {
		t.Errorf("metadata = %+v, want the stored document resolved", rec.Metadata)
	}
	if rec.Metadata.Raw != nil {
		t.Error("padded handle degraded instead of resolving")
	}
}

func TestCreateAsset_RequiresOperator(t *testing.T) {
	svc, fake := newTestService(t)
	tokenID := createClass(t, svc)
	fake.SetConfigured(false)

	_, err := svc.CreateAsset(context.Background(), tokenID, asset.Metadata{Name: "X"})
	if !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("err = %v, want ErrConfiguration", err)
	}
}

func TestGetRecord_HandleMetadataAndEvents(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	topicID := fake.SeedTopic(
		[]byte(`{"name":"Vet visit","description":"ok","eventType":"MEDICAL"}`),
		[]byte(`{"name":"Sold","description":"new owner","eventType":"OWNERSHIP"}`),
	)
	doc, _ := json.Marshal(map[string]string{"name": "X", "topicId": topicID})
	handle, err := fake.CreateFile(ctx, doc)
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	serial, err := fake.MintUnit(ctx, tokenID, []byte(handle))
	if err != nil {
		t.Fatalf("MintUnit: %v", err)
	}

	rec, err := svc.GetRecord(ctx, asset.Identity{TokenID: tokenID, Serial: serial}.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Metadata.Name != "X" {
		t.Errorf("metadata.Name = %q, want X", rec.Metadata.Name)
	}
	if len(rec.Events) != 2 {
		t.Errorf("events = %d, want 2", len(rec.Events))
	}
}

func TestGetRecord_RawMetadataFallback(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	serial, err := fake.MintUnit(ctx, tokenID, []byte("hello"))
	if err != nil {
		t.Fatalf("MintUnit: %v", err)
	}

	rec, err := svc.GetRecord(ctx, asset.Identity{TokenID: tokenID, Serial: serial}.String())
	if err != nil {
		t.Fatalf("malformed inline metadata must not fail the read: %v", err)
	}
	if rec.Metadata.Raw == nil || rec.Metadata.Raw["rawMetadata"] != "hello" {
		t.Errorf("metadata = %+v, want rawMetadata fallback", rec.Metadata)
	}
	if len(rec.Events) != 0 {
		t.Errorf("no topic id means empty history, got %d events", len(rec.Events))
	}
}

func TestGetRecord_UnresolvableHandleDegrades(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	// Looks like a file handle but was never created.
	serial, err := fake.MintUnit(ctx, tokenID, []byte("0.0.99999"))
	if err != nil {
		t.Fatalf("MintUnit: %v", err)
	}

	rec, err := svc.GetRecord(ctx, asset.Identity{TokenID: tokenID, Serial: serial}.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if rec.Metadata.Raw == nil || rec.Metadata.Raw["rawMetadata"] != "0.0.99999" {
		t.Errorf("metadata = %+v", rec.Metadata)
	}
}

func TestGetRecord_InvalidIdentity(t *testing.T) {
	svc, _ := newTestService(t)
	for _, in := range []string{"", "0.0.5001", ":", "0.0.5001:abc"} {
		if _, err := svc.GetRecord(context.Background(), in); !errors.Is(err, apperr.ErrInvalidIdentity) {
			t.Errorf("GetRecord(%q) err = %v, want ErrInvalidIdentity", in, err)
		}
	}
}

func TestGetRecord_UnknownUnit(t *testing.T) {
	svc, _ := newTestService(t)
	tokenID := createClass(t, svc)
	_, err := svc.GetRecord(context.Background(), tokenID+":1")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAppendEvent_ThenVisibleInHistory(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	id, err := svc.CreateAsset(ctx, tokenID, asset.Metadata{Name: "Thunder"})
	if err != nil {
		t.Fatalf("CreateAsset: %v", err)
	}
	err = svc.AppendEvent(ctx, id.String(), asset.Event{
		Name:        "Vaccination",
		Description: "influenza",
		EventType:   asset.EventMedical,
	})
	if err != nil {
		t.Fatalf("AppendEvent: %v", err)
	}

	rec, err := svc.GetRecord(ctx, id.String())
	if err != nil {
		t.Fatalf("GetRecord: %v", err)
	}
	if len(rec.Events) != 2 {
		t.Fatalf("events = %d, want creation + vaccination", len(rec.Events))
	}
	if rec.Events[1].Name != "Vaccination" {
		t.Errorf("events[1] = %+v", rec.Events[1])
	}
	if rec.Events[1].Timestamp == "" {
		t.Error("missing defaulted timestamp")
	}
}

func TestAppendEvent_UnknownAsset(t *testing.T) {
	svc, _ := newTestService(t)
	tokenID := createClass(t, svc)
	err := svc.AppendEvent(context.Background(), tokenID+":9", asset.Event{Name: "x"})
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListUnits_SkipsFailingSerial(t *testing.T) {
	svc, fake := newTestService(t)
	ctx := context.Background()
	tokenID := createClass(t, svc)

	for i := 0; i < 5; i++ {
		if _, err := svc.CreateAsset(ctx, tokenID, asset.Metadata{Name: "Horse"}); err != nil {
			t.Fatalf("CreateAsset #%d: %v", i+1, err)
		}
	}
	fake.UnitFailures = map[int64]error{3: errors.New("mirror timeout")}

	records, err := svc.ListUnits(ctx, tokenID)
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(records) != 4 {
		t.Fatalf("len = %d, want 4 (serial 3 skipped)", len(records))
	}
	for _, rec := range records {
		if rec.Identity.Serial == 3 {
			t.Error("failing serial leaked into the result")
		}
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].Identity.Serial >= records[i].Identity.Serial {
			t.Error("records not ordered by serial")
		}
	}
}

func TestListUnits_UnknownClass(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.ListUnits(context.Background(), "0.0.424242")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestListUnits_EmptyClass(t *testing.T) {
	svc, _ := newTestService(t)
	tokenID := createClass(t, svc)
	records, err := svc.ListUnits(context.Background(), tokenID)
	if err != nil {
		t.Fatalf("ListUnits: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("len = %d, want 0", len(records))
	}
}
