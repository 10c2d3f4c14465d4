package asset

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gabipgz/haras-project/internal/apperr"
)

func TestIdentityRoundTrip(t *testing.T) {
	cases := []Identity{
		{TokenID: "0.0.1234", Serial: 1},
		{TokenID: "0.0.1234", Serial: 42},
		{TokenID: "0.0.999999", Serial: 1000000},
	}
	for _, want := range cases {
		got, err := ParseIdentity(want.String())
		if err != nil {
			t.Fatalf("ParseIdentity(%q): %v", want.String(), err)
		}
		if got != want {
			t.Errorf("round trip = %+v, want %+v", got, want)
		}
	}
}

func TestParseIdentity_Encoding(t *testing.T) {
	id, err := ParseIdentity("0.0.5005:7")
	if err != nil {
		t.Fatalf("ParseIdentity: %v", err)
	}
	if id.TokenID != "0.0.5005" || id.Serial != 7 {
		t.Errorf("got %+v", id)
	}
	if id.String() != "0.0.5005:7" {
		t.Errorf("String() = %q", id.String())
	}
}

func TestParseIdentity_Invalid(t *testing.T) {
	cases := []string{
		"",
		"0.0.1234",   // no separator
		":7",         // empty token id
		"0.0.1234:",  // empty serial
		"0.0.1234:x", // non-numeric serial
		"0.0.1234:0", // serial below 1
		"0.0.1234:-3",
	}
	for _, in := range cases {
		if _, err := ParseIdentity(in); !errors.Is(err, apperr.ErrInvalidIdentity) {
			t.Errorf("ParseIdentity(%q) err = %v, want ErrInvalidIdentity", in, err)
		}
	}
}

func TestDecodeMetadata_Structured(t *testing.T) {
	m := DecodeMetadata([]byte(`{"name":"Thunder","breed":"Arabian","equineReport":["0.0.77"],"topicId":"0.0.5"}`))
	if m.Name != "Thunder" || m.Breed != "Arabian" || m.TopicID != "0.0.5" {
		t.Errorf("got %+v", m)
	}
	if len(m.EquineReport) != 1 || m.EquineReport[0] != "0.0.77" {
		t.Errorf("equine report = %v", m.EquineReport)
	}
	if m.Raw != nil {
		t.Error("structured decode should not populate Raw")
	}
}

func TestDecodeMetadata_UnknownFieldsKeptWhole(t *testing.T) {
	// Field types are all compatible with the struct; only the names
	// are foreign. The document must survive intact, not shrink to the
	// fields we happen to model.
	m := DecodeMetadata([]byte(`{"titulo":"Registro","criador":"Estancia","topicId":"0.0.5"}`))
	if m.Raw == nil {
		t.Fatal("expected raw map for document with unknown fields")
	}
	if m.Raw["titulo"] != "Registro" || m.Raw["criador"] != "Estancia" {
		t.Errorf("foreign fields lost: %+v", m.Raw)
	}
	if m.TopicID != "0.0.5" {
		t.Errorf("topic id = %q, want 0.0.5", m.TopicID)
	}

	out, err := json.Marshal(m)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var round map[string]any
	if err := json.Unmarshal(out, &round); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if round["titulo"] != "Registro" || round["criador"] != "Estancia" || round["topicId"] != "0.0.5" {
		t.Errorf("round trip lost fields: %s", out)
	}
}

func TestDecodeMetadata_RawFallback(t *testing.T) {
	m := DecodeMetadata([]byte("hello"))
	if m.Raw == nil || m.Raw["rawMetadata"] != "hello" {
		t.Errorf("got %+v", m.Raw)
	}
}

func TestDecodeMetadata_ForeignDocument(t *testing.T) {
	m := DecodeMetadata([]byte(`{"topicId":123,"nested":{"a":[1,2]}}`))
	if m.Raw == nil {
		t.Fatal("expected raw map for non-conforming document")
	}
	if _, ok := m.Raw["nested"]; !ok {
		t.Error("nested content lost")
	}
}
