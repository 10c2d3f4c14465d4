package asset

import (
	"bytes"
	"encoding/json"
	"time"
)

// Event type names recorded in the event log.
const (
	EventCreation  = "CREATION"
	EventMedical   = "MEDICAL"
	EventOwnership = "OWNERSHIP"
	EventGeneric   = "GENERIC"
)

// Pedigree links a horse to its parents. The referenced identities are
// not validated: a lineage graph may be incomplete or dangling, and any
// traversal built on top must track visited nodes itself.
type Pedigree struct {
	SireID   string `json:"sireId,omitempty"`
	DamID    string `json:"damId,omitempty"`
	SireName string `json:"sireName,omitempty"`
	DamName  string `json:"damName,omitempty"`
}

// OwnershipEntry is one row of the ownership history.
type OwnershipEntry struct {
	OwnerID  string `json:"ownerId"`
	FromDate string `json:"fromDate"`
	ToDate   string `json:"toDate,omitempty"`
}

// MedicalEntry is one veterinary record.
type MedicalEntry struct {
	Date         string `json:"date"`
	Type         string `json:"type"` // vaccine, exam, treatment
	Description  string `json:"description"`
	Veterinarian string `json:"veterinarian"`
	Observations string `json:"observations,omitempty"`
}

// Competition is one competition result.
type Competition struct {
	Date   string `json:"date"`
	Name   string `json:"name"`
	Result string `json:"result"`
	Award  string `json:"award,omitempty"`
}

// Vaccination is one vaccination record.
type Vaccination struct {
	Disease string `json:"disease"`
	Date    string `json:"date"`
	Route   string `json:"route"` // IM or IN
}

// Metadata is the immutable document describing a horse at mint time.
// It is written once, either inline in the mint transaction or as a
// content-store blob referenced by handle. Updates never mutate it;
// they go through the event log on TopicID.
type Metadata struct {
	Name                  string           `json:"name,omitempty"`
	Breed                 string           `json:"breed,omitempty"`
	BirthDate             string           `json:"birthDate,omitempty"`
	Sex                   string           `json:"sex,omitempty"`
	CoatColor             string           `json:"coatColor,omitempty"`
	Weight                string           `json:"weight,omitempty"`
	Height                string           `json:"height,omitempty"`
	Pedigree              *Pedigree        `json:"pedigree,omitempty"`
	EquineReport          []string         `json:"equineReport,omitempty"`
	RegistrationOrg       string           `json:"registrationOrganization,omitempty"`
	MicrochipNumber       string           `json:"microchipNumber,omitempty"`
	CurrentOwner          string           `json:"currentOwner,omitempty"`
	OwnershipHistory      []OwnershipEntry `json:"ownershipHistory,omitempty"`
	Images                []string         `json:"images,omitempty"`
	MedicalHistory        []MedicalEntry   `json:"medicalHistory,omitempty"`
	Competitions          []Competition    `json:"competitions,omitempty"`
	KnownAllergies        string           `json:"knownAllergies,omitempty"`
	KnownHealthConditions string           `json:"knownHealthConditions,omitempty"`
	Diet                  string           `json:"diet,omitempty"`
	HousingStatus         string           `json:"housingStatus,omitempty"`
	LastNegativeCoggins   string           `json:"lastNegativeCogginsTest,omitempty"`
	Vaccinations          []Vaccination    `json:"vaccinations,omitempty"`
	TopicID               string           `json:"topicId,omitempty"`
	CreatedAt             string           `json:"createdAt,omitempty"`

	// Raw carries metadata that could not be decoded into the fields
	// above (foreign documents, or inline values that are not JSON --
	// those land here under "rawMetadata").
	Raw map[string]any `json:"-"`
}

// MarshalJSON renders Raw as-is when the document never decoded into
// the structured fields, so degraded metadata round-trips untouched.
func (m Metadata) MarshalJSON() ([]byte, error) {
	if m.Raw != nil {
		return json.Marshal(m.Raw)
	}
	type plain Metadata
	return json.Marshal(plain(m))
}

// DecodeMetadata interprets a mint-time metadata value. It never fails:
// documents that do not fit the structured shape exactly, including
// ones carrying fields we do not model, are kept wholesale as a raw
// map, and values that are not JSON at all degrade to
// {"rawMetadata": s}. A document must never lose fields in the round
// trip through a record read.
func DecodeMetadata(b []byte) Metadata {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	var m Metadata
	if err := dec.Decode(&m); err == nil {
		return m
	}
	var raw map[string]any
	if err := json.Unmarshal(b, &raw); err == nil {
		m = Metadata{Raw: raw}
		// The event topic link still has to resolve for documents we
		// keep raw.
		if id, ok := raw["topicId"].(string); ok {
			m.TopicID = id
		}
		return m
	}
	return Metadata{Raw: map[string]any{"rawMetadata": string(b)}}
}

// Event is one fact appended to an asset's topic. Events are ordered by
// topic consensus order; Timestamp is client-supplied and advisory.
type Event struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Timestamp   string         `json:"timestamp,omitempty"`
	EventType   string         `json:"eventType,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Record is the reconstructed view of one asset. It is rebuilt on every
// read from unit info, the metadata document, and a bounded replay of
// the asset's topic; it is never persisted.
type Record struct {
	Identity Identity  `json:"identity"`
	Owner    string    `json:"owner"`
	Metadata Metadata  `json:"metadata"`
	Events   []Event   `json:"events"`
	MintedAt time.Time `json:"mintedAt"`
}

// ClassInfo describes one token class (a collection).
type ClassInfo struct {
	TokenID     string    `json:"tokenId"`
	Name        string    `json:"name"`
	Symbol      string    `json:"symbol"`
	Memo        string    `json:"memo,omitempty"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
	TotalSupply int64     `json:"totalSupply"`
	MaxSupply   int64     `json:"maxSupply"`
}
