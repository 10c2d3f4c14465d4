package api

import (
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/gabipgz/haras-project/internal/asset"
)

var accountRefPattern = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// LoginRequest carries the operator credentials.
type LoginRequest struct {
	AccountID  string `json:"accountId"`
	PrivateKey string `json:"privateKey"`
}

// Validate validates the login request.
func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.AccountID, validation.Required,
			validation.Match(accountRefPattern).Error("must look like 0.0.12345")),
		validation.Field(&r.PrivateKey, validation.Required),
	)
}

// CreateCollectionRequest creates a token class.
type CreateCollectionRequest struct {
	Name        string `json:"name"`
	Symbol      string `json:"symbol"`
	Description string `json:"description"`
}

// Validate validates the collection request.
func (r CreateCollectionRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required, validation.Length(1, 100)),
		validation.Field(&r.Symbol, validation.Required, validation.Length(1, 10)),
	)
}

// CreateAssetRequest registers a horse. It mirrors the metadata
// document; everything beyond the name is optional.
type CreateAssetRequest struct {
	asset.Metadata
}

// Validate validates the asset request.
func (r CreateAssetRequest) Validate() error {
	return validation.ValidateStruct(&r.Metadata,
		validation.Field(&r.Metadata.Name, validation.Required, validation.Length(1, 200)),
		validation.Field(&r.Metadata.Sex,
			validation.In("stallion", "mare", "gelding", "colt", "filly")),
	)
}

// AppendEventRequest appends one lifecycle event.
type AppendEventRequest struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Timestamp   string         `json:"timestamp,omitempty"`
	EventType   string         `json:"eventType,omitempty"`
	Data        map[string]any `json:"data,omitempty"`
}

// Validate validates the event request.
func (r AppendEventRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Description, validation.Required),
	)
}

// MediaUploadResponse returns the content handles of uploaded blobs.
type MediaUploadResponse struct {
	Handles []string `json:"handles"`
}
