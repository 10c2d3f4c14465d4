package contentstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"

	"github.com/imroc/req"

	"github.com/gabipgz/haras-project/internal/apperr"
)

// IPFS CIDv0 (Qm...) or CIDv1 (base32, baf...).
var cidPattern = regexp.MustCompile(`^(Qm[1-9A-HJ-NP-Za-km-z]{44}|baf[0-9a-z]{20,})$`)

// Pinata pins blobs to IPFS through the Pinata REST API and reads them
// back through a public gateway. Used for media attachments, which are
// too large for the ledger file service.
type Pinata struct {
	apiKey    string
	secretKey string
	apiURL    string
	gateway   string
}

// NewPinata creates a Pinata-backed store.
func NewPinata(apiKey, secretKey string) *Pinata {
	return &Pinata{
		apiKey:    apiKey,
		secretKey: secretKey,
		apiURL:    "https://api.pinata.cloud",
		gateway:   "https://gateway.pinata.cloud/ipfs",
	}
}

func (p *Pinata) authHeader() req.Header {
	return req.Header{
		"pinata_api_key":        p.apiKey,
		"pinata_secret_api_key": p.secretKey,
	}
}

// Put pins the blob and returns its CID.
func (p *Pinata) Put(ctx context.Context, data []byte) (string, error) {
	upload := req.FileUpload{
		File:      io.NopCloser(bytes.NewReader(data)),
		FieldName: "file",
		FileName:  "blob",
	}
	resp, err := req.Post(p.apiURL+"/pinning/pinFileToIPFS", ctx, p.authHeader(), upload)
	if err != nil {
		return "", apperr.Upstreamf("pin content", "", err)
	}
	if code := resp.Response().StatusCode; code != http.StatusOK {
		return "", apperr.Upstreamf("pin content", "", fmt.Errorf("pinata status %d", code))
	}
	var body struct {
		IpfsHash string `json:"IpfsHash"`
	}
	if err := resp.ToJSON(&body); err != nil {
		return "", apperr.Upstreamf("pin content", "", err)
	}
	if body.IpfsHash == "" {
		return "", apperr.Upstreamf("pin content", "", fmt.Errorf("pinata returned no hash"))
	}
	return body.IpfsHash, nil
}

// Get downloads a pinned blob through the gateway.
func (p *Pinata) Get(ctx context.Context, handle string) ([]byte, error) {
	if !p.IsHandle(handle) {
		return nil, fmt.Errorf("%w: content handle %q", apperr.ErrNotFound, handle)
	}
	resp, err := req.Get(p.gateway+"/"+handle, ctx)
	if err != nil {
		return nil, apperr.Upstreamf("fetch content", handle, err)
	}
	switch code := resp.Response().StatusCode; {
	case code == http.StatusNotFound:
		return nil, fmt.Errorf("%w: content handle %q", apperr.ErrNotFound, handle)
	case code != http.StatusOK:
		return nil, apperr.Upstreamf("fetch content", handle, fmt.Errorf("gateway status %d", code))
	}
	return resp.ToBytes()
}

// IsHandle reports whether s looks like an IPFS CID.
func (p *Pinata) IsHandle(s string) bool {
	return cidPattern.MatchString(s)
}
