// Package mirror reads public state from a Hedera mirror node REST
// endpoint. It needs no operator identity.
package mirror

import (
	"context"
	"fmt"
	"net/http"

	"github.com/imroc/req"

	"github.com/gabipgz/haras-project/internal/apperr"
)

// Default REST endpoints per network.
var networkBaseURLs = map[string]string{
	"mainnet":    "https://mainnet-public.mirrornode.hedera.com",
	"testnet":    "https://testnet.mirrornode.hedera.com",
	"previewnet": "https://previewnet.mirrornode.hedera.com",
}

// Client queries one mirror node.
type Client struct {
	baseURL string
}

// NewClient creates a mirror client for the named network.
func NewClient(network string) *Client {
	base, ok := networkBaseURLs[network]
	if !ok {
		base = networkBaseURLs["testnet"]
	}
	return &Client{baseURL: base}
}

// TokenBalance is one token held by an account.
type TokenBalance struct {
	TokenID string `json:"token_id"`
	Balance int64  `json:"balance"`
}

type balancesResponse struct {
	Balances []struct {
		Account string         `json:"account"`
		Tokens  []TokenBalance `json:"tokens"`
	} `json:"balances"`
}

// AccountTokens returns the token ids the account holds a balance in,
// which for an operator treasury is the set of collections it created.
func (c *Client) AccountTokens(ctx context.Context, accountID string) ([]TokenBalance, error) {
	url := fmt.Sprintf("%s/api/v1/balances", c.baseURL)
	resp, err := req.Get(url, ctx, req.QueryParam{"account.id": accountID})
	if err != nil {
		return nil, apperr.Upstreamf("mirror balances", accountID, err)
	}
	switch code := resp.Response().StatusCode; {
	case code == http.StatusNotFound:
		return nil, fmt.Errorf("%w: account %q", apperr.ErrNotFound, accountID)
	case code != http.StatusOK:
		return nil, apperr.Upstreamf("mirror balances", accountID,
			fmt.Errorf("mirror status %d", code))
	}
	var body balancesResponse
	if err := resp.ToJSON(&body); err != nil {
		return nil, apperr.Upstreamf("mirror balances", accountID, err)
	}
	if len(body.Balances) == 0 {
		return nil, nil
	}
	return body.Balances[0].Tokens, nil
}
