package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hashgraph/hedera-sdk-go/v2"
	"google.golang.org/grpc/status"

	"github.com/gabipgz/haras-project/internal/apperr"
)

// Hedera implements Client against the Hedera network through the
// operator session.
type Hedera struct {
	session *Session
}

// NewHedera creates the Hedera-backed ledger client.
func NewHedera(session *Session) *Hedera {
	return &Hedera{session: session}
}

// maxFee caps transaction fees the way the original deployment did.
var maxFee = hedera.NewHbar(2)

// CreateAssetClass creates a finite non-fungible token class with the
// operator as treasury and supply key.
func (h *Hedera) CreateAssetClass(ctx context.Context, name, symbol string) (string, error) {
	client, operator, key, release, err := h.session.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	tx, err := hedera.NewTokenCreateTransaction().
		SetTokenName(name).
		SetTokenSymbol(symbol).
		SetTokenType(hedera.TokenTypeNonFungibleUnique).
		SetDecimals(0).
		SetInitialSupply(0).
		SetTreasuryAccountID(operator).
		SetSupplyType(hedera.TokenSupplyTypeFinite).
		SetMaxSupply(1_000_000).
		SetSupplyKey(key.PublicKey()).
		FreezeWith(client)
	if err != nil {
		return "", apperr.Upstreamf("create asset class", name, err)
	}
	resp, err := tx.Sign(key).Execute(client)
	if err != nil {
		return "", apperr.Upstreamf("create asset class", name, err)
	}
	receipt, err := resp.GetReceipt(client)
	if err != nil {
		return "", apperr.Upstreamf("create asset class", name, err)
	}
	tokenID := receipt.TokenID.String()
	slog.Info("token class created",
		slog.String("token_id", tokenID), slog.String("symbol", symbol))
	return tokenID, nil
}

// MintUnit mints one unit. The metadata bytes are capped at the
// ledger's native budget; callers mint a content handle for anything
// larger.
func (h *Hedera) MintUnit(ctx context.Context, tokenID string, metadata []byte) (int64, error) {
	if len(metadata) > InlineMetadataLimit {
		return 0, fmt.Errorf("ledger: mint metadata %d bytes exceeds limit %d",
			len(metadata), InlineMetadataLimit)
	}
	client, _, key, release, err := h.session.acquire()
	if err != nil {
		return 0, err
	}
	defer release()

	tid, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return 0, fmt.Errorf("%w: token id %q", apperr.ErrNotFound, tokenID)
	}
	tx, err := hedera.NewTokenMintTransaction().
		SetTokenID(tid).
		SetMetadata(metadata).
		FreezeWith(client)
	if err != nil {
		return 0, apperr.Upstreamf("mint unit", tokenID, err)
	}
	resp, err := tx.Sign(key).Execute(client)
	if err != nil {
		return 0, apperr.Upstreamf("mint unit", tokenID, err)
	}
	receipt, err := resp.GetReceipt(client)
	if err != nil {
		return 0, apperr.Upstreamf("mint unit", tokenID, err)
	}
	if len(receipt.SerialNumbers) == 0 {
		return 0, apperr.Upstreamf("mint unit", tokenID, fmt.Errorf("receipt carries no serial"))
	}
	serial := receipt.SerialNumbers[0]
	slog.Info("unit minted", slog.String("token_id", tokenID), slog.Int64("serial", serial))
	return serial, nil
}

// CreateTopic creates an append-only topic with admin and submit
// authority bound to the operator.
func (h *Hedera) CreateTopic(ctx context.Context, memo string) (string, error) {
	client, _, key, release, err := h.session.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	resp, err := hedera.NewTopicCreateTransaction().
		SetAdminKey(key.PublicKey()).
		SetSubmitKey(key.PublicKey()).
		SetTopicMemo(memo).
		SetMaxTransactionFee(maxFee).
		Execute(client)
	if err != nil {
		return "", apperr.Upstreamf("create topic", memo, err)
	}
	receipt, err := resp.GetReceipt(client)
	if err != nil {
		return "", apperr.Upstreamf("create topic", memo, err)
	}
	return receipt.TopicID.String(), nil
}

// SubmitMessage appends one message to a topic.
func (h *Hedera) SubmitMessage(ctx context.Context, topicID string, payload []byte) (string, error) {
	client, _, key, release, err := h.session.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	tid, err := hedera.TopicIDFromString(topicID)
	if err != nil {
		return "", fmt.Errorf("%w: topic id %q", apperr.ErrNotFound, topicID)
	}
	tx, err := hedera.NewTopicMessageSubmitTransaction().
		SetTopicID(tid).
		SetMessage(payload).
		FreezeWith(client)
	if err != nil {
		return "", apperr.Upstreamf("submit message", topicID, err)
	}
	resp, err := tx.Sign(key).Execute(client)
	if err != nil {
		return "", apperr.Upstreamf("submit message", topicID, err)
	}
	receipt, err := resp.GetReceipt(client)
	if err != nil {
		return "", apperr.Upstreamf("submit message", topicID, err)
	}
	return receipt.Status.String(), nil
}

type hederaSubscription struct {
	handle hedera.SubscriptionHandle
}

func (s *hederaSubscription) Unsubscribe() { s.handle.Unsubscribe() }

// Subscribe opens a topic message stream from start onward. The read
// lock is released once the stream is set up; an operator swap does not
// tear down streams already in flight.
func (h *Hedera) Subscribe(ctx context.Context, topicID string, start time.Time,
	onMessage func(Message), onError func(error)) (Subscription, error) {

	client, _, _, release, err := h.session.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	tid, err := hedera.TopicIDFromString(topicID)
	if err != nil {
		return nil, fmt.Errorf("%w: topic id %q", apperr.ErrNotFound, topicID)
	}
	handle, err := hedera.NewTopicMessageQuery().
		SetTopicID(tid).
		SetStartTime(start).
		SetErrorHandler(func(stat status.Status) {
			onError(stat.Err())
		}).
		Subscribe(client, func(msg hedera.TopicMessage) {
			onMessage(Message{
				Contents:      msg.Contents,
				ConsensusTime: msg.ConsensusTimestamp,
				Sequence:      msg.SequenceNumber,
			})
		})
	if err != nil {
		return nil, apperr.Upstreamf("subscribe", topicID, err)
	}
	return &hederaSubscription{handle: handle}, nil
}

// CreateFile stores an immutable blob on the file service. No keys on
// the file means nobody can ever change it.
func (h *Hedera) CreateFile(ctx context.Context, contents []byte) (string, error) {
	client, _, key, release, err := h.session.acquire()
	if err != nil {
		return "", err
	}
	defer release()

	tx, err := hedera.NewFileCreateTransaction().
		SetKeys().
		SetContents(contents).
		SetMaxTransactionFee(maxFee).
		FreezeWith(client)
	if err != nil {
		return "", apperr.Upstreamf("create file", "", err)
	}
	resp, err := tx.Sign(key).Execute(client)
	if err != nil {
		return "", apperr.Upstreamf("create file", "", err)
	}
	receipt, err := resp.GetReceipt(client)
	if err != nil {
		return "", apperr.Upstreamf("create file", "", err)
	}
	return receipt.FileID.String(), nil
}

// FileContents retrieves an immutable blob by handle.
func (h *Hedera) FileContents(ctx context.Context, fileID string) ([]byte, error) {
	client, _, _, release, err := h.session.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	fid, err := hedera.FileIDFromString(fileID)
	if err != nil {
		return nil, fmt.Errorf("%w: file id %q", apperr.ErrNotFound, fileID)
	}
	contents, err := hedera.NewFileContentsQuery().
		SetFileID(fid).
		Execute(client)
	if err != nil {
		return nil, apperr.Upstreamf("file contents", fileID, err)
	}
	return contents, nil
}

// ClassInfo looks up a token class.
func (h *Hedera) ClassInfo(ctx context.Context, tokenID string) (*ClassInfo, error) {
	client, _, _, release, err := h.session.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	tid, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: token id %q", apperr.ErrNotFound, tokenID)
	}
	info, err := hedera.NewTokenInfoQuery().
		SetTokenID(tid).
		Execute(client)
	if err != nil {
		return nil, apperr.Upstreamf("class info", tokenID, err)
	}
	return &ClassInfo{
		TokenID:     tokenID,
		Name:        info.Name,
		Symbol:      info.Symbol,
		Memo:        info.TokenMemo,
		TotalSupply: int64(info.TotalSupply),
		MaxSupply:   info.MaxSupply,
	}, nil
}

// UnitInfo looks up one minted unit.
func (h *Hedera) UnitInfo(ctx context.Context, tokenID string, serial int64) (*UnitInfo, error) {
	client, _, _, release, err := h.session.acquire()
	if err != nil {
		return nil, err
	}
	defer release()

	tid, err := hedera.TokenIDFromString(tokenID)
	if err != nil {
		return nil, fmt.Errorf("%w: token id %q", apperr.ErrNotFound, tokenID)
	}
	infos, err := hedera.NewTokenNftInfoQuery().
		SetNftID(hedera.NftID{TokenID: tid, SerialNumber: serial}).
		Execute(client)
	if err != nil {
		return nil, apperr.Upstreamf("unit info", fmt.Sprintf("%s:%d", tokenID, serial), err)
	}
	if len(infos) == 0 {
		return nil, fmt.Errorf("%w: unit %s:%d", apperr.ErrNotFound, tokenID, serial)
	}
	info := infos[0]
	return &UnitInfo{
		TokenID:   tokenID,
		Serial:    serial,
		Owner:     info.AccountID.String(),
		Metadata:  info.Metadata,
		CreatedAt: info.CreationTime,
	}, nil
}
