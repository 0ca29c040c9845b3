package dynamo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/qr-login-api/internal/domain"
	"github.com/qr-login-api/internal/pkg/code"
)

// HandshakeRepo stores cross-device login handshakes.
// PK: code. TTL attribute: expires_at (native eviction is an optimization;
// every caller re-checks expiry inline, so correctness never depends on it).
type HandshakeRepo struct {
	client    *dynamodb.Client
	tableName string
	codeBytes int
}

func NewHandshakeRepo(client *dynamodb.Client, tableName string, codeBytes int) *HandshakeRepo {
	return &HandshakeRepo{client: client, tableName: tableName, codeBytes: codeBytes}
}

// Create generates a fresh code and inserts a pending handshake expiring at
// now+ttl. The conditional put guards against a code collision; at 128 bits
// a retry should never happen in practice.
func (r *HandshakeRepo) Create(ctx context.Context, ttl time.Duration) (*domain.HandshakeSession, error) {
	now := time.Now().UTC()
	for attempt := 0; attempt < 3; attempt++ {
		c, err := code.New(r.codeBytes)
		if err != nil {
			return nil, err
		}
		h := &domain.HandshakeSession{
			Code:      c,
			Status:    domain.HandshakeStatusPending,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl).Unix(),
		}
		item, err := attributevalue.MarshalMap(h)
		if err != nil {
			return nil, fmt.Errorf("marshal handshake: %w", err)
		}
		_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
			TableName:           aws.String(r.tableName),
			Item:                item,
			ConditionExpression: aws.String("attribute_not_exists(code)"),
		})
		if err == nil {
			return h, nil
		}
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			continue
		}
		return nil, fmt.Errorf("put handshake: %w", err)
	}
	return nil, fmt.Errorf("could not allocate a unique handshake code: %w", domain.ErrUnavailable)
}

func (r *HandshakeRepo) Get(ctx context.Context, handshakeCode string) (*domain.HandshakeSession, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(r.tableName),
		Key:       strKey("code", handshakeCode),
	})
	if err != nil {
		return nil, err
	}
	if out.Item == nil {
		return nil, fmt.Errorf("handshake not found: %w", domain.ErrNotFound)
	}
	var h domain.HandshakeSession
	if err := attributevalue.UnmarshalMap(out.Item, &h); err != nil {
		return nil, err
	}
	return &h, nil
}

// TryBind atomically transitions pending -> authenticated and records the
// bound identity, but only while the record is pending and strictly before
// expires_at (the boundary instant counts as expired). Exactly one of any
// number of racing binds can succeed; the conditional update is the sole
// atomicity primitive, no in-process locks are involved.
//
// Outcomes: nil on success, domain.ErrConflict when already authenticated,
// domain.ErrNotFound when the code is unknown or expired (deliberately
// indistinguishable), any other error is a store failure.
func (r *HandshakeRepo) TryBind(ctx context.Context, handshakeCode, userID string, now time.Time) error {
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("code", handshakeCode),
		UpdateExpression:    aws.String("SET #s = :auth, #u = :uid"),
		ConditionExpression: aws.String("#s = :pending AND expires_at > :now"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldHandshakeStatus,
			"#u": fieldUserID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":auth":    &types.AttributeValueMemberS{Value: domain.HandshakeStatusAuthenticated},
			":uid":     &types.AttributeValueMemberS{Value: userID},
			":pending": &types.AttributeValueMemberS{Value: domain.HandshakeStatusPending},
			":now":     &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}
	var ccf *types.ConditionalCheckFailedException
	if !errors.As(err, &ccf) {
		return fmt.Errorf("bind handshake: %w", err)
	}
	// The returned old item tells us which precondition broke, without a
	// second read that could itself race.
	if len(ccf.Item) == 0 {
		return fmt.Errorf("handshake not found: %w", domain.ErrNotFound)
	}
	var h domain.HandshakeSession
	if uErr := attributevalue.UnmarshalMap(ccf.Item, &h); uErr != nil {
		return fmt.Errorf("unmarshal handshake: %w", uErr)
	}
	if h.Status == domain.HandshakeStatusAuthenticated {
		return fmt.Errorf("handshake already confirmed: %w", domain.ErrConflict)
	}
	// Still pending but past expires_at: report the same signal as a code
	// that never existed.
	return fmt.Errorf("handshake expired: %w", domain.ErrNotFound)
}

// DeleteExpired lazily evicts a record observed past its deadline. The
// condition only deletes pending, actually-expired rows, so an in-flight
// bind that won with an earlier clock capture is never wiped out.
// Best-effort: callers ignore the error.
func (r *HandshakeRepo) DeleteExpired(ctx context.Context, handshakeCode string, now time.Time) error {
	_, err := r.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:           aws.String(r.tableName),
		Key:                 strKey("code", handshakeCode),
		ConditionExpression: aws.String("#s = :pending AND expires_at <= :now"),
		ExpressionAttributeNames: map[string]string{
			"#s": fieldHandshakeStatus,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":pending": &types.AttributeValueMemberS{Value: domain.HandshakeStatusPending},
			":now":     &types.AttributeValueMemberN{Value: strconv.FormatInt(now.Unix(), 10)},
		},
	})
	if err != nil {
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			return nil
		}
	}
	return err
}
