package session

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
)

type dynamoAPI interface {
	GetItem(context.Context, *dynamodb.GetItemInput, ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(context.Context, *dynamodb.PutItemInput, ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Scan(context.Context, *dynamodb.ScanInput, ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// dynamoRecord is the table row. Version guards read-modify-write cycles.
type dynamoRecord struct {
	UserID            string   `dynamodbav:"userId"`
	State             string   `dynamodbav:"state"`
	WelcomeShown      bool     `dynamodbav:"welcomeShown"`
	Cart              []string `dynamodbav:"cart"`
	PendingItem       string   `dynamodbav:"pendingItem,omitempty"`
	ActiveCategory    string   `dynamodbav:"activeCategory,omitempty"`
	LastOrderID       string   `dynamodbav:"lastOrderId,omitempty"`
	LastInteractionAt string   `dynamodbav:"lastInteractionAt"`
	Version           int64    `dynamodbav:"version"`
	ExpiresAt         int64    `dynamodbav:"expiresAt,omitempty"`
}

// DynamoRepository stores sessions in a DynamoDB table keyed by userId.
type DynamoRepository struct {
	client    dynamoAPI
	tableName string
	ttl       time.Duration
	now       func() time.Time
}

var _ Repository = (*DynamoRepository)(nil)

// NewDynamoRepository builds a repository on the given table. A zero ttl
// leaves expiresAt unset.
func NewDynamoRepository(client dynamoAPI, tableName string, ttl time.Duration) *DynamoRepository {
	if client == nil {
		panic("session: dynamodb client cannot be nil")
	}
	if tableName == "" {
		panic("session: table name cannot be empty")
	}
	return &DynamoRepository{
		client:    client,
		tableName: tableName,
		ttl:       ttl,
		now:       time.Now,
	}
}

func (r *DynamoRepository) Get(ctx context.Context, userID string) (Session, error) {
	s, _, err := r.getOrCreate(ctx, userID)
	return s, err
}

func (r *DynamoRepository) Update(ctx context.Context, userID string, patch Patch) (Session, error) {
	return r.mutate(ctx, userID, func(s Session) Session {
		return s.Apply(patch, r.now())
	})
}

func (r *DynamoRepository) ClearCart(ctx context.Context, userID string) error {
	_, err := r.mutate(ctx, userID, func(s Session) Session {
		s.Cart = []string{}
		return s
	})
	return err
}

func (r *DynamoRepository) Lookup(ctx context.Context, userID string) (Session, error) {
	s, _, err := r.fetch(ctx, userID)
	return s, err
}

// Count scans the table with Select=COUNT. Fine for the single-tenant volumes
// this bot serves; a counter item would be needed for large tables.
func (r *DynamoRepository) Count(ctx context.Context) (int, error) {
	var (
		total int
		start map[string]types.AttributeValue
	)
	for {
		out, err := r.client.Scan(ctx, &dynamodb.ScanInput{
			TableName:         aws.String(r.tableName),
			Select:            types.SelectCount,
			ExclusiveStartKey: start,
		})
		if err != nil {
			return 0, fmt.Errorf("session: count: %w", err)
		}
		total += int(out.Count)
		if len(out.LastEvaluatedKey) == 0 {
			return total, nil
		}
		start = out.LastEvaluatedKey
	}
}

func (r *DynamoRepository) mutate(ctx context.Context, userID string, fn func(Session) Session) (Session, error) {
	for attempt := 0; attempt < 3; attempt++ {
		current, version, err := r.getOrCreate(ctx, userID)
		if err != nil {
			return Session{}, err
		}
		next := fn(current)
		err = r.put(ctx, next, version)
		if err == nil {
			return next, nil
		}
		var ccf *types.ConditionalCheckFailedException
		if errors.As(err, &ccf) {
			continue
		}
		return Session{}, err
	}
	return Session{}, fmt.Errorf("session: update %s: version conflict", userID)
}

func (r *DynamoRepository) getOrCreate(ctx context.Context, userID string) (Session, int64, error) {
	s, version, err := r.fetch(ctx, userID)
	if err == nil {
		return s, version, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return Session{}, 0, err
	}

	fresh := New(userID, r.now())
	err = r.put(ctx, fresh, 0)
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return r.fetch(ctx, userID)
	}
	if err != nil {
		return Session{}, 0, err
	}
	return fresh, 1, nil
}

func (r *DynamoRepository) fetch(ctx context.Context, userID string) (Session, int64, error) {
	out, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(r.tableName),
		ConsistentRead: aws.Bool(true),
		Key: map[string]types.AttributeValue{
			"userId": &types.AttributeValueMemberS{Value: userID},
		},
	})
	if err != nil {
		return Session{}, 0, fmt.Errorf("session: fetch %s: %w", userID, err)
	}
	if out.Item == nil {
		return Session{}, 0, ErrNotFound
	}
	var rec dynamoRecord
	if err := attributevalue.UnmarshalMap(out.Item, &rec); err != nil {
		return Session{}, 0, fmt.Errorf("session: decode %s: %w", userID, err)
	}
	return rec.session(), rec.Version, nil
}

// put writes s when the stored version still equals expected (0 = must not exist).
func (r *DynamoRepository) put(ctx context.Context, s Session, expected int64) error {
	rec := recordFromSession(s)
	rec.Version = expected + 1
	if r.ttl > 0 {
		rec.ExpiresAt = r.now().Add(r.ttl).Unix()
	}
	item, err := attributevalue.MarshalMap(rec)
	if err != nil {
		return fmt.Errorf("session: marshal: %w", err)
	}

	input := &dynamodb.PutItemInput{
		TableName: aws.String(r.tableName),
		Item:      item,
	}
	if expected == 0 {
		input.ConditionExpression = aws.String("attribute_not_exists(userId)")
	} else {
		input.ConditionExpression = aws.String("#version = :expected")
		input.ExpressionAttributeNames = map[string]string{"#version": "version"}
		input.ExpressionAttributeValues = map[string]types.AttributeValue{
			":expected": &types.AttributeValueMemberN{Value: strconv.FormatInt(expected, 10)},
		}
	}
	if _, err := r.client.PutItem(ctx, input); err != nil {
		return fmt.Errorf("session: persist %s: %w", s.UserID, err)
	}
	return nil
}

func recordFromSession(s Session) dynamoRecord {
	cart := s.Cart
	if cart == nil {
		cart = []string{}
	}
	return dynamoRecord{
		UserID:            s.UserID,
		State:             string(s.State),
		WelcomeShown:      s.WelcomeShown,
		Cart:              cart,
		PendingItem:       s.PendingItem,
		ActiveCategory:    s.ActiveCategory,
		LastOrderID:       s.LastOrderID,
		LastInteractionAt: s.LastInteractionAt.UTC().Format(time.RFC3339Nano),
	}
}

func (rec dynamoRecord) session() Session {
	at, _ := time.Parse(time.RFC3339Nano, rec.LastInteractionAt)
	cart := rec.Cart
	if cart == nil {
		cart = []string{}
	}
	return Session{
		UserID:            rec.UserID,
		State:             State(rec.State),
		WelcomeShown:      rec.WelcomeShown,
		Cart:              cart,
		PendingItem:       rec.PendingItem,
		ActiveCategory:    rec.ActiveCategory,
		LastOrderID:       rec.LastOrderID,
		LastInteractionAt: at,
	}
}
