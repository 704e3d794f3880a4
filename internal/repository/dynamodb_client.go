package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"hackathon-assistant/internal/domain"
)

const (
	pkPrefix         = "HACKATHON#"
	skDocument       = "DOC"
	DefaultSlugIndex = "slug-index"
)

// dynamodbAPI is the minimal DynamoDB interface required by DynamoStore.
// Defined here for testability.
type dynamodbAPI interface {
	GetItem(ctx context.Context, in *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
}

// DynamoStore keeps one item per hackathon. The raw document is stored as
// JSON next to the key attributes; slug is only written when present so
// the slug index stays sparse.
type DynamoStore struct {
	api       dynamodbAPI
	tableName string
	slugIndex string
	logger    *slog.Logger
	now       func() time.Time
}

func NewDynamoStore(api dynamodbAPI, tableName, slugIndex string, logger *slog.Logger) (*DynamoStore, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(tableName) == "" {
		return nil, errors.New("repository: table name must not be empty")
	}
	if strings.TrimSpace(slugIndex) == "" {
		slugIndex = DefaultSlugIndex
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &DynamoStore{
		api:       api,
		tableName: tableName,
		slugIndex: slugIndex,
		logger:    logger.With(slog.String("module", "dynamodb_store")),
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

func hackathonPK(id string) string {
	return pkPrefix + id
}

func (s *DynamoStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"PK": &types.AttributeValueMemberS{Value: hackathonPK(id)},
		"SK": &types.AttributeValueMemberS{Value: skDocument},
	}
}

func (s *DynamoStore) Get(ctx context.Context, id string) (domain.Hackathon, bool) {
	doc, ok := s.getDocument(ctx, id)
	if !ok {
		return domain.Hackathon{}, false
	}
	h, err := doc.Hackathon()
	if err != nil {
		s.logger.Warn("decode hackathon failed", slog.String("hackathon_id", id), slog.Any("error", err))
		return domain.Hackathon{}, false
	}
	return h, true
}

func (s *DynamoStore) GetBySlug(ctx context.Context, slug string) (domain.Hackathon, bool) {
	out, err := s.api.Query(ctx, &dynamodb.QueryInput{
		TableName:              aws.String(s.tableName),
		IndexName:              aws.String(s.slugIndex),
		KeyConditionExpression: aws.String("slug = :slug"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":slug": &types.AttributeValueMemberS{Value: slug},
		},
		Limit: aws.Int32(1),
	})
	if err != nil {
		s.logger.Warn("query by slug failed", slog.String("slug", slug), slog.Any("error", err))
		return domain.Hackathon{}, false
	}
	if out == nil || len(out.Items) == 0 {
		return domain.Hackathon{}, false
	}
	h, err := itemToHackathon(out.Items[0])
	if err != nil {
		s.logger.Warn("decode hackathon failed", slog.String("slug", slug), slog.Any("error", err))
		return domain.Hackathon{}, false
	}
	return h, true
}

// ListAll scans the table page by page. Items that fail to decode are
// skipped; a failed page ends the listing with what was read so far.
func (s *DynamoStore) ListAll(ctx context.Context) []domain.Hackathon {
	paginator := dynamodb.NewScanPaginator(s.api, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("SK = :sk"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sk": &types.AttributeValueMemberS{Value: skDocument},
		},
	})

	out := []domain.Hackathon{}
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			s.logger.Warn("scan hackathons failed", slog.Any("error", err))
			return out
		}
		for _, item := range page.Items {
			h, err := itemToHackathon(item)
			if err != nil {
				s.logger.Warn("skipping undecodable hackathon", slog.Any("error", err))
				continue
			}
			out = append(out, h)
		}
	}
	return out
}

func (s *DynamoStore) Insert(ctx context.Context, doc domain.Document) bool {
	item, err := s.documentItem(doc)
	if err != nil {
		s.logger.Warn("encode hackathon failed", slog.Any("error", err))
		return false
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(PK)"),
	})
	if err != nil {
		s.logPutError("insert", doc.ID(), err)
		return false
	}
	return true
}

// Update merges partial into the stored document at the top level and
// writes it back only if the item still exists.
func (s *DynamoStore) Update(ctx context.Context, id string, partial domain.Document) bool {
	current, ok := s.getDocument(ctx, id)
	if !ok {
		return false
	}
	merged := current.Merge(partial)
	merged[domain.FieldID] = id

	item, err := s.documentItem(merged)
	if err != nil {
		s.logger.Warn("encode hackathon failed", slog.String("hackathon_id", id), slog.Any("error", err))
		return false
	}
	_, err = s.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_exists(PK)"),
	})
	if err != nil {
		s.logPutError("update", id, err)
		return false
	}
	return true
}

func (s *DynamoStore) getDocument(ctx context.Context, id string) (domain.Document, bool) {
	out, err := s.api.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key:       s.key(id),
	})
	if err != nil {
		s.logger.Warn("get hackathon failed", slog.String("hackathon_id", id), slog.Any("error", err))
		return nil, false
	}
	if out == nil || len(out.Item) == 0 {
		return nil, false
	}
	doc, err := itemToDocument(out.Item)
	if err != nil {
		s.logger.Warn("decode hackathon failed", slog.String("hackathon_id", id), slog.Any("error", err))
		return nil, false
	}
	return doc, true
}

func (s *DynamoStore) logPutError(op, id string, err error) {
	var condErr *types.ConditionalCheckFailedException
	if errors.As(err, &condErr) {
		s.logger.Info("conditional write rejected", slog.String("op", op), slog.String("hackathon_id", id))
		return
	}
	s.logger.Warn("put hackathon failed", slog.String("op", op), slog.String("hackathon_id", id), slog.Any("error", err))
}

func (s *DynamoStore) documentItem(doc domain.Document) (map[string]types.AttributeValue, error) {
	id := doc.ID()
	if id == "" {
		return nil, errors.New("repository: document has no id")
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("repository: marshal document: %w", err)
	}
	item := map[string]types.AttributeValue{
		"PK":        &types.AttributeValueMemberS{Value: hackathonPK(id)},
		"SK":        &types.AttributeValueMemberS{Value: skDocument},
		"id":        &types.AttributeValueMemberS{Value: id},
		"document":  &types.AttributeValueMemberS{Value: string(raw)},
		"updatedAt": &types.AttributeValueMemberS{Value: s.now().Format(time.RFC3339)},
	}
	if slug := doc.Slug(); slug != "" {
		item["slug"] = &types.AttributeValueMemberS{Value: slug}
	}
	if name := doc.Name(); name != "" {
		item["name"] = &types.AttributeValueMemberS{Value: name}
	}
	return item, nil
}

func itemToDocument(item map[string]types.AttributeValue) (domain.Document, error) {
	raw, err := strAttr(item, "document")
	if err != nil {
		return nil, err
	}
	var doc domain.Document
	if err := json.Unmarshal([]byte(raw), &doc); err != nil {
		return nil, fmt.Errorf("repository: unmarshal document: %w", err)
	}
	if doc == nil {
		return nil, errors.New("repository: document is not an object")
	}
	return doc, nil
}

func itemToHackathon(item map[string]types.AttributeValue) (domain.Hackathon, error) {
	raw, err := strAttr(item, "document")
	if err != nil {
		return domain.Hackathon{}, err
	}
	h, err := domain.DecodeHackathon([]byte(raw))
	if err != nil {
		return domain.Hackathon{}, fmt.Errorf("repository: decode hackathon: %w", err)
	}
	if h.ID == "" {
		if id, err := strAttr(item, "id"); err == nil {
			h.ID = domain.Text(id)
		}
	}
	return h, nil
}

func strAttr(item map[string]types.AttributeValue, key string) (string, error) {
	v, ok := item[key]
	if !ok {
		return "", fmt.Errorf("repository: missing attribute %q", key)
	}
	s, ok := v.(*types.AttributeValueMemberS)
	if !ok {
		return "", fmt.Errorf("repository: attribute %q is not a string", key)
	}
	return s.Value, nil
}
