// Package dynamo stores file records in a DynamoDB table keyed by "id".
package dynamo

import (
	"alcyxob/anyshare/internal/domain"
	"alcyxob/anyshare/internal/repository"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
)

// API is the subset of the DynamoDB client the repository uses.
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	DeleteItem(ctx context.Context, params *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	Scan(ctx context.Context, params *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	DescribeTable(ctx context.Context, params *dynamodb.DescribeTableInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DescribeTableOutput, error)
}

// fileItem is the table layout. Expiry is stored as epoch milliseconds so it compares numerically.
type fileItem struct {
	ID        string `dynamodbav:"id"`
	FilePath  string `dynamodbav:"file_path"`
	FileName  string `dynamodbav:"file_name"`
	FileSize  int64  `dynamodbav:"file_size"`
	ExpiresAt int64  `dynamodbav:"expires_at"`
}

func toItem(rec *domain.FileRecord) fileItem {
	return fileItem{
		ID:        rec.ID,
		FilePath:  rec.FilePath,
		FileName:  rec.FileName,
		FileSize:  rec.FileSize,
		ExpiresAt: rec.ExpiresAt.UnixMilli(),
	}
}

func (it fileItem) record() domain.FileRecord {
	return domain.FileRecord{
		ID:        it.ID,
		FilePath:  it.FilePath,
		FileName:  it.FileName,
		FileSize:  it.FileSize,
		ExpiresAt: time.UnixMilli(it.ExpiresAt).UTC(),
	}
}

type FileStore struct {
	client    API
	tableName string
}

// NewClient builds a DynamoDB client from the default credential chain.
// endpoint overrides the service URL (localstack, DynamoDB Local) when set.
func NewClient(ctx context.Context, region, endpoint string) (*dynamodb.Client, error) {
	cfg, err := awsCfg.LoadDefaultConfig(ctx, awsCfg.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return dynamodb.NewFromConfig(cfg, func(o *dynamodb.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

func NewFileStore(client API, tableName string) *FileStore {
	return &FileStore{client: client, tableName: tableName}
}

func (s *FileStore) key(id string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"id": &types.AttributeValueMemberS{Value: id},
	}
}

func (s *FileStore) Create(ctx context.Context, rec *domain.FileRecord) error {
	item, err := attributevalue.MarshalMap(toItem(rec))
	if err != nil {
		return fmt.Errorf("marshal file %s: %w", rec.ID, err)
	}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           aws.String(s.tableName),
		Item:                item,
		ConditionExpression: aws.String("attribute_not_exists(id)"),
	})
	if err != nil {
		var condErr *types.ConditionalCheckFailedException
		if errors.As(err, &condErr) {
			return repository.ErrDuplicate
		}
		return fmt.Errorf("put file %s: %w", rec.ID, err)
	}
	return nil
}

func (s *FileStore) GetByID(ctx context.Context, id string) (*domain.FileRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.tableName),
		Key:            s.key(id),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	if out.Item == nil {
		return nil, repository.ErrNotFound
	}

	var item fileItem
	if err = attributevalue.UnmarshalMap(out.Item, &item); err != nil {
		return nil, fmt.Errorf("unmarshal file %s: %w", id, err)
	}
	rec := item.record()
	return &rec, nil
}

func (s *FileStore) Delete(ctx context.Context, id string) (domain.DeleteResult, error) {
	out, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName:    aws.String(s.tableName),
		Key:          s.key(id),
		ReturnValues: types.ReturnValueAllOld,
	})
	if err != nil {
		return 0, fmt.Errorf("delete file %s: %w", id, err)
	}
	if len(out.Attributes) == 0 {
		return domain.AlreadyAbsent, nil
	}
	return domain.Deleted, nil
}

// ListExpired scans the table. Acceptable for the small, short-lived tables this service keeps.
func (s *FileStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]domain.FileRecord, error) {
	input := &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("expires_at <= :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":now": &types.AttributeValueMemberN{Value: fmt.Sprint(now.UnixMilli())},
		},
	}

	var records []domain.FileRecord
	for {
		out, err := s.client.Scan(ctx, input)
		if err != nil {
			return nil, fmt.Errorf("scan expired files: %w", err)
		}

		var items []fileItem
		if err = attributevalue.UnmarshalListOfMaps(out.Items, &items); err != nil {
			return nil, fmt.Errorf("unmarshal expired files: %w", err)
		}
		for _, it := range items {
			records = append(records, it.record())
			if len(records) == limit {
				return records, nil
			}
		}

		if len(out.LastEvaluatedKey) == 0 {
			return records, nil
		}
		input.ExclusiveStartKey = out.LastEvaluatedKey
	}
}

func (s *FileStore) Ping(ctx context.Context) error {
	_, err := s.client.DescribeTable(ctx, &dynamodb.DescribeTableInput{
		TableName: aws.String(s.tableName),
	})
	return err
}
