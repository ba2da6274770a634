package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"career-advisor/internal/domain"
)

const (
	attrSessionID = "sessionId"
	attrTimestamp = "timestamp"
	attrType      = "type"
	attrContent   = "content"
	attrTitle     = "title"
	attrCreatedAt = "createdAt"

	// maxBatchSize is the DynamoDB limit of write requests per BatchWriteItem call.
	maxBatchSize = 25
	// maxBatchAttempts bounds how many times unprocessed items are resubmitted.
	maxBatchAttempts = 3
)

// dynamodbAPI is the minimal DynamoDB interface required by Client.
// Defined here for testability.
type dynamodbAPI interface {
	Query(ctx context.Context, in *dynamodb.QueryInput, optFns ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error)
	Scan(ctx context.Context, in *dynamodb.ScanInput, optFns ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error)
	PutItem(ctx context.Context, in *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	DeleteItem(ctx context.Context, in *dynamodb.DeleteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error)
	BatchWriteItem(ctx context.Context, in *dynamodb.BatchWriteItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error)
}

// Client wraps the messages and session index tables.
type Client struct {
	api           dynamodbAPI
	messagesTable string
	sessionsTable string
}

// New creates a new repository Client.
func New(api dynamodbAPI, messagesTable, sessionsTable string) (*Client, error) {
	if api == nil {
		return nil, errors.New("repository: api must not be nil")
	}
	if strings.TrimSpace(messagesTable) == "" {
		return nil, errors.New("repository: messages table name must not be empty")
	}
	if strings.TrimSpace(sessionsTable) == "" {
		return nil, errors.New("repository: session index table name must not be empty")
	}
	return &Client{api: api, messagesTable: messagesTable, sessionsTable: sessionsTable}, nil
}

// wrap annotates err with the operation name and classifies well-known
// DynamoDB failures as domain errors.
func wrap(op string, err error) error {
	var ccf *types.ConditionalCheckFailedException
	if errors.As(err, &ccf) {
		return fmt.Errorf("repository: %s: %w: %w", op, domain.ErrConflict, err)
	}
	var rnf *types.ResourceNotFoundException
	if errors.As(err, &rnf) {
		return fmt.Errorf("repository: %s: %w: %w", op, domain.ErrNotFound, err)
	}
	return fmt.Errorf("repository: %s: %w", op, err)
}

// batchDelete removes keys from table in chunks of maxBatchSize.
func (c *Client) batchDelete(ctx context.Context, op, table string, keys []map[string]types.AttributeValue) error {
	for start := 0; start < len(keys); start += maxBatchSize {
		end := min(start+maxBatchSize, len(keys))

		reqs := make([]types.WriteRequest, 0, end-start)
		for _, key := range keys[start:end] {
			reqs = append(reqs, types.WriteRequest{DeleteRequest: &types.DeleteRequest{Key: key}})
		}

		pending := map[string][]types.WriteRequest{table: reqs}
		for attempt := 0; len(pending[table]) > 0; attempt++ {
			if attempt == maxBatchAttempts {
				return fmt.Errorf("repository: %s: %d items left unprocessed", op, len(pending[table]))
			}
			out, err := c.api.BatchWriteItem(ctx, &dynamodb.BatchWriteItemInput{RequestItems: pending})
			if err != nil {
				return wrap(op, err)
			}
			if out == nil {
				break
			}
			pending = out.UnprocessedItems
		}
	}
	return nil
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

func int64Attr(item map[string]types.AttributeValue, key string) (int64, error) {
	v, ok := item[key]
	if !ok {
		return 0, fmt.Errorf("repository: missing attribute %q", key)
	}
	n, ok := v.(*types.AttributeValueMemberN)
	if !ok {
		return 0, fmt.Errorf("repository: attribute %q is not a number", key)
	}
	// Numbers written by other clients may carry a fractional part.
	parsed, err := strconv.ParseFloat(n.Value, 64)
	if err != nil {
		return 0, fmt.Errorf("repository: parse attribute %q: %w", key, err)
	}
	return int64(parsed), nil
}

func numAttr(v int64) *types.AttributeValueMemberN {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(v, 10)}
}

func tableName(name string) *string {
	return aws.String(name)
}
