package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"career-advisor/internal/domain"
)

// ScanSessions returns every session index entry.
func (c *Client) ScanSessions(ctx context.Context) ([]domain.SessionIndexEntry, error) {
	p := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName: tableName(c.sessionsTable),
	})

	var entries []domain.SessionIndexEntry
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrap("ScanSessions", err)
		}
		for _, item := range page.Items {
			entry, err := itemToSession(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ScanSessions unmarshal: %w", err)
			}
			entries = append(entries, entry)
		}
	}
	return entries, nil
}

// CreateSession writes the index entry only if none exists for the session.
// An existing entry yields an error wrapping domain.ErrConflict.
func (c *Client) CreateSession(ctx context.Context, entry domain.SessionIndexEntry) error {
	if entry.SessionID == "" {
		return errors.New("repository: CreateSession: session id is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName:           tableName(c.sessionsTable),
		Item:                sessionItem(entry),
		ConditionExpression: aws.String("attribute_not_exists(#sid)"),
		ExpressionAttributeNames: map[string]string{
			"#sid": attrSessionID,
		},
	})
	if err != nil {
		return wrap("CreateSession", err)
	}
	return nil
}

// DeleteSession removes a single index entry. Deleting a missing entry is not an error.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("repository: DeleteSession: session id is required")
	}

	_, err := c.api.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: tableName(c.sessionsTable),
		Key:       sessionKey(sessionID),
	})
	if err != nil {
		return wrap("DeleteSession", err)
	}
	return nil
}

// DeleteSessions removes the given index entries in batches.
func (c *Client) DeleteSessions(ctx context.Context, sessionIDs []string) error {
	items := make([]map[string]types.AttributeValue, 0, len(sessionIDs))
	for _, id := range sessionIDs {
		items = append(items, sessionKey(id))
	}
	return c.batchDelete(ctx, "DeleteSessions", c.sessionsTable, items)
}

// itemToSession decodes an index entry. Title and createdAt may be absent.
func itemToSession(item map[string]types.AttributeValue) (domain.SessionIndexEntry, error) {
	sid, err := strAttr(item, attrSessionID)
	if err != nil {
		return domain.SessionIndexEntry{}, err
	}
	title, _ := strAttr(item, attrTitle)
	createdAt, _ := int64Attr(item, attrCreatedAt)

	return domain.SessionIndexEntry{
		SessionID: sid,
		Title:     title,
		CreatedAt: createdAt,
	}, nil
}

func sessionItem(entry domain.SessionIndexEntry) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSessionID: &types.AttributeValueMemberS{Value: entry.SessionID},
		attrTitle:     &types.AttributeValueMemberS{Value: entry.Title},
		attrCreatedAt: numAttr(entry.CreatedAt),
	}
}

func sessionKey(sessionID string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSessionID: &types.AttributeValueMemberS{Value: sessionID},
	}
}
