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

// QueryMessages returns every message of a session in ascending timestamp order.
func (c *Client) QueryMessages(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if sessionID == "" {
		return nil, errors.New("repository: QueryMessages: session id is required")
	}

	p := dynamodb.NewQueryPaginator(c.api, &dynamodb.QueryInput{
		TableName:              tableName(c.messagesTable),
		KeyConditionExpression: aws.String("#sid = :sid"),
		ExpressionAttributeNames: map[string]string{
			"#sid": attrSessionID,
		},
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":sid": &types.AttributeValueMemberS{Value: sessionID},
		},
		ScanIndexForward: aws.Bool(true),
	})

	var msgs []domain.Message
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrap("QueryMessages", err)
		}
		for _, item := range page.Items {
			msg, err := itemToMessage(item)
			if err != nil {
				return nil, fmt.Errorf("repository: QueryMessages unmarshal: %w", err)
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// ScanMessages returns every message in the table, in no particular order.
func (c *Client) ScanMessages(ctx context.Context) ([]domain.Message, error) {
	p := dynamodb.NewScanPaginator(c.api, &dynamodb.ScanInput{
		TableName: tableName(c.messagesTable),
	})

	var msgs []domain.Message
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, wrap("ScanMessages", err)
		}
		for _, item := range page.Items {
			msg, err := itemToMessage(item)
			if err != nil {
				return nil, fmt.Errorf("repository: ScanMessages unmarshal: %w", err)
			}
			msgs = append(msgs, msg)
		}
	}
	return msgs, nil
}

// PutMessage persists a message, replacing any item with the same key.
func (c *Client) PutMessage(ctx context.Context, msg domain.Message) error {
	if msg.SessionID == "" {
		return errors.New("repository: PutMessage: session id is required")
	}

	_, err := c.api.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: tableName(c.messagesTable),
		Item:      messageItem(msg),
	})
	if err != nil {
		return wrap("PutMessage", err)
	}
	return nil
}

// DeleteMessages removes the given messages in batches.
func (c *Client) DeleteMessages(ctx context.Context, keys []domain.MessageKey) error {
	items := make([]map[string]types.AttributeValue, 0, len(keys))
	for _, k := range keys {
		items = append(items, messageKey(k))
	}
	return c.batchDelete(ctx, "DeleteMessages", c.messagesTable, items)
}

// itemToMessage converts a DynamoDB attribute map to a Message.
func itemToMessage(item map[string]types.AttributeValue) (domain.Message, error) {
	sid, err := strAttr(item, attrSessionID)
	if err != nil {
		return domain.Message{}, err
	}
	ts, err := int64Attr(item, attrTimestamp)
	if err != nil {
		return domain.Message{}, err
	}
	typ, _ := strAttr(item, attrType)        // allow empty
	content, _ := strAttr(item, attrContent) // allow empty

	return domain.Message{
		SessionID: sid,
		Timestamp: ts,
		Type:      domain.MessageType(typ),
		Content:   content,
	}, nil
}

func messageItem(msg domain.Message) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSessionID: &types.AttributeValueMemberS{Value: msg.SessionID},
		attrTimestamp: numAttr(msg.Timestamp),
		attrType:      &types.AttributeValueMemberS{Value: string(msg.Type)},
		attrContent:   &types.AttributeValueMemberS{Value: msg.Content},
	}
}

func messageKey(k domain.MessageKey) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		attrSessionID: &types.AttributeValueMemberS{Value: k.SessionID},
		attrTimestamp: numAttr(k.Timestamp),
	}
}
