package handler

import (
	"context"
	"net/http"
	"sort"
	"strconv"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/require"

	"career-advisor/internal/domain"
	"career-advisor/internal/repository"
	"career-advisor/internal/usecase"
)

type item = map[string]types.AttributeValue

// memDynamo keeps tables in memory. It understands just the requests the
// repository issues.
type memDynamo struct {
	tables map[string]map[string]item
	writes int
}

func newMemDynamo() *memDynamo {
	return &memDynamo{tables: map[string]map[string]item{}}
}

func itemKey(it item) string {
	k := it["sessionId"].(*types.AttributeValueMemberS).Value
	if ts, ok := it["timestamp"].(*types.AttributeValueMemberN); ok {
		k += "|" + ts.Value
	}
	return k
}

func (m *memDynamo) table(name *string) map[string]item {
	t, ok := m.tables[aws.ToString(name)]
	if !ok {
		t = map[string]item{}
		m.tables[aws.ToString(name)] = t
	}
	return t
}

func (m *memDynamo) Query(_ context.Context, in *dynamodb.QueryInput, _ ...func(*dynamodb.Options)) (*dynamodb.QueryOutput, error) {
	sid := in.ExpressionAttributeValues[":sid"].(*types.AttributeValueMemberS).Value
	var out []item
	for _, it := range m.table(in.TableName) {
		if it["sessionId"].(*types.AttributeValueMemberS).Value == sid {
			out = append(out, it)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.ParseInt(out[i]["timestamp"].(*types.AttributeValueMemberN).Value, 10, 64)
		b, _ := strconv.ParseInt(out[j]["timestamp"].(*types.AttributeValueMemberN).Value, 10, 64)
		return a < b
	})
	return &dynamodb.QueryOutput{Items: out}, nil
}

func (m *memDynamo) Scan(_ context.Context, in *dynamodb.ScanInput, _ ...func(*dynamodb.Options)) (*dynamodb.ScanOutput, error) {
	var out []item
	for _, it := range m.table(in.TableName) {
		out = append(out, it)
	}
	return &dynamodb.ScanOutput{Items: out}, nil
}

func (m *memDynamo) PutItem(_ context.Context, in *dynamodb.PutItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error) {
	t := m.table(in.TableName)
	k := itemKey(in.Item)
	if in.ConditionExpression != nil {
		if _, exists := t[k]; exists {
			return nil, &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed")}
		}
	}
	m.writes++
	t[k] = in.Item
	return &dynamodb.PutItemOutput{}, nil
}

func (m *memDynamo) DeleteItem(_ context.Context, in *dynamodb.DeleteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.DeleteItemOutput, error) {
	m.writes++
	delete(m.table(in.TableName), itemKey(in.Key))
	return &dynamodb.DeleteItemOutput{}, nil
}

func (m *memDynamo) BatchWriteItem(_ context.Context, in *dynamodb.BatchWriteItemInput, _ ...func(*dynamodb.Options)) (*dynamodb.BatchWriteItemOutput, error) {
	for name, reqs := range in.RequestItems {
		t := m.table(aws.String(name))
		for _, r := range reqs {
			m.writes++
			delete(t, itemKey(r.DeleteRequest.Key))
		}
	}
	return &dynamodb.BatchWriteItemOutput{}, nil
}

func newStack(t *testing.T) (*Handler, *memDynamo) {
	t.Helper()
	db := newMemDynamo()
	repo, err := repository.New(db, "CareerAdvisorChats", "CareerAdvisorSessionIndex")
	require.NoError(t, err)
	svc, err := usecase.NewChatService(repo)
	require.NoError(t, err)
	return mustHandler(t, svc), db
}

func withSession(e events.APIGatewayProxyRequest, sessionID string) events.APIGatewayProxyRequest {
	e.QueryStringParameters = map[string]string{"sessionId": sessionID}
	return e
}

func TestStack_ChatLifecycle(t *testing.T) {
	h, db := newStack(t)

	resp := handle(t, h, makeEvent(http.MethodPost, "/careerchat", `{"message":"Can you HELP me?"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	chat := decodeJSONBody[chatBody](t, resp.Body)
	require.Equal(t, "Career Advisor says: I'm here to guide you. What career interests you?", chat.Reply)
	require.NotEmpty(t, chat.SessionID)

	resp = handle(t, h, makeEvent(http.MethodPost, "/careerchat", `{"message":"developer","sessionId":"`+chat.SessionID+`"}`))
	require.Equal(t, chat.SessionID, decodeJSONBody[chatBody](t, resp.Body).SessionID)

	resp = handle(t, h, withSession(makeEvent(http.MethodGet, "/careerchat", ""), chat.SessionID))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	history := decodeJSONBody[historyBody](t, resp.Body).History
	require.Len(t, history, 4)
	require.Equal(t, domain.MessageTypeUser, history[0].Type)
	require.Equal(t, "can you help me?", history[0].Content)
	require.Equal(t, domain.MessageTypeAI, history[1].Type)
	require.Equal(t, history[0].Timestamp+1, history[1].Timestamp)

	resp = handle(t, h, makeEvent(http.MethodGet, "/careerchat/sessions", ""))
	sessions := decodeJSONBody[sessionsBody](t, resp.Body).Sessions
	require.Len(t, sessions, 1)
	require.Equal(t, "can you help me?", sessions[0].Title)
	require.Equal(t, history[0].Timestamp, sessions[0].CreatedAt)
	require.Len(t, db.tables["CareerAdvisorSessionIndex"], 1)
}

func TestStack_DeleteSessionLeavesOthers(t *testing.T) {
	h, db := newStack(t)
	handle(t, h, makeEvent(http.MethodPost, "/careerchat", `{"message":"a","sessionId":"keep"}`))
	handle(t, h, makeEvent(http.MethodPost, "/careerchat", `{"message":"b","sessionId":"drop"}`))

	resp := handle(t, h, makeEvent(http.MethodDelete, "/careerchat", `{"sessionId":"drop"}`))
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = handle(t, h, withSession(makeEvent(http.MethodGet, "/careerchat", ""), "drop"))
	require.JSONEq(t, `{"history":[]}`, resp.Body)

	resp = handle(t, h, withSession(makeEvent(http.MethodGet, "/careerchat", ""), "keep"))
	require.Len(t, decodeJSONBody[historyBody](t, resp.Body).History, 2)
	require.Len(t, db.tables["CareerAdvisorSessionIndex"], 1)
}

func TestStack_DeleteAllThenClearAllRedirect(t *testing.T) {
	h, db := newStack(t)
	handle(t, h, makeEvent(http.MethodPost, "/careerchat", `{"message":"a","sessionId":"s1"}`))
	handle(t, h, makeEvent(http.MethodPost, "/careerchat", `{"message":"b","sessionId":"s2"}`))

	writes := db.writes
	resp := handle(t, h, makeEvent(http.MethodDelete, "/careerchat/clear-all", ""))
	require.Equal(t, http.StatusMovedPermanently, resp.StatusCode)
	require.Equal(t, writes, db.writes)

	resp = handle(t, h, makeEvent(http.MethodDelete, "/careerchat/sessions", ""))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Empty(t, db.tables["CareerAdvisorChats"])
	require.Empty(t, db.tables["CareerAdvisorSessionIndex"])

	resp = handle(t, h, makeEvent(http.MethodGet, "/careerchat/sessions", ""))
	require.JSONEq(t, `{"sessions":[]}`, resp.Body)
}

func TestStack_BadRequestsDoNotTouchStorage(t *testing.T) {
	h, db := newStack(t)

	resp := handle(t, h, makeEvent(http.MethodGet, "/careerchat", ""))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = handle(t, h, makeEvent(http.MethodDelete, "/careerchat", ""))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	resp = handle(t, h, makeEvent(http.MethodPost, "/careerchat", `{"message":`))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	require.Zero(t, db.writes)
	require.Empty(t, db.tables)
}
