package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/stretchr/testify/require"

	"career-advisor/internal/domain"
)

func handleRaw(t *testing.T, h *Handler, raw string) events.APIGatewayProxyResponse {
	t.Helper()
	resp, err := h.HandleEvent(context.Background(), json.RawMessage(raw))
	require.NoError(t, err)
	return resp
}

func TestHandleEvent_RESTPayload(t *testing.T) {
	svc := &stubService{history: []domain.Message{}}
	raw := `{
		"resource": "/careerchat",
		"path": "/careerchat",
		"httpMethod": "GET",
		"queryStringParameters": {"sessionId": "s1"},
		"requestContext": {"httpMethod": "GET"},
		"body": null
	}`

	resp := handleRaw(t, mustHandler(t, svc), raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"History"}, svc.calls)
	require.Equal(t, "s1", svc.historyID)
}

func TestHandleEvent_HTTPAPIPayload(t *testing.T) {
	svc := &stubService{}
	raw := `{
		"version": "2.0",
		"routeKey": "DELETE /careerchat/sessions",
		"rawPath": "/careerchat/sessions",
		"headers": {"x-correlation-id": "corr-v2"},
		"requestContext": {"http": {"method": "DELETE", "path": "/careerchat/sessions"}},
		"isBase64Encoded": false
	}`

	resp := handleRaw(t, mustHandler(t, svc), raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, []string{"DeleteAll"}, svc.calls)
	require.Equal(t, "corr-v2", resp.Headers["X-Correlation-Id"])
}

func TestHandleEvent_HTTPAPIPost(t *testing.T) {
	svc := &stubService{}
	raw := `{
		"version": "2.0",
		"rawPath": "/careerchat",
		"requestContext": {"http": {"method": "POST"}},
		"body": "{\"message\":\"designer\",\"sessionId\":\"s9\"}"
	}`

	resp := handleRaw(t, mustHandler(t, svc), raw)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "designer", svc.sendIn.Message)
	require.Equal(t, "s9", svc.sendIn.SessionID)
}

func TestHandleEvent_UndecodableEvent(t *testing.T) {
	svc := &stubService{}
	resp := handleRaw(t, mustHandler(t, svc), `{"httpMethod": 12}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	requireCORS(t, resp)
	require.Empty(t, svc.calls)
}

func TestFromProxyRequest_PrefersRequestContextMethod(t *testing.T) {
	req := fromProxyRequest(events.APIGatewayProxyRequest{
		HTTPMethod:     "GET",
		RequestContext: events.APIGatewayProxyRequestContext{HTTPMethod: "DELETE"},
		Path:           "/careerchat",
	})
	require.Equal(t, "DELETE", req.Method)
	require.Equal(t, "/careerchat", req.Path)
	require.False(t, req.BodyInvalid)
}
