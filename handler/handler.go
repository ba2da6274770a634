package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/google/uuid"

	"career-advisor/internal/domain"
	"career-advisor/internal/logging"
	"career-advisor/internal/usecase"
)

const (
	pathSessions        = "/sessions"
	pathClearAll        = "/clear-all"
	queryParamSessionID = "sessionId"

	msgInvalidBody      = "Invalid request body"
	msgMethodNotAllowed = "Method not allowed"
	msgInternal         = "Internal server error"
	msgPreflight        = "CORS preflight successful"
	msgDeletedAll       = "All chat history deleted"
	msgDeletedSession   = "Chat session deleted successfully"
)

// ChatService is the set of chat operations the handler routes to.
type ChatService interface {
	ListSessions(ctx context.Context) ([]domain.SessionIndexEntry, error)
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
	Send(ctx context.Context, in usecase.SendInput) usecase.SendOutput
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteAll(ctx context.Context) error
}

type Handler struct {
	svc ChatService
}

// chatRequest is the JSON body accepted by every method. Both fields are optional.
type chatRequest struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
}

func NewHandler(svc ChatService) (*Handler, error) {
	if svc == nil {
		return nil, errors.New("handler: chat service must not be nil")
	}
	return &Handler{svc: svc}, nil
}

// Dispatch routes a normalized request and always returns a complete response.
func (h *Handler) Dispatch(ctx context.Context, req Request) events.APIGatewayProxyResponse {
	corrID := correlationID(req.Headers)
	log := slog.Default().With("correlation_id", corrID)
	ctx = logging.ToContext(ctx, log)

	resp := h.route(ctx, req)
	resp.Headers[headerCorrelationID] = corrID

	log.InfoContext(ctx, "request handled",
		"method", req.Method,
		"path", req.Path,
		"status", resp.StatusCode,
	)
	return resp
}

func (h *Handler) route(ctx context.Context, req Request) events.APIGatewayProxyResponse {
	method := strings.ToUpper(req.Method)
	if method == http.MethodOptions {
		return jsonResponse(http.StatusOK, messageBody{Message: msgPreflight})
	}

	body, err := parseBody(req)
	if err != nil {
		logging.FromContext(ctx).WarnContext(ctx, "invalid request body", "err", err)
		return errorResponse(http.StatusBadRequest, msgInvalidBody)
	}
	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = req.Query[queryParamSessionID]
	}

	switch method {
	case http.MethodGet:
		if strings.HasSuffix(req.Path, pathSessions) {
			return h.listSessions(ctx)
		}
		return h.history(ctx, sessionID)
	case http.MethodPost:
		out := h.svc.Send(ctx, usecase.SendInput{Message: body.Message, SessionID: sessionID})
		return jsonResponse(http.StatusOK, chatBody{Reply: out.Reply, SessionID: out.SessionID})
	case http.MethodDelete:
		switch {
		case strings.HasSuffix(req.Path, pathSessions):
			return h.deleteAll(ctx)
		case strings.HasSuffix(req.Path, pathClearAll):
			return redirectResponse(strings.TrimSuffix(req.Path, pathClearAll) + pathSessions)
		}
		return h.deleteSession(ctx, sessionID)
	}
	return errorResponse(http.StatusMethodNotAllowed, msgMethodNotAllowed)
}

func (h *Handler) listSessions(ctx context.Context) events.APIGatewayProxyResponse {
	sessions, err := h.svc.ListSessions(ctx)
	if err != nil {
		return h.failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, sessionsBody{Sessions: sessions})
}

func (h *Handler) history(ctx context.Context, sessionID string) events.APIGatewayProxyResponse {
	msgs, err := h.svc.History(ctx, sessionID)
	if err != nil {
		return h.failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, historyBody{History: msgs})
}

func (h *Handler) deleteAll(ctx context.Context) events.APIGatewayProxyResponse {
	if err := h.svc.DeleteAll(ctx); err != nil {
		return h.failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, messageBody{Message: msgDeletedAll})
}

func (h *Handler) deleteSession(ctx context.Context, sessionID string) events.APIGatewayProxyResponse {
	if err := h.svc.DeleteSession(ctx, sessionID); err != nil {
		return h.failure(ctx, err)
	}
	return jsonResponse(http.StatusOK, messageBody{Message: msgDeletedSession})
}

// failure maps a service error to an error response and logs it.
func (h *Handler) failure(ctx context.Context, err error) events.APIGatewayProxyResponse {
	log := logging.FromContext(ctx)

	var ucErr *usecase.Error
	if !errors.As(err, &ucErr) {
		log.ErrorContext(ctx, "unexpected service error", "err", err)
		return errorResponse(http.StatusInternalServerError, msgInternal)
	}

	status := statusForCode(ucErr.Code)
	if status >= http.StatusInternalServerError {
		log.ErrorContext(ctx, ucErr.Message, "reason", ucErr.Reason, "err", ucErr.Err)
	} else {
		log.WarnContext(ctx, ucErr.Message, "reason", ucErr.Reason)
	}

	message := ucErr.Message
	if message == "" {
		message = http.StatusText(status)
	}
	return errorResponse(status, message)
}

func statusForCode(code usecase.ErrorCode) int {
	switch code {
	case usecase.ErrorInvalidInput:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// parseBody decodes the optional JSON body. A present body must be a JSON object.
func parseBody(req Request) (chatRequest, error) {
	var body chatRequest
	if req.BodyInvalid {
		return body, errors.New("body is not valid base64")
	}
	if req.Body == "" {
		return body, nil
	}
	raw := bytes.TrimSpace([]byte(req.Body))
	if len(raw) == 0 || raw[0] != '{' {
		return body, errors.New("body is not a JSON object")
	}
	if err := json.Unmarshal(raw, &body); err != nil {
		return body, err
	}
	return body, nil
}

// correlationID returns the caller's X-Correlation-Id, matched
// case-insensitively, or a fresh one.
func correlationID(headers map[string]string) string {
	for k, v := range headers {
		if strings.EqualFold(k, headerCorrelationID) && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return uuid.NewString()
}
