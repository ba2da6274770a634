package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"career-advisor/internal/domain"
	"career-advisor/internal/logging"
)

// maxTitleRunes is the length of the session title taken from the first message.
const maxTitleRunes = 50

// Client-facing error messages.
const (
	msgMissingHistoryID = "Missing sessionId for chat history request"
	msgMissingDeleteID  = "Missing sessionId for delete request"
	msgListFailed       = "Failed to retrieve session list"
	msgHistoryFailed    = "Failed to retrieve chat history"
	msgDeleteFailed     = "Failed to delete chat history"
	msgDeleteAllFailed  = "Failed to delete all chat history"
)

// Store is the persistence surface used by ChatService.
type Store interface {
	QueryMessages(ctx context.Context, sessionID string) ([]domain.Message, error)
	ScanMessages(ctx context.Context) ([]domain.Message, error)
	PutMessage(ctx context.Context, msg domain.Message) error
	DeleteMessages(ctx context.Context, keys []domain.MessageKey) error

	ScanSessions(ctx context.Context) ([]domain.SessionIndexEntry, error)
	CreateSession(ctx context.Context, entry domain.SessionIndexEntry) error
	DeleteSession(ctx context.Context, sessionID string) error
	DeleteSessions(ctx context.Context, sessionIDs []string) error
}

type ChatService struct {
	store Store
}

type SendInput struct {
	Message   string
	SessionID string
}

type SendOutput struct {
	Reply     string
	SessionID string
}

func NewChatService(s Store) (*ChatService, error) {
	if s == nil {
		return nil, errors.New("usecase: store must not be nil")
	}
	return &ChatService{store: s}, nil
}

// ListSessions returns every indexed session.
func (s *ChatService) ListSessions(ctx context.Context) ([]domain.SessionIndexEntry, error) {
	entries, err := s.store.ScanSessions(ctx)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_session_scan_error", msgListFailed, err)
	}
	if entries == nil {
		entries = []domain.SessionIndexEntry{}
	}
	return entries, nil
}

// History returns the messages of a session in ascending timestamp order.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	if sessionID == "" {
		return nil, newError(ErrorInvalidInput, "missing_session_id", msgMissingHistoryID, nil)
	}
	msgs, err := s.store.QueryMessages(ctx, sessionID)
	if err != nil {
		return nil, newError(ErrorInternal, "dynamodb_history_error", msgHistoryFailed, err)
	}
	if msgs == nil {
		msgs = []domain.Message{}
	}
	return msgs, nil
}

// Send records a user message and its canned reply. Storage failures are
// logged and never fail the call.
func (s *ChatService) Send(ctx context.Context, in SendInput) SendOutput {
	sessionID := in.SessionID
	if sessionID == "" {
		sessionID = newUUID()
	}
	message := strings.ToLower(in.Message)
	reply := GenerateReply(message)
	ts := now().Unix()

	s.persistTurn(ctx, sessionID, message, reply, ts)

	return SendOutput{
		Reply:     ReplyPrefix + reply,
		SessionID: sessionID,
	}
}

// persistTurn writes the user message at ts, the reply at ts+1, then creates
// the index entry if absent. The first failure stops the remaining writes.
func (s *ChatService) persistTurn(ctx context.Context, sessionID, message, reply string, ts int64) {
	log := logging.FromContext(ctx).With("session_id", sessionID)

	writes := []func() error{
		func() error {
			return s.store.PutMessage(ctx, domain.Message{SessionID: sessionID, Timestamp: ts, Type: domain.MessageTypeUser, Content: message})
		},
		func() error {
			return s.store.PutMessage(ctx, domain.Message{SessionID: sessionID, Timestamp: ts + 1, Type: domain.MessageTypeAI, Content: reply})
		},
		func() error {
			return s.store.CreateSession(ctx, domain.SessionIndexEntry{SessionID: sessionID, Title: sessionTitle(message), CreatedAt: ts})
		},
	}
	for _, write := range writes {
		err := write()
		if err == nil {
			continue
		}
		if errors.Is(err, domain.ErrConflict) {
			log.InfoContext(ctx, "session already indexed, skipping insert")
			return
		}
		log.ErrorContext(ctx, "failed to persist chat turn", "err", err)
		return
	}
}

// DeleteSession removes a session's messages and its index entry.
func (s *ChatService) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return newError(ErrorInvalidInput, "missing_session_id", msgMissingDeleteID, nil)
	}

	msgs, err := s.store.QueryMessages(ctx, sessionID)
	if err != nil {
		return newError(ErrorInternal, "dynamodb_history_error", msgDeleteFailed, err)
	}
	if err := s.store.DeleteMessages(ctx, messageKeys(msgs)); err != nil {
		return newError(ErrorInternal, "dynamodb_batch_delete_error", msgDeleteFailed, err)
	}
	if err := s.store.DeleteSession(ctx, sessionID); err != nil {
		return newError(ErrorInternal, "dynamodb_session_delete_error", msgDeleteFailed, err)
	}
	return nil
}

// DeleteAll removes every message and every index entry. A failure midway
// leaves whatever was already deleted removed.
func (s *ChatService) DeleteAll(ctx context.Context) error {
	msgs, err := s.store.ScanMessages(ctx)
	if err != nil {
		return newError(ErrorInternal, "dynamodb_message_scan_error", msgDeleteAllFailed, err)
	}
	if err := s.store.DeleteMessages(ctx, messageKeys(msgs)); err != nil {
		return newError(ErrorInternal, "dynamodb_batch_delete_error", msgDeleteAllFailed, err)
	}

	entries, err := s.store.ScanSessions(ctx)
	if err != nil {
		return newError(ErrorInternal, "dynamodb_session_scan_error", msgDeleteAllFailed, err)
	}
	ids := make([]string, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.SessionID)
	}
	if err := s.store.DeleteSessions(ctx, ids); err != nil {
		return newError(ErrorInternal, "dynamodb_session_batch_delete_error", msgDeleteAllFailed, err)
	}
	return nil
}

func messageKeys(msgs []domain.Message) []domain.MessageKey {
	keys := make([]domain.MessageKey, 0, len(msgs))
	for _, m := range msgs {
		keys = append(keys, m.Key())
	}
	return keys
}

func sessionTitle(message string) string {
	if message == "" {
		return domain.DefaultSessionTitle
	}
	r := []rune(message)
	if len(r) > maxTitleRunes {
		r = r[:maxTitleRunes]
	}
	return string(r)
}

var newUUID = func() string {
	return uuid.NewString()
}

var now = time.Now
