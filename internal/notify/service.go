package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"feedback-call-platform/internal/calls"

	"github.com/google/uuid"
)

// Notification is one user-facing call-finished message. The tracker emits at
// most one per tracked call.
type Notification struct {
	ID        string    `json:"id"`
	CallID    string    `json:"call_id"`
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository is append-only; notifications are never updated in place.
type Repository interface {
	Append(ctx context.Context, n Notification) error
	List(ctx context.Context) ([]Notification, error)
}

// Service records call-finished notifications.
//
// Recording is best-effort: a sink failure must never block a terminal
// transition in the tracker.
type Service struct {
	repo  Repository
	clock func() time.Time
	log   *slog.Logger
}

func NewService(repo Repository, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{repo: repo, clock: time.Now, log: log}
}

var ErrInvalidNotification = errors.New("notify: invalid notification")

// CallFinished satisfies calls.Notifier. The message is distinct per terminal
// value.
func (s *Service) CallFinished(callID string, st calls.CallStatus) {
	msg := "Feedback call finished"
	switch st {
	case calls.StatusCompleted:
		msg = "Feedback call completed successfully"
	case calls.StatusFailed:
		msg = "Feedback call failed"
	}

	n := Notification{
		ID:        uuid.NewString(),
		CallID:    callID,
		Status:    string(st),
		Message:   msg,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.repo.Append(context.Background(), n); err != nil {
		s.log.Warn("notification append failed", "call_id", callID, "err", err)
	}
}

func (s *Service) List(ctx context.Context) ([]Notification, error) {
	if s.repo == nil {
		return nil, errors.New("notify: repository not configured")
	}
	return s.repo.List(ctx)
}
