// Package audit keeps an append-only log of conversation turns in Postgres.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/wolfman30/pharmacare-bot/internal/conversation"
	"github.com/wolfman30/pharmacare-bot/pkg/logging"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Turn is one audited conversation turn.
type Turn struct {
	ID              string    `json:"id"`
	UserID          string    `json:"user_id"`
	MessageID       string    `json:"message_id"`
	InteractionKind string    `json:"interaction_kind"`
	Action          string    `json:"action"`
	FromState       string    `json:"from_state"`
	ToState         string    `json:"to_state"`
	Cart            []string  `json:"cart"`
	OrderID         string    `json:"order_id,omitempty"`
	Sent            int       `json:"sent"`
	Failed          int       `json:"failed"`
	CreatedAt       time.Time `json:"created_at"`
}

// Recorder writes turns to the conversation_turns table.
type Recorder struct {
	db     *sql.DB
	logger *logging.Logger
}

func NewRecorder(db *sql.DB, logger *logging.Logger) *Recorder {
	if db == nil {
		panic("audit: db cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Recorder{db: db, logger: logger}
}

// ObserveTurn records evt. Failures are logged, never returned: the customer
// has already been answered.
func (r *Recorder) ObserveTurn(ctx context.Context, evt conversation.TurnEvent) {
	if err := r.Log(ctx, turnFromEvent(evt)); err != nil {
		r.logger.Warn("audit: failed to record turn", "error", err, "message_id", evt.MessageID)
	}
}

// Log inserts a turn, filling in the id and timestamp when absent.
func (r *Recorder) Log(ctx context.Context, t Turn) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if t.Cart == nil {
		t.Cart = []string{}
	}

	query := `
		INSERT INTO conversation_turns (
			id, user_id, message_id, interaction_kind, action,
			from_state, to_state, cart, order_id, sent, failed, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		t.ID,
		t.UserID,
		t.MessageID,
		t.InteractionKind,
		t.Action,
		t.FromState,
		t.ToState,
		pq.Array(t.Cart),
		nullString(t.OrderID),
		t.Sent,
		t.Failed,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: insert turn: %w", err)
	}
	return nil
}

// ListTurns returns the most recent turns for a user, newest first.
func (r *Recorder) ListTurns(ctx context.Context, userID string, limit int) ([]Turn, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, message_id, interaction_kind, action,
		       from_state, to_state, cart, order_id, sent, failed, created_at
		FROM conversation_turns
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("audit: list turns: %w", err)
	}
	defer rows.Close()

	var turns []Turn
	for rows.Next() {
		var (
			t       Turn
			orderID sql.NullString
		)
		if err := rows.Scan(&t.ID, &t.UserID, &t.MessageID, &t.InteractionKind, &t.Action,
			&t.FromState, &t.ToState, pq.Array(&t.Cart), &orderID, &t.Sent, &t.Failed, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan turn: %w", err)
		}
		t.OrderID = orderID.String
		turns = append(turns, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate turns: %w", err)
	}
	return turns, nil
}

func turnFromEvent(evt conversation.TurnEvent) Turn {
	return Turn{
		UserID:          evt.UserID,
		MessageID:       evt.MessageID,
		InteractionKind: string(evt.Kind),
		Action:          evt.Action,
		FromState:       string(evt.FromState),
		ToState:         string(evt.ToState),
		Cart:            append([]string{}, evt.Cart...),
		OrderID:         evt.OrderID,
		Sent:            evt.Sent,
		Failed:          evt.Failed,
		CreatedAt:       evt.At,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var _ conversation.TurnObserver = (*Recorder)(nil)
