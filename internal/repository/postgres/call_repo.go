package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/semi556tgb/pure-converse/internal/domain"
)

type CallRepo struct {
	pool *pgxpool.Pool
}

func NewCallRepo(pool *pgxpool.Pool) *CallRepo {
	return &CallRepo{pool: pool}
}

func (r *CallRepo) Create(ctx context.Context, call *domain.Call, initiator *domain.CallParticipant) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO calls (id, conversation_id, initiator_id, type, status, started_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		call.ID, call.ConversationID, call.InitiatorID, call.Type, call.Status, call.StartedAt,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO call_participants (call_id, user_id, joined_at, muted, video_enabled)
		VALUES ($1, $2, $3, $4, $5)`,
		initiator.CallID, initiator.UserID, initiator.JoinedAt, initiator.Muted, initiator.VideoEnabled,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func scanCall(row pgx.Row) (*domain.Call, error) {
	var call domain.Call
	err := row.Scan(
		&call.ID, &call.ConversationID, &call.InitiatorID, &call.Type, &call.Status,
		&call.StartedAt, &call.EndedAt, &call.DurationSeconds,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &call, nil
}

func (r *CallRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Call, error) {
	return scanCall(r.pool.QueryRow(ctx, `
		SELECT id, conversation_id, initiator_id, type, status, started_at, ended_at, duration_seconds
		FROM calls
		WHERE id = $1`, id))
}

func (r *CallRepo) GetActiveByConversation(ctx context.Context, conversationID uuid.UUID) (*domain.Call, error) {
	return scanCall(r.pool.QueryRow(ctx, `
		SELECT id, conversation_id, initiator_id, type, status, started_at, ended_at, duration_seconds
		FROM calls
		WHERE conversation_id = $1 AND status = 'active'
		ORDER BY started_at DESC
		LIMIT 1`, conversationID))
}

func (r *CallRepo) Finish(ctx context.Context, id uuid.UUID, status string, endedAt time.Time, durationSeconds int64) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE calls
		SET status = $1, ended_at = $2, duration_seconds = $3
		WHERE id = $4 AND status = 'active'`,
		status, endedAt, durationSeconds, id,
	)
	return err
}

func (r *CallRepo) UpsertParticipant(ctx context.Context, p *domain.CallParticipant) error {
	query := `
		INSERT INTO call_participants (call_id, user_id, joined_at, left_at, muted, video_enabled)
		VALUES ($1, $2, $3, NULL, $4, $5)
		ON CONFLICT (call_id, user_id)
		DO UPDATE SET joined_at = EXCLUDED.joined_at, left_at = NULL,
			muted = EXCLUDED.muted, video_enabled = EXCLUDED.video_enabled`
	_, err := r.pool.Exec(ctx, query, p.CallID, p.UserID, p.JoinedAt, p.Muted, p.VideoEnabled)
	return err
}

func (r *CallRepo) GetParticipant(ctx context.Context, callID, userID uuid.UUID) (*domain.CallParticipant, error) {
	query := `
		SELECT call_id, user_id, joined_at, left_at, muted, video_enabled
		FROM call_participants
		WHERE call_id = $1 AND user_id = $2`
	var p domain.CallParticipant
	err := r.pool.QueryRow(ctx, query, callID, userID).Scan(
		&p.CallID, &p.UserID, &p.JoinedAt, &p.LeftAt, &p.Muted, &p.VideoEnabled,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *CallRepo) ListParticipants(ctx context.Context, callID uuid.UUID) ([]domain.CallParticipant, error) {
	query := `
		SELECT p.call_id, p.user_id, p.joined_at, p.left_at, p.muted, p.video_enabled,
			u.username, u.display_name
		FROM call_participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.call_id = $1
		ORDER BY p.joined_at ASC`

	rows, err := r.pool.Query(ctx, query, callID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.CallParticipant
	for rows.Next() {
		var p domain.CallParticipant
		if err := rows.Scan(
			&p.CallID, &p.UserID, &p.JoinedAt, &p.LeftAt, &p.Muted, &p.VideoEnabled,
			&p.Username, &p.DisplayName,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *CallRepo) MarkLeft(ctx context.Context, callID, userID uuid.UUID, leftAt time.Time) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE call_participants
		SET left_at = $1
		WHERE call_id = $2 AND user_id = $3 AND left_at IS NULL`,
		leftAt, callID, userID,
	)
	return err
}

func (r *CallRepo) SetMuted(ctx context.Context, callID, userID uuid.UUID, muted bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE call_participants SET muted = $1 WHERE call_id = $2 AND user_id = $3`,
		muted, callID, userID,
	)
	return err
}

func (r *CallRepo) SetVideo(ctx context.Context, callID, userID uuid.UUID, enabled bool) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE call_participants SET video_enabled = $1 WHERE call_id = $2 AND user_id = $3`,
		enabled, callID, userID,
	)
	return err
}

func (r *CallRepo) CountJoined(ctx context.Context, callID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM call_participants WHERE call_id = $1 AND left_at IS NULL`,
		callID,
	).Scan(&count)
	return count, err
}

func (r *CallRepo) CountOthersEverJoined(ctx context.Context, callID, initiatorID uuid.UUID) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM call_participants WHERE call_id = $1 AND user_id <> $2`,
		callID, initiatorID,
	).Scan(&count)
	return count, err
}
