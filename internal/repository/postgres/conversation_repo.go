package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/semi556tgb/pure-converse/internal/domain"
	"github.com/semi556tgb/pure-converse/internal/repository"
)

const uniqueViolation = "23505"

type ConversationRepo struct {
	pool *pgxpool.Pool
}

func NewConversationRepo(pool *pgxpool.Pool) *ConversationRepo {
	return &ConversationRepo{pool: pool}
}

func (r *ConversationRepo) Create(ctx context.Context, conv *domain.Conversation, participantIDs []uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO conversations (id, type, name, creator_id, direct_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		conv.ID, conv.Type, conv.Name, conv.CreatorID, conv.DirectKey, conv.CreatedAt, conv.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return repository.ErrDuplicate
		}
		return err
	}

	for _, userID := range participantIDs {
		_, err = tx.Exec(ctx, `
			INSERT INTO participants (conversation_id, user_id, joined_at)
			VALUES ($1, $2, $3)`,
			conv.ID, userID, conv.CreatedAt,
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ConversationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Conversation, error) {
	query := `
		SELECT id, type, name, creator_id, direct_key, created_at, updated_at
		FROM conversations
		WHERE id = $1`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&conv.ID, &conv.Type, &conv.Name, &conv.CreatorID, &conv.DirectKey, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepo) GetDirectByKey(ctx context.Context, key string) (*domain.Conversation, error) {
	query := `
		SELECT id, type, name, creator_id, direct_key, created_at, updated_at
		FROM conversations
		WHERE direct_key = $1`
	var conv domain.Conversation
	err := r.pool.QueryRow(ctx, query, key).Scan(
		&conv.ID, &conv.Type, &conv.Name, &conv.CreatorID, &conv.DirectKey, &conv.CreatedAt, &conv.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *ConversationRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]domain.Conversation, error) {
	query := `
		SELECT c.id, c.type, c.name, c.creator_id, c.direct_key, c.created_at, c.updated_at
		FROM conversations c
		JOIN participants p ON p.conversation_id = c.id
		WHERE p.user_id = $1
		ORDER BY c.updated_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		var conv domain.Conversation
		if err := rows.Scan(
			&conv.ID, &conv.Type, &conv.Name, &conv.CreatorID, &conv.DirectKey, &conv.CreatedAt, &conv.UpdatedAt,
		); err != nil {
			return nil, err
		}
		convs = append(convs, conv)
	}
	return convs, rows.Err()
}

func (r *ConversationRepo) UpdateName(ctx context.Context, id uuid.UUID, name string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE conversations SET name = $1, updated_at = $2 WHERE id = $3`,
		name, time.Now(), id,
	)
	return err
}

func (r *ConversationRepo) Touch(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE conversations SET updated_at = $1 WHERE id = $2`,
		time.Now(), id,
	)
	return err
}

func (r *ConversationRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	steps := []string{
		`DELETE FROM reactions WHERE message_id IN (SELECT id FROM messages WHERE conversation_id = $1)`,
		`DELETE FROM messages WHERE conversation_id = $1`,
		`DELETE FROM call_participants WHERE call_id IN (SELECT id FROM calls WHERE conversation_id = $1)`,
		`DELETE FROM calls WHERE conversation_id = $1`,
		`DELETE FROM participants WHERE conversation_id = $1`,
		`DELETE FROM conversations WHERE id = $1`,
	}
	for _, step := range steps {
		if _, err := tx.Exec(ctx, step, id); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

func (r *ConversationRepo) GetParticipant(ctx context.Context, conversationID, userID uuid.UUID) (*domain.Participant, error) {
	query := `
		SELECT conversation_id, user_id, joined_at
		FROM participants
		WHERE conversation_id = $1 AND user_id = $2`
	var p domain.Participant
	err := r.pool.QueryRow(ctx, query, conversationID, userID).Scan(&p.ConversationID, &p.UserID, &p.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ConversationRepo) ListParticipants(ctx context.Context, conversationID uuid.UUID) ([]domain.Participant, error) {
	query := `
		SELECT p.conversation_id, p.user_id, p.joined_at,
			u.username, u.display_name, u.avatar_url, u.status
		FROM participants p
		JOIN users u ON p.user_id = u.id
		WHERE p.conversation_id = $1
		ORDER BY p.joined_at ASC`

	rows, err := r.pool.Query(ctx, query, conversationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var participants []domain.Participant
	for rows.Next() {
		var p domain.Participant
		if err := rows.Scan(
			&p.ConversationID, &p.UserID, &p.JoinedAt,
			&p.Username, &p.DisplayName, &p.AvatarURL, &p.Status,
		); err != nil {
			return nil, err
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *ConversationRepo) RemoveParticipant(ctx context.Context, conversationID, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM participants WHERE conversation_id = $1 AND user_id = $2`,
		conversationID, userID,
	)
	return err
}
