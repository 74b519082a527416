package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/semi556tgb/pure-converse/internal/domain"
)

type MessageRepo struct {
	pool *pgxpool.Pool
}

func NewMessageRepo(pool *pgxpool.Pool) *MessageRepo {
	return &MessageRepo{pool: pool}
}

func (r *MessageRepo) Create(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, sender_id, type, content, encrypted_content, key_id, reply_to_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING seq`
	return r.pool.QueryRow(ctx, query,
		msg.ID, msg.ConversationID, msg.SenderID, msg.Type, msg.Content,
		msg.EncryptedContent, msg.KeyID, msg.ReplyToID, msg.CreatedAt,
	).Scan(&msg.Seq)
}

func (r *MessageRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Message, error) {
	query := `
		SELECT m.id, m.conversation_id, m.sender_id, m.type, m.content, m.encrypted_content,
			m.key_id, m.reply_to_id, m.edited_at, m.created_at, m.seq, u.username, u.display_name
		FROM messages m
		JOIN users u ON m.sender_id = u.id
		WHERE m.id = $1`
	var msg domain.Message
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Type, &msg.Content, &msg.EncryptedContent,
		&msg.KeyID, &msg.ReplyToID, &msg.EditedAt, &msg.CreatedAt, &msg.Seq,
		&msg.SenderUsername, &msg.SenderDisplayName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (r *MessageRepo) ListByConversation(ctx context.Context, conversationID uuid.UUID, before *uuid.UUID, limit int) ([]domain.Message, error) {
	var query string
	var args []any

	if before != nil {
		query = fmt.Sprintf(`
			SELECT m.id, m.conversation_id, m.sender_id, m.type, m.content, m.encrypted_content,
				m.key_id, m.reply_to_id, m.edited_at, m.created_at, m.seq, u.username, u.display_name
			FROM messages m
			JOIN users u ON m.sender_id = u.id
			WHERE m.conversation_id = $1
				AND (m.created_at, m.seq) < (SELECT created_at, seq FROM messages WHERE id = $2)
			ORDER BY m.created_at DESC, m.seq DESC
			LIMIT %d`, limit)
		args = []any{conversationID, *before}
	} else {
		query = fmt.Sprintf(`
			SELECT m.id, m.conversation_id, m.sender_id, m.type, m.content, m.encrypted_content,
				m.key_id, m.reply_to_id, m.edited_at, m.created_at, m.seq, u.username, u.display_name
			FROM messages m
			JOIN users u ON m.sender_id = u.id
			WHERE m.conversation_id = $1
			ORDER BY m.created_at DESC, m.seq DESC
			LIMIT %d`, limit)
		args = []any{conversationID}
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var messages []domain.Message
	for rows.Next() {
		var msg domain.Message
		if err := rows.Scan(
			&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Type, &msg.Content, &msg.EncryptedContent,
			&msg.KeyID, &msg.ReplyToID, &msg.EditedAt, &msg.CreatedAt, &msg.Seq,
			&msg.SenderUsername, &msg.SenderDisplayName,
		); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}

	// Reverse to chronological order (query returns DESC)
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}

	return messages, rows.Err()
}

func (r *MessageRepo) Update(ctx context.Context, msg *domain.Message) error {
	query := `UPDATE messages SET content = $1, edited_at = $2 WHERE id = $3`
	_, err := r.pool.Exec(ctx, query, msg.Content, time.Now(), msg.ID)
	return err
}

func (r *MessageRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM reactions WHERE message_id = $1`, id); err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `DELETE FROM messages WHERE id = $1`, id); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *MessageRepo) GetReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) (*domain.Reaction, error) {
	query := `
		SELECT message_id, user_id, emoji, created_at
		FROM reactions
		WHERE message_id = $1 AND user_id = $2 AND emoji = $3`
	var reaction domain.Reaction
	err := r.pool.QueryRow(ctx, query, messageID, userID, emoji).Scan(
		&reaction.MessageID, &reaction.UserID, &reaction.Emoji, &reaction.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &reaction, nil
}

func (r *MessageRepo) AddReaction(ctx context.Context, reaction *domain.Reaction) error {
	query := `
		INSERT INTO reactions (message_id, user_id, emoji, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (message_id, user_id, emoji) DO NOTHING`
	_, err := r.pool.Exec(ctx, query, reaction.MessageID, reaction.UserID, reaction.Emoji, reaction.CreatedAt)
	return err
}

func (r *MessageRepo) RemoveReaction(ctx context.Context, messageID, userID uuid.UUID, emoji string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM reactions WHERE message_id = $1 AND user_id = $2 AND emoji = $3`,
		messageID, userID, emoji,
	)
	return err
}

func (r *MessageRepo) ListReactions(ctx context.Context, messageID uuid.UUID) ([]domain.Reaction, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT message_id, user_id, emoji, created_at
		FROM reactions
		WHERE message_id = $1
		ORDER BY created_at ASC`, messageID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reactions []domain.Reaction
	for rows.Next() {
		var reaction domain.Reaction
		if err := rows.Scan(&reaction.MessageID, &reaction.UserID, &reaction.Emoji, &reaction.CreatedAt); err != nil {
			return nil, err
		}
		reactions = append(reactions, reaction)
	}
	return reactions, rows.Err()
}
