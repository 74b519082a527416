package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/semi556tgb/pure-converse/internal/domain"
)

type FriendRepo struct {
	pool *pgxpool.Pool
}

func NewFriendRepo(pool *pgxpool.Pool) *FriendRepo {
	return &FriendRepo{pool: pool}
}

func (r *FriendRepo) CreateRequest(ctx context.Context, req *domain.FriendRequest) error {
	query := `
		INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at, updated_at, blocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := r.pool.Exec(ctx, query,
		req.ID, req.SenderID, req.ReceiverID, req.Status, req.CreatedAt, req.UpdatedAt, req.BlockedAt,
	)
	return err
}

func (r *FriendRepo) UpdateRequest(ctx context.Context, req *domain.FriendRequest) error {
	query := `
		UPDATE friend_requests
		SET sender_id = $1, receiver_id = $2, status = $3, updated_at = $4, blocked_at = $5
		WHERE id = $6`
	_, err := r.pool.Exec(ctx, query,
		req.SenderID, req.ReceiverID, req.Status, req.UpdatedAt, req.BlockedAt, req.ID,
	)
	return err
}

func (r *FriendRepo) GetRequestByID(ctx context.Context, id uuid.UUID) (*domain.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at, updated_at, blocked_at
		FROM friend_requests
		WHERE id = $1`
	var req domain.FriendRequest
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt, &req.BlockedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendRepo) GetRequestBetween(ctx context.Context, userA, userB uuid.UUID) (*domain.FriendRequest, error) {
	query := `
		SELECT id, sender_id, receiver_id, status, created_at, updated_at, blocked_at
		FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`
	var req domain.FriendRequest
	err := r.pool.QueryRow(ctx, query, userA, userB).Scan(
		&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt, &req.BlockedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *FriendRepo) DeleteRequest(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM friend_requests WHERE id = $1`, id)
	return err
}

func (r *FriendRepo) ReplaceWithBlock(ctx context.Context, req *domain.FriendRequest) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		DELETE FROM friend_requests
		WHERE (sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1)`,
		req.SenderID, req.ReceiverID,
	)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO friend_requests (id, sender_id, receiver_id, status, created_at, updated_at, blocked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		req.ID, req.SenderID, req.ReceiverID, req.Status, req.CreatedAt, req.UpdatedAt, req.BlockedAt,
	)
	if err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *FriendRepo) ListFriends(ctx context.Context, userID uuid.UUID) ([]domain.Friend, error) {
	query := `
		SELECT
			CASE WHEN r.sender_id = $1 THEN r.receiver_id ELSE r.sender_id END AS friend_id,
			u.username, u.display_name, u.avatar_url, u.status, r.updated_at
		FROM friend_requests r
		JOIN users u ON u.id = CASE WHEN r.sender_id = $1 THEN r.receiver_id ELSE r.sender_id END
		WHERE (r.sender_id = $1 OR r.receiver_id = $1) AND r.status = 'accepted'
		ORDER BY u.display_name ASC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var friends []domain.Friend
	for rows.Next() {
		var f domain.Friend
		if err := rows.Scan(&f.UserID, &f.Username, &f.DisplayName, &f.AvatarURL, &f.Status, &f.Since); err != nil {
			return nil, err
		}
		friends = append(friends, f)
	}
	return friends, rows.Err()
}

func (r *FriendRepo) ListIncoming(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	query := `
		SELECT r.id, r.sender_id, r.receiver_id, r.status, r.created_at, r.updated_at, r.blocked_at,
			u.username, u.display_name
		FROM friend_requests r
		JOIN users u ON r.sender_id = u.id
		WHERE r.receiver_id = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.FriendRequest
	for rows.Next() {
		var req domain.FriendRequest
		if err := rows.Scan(
			&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt, &req.BlockedAt,
			&req.SenderUsername, &req.SenderDisplayName,
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *FriendRepo) ListOutgoing(ctx context.Context, userID uuid.UUID) ([]domain.FriendRequest, error) {
	query := `
		SELECT r.id, r.sender_id, r.receiver_id, r.status, r.created_at, r.updated_at, r.blocked_at,
			u.username, u.display_name
		FROM friend_requests r
		JOIN users u ON r.receiver_id = u.id
		WHERE r.sender_id = $1 AND r.status = 'pending'
		ORDER BY r.created_at DESC`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reqs []domain.FriendRequest
	for rows.Next() {
		var req domain.FriendRequest
		if err := rows.Scan(
			&req.ID, &req.SenderID, &req.ReceiverID, &req.Status, &req.CreatedAt, &req.UpdatedAt, &req.BlockedAt,
			&req.ReceiverUsername, &req.ReceiverDisplayName,
		); err != nil {
			return nil, err
		}
		reqs = append(reqs, req)
	}
	return reqs, rows.Err()
}

func (r *FriendRepo) AreFriends(ctx context.Context, userA, userB uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM friend_requests
			WHERE ((sender_id = $1 AND receiver_id = $2) OR (sender_id = $2 AND receiver_id = $1))
				AND status = 'accepted'
		)`, userA, userB,
	).Scan(&exists)
	return exists, err
}
