package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type deviceTokenRepository struct {
	BaseRepository
}

func (r *deviceTokenRepository) Create(ctx context.Context, token *model.DeviceToken) error {
	query := `
		INSERT INTO device_tokens (user_id, user_type, token, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	token.CreatedAt = time.Now().UTC()

	err := r.db.QueryRowxContext(ctx, query,
		token.UserID,
		token.UserType,
		token.Token,
		token.CreatedAt,
	).Scan(&token.ID)
	if err != nil {
		return fmt.Errorf("failed to create device token: %w", err)
	}
	return nil
}

func (r *deviceTokenRepository) Latest(ctx context.Context, userID int64, userType model.UserType) (*model.DeviceToken, error) {
	query := `
		SELECT id, user_id, user_type, token, created_at
		FROM device_tokens
		WHERE user_id = $1 AND user_type = $2
		ORDER BY created_at DESC, id DESC
		LIMIT 1
	`
	var token model.DeviceToken
	if err := r.get(ctx, &token, repository.ErrNotFound, "get device token", query, userID, userType); err != nil {
		return nil, err
	}
	return &token, nil
}
