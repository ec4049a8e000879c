package memory

import (
	"context"
	"time"

	"github.com/jwalitptl/booking-api/internal/model"
	"github.com/jwalitptl/booking-api/internal/repository"
)

type deviceTokenRepository struct {
	s *Store
}

func (r *deviceTokenRepository) Create(ctx context.Context, token *model.DeviceToken) error {
	defer r.s.lock()()
	d := r.s.data()

	token.ID = d.next("device_tokens")
	token.CreatedAt = time.Now().UTC()
	d.deviceTokens = append(d.deviceTokens, *token)
	return nil
}

func (r *deviceTokenRepository) Latest(ctx context.Context, userID int64, userType model.UserType) (*model.DeviceToken, error) {
	defer r.s.lock()()

	tokens := r.s.data().deviceTokens
	for i := len(tokens) - 1; i >= 0; i-- {
		if tokens[i].UserID == userID && tokens[i].UserType == userType {
			t := tokens[i]
			return &t, nil
		}
	}
	return nil, repository.ErrNotFound
}
