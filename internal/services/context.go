package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rameshiCode/aindependent-backend/internal/platform/apierr"
	"github.com/rameshiCode/aindependent-backend/internal/platform/ctxutil"
)

func requireUser(ctx context.Context) (uuid.UUID, error) {
	userID := ctxutil.UserID(ctx)
	if userID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("not authenticated: %w", apierr.ErrUnauthorized)
	}
	return userID, nil
}
