package services

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/rameshiCode/aindependent-backend/internal/data/repos/testutil"
	"github.com/rameshiCode/aindependent-backend/internal/platform/ctxutil"
)

func asUser(userID uuid.UUID) context.Context {
	return ctxutil.WithRequestData(context.Background(), &ctxutil.RequestData{UserID: userID})
}

func seedUser(t *testing.T, db *gorm.DB) uuid.UUID {
	t.Helper()
	return testutil.SeedUser(t, context.Background(), db, uuid.NewString()+"@example.com").ID
}
