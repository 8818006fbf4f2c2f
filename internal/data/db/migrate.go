package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/rameshiCode/aindependent-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(types.Models()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() == DriverPostgres {
		return EnsureUserCascades(db)
	}
	return nil
}

// userScopedTables are removed together with their owning user.
var userScopedTables = []string{
	"user_token",
	"recovery_profile",
	"insight",
	"goal",
	"scheduled_notification",
	"user_notification",
	"engagement_event",
	"conversation",
	"message",
}

// EnsureUserCascades adds ON DELETE CASCADE foreign keys from every user-scoped
// table to "user". Safe to re-run.
func EnsureUserCascades(db *gorm.DB) error {
	for _, table := range userScopedTables {
		name := "fk_" + table + "_user_id"
		stmt := fmt.Sprintf(`
			DO $$
			BEGIN
				IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = '%s') THEN
					ALTER TABLE "%s"
					ADD CONSTRAINT "%s"
					FOREIGN KEY ("user_id") REFERENCES "user"("id") ON DELETE CASCADE;
				END IF;
			END $$;`, name, table, name)
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("add %s: %w", name, err)
		}
	}
	return nil
}
