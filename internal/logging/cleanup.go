package logging

import (
	"context"
	"log/slog"
	"time"

	"github.com/ahmetcoskunkizilkaya/accounts-backend/internal/models"
	"gorm.io/gorm"
)

const DefaultRetention = 30 * 24 * time.Hour

// StartCleanup runs a daily goroutine that deletes system_logs older than
// retention. It stops when ctx is cancelled.
func StartCleanup(ctx context.Context, db *gorm.DB, retention time.Duration) {
	if retention <= 0 {
		retention = DefaultRetention
	}
	go func() {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				deleteOlderThan(ctx, db, time.Now().Add(-retention))
			case <-ctx.Done():
				return
			}
		}
	}()
}

func deleteOlderThan(ctx context.Context, db *gorm.DB, cutoff time.Time) int64 {
	result := db.WithContext(ctx).Where("timestamp < ?", cutoff).Delete(&models.SystemLog{})
	if result.Error != nil {
		slog.Error("log cleanup failed", "error", result.Error)
		return 0
	}
	if result.RowsAffected > 0 {
		slog.Info("log cleanup completed", "deleted", result.RowsAffected)
	}
	return result.RowsAffected
}
