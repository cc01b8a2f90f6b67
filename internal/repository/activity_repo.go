package repository

import (
	"context"
	"fmt"
	"time"

	"course-notify-bot/internal/database"
	"course-notify-bot/internal/domain"
)

// ActivityRepository реализует domain.ActivityRepository: журнал активности для статистики.
type ActivityRepository struct {
	queries *database.Queries
}

// NewActivityRepository создает новый экземпляр ActivityRepository.
func NewActivityRepository(queries *database.Queries) domain.ActivityRepository {
	return &ActivityRepository{
		queries: queries,
	}
}

// Record добавляет событие активности.
func (r *ActivityRepository) Record(ctx context.Context, record domain.ActivityRecord) error {
	err := r.queries.InsertActivity(ctx, database.ActivityLog{
		UserID:    record.UserID,
		Kind:      record.Kind,
		CreatedAt: record.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to record activity: %w", err)
	}
	return nil
}

// CountSince возвращает количество сообщений участников начиная с since.
func (r *ActivityRepository) CountSince(ctx context.Context, since time.Time) (int, error) {
	count, err := r.queries.CountActivitySince(ctx, since)
	if err != nil {
		return 0, fmt.Errorf("failed to count activity: %w", err)
	}
	return int(count), nil
}

// PruneBefore удаляет записи старше before и возвращает количество удаленных.
func (r *ActivityRepository) PruneBefore(ctx context.Context, before time.Time) (int64, error) {
	deleted, err := r.queries.DeleteActivityBefore(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("failed to prune activity: %w", err)
	}
	return deleted, nil
}
