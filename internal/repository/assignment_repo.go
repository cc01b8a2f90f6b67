package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"course-notify-bot/internal/database"
	"course-notify-bot/internal/domain"
)

// AssignmentRepository реализует хранение заданий и отметок о выполнении в PostgreSQL.
type AssignmentRepository struct {
	db      *sql.DB
	queries *database.Queries
}

// NewAssignmentRepository создает новый экземпляр AssignmentRepository.
func NewAssignmentRepository(db *sql.DB, queries *database.Queries) domain.AssignmentRepository {
	return &AssignmentRepository{
		db:      db,
		queries: queries,
	}
}

// Create сохраняет задание. Отметки о выполнении, если они есть, сохраняются в той же транзакции.
func (r *AssignmentRepository) Create(ctx context.Context, a *domain.Assignment) error {
	return withTx(ctx, r.db, r.queries, func(q *database.Queries) error {
		affected, err := q.CreateAssignment(ctx, database.Assignment{
			AssignmentID: a.ID,
			Title:        a.Title,
			Type:         a.Type,
			Deadline:     a.Deadline,
			CreatedBy:    a.CreatedBy,
		})
		if err != nil {
			return fmt.Errorf("failed to create assignment: %w", err)
		}
		if affected == 0 {
			return fmt.Errorf("assignment %s already exists", a.ID)
		}

		for userID := range a.CompletedBy {
			if _, err := q.InsertCompletion(ctx, database.InsertCompletionParams{
				AssignmentID: a.ID,
				UserID:       userID,
				CompletedAt:  a.Deadline,
			}); err != nil {
				return fmt.Errorf("failed to save completion: %w", err)
			}
		}
		return nil
	})
}

// GetByID возвращает задание вместе со списком выполнивших.
func (r *AssignmentRepository) GetByID(ctx context.Context, assignmentID string) (*domain.Assignment, error) {
	row, err := r.queries.GetAssignmentByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrAssignmentNotFound
		}
		return nil, fmt.Errorf("failed to get assignment: %w", err)
	}

	completions, err := r.queries.ListCompletionsByAssignment(ctx, assignmentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get completions: %w", err)
	}

	a := toDomainAssignment(row)
	for _, c := range completions {
		a.CompletedBy[c.UserID] = struct{}{}
	}
	return a, nil
}

// ListActive возвращает задания с дедлайном позже now, отсортированные по дедлайну.
func (r *AssignmentRepository) ListActive(ctx context.Context, now time.Time) ([]*domain.Assignment, error) {
	rows, err := r.queries.ListActiveAssignments(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list assignments: %w", err)
	}

	completions, err := r.queries.ListActiveCompletions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to list completions: %w", err)
	}

	result := make([]*domain.Assignment, 0, len(rows))
	byID := make(map[string]*domain.Assignment, len(rows))
	for _, row := range rows {
		a := toDomainAssignment(row)
		byID[a.ID] = a
		result = append(result, a)
	}
	for _, c := range completions {
		if a, ok := byID[c.AssignmentID]; ok {
			a.CompletedBy[c.UserID] = struct{}{}
		}
	}
	return result, nil
}

// MarkCompleted отмечает задание выполненным пользователем.
func (r *AssignmentRepository) MarkCompleted(ctx context.Context, assignmentID, userID string, at time.Time) error {
	return withTx(ctx, r.db, r.queries, func(q *database.Queries) error {
		row, err := q.GetAssignmentByID(ctx, assignmentID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrAssignmentNotFound
			}
			return fmt.Errorf("failed to get assignment: %w", err)
		}
		if !row.Deadline.After(at) {
			return domain.ErrAssignmentExpired
		}

		affected, err := q.InsertCompletion(ctx, database.InsertCompletionParams{
			AssignmentID: assignmentID,
			UserID:       userID,
			CompletedAt:  at,
		})
		if err != nil {
			return fmt.Errorf("failed to mark completed: %w", err)
		}
		if affected == 0 {
			return domain.ErrAssignmentCompleted
		}
		return nil
	})
}

func toDomainAssignment(row database.Assignment) *domain.Assignment {
	return &domain.Assignment{
		ID:          row.AssignmentID,
		Title:       row.Title,
		Type:        row.Type,
		Deadline:    row.Deadline,
		CompletedBy: make(map[string]struct{}),
		CreatedBy:   row.CreatedBy,
	}
}
