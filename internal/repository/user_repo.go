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

// errSkipWrite откатывает транзакцию Update без ошибки для вызывающего.
var errSkipWrite = errors.New("skip write")

// UserRepository реализует взаимодействие с данными пользователей в PostgreSQL.
type UserRepository struct {
	db      *sql.DB
	queries *database.Queries
}

// NewUserRepository создает новый экземпляр UserRepository.
func NewUserRepository(db *sql.DB, queries *database.Queries) domain.UserRepository {
	return &UserRepository{
		db:      db,
		queries: queries,
	}
}

// Create регистрирует пользователя вместе с его предупреждениями.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	return withTx(ctx, r.db, r.queries, func(q *database.Queries) error {
		affected, err := q.CreateUser(ctx, toDBUser(user))
		if err != nil {
			return fmt.Errorf("failed to create user: %w", err)
		}
		if affected == 0 {
			return domain.ErrUserAlreadyExists
		}

		for _, w := range user.Warnings {
			if err := q.UpsertWarning(ctx, toDBWarning(user.ID, w)); err != nil {
				return fmt.Errorf("failed to save warning %s: %w", w.ID, err)
			}
		}
		return nil
	})
}

// GetByID возвращает пользователя по ID.
func (r *UserRepository) GetByID(ctx context.Context, userID string) (*domain.User, error) {
	dbUser, err := r.queries.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	warnings, err := r.queries.ListWarningsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get warnings: %w", err)
	}

	return toDomainUser(dbUser, warnings), nil
}

// List возвращает всех пользователей с предупреждениями.
func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	dbUsers, err := r.queries.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	warnings, err := r.queries.ListWarnings(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list warnings: %w", err)
	}

	byUser := make(map[string][]database.Warning)
	for _, w := range warnings {
		byUser[w.UserID] = append(byUser[w.UserID], w)
	}

	users := make([]*domain.User, 0, len(dbUsers))
	for _, u := range dbUsers {
		users = append(users, toDomainUser(u, byUser[u.UserID]))
	}
	return users, nil
}

// Update блокирует строку пользователя, применяет fn и сохраняет результат в одной транзакции.
func (r *UserRepository) Update(ctx context.Context, userID string, fn func(user *domain.User) error) (*domain.User, error) {
	var result *domain.User

	err := withTx(ctx, r.db, r.queries, func(q *database.Queries) error {
		dbUser, err := q.GetUserForUpdate(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrUserNotFound
			}
			return fmt.Errorf("failed to lock user: %w", err)
		}

		warnings, err := q.ListWarningsByUser(ctx, userID)
		if err != nil {
			return fmt.Errorf("failed to get warnings: %w", err)
		}

		current := toDomainUser(dbUser, warnings)
		next := current.Clone()
		if err := fn(next); err != nil {
			if errors.Is(err, domain.ErrNoChanges) {
				result = current
				return errSkipWrite
			}
			return err
		}
		next.ID = userID

		if err := q.UpdateUser(ctx, database.UpdateUserParams{
			UserID:           next.ID,
			Username:         next.Username,
			Status:           string(next.Status),
			MuteUntil:        nullTime(next.MuteUntil),
			RemindersEnabled: next.RemindersEnabled,
			LastActivity:     next.LastActivity,
			WelcomeSent:      next.WelcomeSent,
		}); err != nil {
			return fmt.Errorf("failed to update user: %w", err)
		}

		stored := make(map[string]bool, len(current.Warnings))
		for _, w := range current.Warnings {
			stored[w.ID] = w.Active
		}
		for _, w := range next.Warnings {
			if active, ok := stored[w.ID]; ok && active == w.Active {
				continue
			}
			if err := q.UpsertWarning(ctx, toDBWarning(next.ID, w)); err != nil {
				return fmt.Errorf("failed to save warning %s: %w", w.ID, err)
			}
		}

		result = next
		return nil
	})
	if err != nil && !errors.Is(err, errSkipWrite) {
		return nil, err
	}

	return result, nil
}

// ExpireMutes снимает все мьюты с MuteUntil <= now одним запросом.
func (r *UserRepository) ExpireMutes(ctx context.Context, now time.Time) ([]string, error) {
	ids, err := r.queries.ExpireMutes(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to expire mutes: %w", err)
	}
	return ids, nil
}

func toDomainUser(u database.User, warnings []database.Warning) *domain.User {
	user := &domain.User{
		ID:               u.UserID,
		Username:         u.Username,
		Status:           domain.UserStatus(u.Status),
		RemindersEnabled: u.RemindersEnabled,
		LastActivity:     u.LastActivity,
		JoinedAt:         u.JoinedAt,
		WelcomeSent:      u.WelcomeSent,
	}
	if u.MuteUntil.Valid {
		t := u.MuteUntil.Time
		user.MuteUntil = &t
	}

	user.Warnings = make([]domain.Warning, 0, len(warnings))
	for _, w := range warnings {
		user.Warnings = append(user.Warnings, domain.Warning{
			ID:       w.WarningID,
			Reason:   w.Reason,
			IssuedBy: w.IssuedBy,
			IssuedAt: w.IssuedAt,
			Active:   w.Active,
		})
	}
	return user
}

func toDBUser(u *domain.User) database.User {
	return database.User{
		UserID:           u.ID,
		Username:         u.Username,
		Status:           string(u.Status),
		MuteUntil:        nullTime(u.MuteUntil),
		RemindersEnabled: u.RemindersEnabled,
		LastActivity:     u.LastActivity,
		JoinedAt:         u.JoinedAt,
		WelcomeSent:      u.WelcomeSent,
	}
}

func toDBWarning(userID string, w domain.Warning) database.Warning {
	return database.Warning{
		WarningID: w.ID,
		UserID:    userID,
		Reason:    w.Reason,
		IssuedBy:  w.IssuedBy,
		IssuedAt:  w.IssuedAt,
		Active:    w.Active,
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}
