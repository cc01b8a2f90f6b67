package database

import (
	"context"
	"database/sql"
	"time"
)

// DBTX - общий интерфейс *sql.DB и *sql.Tx.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Queries содержит все SQL-запросы сервиса.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx возвращает копию Queries, выполняющую запросы в транзакции tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

const userColumns = `user_id, username, status, mute_until, reminders_enabled, last_activity, joined_at, welcome_sent`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (User, error) {
	var u User
	err := row.Scan(
		&u.UserID,
		&u.Username,
		&u.Status,
		&u.MuteUntil,
		&u.RemindersEnabled,
		&u.LastActivity,
		&u.JoinedAt,
		&u.WelcomeSent,
	)
	return u, err
}

const createUser = `INSERT INTO users (` + userColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (user_id) DO NOTHING`

type CreateUserParams = User

// CreateUser вставляет пользователя. 0 затронутых строк означает, что он уже существует.
func (q *Queries) CreateUser(ctx context.Context, arg CreateUserParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, createUser,
		arg.UserID,
		arg.Username,
		arg.Status,
		arg.MuteUntil,
		arg.RemindersEnabled,
		arg.LastActivity,
		arg.JoinedAt,
		arg.WelcomeSent,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getUserByID = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1`

func (q *Queries) GetUserByID(ctx context.Context, userID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserByID, userID))
}

const getUserForUpdate = `SELECT ` + userColumns + ` FROM users WHERE user_id = $1 FOR UPDATE`

// GetUserForUpdate блокирует строку пользователя до конца транзакции.
func (q *Queries) GetUserForUpdate(ctx context.Context, userID string) (User, error) {
	return scanUser(q.db.QueryRowContext(ctx, getUserForUpdate, userID))
}

const listUsers = `SELECT ` + userColumns + ` FROM users ORDER BY joined_at, user_id`

func (q *Queries) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := q.db.QueryContext(ctx, listUsers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, u)
	}
	return items, rows.Err()
}

const updateUser = `UPDATE users
SET username = $2, status = $3, mute_until = $4, reminders_enabled = $5,
    last_activity = $6, welcome_sent = $7
WHERE user_id = $1`

type UpdateUserParams struct {
	UserID           string
	Username         string
	Status           string
	MuteUntil        sql.NullTime
	RemindersEnabled bool
	LastActivity     time.Time
	WelcomeSent      bool
}

func (q *Queries) UpdateUser(ctx context.Context, arg UpdateUserParams) error {
	_, err := q.db.ExecContext(ctx, updateUser,
		arg.UserID,
		arg.Username,
		arg.Status,
		arg.MuteUntil,
		arg.RemindersEnabled,
		arg.LastActivity,
		arg.WelcomeSent,
	)
	return err
}

const expireMutes = `UPDATE users
SET status = 'active', mute_until = NULL
WHERE status = 'muted' AND mute_until <= $1
RETURNING user_id`

// ExpireMutes одним запросом снимает все истекшие мьюты и возвращает ID пользователей.
func (q *Queries) ExpireMutes(ctx context.Context, now time.Time) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, expireMutes, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

const warningColumns = `warning_id, user_id, reason, issued_by, issued_at, active`

func scanWarnings(rows *sql.Rows) ([]Warning, error) {
	defer rows.Close()

	var items []Warning
	for rows.Next() {
		var w Warning
		if err := rows.Scan(&w.WarningID, &w.UserID, &w.Reason, &w.IssuedBy, &w.IssuedAt, &w.Active); err != nil {
			return nil, err
		}
		items = append(items, w)
	}
	return items, rows.Err()
}

const listWarningsByUser = `SELECT ` + warningColumns + ` FROM warnings WHERE user_id = $1 ORDER BY issued_at, warning_id`

func (q *Queries) ListWarningsByUser(ctx context.Context, userID string) ([]Warning, error) {
	rows, err := q.db.QueryContext(ctx, listWarningsByUser, userID)
	if err != nil {
		return nil, err
	}
	return scanWarnings(rows)
}

const listWarnings = `SELECT ` + warningColumns + ` FROM warnings ORDER BY user_id, issued_at, warning_id`

func (q *Queries) ListWarnings(ctx context.Context) ([]Warning, error) {
	rows, err := q.db.QueryContext(ctx, listWarnings)
	if err != nil {
		return nil, err
	}
	return scanWarnings(rows)
}

const upsertWarning = `INSERT INTO warnings (` + warningColumns + `)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (warning_id) DO UPDATE SET active = EXCLUDED.active`

func (q *Queries) UpsertWarning(ctx context.Context, arg Warning) error {
	_, err := q.db.ExecContext(ctx, upsertWarning,
		arg.WarningID,
		arg.UserID,
		arg.Reason,
		arg.IssuedBy,
		arg.IssuedAt,
		arg.Active,
	)
	return err
}

const assignmentColumns = `assignment_id, title, type, deadline, created_by`

const createAssignment = `INSERT INTO assignments (` + assignmentColumns + `)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (assignment_id) DO NOTHING`

func (q *Queries) CreateAssignment(ctx context.Context, arg Assignment) (int64, error) {
	res, err := q.db.ExecContext(ctx, createAssignment,
		arg.AssignmentID,
		arg.Title,
		arg.Type,
		arg.Deadline,
		arg.CreatedBy,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getAssignmentByID = `SELECT ` + assignmentColumns + ` FROM assignments WHERE assignment_id = $1`

func (q *Queries) GetAssignmentByID(ctx context.Context, assignmentID string) (Assignment, error) {
	var a Assignment
	err := q.db.QueryRowContext(ctx, getAssignmentByID, assignmentID).
		Scan(&a.AssignmentID, &a.Title, &a.Type, &a.Deadline, &a.CreatedBy)
	return a, err
}

const listActiveAssignments = `SELECT ` + assignmentColumns + ` FROM assignments
WHERE deadline > $1
ORDER BY deadline, assignment_id`

func (q *Queries) ListActiveAssignments(ctx context.Context, now time.Time) ([]Assignment, error) {
	rows, err := q.db.QueryContext(ctx, listActiveAssignments, now)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []Assignment
	for rows.Next() {
		var a Assignment
		if err := rows.Scan(&a.AssignmentID, &a.Title, &a.Type, &a.Deadline, &a.CreatedBy); err != nil {
			return nil, err
		}
		items = append(items, a)
	}
	return items, rows.Err()
}

const listCompletionsByAssignment = `SELECT assignment_id, user_id FROM assignment_completions WHERE assignment_id = $1`

func (q *Queries) ListCompletionsByAssignment(ctx context.Context, assignmentID string) ([]AssignmentCompletion, error) {
	rows, err := q.db.QueryContext(ctx, listCompletionsByAssignment, assignmentID)
	if err != nil {
		return nil, err
	}
	return scanCompletions(rows)
}

const listActiveCompletions = `SELECT c.assignment_id, c.user_id
FROM assignment_completions c
JOIN assignments a ON a.assignment_id = c.assignment_id
WHERE a.deadline > $1`

// ListActiveCompletions возвращает отметки о выполнении для всех еще не истекших заданий.
func (q *Queries) ListActiveCompletions(ctx context.Context, now time.Time) ([]AssignmentCompletion, error) {
	rows, err := q.db.QueryContext(ctx, listActiveCompletions, now)
	if err != nil {
		return nil, err
	}
	return scanCompletions(rows)
}

func scanCompletions(rows *sql.Rows) ([]AssignmentCompletion, error) {
	defer rows.Close()

	var items []AssignmentCompletion
	for rows.Next() {
		var c AssignmentCompletion
		if err := rows.Scan(&c.AssignmentID, &c.UserID); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const insertCompletion = `INSERT INTO assignment_completions (assignment_id, user_id, completed_at)
VALUES ($1, $2, $3)
ON CONFLICT (assignment_id, user_id) DO NOTHING`

type InsertCompletionParams struct {
	AssignmentID string
	UserID       string
	CompletedAt  time.Time
}

func (q *Queries) InsertCompletion(ctx context.Context, arg InsertCompletionParams) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertCompletion, arg.AssignmentID, arg.UserID, arg.CompletedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const insertActivity = `INSERT INTO activity_log (user_id, kind, created_at) VALUES ($1, $2, $3)`

func (q *Queries) InsertActivity(ctx context.Context, arg ActivityLog) error {
	_, err := q.db.ExecContext(ctx, insertActivity, arg.UserID, arg.Kind, arg.CreatedAt)
	return err
}

const countActivitySince = `SELECT COUNT(*) FROM activity_log WHERE kind = 'message' AND created_at >= $1`

// CountActivitySince считает сообщения участников, начиная с since.
func (q *Queries) CountActivitySince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countActivitySince, since).Scan(&count)
	return count, err
}

const deleteActivityBefore = `DELETE FROM activity_log WHERE created_at < $1`

func (q *Queries) DeleteActivityBefore(ctx context.Context, before time.Time) (int64, error) {
	res, err := q.db.ExecContext(ctx, deleteActivityBefore, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
