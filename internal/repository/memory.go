package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"course-notify-bot/internal/domain"
)

type (
	// MemoryDB - хранилище в памяти процесса для STORE_DRIVER=memory и тестов.
	MemoryDB struct {
		users       *userTable
		assignments *assignmentTable
		activity    *activityTable
	}

	userTable struct {
		t     map[string]*domain.User
		mutex sync.RWMutex
	}

	assignmentTable struct {
		t     map[string]*domain.Assignment
		mutex sync.RWMutex
	}

	activityTable struct {
		t     []domain.ActivityRecord
		mutex sync.RWMutex
	}
)

// NewMemoryDB создает пустое хранилище в памяти.
func NewMemoryDB() *MemoryDB {
	return &MemoryDB{
		users:       &userTable{t: make(map[string]*domain.User)},
		assignments: &assignmentTable{t: make(map[string]*domain.Assignment)},
		activity:    &activityTable{},
	}
}

type memoryUserRepository struct {
	db *userTable
}

// NewMemoryUserRepository возвращает UserRepository поверх MemoryDB.
func NewMemoryUserRepository(db *MemoryDB) domain.UserRepository {
	return &memoryUserRepository{db: db.users}
}

func (r *memoryUserRepository) Create(_ context.Context, user *domain.User) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[user.ID]; ok {
		return domain.ErrUserAlreadyExists
	}
	r.db.t[user.ID] = user.Clone()
	return nil
}

func (r *memoryUserRepository) GetByID(_ context.Context, userID string) (*domain.User, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if u, ok := r.db.t[userID]; ok {
		return u.Clone(), nil
	}
	return nil, domain.ErrUserNotFound
}

func (r *memoryUserRepository) List(_ context.Context) ([]*domain.User, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	res := make([]*domain.User, 0, len(r.db.t))
	for _, u := range r.db.t {
		res = append(res, u.Clone())
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].JoinedAt.Equal(res[j].JoinedAt) {
			return res[i].JoinedAt.Before(res[j].JoinedAt)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (r *memoryUserRepository) Update(_ context.Context, userID string, fn func(user *domain.User) error) (*domain.User, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	current, ok := r.db.t[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}

	next := current.Clone()
	if err := fn(next); err != nil {
		if errors.Is(err, domain.ErrNoChanges) {
			return current.Clone(), nil
		}
		return nil, err
	}
	next.ID = userID

	r.db.t[userID] = next
	return next.Clone(), nil
}

func (r *memoryUserRepository) ExpireMutes(_ context.Context, now time.Time) ([]string, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	var ids []string
	for id, u := range r.db.t {
		if u.Status == domain.StatusMuted && (u.MuteUntil == nil || !u.MuteUntil.After(now)) {
			u.ClearMute()
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids, nil
}

type memoryAssignmentRepository struct {
	db *assignmentTable
}

// NewMemoryAssignmentRepository возвращает AssignmentRepository поверх MemoryDB.
func NewMemoryAssignmentRepository(db *MemoryDB) domain.AssignmentRepository {
	return &memoryAssignmentRepository{db: db.assignments}
}

func (r *memoryAssignmentRepository) Create(_ context.Context, a *domain.Assignment) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	if _, ok := r.db.t[a.ID]; ok {
		return fmt.Errorf("assignment %s already exists", a.ID)
	}
	r.db.t[a.ID] = cloneAssignment(a)
	return nil
}

func (r *memoryAssignmentRepository) GetByID(_ context.Context, assignmentID string) (*domain.Assignment, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	if a, ok := r.db.t[assignmentID]; ok {
		return cloneAssignment(a), nil
	}
	return nil, domain.ErrAssignmentNotFound
}

func (r *memoryAssignmentRepository) ListActive(_ context.Context, now time.Time) ([]*domain.Assignment, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	var res []*domain.Assignment
	for _, a := range r.db.t {
		if a.Status(now) == domain.AssignmentActive {
			res = append(res, cloneAssignment(a))
		}
	}
	sort.Slice(res, func(i, j int) bool {
		if !res[i].Deadline.Equal(res[j].Deadline) {
			return res[i].Deadline.Before(res[j].Deadline)
		}
		return res[i].ID < res[j].ID
	})
	return res, nil
}

func (r *memoryAssignmentRepository) MarkCompleted(_ context.Context, assignmentID, userID string, at time.Time) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	a, ok := r.db.t[assignmentID]
	if !ok {
		return domain.ErrAssignmentNotFound
	}
	if a.Status(at) == domain.AssignmentExpired {
		return domain.ErrAssignmentExpired
	}
	if a.IsCompletedBy(userID) {
		return domain.ErrAssignmentCompleted
	}
	if a.CompletedBy == nil {
		a.CompletedBy = make(map[string]struct{})
	}
	a.CompletedBy[userID] = struct{}{}
	return nil
}

func cloneAssignment(a *domain.Assignment) *domain.Assignment {
	c := *a
	c.CompletedBy = make(map[string]struct{}, len(a.CompletedBy))
	for id := range a.CompletedBy {
		c.CompletedBy[id] = struct{}{}
	}
	return &c
}

type memoryActivityRepository struct {
	db *activityTable
}

// NewMemoryActivityRepository возвращает ActivityRepository поверх MemoryDB.
func NewMemoryActivityRepository(db *MemoryDB) domain.ActivityRepository {
	return &memoryActivityRepository{db: db.activity}
}

func (r *memoryActivityRepository) Record(_ context.Context, record domain.ActivityRecord) error {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	r.db.t = append(r.db.t, record)
	return nil
}

func (r *memoryActivityRepository) CountSince(_ context.Context, since time.Time) (int, error) {
	r.db.mutex.RLock()
	defer r.db.mutex.RUnlock()

	count := 0
	for _, rec := range r.db.t {
		if rec.Kind == domain.ActivityMessage && !rec.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

func (r *memoryActivityRepository) PruneBefore(_ context.Context, before time.Time) (int64, error) {
	r.db.mutex.Lock()
	defer r.db.mutex.Unlock()

	kept := r.db.t[:0]
	var deleted int64
	for _, rec := range r.db.t {
		if rec.CreatedAt.Before(before) {
			deleted++
			continue
		}
		kept = append(kept, rec)
	}
	r.db.t = kept
	return deleted, nil
}
