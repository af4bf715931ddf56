// Package memory provides an in-process implementation of storage.Store.
// State lives only as long as the Store value; nothing is process-global.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/amencash/internal/models"
	"github.com/mmynk/amencash/internal/storage"
)

// Ensure Store implements storage.Store
var _ storage.Store = (*Store)(nil)

// Store keeps users, groups and expenses in maps guarded by one RWMutex.
// Values are copied on the way in and out so callers never share memory with the store.
type Store struct {
	mu sync.RWMutex

	users    map[string]*models.User
	groups   map[string]*models.Group
	expenses map[string]*storedExpense

	seq int64
}

type storedExpense struct {
	seq     int64
	expense *models.Expense
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		users:    make(map[string]*models.User),
		groups:   make(map[string]*models.Group),
		expenses: make(map[string]*storedExpense),
	}
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

// User Store implementation

func (s *Store) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range s.users {
		if u.Email == user.Email || u.Username == user.Username {
			return fmt.Errorf("user %s: %w", user.Email, storage.ErrAlreadyExists)
		}
	}
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if user.CreatedAt == 0 {
		user.CreatedAt = time.Now().Unix()
	}

	u := *user
	s.users[u.ID] = &u
	return nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if u, ok := s.users[id]; ok {
		c := *u
		return &c, nil
	}
	return nil, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Email == email }, email)
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	return s.findUser(func(u *models.User) bool { return u.Username == username }, username)
}

func (s *Store) findUser(match func(*models.User) bool, key string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if match(u) {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", key, storage.ErrNotFound)
}

func (s *Store) GetUsersByIDs(_ context.Context, ids []string) (map[string]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users := make(map[string]*models.User, len(ids))
	for _, id := range ids {
		if u, ok := s.users[id]; ok {
			c := *u
			users[id] = &c
		}
	}
	return users, nil
}

func (s *Store) SearchUsers(_ context.Context, query, excludeUserID string, limit int) ([]*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q := strings.ToLower(query)
	var matches []*models.User
	for _, u := range s.users {
		if u.ID == excludeUserID {
			continue
		}
		if strings.Contains(strings.ToLower(u.Email), q) || strings.Contains(strings.ToLower(u.Username), q) {
			c := *u
			matches = append(matches, &c)
		}
	}
	sort.Slice(matches, func(i, j int) bool {
		if matches[i].CreatedAt != matches[j].CreatedAt {
			return matches[i].CreatedAt < matches[j].CreatedAt
		}
		return matches[i].Username < matches[j].Username
	})
	if limit > 0 && len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}

// Group Store implementation

func (s *Store) CreateGroup(_ context.Context, group *models.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}
	s.groups[group.ID] = cloneGroup(group)
	return nil
}

func (s *Store) GetGroup(_ context.Context, groupID string) (*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if g, ok := s.groups[groupID]; ok {
		return cloneGroup(g), nil
	}
	return nil, fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
}

func (s *Store) UpdateGroupMembers(_ context.Context, groupID string, members []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[groupID]
	if !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}
	g.Members = slices.Clone(members)
	return nil
}

func (s *Store) ListGroupsByMember(_ context.Context, userID string) ([]*models.Group, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var groups []*models.Group
	for _, g := range s.groups {
		if g.HasMember(userID) {
			groups = append(groups, cloneGroup(g))
		}
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].CreatedAt != groups[j].CreatedAt {
			return groups[i].CreatedAt < groups[j].CreatedAt
		}
		return groups[i].ID < groups[j].ID
	})
	return groups, nil
}

func (s *Store) DeleteGroup(_ context.Context, groupID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[groupID]; !ok {
		return fmt.Errorf("group %s: %w", groupID, storage.ErrNotFound)
	}

	var doomed []string
	for id, se := range s.expenses {
		if se.expense.GroupID != groupID {
			continue
		}
		if se.expense.Status == models.ExpenseStatusPending {
			return fmt.Errorf("group %s: %w", groupID, storage.ErrGroupHasPendingExpenses)
		}
		doomed = append(doomed, id)
	}

	for _, id := range doomed {
		delete(s.expenses, id)
	}
	delete(s.groups, groupID)
	return nil
}

// Expense Store implementation

func (s *Store) CreateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.groups[expense.GroupID]; !ok {
		return fmt.Errorf("group %s: %w", expense.GroupID, storage.ErrNotFound)
	}
	if !expense.Status.Valid() {
		return fmt.Errorf("unknown expense status %q", expense.Status)
	}
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	s.seq++
	s.expenses[expense.ID] = &storedExpense{seq: s.seq, expense: expense.Clone()}
	return nil
}

func (s *Store) GetExpense(_ context.Context, expenseID string) (*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if se, ok := s.expenses[expenseID]; ok {
		return se.expense.Clone(), nil
	}
	return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
}

func (s *Store) UpdateExpense(_ context.Context, expense *models.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	se, ok := s.expenses[expense.ID]
	if !ok {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}
	if !expense.Status.Valid() {
		return fmt.Errorf("unknown expense status %q", expense.Status)
	}
	se.expense.Status = expense.Status
	se.expense.Payments = slices.Clone(expense.Payments)
	return nil
}

func (s *Store) ListExpensesByGroup(_ context.Context, groupID string) ([]*models.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var stored []*storedExpense
	for _, se := range s.expenses {
		if se.expense.GroupID == groupID {
			stored = append(stored, se)
		}
	}
	sort.Slice(stored, func(i, j int) bool { return stored[i].seq < stored[j].seq })

	expenses := make([]*models.Expense, len(stored))
	for i, se := range stored {
		expenses[i] = se.expense.Clone()
	}
	return expenses, nil
}

func cloneGroup(g *models.Group) *models.Group {
	c := *g
	c.Members = slices.Clone(g.Members)
	return &c
}
