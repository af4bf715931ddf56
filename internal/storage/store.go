// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/amencash/internal/models"
)

var (
	// ErrNotFound is returned when a user, group or expense does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when a user's email or username is taken.
	ErrAlreadyExists = errors.New("already exists")

	// ErrGroupHasPendingExpenses is returned by DeleteGroup when the group still
	// has pending expenses. Nothing is deleted in that case.
	ErrGroupHasPendingExpenses = errors.New("group has pending expenses")
)

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (memory, SQLite, etc.)
// without changing the ledger.
//
// Every method is atomic on its own. Multi-step invariants that span calls
// (check then write) are serialized per group by the ledger engine.
type Store interface {
	UserStore
	GroupStore
	ExpenseStore

	// Close releases any resources held by the store.
	Close() error
}

// UserStore persists user accounts.
type UserStore interface {
	// CreateUser persists a new user. Fails with ErrAlreadyExists when the
	// email or username is already registered.
	CreateUser(ctx context.Context, user *models.User) error

	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)

	// GetUsersByIDs returns a map of user ID to user. Unknown IDs are omitted.
	GetUsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)

	// SearchUsers matches query case-insensitively against email and username,
	// skipping excludeUserID, returning at most limit users.
	SearchUsers(ctx context.Context, query, excludeUserID string, limit int) ([]*models.User, error)
}

// GroupStore persists groups.
type GroupStore interface {
	// CreateGroup persists a new group. The ID and CreatedAt fields are populated if empty.
	CreateGroup(ctx context.Context, group *models.Group) error

	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// UpdateGroupMembers replaces the member list of a group.
	UpdateGroupMembers(ctx context.Context, groupID string, members []string) error

	// ListGroupsByMember returns the groups userID belongs to, oldest first.
	ListGroupsByMember(ctx context.Context, userID string) ([]*models.Group, error)

	// DeleteGroup removes a group and every expense that belongs to it in one
	// atomic step. If any of its expenses is pending it returns
	// ErrGroupHasPendingExpenses and changes nothing.
	DeleteGroup(ctx context.Context, groupID string) error
}

// ExpenseStore persists expenses with their payments.
type ExpenseStore interface {
	// CreateExpense persists a new expense. The ID field is populated if empty.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense overwrites the status and payments of an existing expense.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// ListExpensesByGroup returns a group's expenses in creation order.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)
}
