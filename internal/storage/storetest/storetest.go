// Package storetest holds behaviour tests shared by every storage.Store backend.
package storetest

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/amencash/internal/models"
	"github.com/mmynk/amencash/internal/storage"
)

// Run exercises a fresh store returned by newStore for each subtest.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("Users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("SearchUsers", func(t *testing.T) { testSearchUsers(t, newStore(t)) })
	t.Run("Groups", func(t *testing.T) { testGroups(t, newStore(t)) })
	t.Run("Expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("DeleteGroup", func(t *testing.T) { testDeleteGroup(t, newStore(t)) })
}

func testUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()

	alice := models.NewUser("alice@example.com", "alice", "Alice Johnson", "hash")
	require.NoError(t, store.CreateUser(ctx, alice))

	got, err := store.GetUserByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.Email, got.Email)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, "Alice Johnson", got.DisplayName)
	assert.Equal(t, "hash", got.PasswordHash)

	got, err = store.GetUserByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = store.GetUserByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Same email, different username
	err = store.CreateUser(ctx, models.NewUser("alice@example.com", "alice2", "A", "hash"))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	// Same username, different email
	err = store.CreateUser(ctx, models.NewUser("other@example.com", "alice", "A", "hash"))
	assert.ErrorIs(t, err, storage.ErrAlreadyExists)

	bob := models.NewUser("bob@example.com", "bob", "Bob Smith", "hash")
	require.NoError(t, store.CreateUser(ctx, bob))

	users, err := store.GetUsersByIDs(ctx, []string{alice.ID, bob.ID, "missing"})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, "bob", users[bob.ID].Username)

	users, err = store.GetUsersByIDs(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, users)
}

func testSearchUsers(t *testing.T, store storage.Store) {
	ctx := context.Background()

	var me *models.User
	for i, name := range []string{"ann", "anna", "annie", "bob", "joanne", "danny", "hannah"} {
		u := models.NewUser(name+"@example.com", name, name, "hash")
		u.CreatedAt = int64(1000 + i)
		require.NoError(t, store.CreateUser(ctx, u))
		if name == "ann" {
			me = u
		}
	}

	matches, err := store.SearchUsers(ctx, "ANN", me.ID, 5)
	require.NoError(t, err)
	require.Len(t, matches, 5)
	for _, m := range matches {
		assert.NotEqual(t, me.ID, m.ID)
		assert.Contains(t, m.Username, "ann")
	}
	assert.Equal(t, "anna", matches[0].Username)

	matches, err = store.SearchUsers(ctx, "bob", "", 5)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "bob", matches[0].Username)

	matches, err = store.SearchUsers(ctx, "%", "", 5)
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func testGroups(t *testing.T, store storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Trip", Members: []string{"A", "B", "C"}, CreatedBy: "A"}
	require.NoError(t, store.CreateGroup(ctx, group))
	assert.NotEmpty(t, group.ID)
	assert.NotZero(t, group.CreatedAt)

	got, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "Trip", got.Name)
	assert.Equal(t, "A", got.CreatedBy)
	assert.Equal(t, []string{"A", "B", "C"}, got.Members)

	// Returned values are copies.
	got.Members[0] = "Z"
	again, err := store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", again.Members[0])

	require.NoError(t, store.UpdateGroupMembers(ctx, group.ID, []string{"A", "B", "C", "D"}))
	got, err = store.GetGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C", "D"}, got.Members)

	err = store.UpdateGroupMembers(ctx, "missing", []string{"A"})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	other := &models.Group{Name: "Flat", Members: []string{"B", "E"}, CreatedBy: "B", CreatedAt: group.CreatedAt + 10}
	require.NoError(t, store.CreateGroup(ctx, other))

	groups, err := store.ListGroupsByMember(ctx, "B")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, group.ID, groups[0].ID)
	assert.Equal(t, other.ID, groups[1].ID)

	groups, err = store.ListGroupsByMember(ctx, "E")
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "Flat", groups[0].Name)

	groups, err = store.ListGroupsByMember(ctx, "nobody")
	require.NoError(t, err)
	assert.Empty(t, groups)

	_, err = store.GetGroup(ctx, "nonexistent-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testExpenses(t *testing.T, store storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Trip", Members: []string{"A", "B", "C"}, CreatedBy: "A"}
	require.NoError(t, store.CreateGroup(ctx, group))

	created := time.Unix(1700000000, 0)
	expense := &models.Expense{
		GroupID:     group.ID,
		Description: "Dinner",
		Amount:      decimal.RequireFromString("90.00"),
		PaidBy:      "A",
		SplitWith:   []string{"A", "B", "C"},
		Status:      models.ExpenseStatusPending,
		CreatedAt:   created,
	}
	require.NoError(t, store.CreateExpense(ctx, expense))
	assert.NotEmpty(t, expense.ID)

	got, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, group.ID, got.GroupID)
	assert.Equal(t, "Dinner", got.Description)
	assert.True(t, got.Amount.Equal(decimal.NewFromInt(90)), "amount = %s", got.Amount)
	assert.Equal(t, []string{"A", "B", "C"}, got.SplitWith)
	assert.Equal(t, models.ExpenseStatusPending, got.Status)
	assert.Empty(t, got.Payments)
	assert.True(t, got.CreatedAt.Equal(created))

	paidAt := created.Add(time.Hour)
	got.Payments = append(got.Payments, models.Payment{UserID: "B", Amount: decimal.NewFromInt(30), PaidAt: paidAt})
	require.NoError(t, store.UpdateExpense(ctx, got))

	got.Payments = append(got.Payments, models.Payment{UserID: "C", Amount: decimal.NewFromInt(30), PaidAt: paidAt})
	got.Status = models.ExpenseStatusPaid
	require.NoError(t, store.UpdateExpense(ctx, got))

	reloaded, err := store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusPaid, reloaded.Status)
	require.Len(t, reloaded.Payments, 2)
	assert.Equal(t, "B", reloaded.Payments[0].UserID)
	assert.Equal(t, "C", reloaded.Payments[1].UserID)
	assert.True(t, reloaded.Payments[1].Amount.Equal(decimal.NewFromInt(30)))
	assert.True(t, reloaded.Payments[1].PaidAt.Equal(paidAt))

	second := &models.Expense{
		GroupID:   group.ID,
		Amount:    decimal.RequireFromString("12.34"),
		PaidBy:    "B",
		SplitWith: []string{"C"},
		Status:    models.ExpenseStatusPending,
		CreatedAt: created.Add(time.Minute),
	}
	require.NoError(t, store.CreateExpense(ctx, second))

	list, err := store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, expense.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
	assert.Equal(t, "", list[1].Description)

	list, err = store.ListExpensesByGroup(ctx, "other-group")
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = store.GetExpense(ctx, "nonexistent-id")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	err = store.UpdateExpense(ctx, &models.Expense{ID: "nonexistent-id", Status: models.ExpenseStatusPaid})
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Unknown statuses are rejected and leave the stored expense untouched.
	bogus := reloaded.Clone()
	bogus.Status = models.ExpenseStatus("archived")
	require.Error(t, store.UpdateExpense(ctx, bogus))
	reloaded, err = store.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ExpenseStatusPaid, reloaded.Status)

	err = store.CreateExpense(ctx, &models.Expense{
		GroupID: group.ID, Amount: decimal.NewFromInt(1), PaidBy: "A",
		SplitWith: []string{"A"}, Status: models.ExpenseStatus(""), CreatedAt: created,
	})
	require.Error(t, err)

	err = store.CreateExpense(ctx, &models.Expense{
		GroupID: "missing-group", Amount: decimal.NewFromInt(1), PaidBy: "A",
		SplitWith: []string{"A"}, Status: models.ExpenseStatusPending, CreatedAt: created,
	})
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testDeleteGroup(t *testing.T, store storage.Store) {
	ctx := context.Background()

	group := &models.Group{Name: "Trip", Members: []string{"A", "B"}, CreatedBy: "A"}
	require.NoError(t, store.CreateGroup(ctx, group))
	keep := &models.Group{Name: "Other", Members: []string{"A"}, CreatedBy: "A"}
	require.NoError(t, store.CreateGroup(ctx, keep))

	newExpense := func(groupID string, status models.ExpenseStatus) *models.Expense {
		e := &models.Expense{
			GroupID:   groupID,
			Amount:    decimal.NewFromInt(50),
			PaidBy:    "A",
			SplitWith: []string{"A", "B"},
			Status:    status,
			CreatedAt: time.Now(),
		}
		require.NoError(t, store.CreateExpense(ctx, e))
		return e
	}

	newExpense(group.ID, models.ExpenseStatusPaid)
	pending := newExpense(group.ID, models.ExpenseStatusPending)
	newExpense(keep.ID, models.ExpenseStatusPending)

	before, err := store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)

	err = store.DeleteGroup(ctx, group.ID)
	assert.ErrorIs(t, err, storage.ErrGroupHasPendingExpenses)

	after, err := store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Equal(t, before, after, "failed delete must leave expenses untouched")
	_, err = store.GetGroup(ctx, group.ID)
	require.NoError(t, err)

	pending.Status = models.ExpenseStatusCancelled
	require.NoError(t, store.UpdateExpense(ctx, pending))

	require.NoError(t, store.DeleteGroup(ctx, group.ID))

	_, err = store.GetGroup(ctx, group.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
	remaining, err := store.ListExpensesByGroup(ctx, group.ID)
	require.NoError(t, err)
	assert.Empty(t, remaining)
	_, err = store.GetExpense(ctx, pending.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	// Other groups are untouched.
	others, err := store.ListExpensesByGroup(ctx, keep.ID)
	require.NoError(t, err)
	assert.Len(t, others, 1)

	err = store.DeleteGroup(ctx, group.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}
