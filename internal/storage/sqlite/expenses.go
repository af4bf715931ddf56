package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/amencash/internal/models"
	"github.com/mmynk/amencash/internal/storage"
)

// CreateExpense persists a new expense with its split members and payments.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	if expense.CreatedAt.IsZero() {
		expense.CreatedAt = time.Now()
	}

	return s.withTx(ctx, func(tx *sql.Tx) error {
		if err := groupExists(ctx, tx, expense.GroupID); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`INSERT INTO expenses (id, group_id, description, amount, paid_by, status, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			expense.ID, expense.GroupID, expense.Description, expense.Amount.String(),
			expense.PaidBy, string(expense.Status), expense.CreatedAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert expense: %w", err)
		}

		for i, userID := range expense.SplitWith {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO expense_splits (expense_id, position, user_id) VALUES (?, ?, ?)",
				expense.ID, i, userID,
			)
			if err != nil {
				return fmt.Errorf("failed to insert expense split: %w", err)
			}
		}

		return insertPayments(ctx, tx, expense.ID, expense.Payments)
	})
}

func insertPayments(ctx context.Context, tx *sql.Tx, expenseID string, payments []models.Payment) error {
	for i, p := range payments {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_payments (expense_id, position, user_id, amount, paid_at) VALUES (?, ?, ?, ?, ?)",
			expenseID, i, p.UserID, p.Amount.String(), p.PaidAt.UnixNano(),
		)
		if err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID, including split members and payments.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, status, created_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	)

	expense, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	if err := s.loadExpenseDetails(ctx, expense); err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense overwrites status and payments of an existing expense.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			"UPDATE expenses SET status = ? WHERE id = ?",
			string(expense.Status), expense.ID,
		)
		if err != nil {
			return fmt.Errorf("failed to update expense: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check updated rows: %w", err)
		}
		if n == 0 {
			return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
		}

		if _, err := tx.ExecContext(ctx, "DELETE FROM expense_payments WHERE expense_id = ?", expense.ID); err != nil {
			return fmt.Errorf("failed to clear payments: %w", err)
		}
		return insertPayments(ctx, tx, expense.ID, expense.Payments)
	})
}

// ListExpensesByGroup retrieves all expenses of a group in creation order.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, description, amount, paid_by, status, created_at
		 FROM expenses WHERE group_id = ? ORDER BY created_at, rowid`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses by group: %w", err)
	}

	var expenses []*models.Expense
	for rows.Next() {
		expense, err := scanExpense(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, expense)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}

	for _, expense := range expenses {
		if err := s.loadExpenseDetails(ctx, expense); err != nil {
			return nil, err
		}
	}
	return expenses, nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	expense := &models.Expense{}
	var status string
	var createdAt int64
	err := row.Scan(&expense.ID, &expense.GroupID, &expense.Description, &expense.Amount,
		&expense.PaidBy, &status, &createdAt)
	if err != nil {
		return nil, err
	}
	expense.Status = models.ExpenseStatus(status)
	expense.CreatedAt = time.Unix(0, createdAt)
	return expense, nil
}

// loadExpenseDetails fills SplitWith and Payments.
func (s *SQLiteStore) loadExpenseDetails(ctx context.Context, expense *models.Expense) error {
	splitRows, err := s.db.QueryContext(ctx,
		"SELECT user_id FROM expense_splits WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get expense splits: %w", err)
	}
	for splitRows.Next() {
		var userID string
		if err := splitRows.Scan(&userID); err != nil {
			splitRows.Close()
			return fmt.Errorf("failed to scan expense split: %w", err)
		}
		expense.SplitWith = append(expense.SplitWith, userID)
	}
	splitRows.Close()
	if err := splitRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate expense splits: %w", err)
	}

	paymentRows, err := s.db.QueryContext(ctx,
		"SELECT user_id, amount, paid_at FROM expense_payments WHERE expense_id = ? ORDER BY position",
		expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to get payments: %w", err)
	}
	defer paymentRows.Close()

	for paymentRows.Next() {
		var p models.Payment
		var amount decimal.Decimal
		var paidAt int64
		if err := paymentRows.Scan(&p.UserID, &amount, &paidAt); err != nil {
			return fmt.Errorf("failed to scan payment: %w", err)
		}
		p.Amount = amount
		p.PaidAt = time.Unix(0, paidAt)
		expense.Payments = append(expense.Payments, p)
	}
	if err := paymentRows.Err(); err != nil {
		return fmt.Errorf("failed to iterate payments: %w", err)
	}
	return nil
}
