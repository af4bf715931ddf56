package service

import (
	"time"

	"github.com/mmynk/amencash/internal/calculator"
	"github.com/mmynk/amencash/internal/ledger"
	"github.com/mmynk/amencash/internal/models"
)

// Wire types. Amounts travel as decimal strings with two places ("12.50").

type User struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	CreatedAt   int64  `json:"createdAt"`
}

type Group struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Members   []string `json:"members"`
	CreatedBy string   `json:"createdBy"`
	CreatedAt int64    `json:"createdAt"`
}

type Payment struct {
	UserID string    `json:"userId"`
	Amount string    `json:"amount"`
	PaidAt time.Time `json:"paidAt"`
}

type Expense struct {
	ID          string    `json:"id"`
	GroupID     string    `json:"groupId"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	PaidBy      string    `json:"paidBy"`
	SplitWith   []string  `json:"splitWith"`
	Status      string    `json:"status"`
	Payments    []Payment `json:"payments"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MemberBalance is positive when the member is owed money.
type MemberBalance struct {
	UserID string `json:"userId"`
	Net    string `json:"net"`
}

type Transfer struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Amount string `json:"amount"`
}

// AuthService messages.

type RegisterRequest struct {
	Email       string `json:"email"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName"`
	Password    string `json:"password"`
}

type RegisterResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// LoginRequest identifies the user by email or username.
type LoginRequest struct {
	Identifier string `json:"identifier"`
	Password   string `json:"password"`
}

type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type LogoutRequest struct{}

type LogoutResponse struct{}

type GetCurrentUserRequest struct{}

type GetCurrentUserResponse struct {
	User User `json:"user"`
}

type SearchUsersRequest struct {
	Query string `json:"query"`
	Limit int    `json:"limit,omitempty"`
}

type SearchUsersResponse struct {
	Users []User `json:"users"`
}

// GroupService messages.

type CreateGroupRequest struct {
	Name      string   `json:"name"`
	MemberIDs []string `json:"memberIds"`
}

type CreateGroupResponse struct {
	Group Group `json:"group"`
}

type GetGroupRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupResponse struct {
	Group Group `json:"group"`
}

type ListMyGroupsRequest struct{}

type ListMyGroupsResponse struct {
	Groups []Group `json:"groups"`
}

type AddGroupMemberRequest struct {
	GroupID string `json:"groupId"`
	UserID  string `json:"userId"`
}

type AddGroupMemberResponse struct {
	Group Group `json:"group"`
}

type DeleteGroupRequest struct {
	GroupID string `json:"groupId"`
}

type DeleteGroupResponse struct{}

type GetGroupMembersRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupMembersResponse struct {
	Members []User `json:"members"`
}

type GetGroupBalancesRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupBalancesResponse struct {
	Balances  []MemberBalance `json:"balances"`
	Transfers []Transfer      `json:"transfers"`
}

// ExpenseService messages.

// CreateExpenseRequest defaults PaidBy to the caller.
type CreateExpenseRequest struct {
	GroupID     string   `json:"groupId"`
	Description string   `json:"description"`
	Amount      string   `json:"amount"`
	PaidBy      string   `json:"paidBy,omitempty"`
	SplitWith   []string `json:"splitWith"`
}

type CreateExpenseResponse struct {
	Expense Expense `json:"expense"`
}

type GetGroupExpensesRequest struct {
	GroupID string `json:"groupId"`
}

type GetGroupExpensesResponse struct {
	Expenses []Expense `json:"expenses"`
}

type PayExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

// PayExpenseResponse carries the outcome name ("recorded", "settled",
// "no_such_pending_expense") and the expense after the call, if it exists.
type PayExpenseResponse struct {
	Outcome string   `json:"outcome"`
	Expense *Expense `json:"expense,omitempty"`
}

type CancelExpenseRequest struct {
	ExpenseID string `json:"expenseId"`
}

type CancelExpenseResponse struct {
	Outcome string   `json:"outcome"`
	Expense *Expense `json:"expense,omitempty"`
}

func toUser(u *models.User) User {
	return User{
		ID:          u.ID,
		Email:       u.Email,
		Username:    u.Username,
		DisplayName: u.DisplayName,
		CreatedAt:   u.CreatedAt,
	}
}

func toUsers(users []*models.User) []User {
	out := make([]User, len(users))
	for i, u := range users {
		out[i] = toUser(u)
	}
	return out
}

func toGroup(g *models.Group) Group {
	return Group{
		ID:        g.ID,
		Name:      g.Name,
		Members:   g.Members,
		CreatedBy: g.CreatedBy,
		CreatedAt: g.CreatedAt,
	}
}

func toExpense(e *models.Expense) Expense {
	payments := make([]Payment, len(e.Payments))
	for i, p := range e.Payments {
		payments[i] = Payment{
			UserID: p.UserID,
			Amount: p.Amount.StringFixed(calculator.CentPlaces),
			PaidAt: p.PaidAt,
		}
	}
	return Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      e.Amount.StringFixed(calculator.CentPlaces),
		PaidBy:      e.PaidBy,
		SplitWith:   e.SplitWith,
		Status:      string(e.Status),
		Payments:    payments,
		CreatedAt:   e.CreatedAt,
	}
}

func toBalancesResponse(report *ledger.BalanceReport) *GetGroupBalancesResponse {
	resp := &GetGroupBalancesResponse{
		Balances:  make([]MemberBalance, len(report.Balances)),
		Transfers: make([]Transfer, len(report.Transfers)),
	}
	for i, b := range report.Balances {
		resp.Balances[i] = MemberBalance{UserID: b.UserID, Net: b.Net.StringFixed(calculator.CentPlaces)}
	}
	for i, t := range report.Transfers {
		resp.Transfers[i] = Transfer{From: t.From, To: t.To, Amount: t.Amount.StringFixed(calculator.CentPlaces)}
	}
	return resp
}
