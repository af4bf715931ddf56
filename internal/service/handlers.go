package service

import (
	"context"
	"net/http"

	"connectrpc.com/connect"

	"github.com/mmynk/amencash/internal/auth"
	"github.com/mmynk/amencash/internal/middleware"
)

const (
	AuthServiceName    = "amencash.v1.AuthService"
	GroupServiceName   = "amencash.v1.GroupService"
	ExpenseServiceName = "amencash.v1.ExpenseService"
)

const (
	AuthServiceRegisterProcedure       = "/" + AuthServiceName + "/Register"
	AuthServiceLoginProcedure          = "/" + AuthServiceName + "/Login"
	AuthServiceLogoutProcedure         = "/" + AuthServiceName + "/Logout"
	AuthServiceGetCurrentUserProcedure = "/" + AuthServiceName + "/GetCurrentUser"
	AuthServiceSearchUsersProcedure    = "/" + AuthServiceName + "/SearchUsers"

	GroupServiceCreateGroupProcedure      = "/" + GroupServiceName + "/CreateGroup"
	GroupServiceGetGroupProcedure         = "/" + GroupServiceName + "/GetGroup"
	GroupServiceListMyGroupsProcedure     = "/" + GroupServiceName + "/ListMyGroups"
	GroupServiceAddGroupMemberProcedure   = "/" + GroupServiceName + "/AddGroupMember"
	GroupServiceDeleteGroupProcedure      = "/" + GroupServiceName + "/DeleteGroup"
	GroupServiceGetGroupMembersProcedure  = "/" + GroupServiceName + "/GetGroupMembers"
	GroupServiceGetGroupBalancesProcedure = "/" + GroupServiceName + "/GetGroupBalances"

	ExpenseServiceCreateExpenseProcedure    = "/" + ExpenseServiceName + "/CreateExpense"
	ExpenseServiceGetGroupExpensesProcedure = "/" + ExpenseServiceName + "/GetGroupExpenses"
	ExpenseServicePayExpenseProcedure       = "/" + ExpenseServiceName + "/PayExpense"
	ExpenseServiceCancelExpenseProcedure    = "/" + ExpenseServiceName + "/CancelExpense"
)

// routes dispatches by procedure path.
type routes map[string]http.Handler

func (r routes) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	if h, ok := r[req.URL.Path]; ok {
		h.ServeHTTP(w, req)
		return
	}
	http.NotFound(w, req)
}

// handlerOptions puts the JSON codec first, then the caller's options, then
// authentication and RPC logging (innermost, so the user ID is known).
func handlerOptions(authn connect.Interceptor, opts []connect.HandlerOption) []connect.HandlerOption {
	all := []connect.HandlerOption{connect.WithCodec(jsonCodec{})}
	all = append(all, opts...)
	return append(all, connect.WithInterceptors(authn, middleware.LoggingInterceptor()))
}

func unary[Req, Res any](procedure string, fn func(context.Context, *connect.Request[Req]) (*connect.Response[Res], error), opts []connect.HandlerOption) http.Handler {
	return connect.NewUnaryHandler(procedure, fn, opts...)
}

// NewAuthServiceHandler builds an HTTP handler for AuthService. Register,
// Login and Logout are public; the rest require a bearer token.
func NewAuthServiceHandler(svc *AuthService, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) (string, http.Handler) {
	public := handlerOptions(middleware.OptionalAuth(jwtManager), opts)
	private := handlerOptions(middleware.RequireAuth(jwtManager), opts)

	return "/" + AuthServiceName + "/", routes{
		AuthServiceRegisterProcedure:       unary(AuthServiceRegisterProcedure, svc.Register, public),
		AuthServiceLoginProcedure:          unary(AuthServiceLoginProcedure, svc.Login, public),
		AuthServiceLogoutProcedure:         unary(AuthServiceLogoutProcedure, svc.Logout, public),
		AuthServiceGetCurrentUserProcedure: unary(AuthServiceGetCurrentUserProcedure, svc.GetCurrentUser, private),
		AuthServiceSearchUsersProcedure:    unary(AuthServiceSearchUsersProcedure, svc.SearchUsers, private),
	}
}

// NewGroupServiceHandler builds an HTTP handler for GroupService. Every procedure requires a bearer token.
func NewGroupServiceHandler(svc *GroupService, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) (string, http.Handler) {
	private := handlerOptions(middleware.RequireAuth(jwtManager), opts)

	return "/" + GroupServiceName + "/", routes{
		GroupServiceCreateGroupProcedure:      unary(GroupServiceCreateGroupProcedure, svc.CreateGroup, private),
		GroupServiceGetGroupProcedure:         unary(GroupServiceGetGroupProcedure, svc.GetGroup, private),
		GroupServiceListMyGroupsProcedure:     unary(GroupServiceListMyGroupsProcedure, svc.ListMyGroups, private),
		GroupServiceAddGroupMemberProcedure:   unary(GroupServiceAddGroupMemberProcedure, svc.AddGroupMember, private),
		GroupServiceDeleteGroupProcedure:      unary(GroupServiceDeleteGroupProcedure, svc.DeleteGroup, private),
		GroupServiceGetGroupMembersProcedure:  unary(GroupServiceGetGroupMembersProcedure, svc.GetGroupMembers, private),
		GroupServiceGetGroupBalancesProcedure: unary(GroupServiceGetGroupBalancesProcedure, svc.GetGroupBalances, private),
	}
}

// NewExpenseServiceHandler builds an HTTP handler for ExpenseService. Every procedure requires a bearer token.
func NewExpenseServiceHandler(svc *ExpenseService, jwtManager *auth.JWTManager, opts ...connect.HandlerOption) (string, http.Handler) {
	private := handlerOptions(middleware.RequireAuth(jwtManager), opts)

	return "/" + ExpenseServiceName + "/", routes{
		ExpenseServiceCreateExpenseProcedure:    unary(ExpenseServiceCreateExpenseProcedure, svc.CreateExpense, private),
		ExpenseServiceGetGroupExpensesProcedure: unary(ExpenseServiceGetGroupExpensesProcedure, svc.GetGroupExpenses, private),
		ExpenseServicePayExpenseProcedure:       unary(ExpenseServicePayExpenseProcedure, svc.PayExpense, private),
		ExpenseServiceCancelExpenseProcedure:    unary(ExpenseServiceCancelExpenseProcedure, svc.CancelExpense, private),
	}
}
