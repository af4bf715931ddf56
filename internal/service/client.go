package service

import (
	"connectrpc.com/connect"
)

func clientOptions(opts []connect.ClientOption) []connect.ClientOption {
	return append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
}

// AuthServiceClient is a client for AuthService.
type AuthServiceClient struct {
	Register       *connect.Client[RegisterRequest, RegisterResponse]
	Login          *connect.Client[LoginRequest, LoginResponse]
	Logout         *connect.Client[LogoutRequest, LogoutResponse]
	GetCurrentUser *connect.Client[GetCurrentUserRequest, GetCurrentUserResponse]
	SearchUsers    *connect.Client[SearchUsersRequest, SearchUsersResponse]
}

// NewAuthServiceClient constructs a client for AuthService at baseURL.
func NewAuthServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *AuthServiceClient {
	opts = clientOptions(opts)
	return &AuthServiceClient{
		Register:       connect.NewClient[RegisterRequest, RegisterResponse](httpClient, baseURL+AuthServiceRegisterProcedure, opts...),
		Login:          connect.NewClient[LoginRequest, LoginResponse](httpClient, baseURL+AuthServiceLoginProcedure, opts...),
		Logout:         connect.NewClient[LogoutRequest, LogoutResponse](httpClient, baseURL+AuthServiceLogoutProcedure, opts...),
		GetCurrentUser: connect.NewClient[GetCurrentUserRequest, GetCurrentUserResponse](httpClient, baseURL+AuthServiceGetCurrentUserProcedure, opts...),
		SearchUsers:    connect.NewClient[SearchUsersRequest, SearchUsersResponse](httpClient, baseURL+AuthServiceSearchUsersProcedure, opts...),
	}
}

// GroupServiceClient is a client for GroupService.
type GroupServiceClient struct {
	CreateGroup      *connect.Client[CreateGroupRequest, CreateGroupResponse]
	GetGroup         *connect.Client[GetGroupRequest, GetGroupResponse]
	ListMyGroups     *connect.Client[ListMyGroupsRequest, ListMyGroupsResponse]
	AddGroupMember   *connect.Client[AddGroupMemberRequest, AddGroupMemberResponse]
	DeleteGroup      *connect.Client[DeleteGroupRequest, DeleteGroupResponse]
	GetGroupMembers  *connect.Client[GetGroupMembersRequest, GetGroupMembersResponse]
	GetGroupBalances *connect.Client[GetGroupBalancesRequest, GetGroupBalancesResponse]
}

// NewGroupServiceClient constructs a client for GroupService at baseURL.
func NewGroupServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *GroupServiceClient {
	opts = clientOptions(opts)
	return &GroupServiceClient{
		CreateGroup:      connect.NewClient[CreateGroupRequest, CreateGroupResponse](httpClient, baseURL+GroupServiceCreateGroupProcedure, opts...),
		GetGroup:         connect.NewClient[GetGroupRequest, GetGroupResponse](httpClient, baseURL+GroupServiceGetGroupProcedure, opts...),
		ListMyGroups:     connect.NewClient[ListMyGroupsRequest, ListMyGroupsResponse](httpClient, baseURL+GroupServiceListMyGroupsProcedure, opts...),
		AddGroupMember:   connect.NewClient[AddGroupMemberRequest, AddGroupMemberResponse](httpClient, baseURL+GroupServiceAddGroupMemberProcedure, opts...),
		DeleteGroup:      connect.NewClient[DeleteGroupRequest, DeleteGroupResponse](httpClient, baseURL+GroupServiceDeleteGroupProcedure, opts...),
		GetGroupMembers:  connect.NewClient[GetGroupMembersRequest, GetGroupMembersResponse](httpClient, baseURL+GroupServiceGetGroupMembersProcedure, opts...),
		GetGroupBalances: connect.NewClient[GetGroupBalancesRequest, GetGroupBalancesResponse](httpClient, baseURL+GroupServiceGetGroupBalancesProcedure, opts...),
	}
}

// ExpenseServiceClient is a client for ExpenseService.
type ExpenseServiceClient struct {
	CreateExpense    *connect.Client[CreateExpenseRequest, CreateExpenseResponse]
	GetGroupExpenses *connect.Client[GetGroupExpensesRequest, GetGroupExpensesResponse]
	PayExpense       *connect.Client[PayExpenseRequest, PayExpenseResponse]
	CancelExpense    *connect.Client[CancelExpenseRequest, CancelExpenseResponse]
}

// NewExpenseServiceClient constructs a client for ExpenseService at baseURL.
func NewExpenseServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ExpenseServiceClient {
	opts = clientOptions(opts)
	return &ExpenseServiceClient{
		CreateExpense:    connect.NewClient[CreateExpenseRequest, CreateExpenseResponse](httpClient, baseURL+ExpenseServiceCreateExpenseProcedure, opts...),
		GetGroupExpenses: connect.NewClient[GetGroupExpensesRequest, GetGroupExpensesResponse](httpClient, baseURL+ExpenseServiceGetGroupExpensesProcedure, opts...),
		PayExpense:       connect.NewClient[PayExpenseRequest, PayExpenseResponse](httpClient, baseURL+ExpenseServicePayExpenseProcedure, opts...),
		CancelExpense:    connect.NewClient[CancelExpenseRequest, CancelExpenseResponse](httpClient, baseURL+ExpenseServiceCancelExpenseProcedure, opts...),
	}
}
