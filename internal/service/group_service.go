package service

import (
	"context"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/amencash/internal/ledger"
)

// GroupService implements the Connect GroupService
type GroupService struct {
	engine *ledger.Engine
}

// NewGroupService creates a new GroupService on top of the ledger.
func NewGroupService(engine *ledger.Engine) *GroupService {
	return &GroupService{engine: engine}
}

// CreateGroup creates a group with the caller as creator and first member.
func (s *GroupService) CreateGroup(ctx context.Context, req *connect.Request[CreateGroupRequest]) (*connect.Response[CreateGroupResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("CreateGroup request received",
		"name", req.Msg.Name,
		"members_count", len(req.Msg.MemberIDs),
	)

	if err := s.requireUsers(ctx, req.Msg.MemberIDs); err != nil {
		return nil, err
	}

	group, err := s.engine.CreateGroup(ctx, req.Msg.Name, userID, req.Msg.MemberIDs)
	if err != nil {
		slog.Error("CreateGroup failed", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group created", "group_id", group.ID)

	return connect.NewResponse(&CreateGroupResponse{Group: toGroup(group)}), nil
}

// GetGroup retrieves a group by ID.
func (s *GroupService) GetGroup(ctx context.Context, req *connect.Request[GetGroupRequest]) (*connect.Response[GetGroupResponse], error) {
	slog.Info("GetGroup request received", "group_id", req.Msg.GroupID)

	group, _, err := requireMember(ctx, s.engine, req.Msg.GroupID)
	if err != nil {
		slog.Warn("GetGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, err
	}

	slog.Info("GetGroup successful", "group_id", group.ID, "name", group.Name)

	return connect.NewResponse(&GetGroupResponse{Group: toGroup(group)}), nil
}

// ListMyGroups retrieves the groups the caller belongs to.
func (s *GroupService) ListMyGroups(ctx context.Context, req *connect.Request[ListMyGroupsRequest]) (*connect.Response[ListMyGroupsResponse], error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, err
	}

	slog.Info("ListMyGroups request received", "user_id", userID)

	groups, err := s.engine.GetUserGroups(ctx, userID)
	if err != nil {
		slog.Error("ListMyGroups failed", "error", err)
		return nil, connectError(err)
	}

	resp := &ListMyGroupsResponse{Groups: make([]Group, len(groups))}
	for i, g := range groups {
		resp.Groups[i] = toGroup(g)
	}

	slog.Info("ListMyGroups successful", "count", len(groups))

	return connect.NewResponse(resp), nil
}

// AddGroupMember adds a registered user to a group the caller belongs to.
func (s *GroupService) AddGroupMember(ctx context.Context, req *connect.Request[AddGroupMemberRequest]) (*connect.Response[AddGroupMemberResponse], error) {
	slog.Info("AddGroupMember request received",
		"group_id", req.Msg.GroupID,
		"user_id", req.Msg.UserID,
	)

	if _, _, err := requireMember(ctx, s.engine, req.Msg.GroupID); err != nil {
		return nil, err
	}
	if err := s.requireUsers(ctx, []string{req.Msg.UserID}); err != nil {
		return nil, err
	}

	if err := s.engine.AddGroupMember(ctx, req.Msg.GroupID, req.Msg.UserID); err != nil {
		slog.Error("AddGroupMember failed", "error", err)
		return nil, connectError(err)
	}

	// Fetch updated group
	group, err := s.engine.GetGroup(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("Failed to fetch updated group", "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group member added", "group_id", group.ID, "members_count", len(group.Members))

	return connect.NewResponse(&AddGroupMemberResponse{Group: toGroup(group)}), nil
}

// DeleteGroup deletes a group and its expenses. Refused while any expense is pending.
func (s *GroupService) DeleteGroup(ctx context.Context, req *connect.Request[DeleteGroupRequest]) (*connect.Response[DeleteGroupResponse], error) {
	slog.Info("DeleteGroup request received", "group_id", req.Msg.GroupID)

	if _, _, err := requireMember(ctx, s.engine, req.Msg.GroupID); err != nil {
		return nil, err
	}

	if err := s.engine.DeleteGroup(ctx, req.Msg.GroupID); err != nil {
		slog.Warn("DeleteGroup failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("Group deleted", "group_id", req.Msg.GroupID)

	return connect.NewResponse(&DeleteGroupResponse{}), nil
}

// GetGroupMembers resolves a group's members to user profiles.
func (s *GroupService) GetGroupMembers(ctx context.Context, req *connect.Request[GetGroupMembersRequest]) (*connect.Response[GetGroupMembersResponse], error) {
	slog.Info("GetGroupMembers request received", "group_id", req.Msg.GroupID)

	if _, _, err := requireMember(ctx, s.engine, req.Msg.GroupID); err != nil {
		return nil, err
	}

	members, err := s.engine.GetGroupMembers(ctx, req.Msg.GroupID)
	if err != nil {
		slog.Error("GetGroupMembers failed", "group_id", req.Msg.GroupID, "error", err)
		return nil, connectError(err)
	}

	return connect.NewResponse(&GetGroupMembersResponse{Members: toUsers(members)}), nil
}

// GetGroupBalances returns net balances over pending expenses and suggested transfers.
func (s *GroupService) GetGroupBalances(ctx context.Context, req *connect.Request[GetGroupBalancesRequest]) (*connect.Response[GetGroupBalancesResponse], error) {
	groupID := req.Msg.GroupID
	slog.Info("GetGroupBalances request received", "group_id", groupID)

	if _, _, err := requireMember(ctx, s.engine, groupID); err != nil {
		return nil, err
	}

	report, err := s.engine.GroupBalances(ctx, groupID)
	if err != nil {
		slog.Error("GetGroupBalances failed", "group_id", groupID, "error", err)
		return nil, connectError(err)
	}

	slog.Info("GetGroupBalances successful",
		"group_id", groupID,
		"members_with_balance", len(report.Balances),
		"transfers", len(report.Transfers),
	)

	return connect.NewResponse(toBalancesResponse(report)), nil
}

// requireUsers fails with ErrUnknownUser unless every id has an account.
func (s *GroupService) requireUsers(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	users, err := s.engine.Store().GetUsersByIDs(ctx, ids)
	if err != nil {
		return connectError(err)
	}
	for _, id := range ids {
		if _, ok := users[id]; !ok {
			return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("%w: %q", ErrUnknownUser, id))
		}
	}
	return nil
}
