package service

import (
	"context"
	"strings"
	"testing"

	"connectrpc.com/connect"
)

func TestCreateGroup(t *testing.T) {
	c := setupMemoryServer(t)
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")
	carol := c.register(t, "carol")

	resp, err := c.groups.CreateGroup.CallUnary(context.Background(), as(alice, &CreateGroupRequest{
		Name:      "Roommates",
		MemberIDs: []string{bob.userID, bob.userID, carol.userID},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	group := resp.Msg.Group
	if group.ID == "" {
		t.Error("expected non-empty group ID")
	}
	if group.Name != "Roommates" {
		t.Errorf("name: expected 'Roommates', got '%s'", group.Name)
	}
	if group.CreatedBy != alice.userID {
		t.Errorf("createdBy: expected %s, got %s", alice.userID, group.CreatedBy)
	}

	want := []string{alice.userID, bob.userID, carol.userID}
	if strings.Join(group.Members, ",") != strings.Join(want, ",") {
		t.Errorf("members: expected %v, got %v", want, group.Members)
	}
	if group.CreatedAt == 0 {
		t.Error("expected non-zero CreatedAt")
	}
}

func TestCreateGroup_Errors(t *testing.T) {
	c := setupMemoryServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice")

	_, err := c.groups.CreateGroup.CallUnary(ctx, as(alice, &CreateGroupRequest{Name: "  "}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.groups.CreateGroup.CallUnary(ctx, as(alice, &CreateGroupRequest{Name: "Trip", MemberIDs: []string{"ghost"}}))
	assertCode(t, err, connect.CodeInvalidArgument)

	_, err = c.groups.CreateGroup.CallUnary(ctx, connect.NewRequest(&CreateGroupRequest{Name: "Trip"}))
	assertCode(t, err, connect.CodeUnauthenticated)
}

func TestGetGroup(t *testing.T) {
	c := setupMemoryServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")
	mallory := c.register(t, "mallory")

	createResp, err := c.groups.CreateGroup.CallUnary(ctx, as(alice, &CreateGroupRequest{
		Name:      "Work Lunch",
		MemberIDs: []string{bob.userID},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := createResp.Msg.Group.ID

	getResp, err := c.groups.GetGroup.CallUnary(ctx, as(bob, &GetGroupRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if getResp.Msg.Group.Name != "Work Lunch" {
		t.Errorf("name: expected 'Work Lunch', got '%s'", getResp.Msg.Group.Name)
	}
	if len(getResp.Msg.Group.Members) != 2 {
		t.Errorf("members: expected 2, got %d", len(getResp.Msg.Group.Members))
	}

	_, err = c.groups.GetGroup.CallUnary(ctx, as(mallory, &GetGroupRequest{GroupID: groupID}))
	assertCode(t, err, connect.CodePermissionDenied)

	_, err = c.groups.GetGroup.CallUnary(ctx, as(alice, &GetGroupRequest{GroupID: "nonexistent-id"}))
	assertCode(t, err, connect.CodeNotFound)
}

func TestListMyGroups(t *testing.T) {
	c := setupMemoryServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")

	for _, name := range []string{"Group A", "Group B"} {
		if _, err := c.groups.CreateGroup.CallUnary(ctx, as(alice, &CreateGroupRequest{Name: name})); err != nil {
			t.Fatalf("CreateGroup failed: %v", err)
		}
	}

	listResp, err := c.groups.ListMyGroups.CallUnary(ctx, as(alice, &ListMyGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListMyGroups failed: %v", err)
	}
	if len(listResp.Msg.Groups) != 2 {
		t.Errorf("expected 2 groups, got %d", len(listResp.Msg.Groups))
	}

	listResp, err = c.groups.ListMyGroups.CallUnary(ctx, as(bob, &ListMyGroupsRequest{}))
	if err != nil {
		t.Fatalf("ListMyGroups failed: %v", err)
	}
	if len(listResp.Msg.Groups) != 0 {
		t.Errorf("expected 0 groups for bob, got %d", len(listResp.Msg.Groups))
	}
}

func TestAddGroupMember(t *testing.T) {
	c := setupMemoryServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")
	carol := c.register(t, "carol")

	createResp, err := c.groups.CreateGroup.CallUnary(ctx, as(alice, &CreateGroupRequest{Name: "Trip"}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := createResp.Msg.Group.ID

	// Outsiders cannot add themselves.
	_, err = c.groups.AddGroupMember.CallUnary(ctx, as(bob, &AddGroupMemberRequest{GroupID: groupID, UserID: bob.userID}))
	assertCode(t, err, connect.CodePermissionDenied)

	addResp, err := c.groups.AddGroupMember.CallUnary(ctx, as(alice, &AddGroupMemberRequest{GroupID: groupID, UserID: bob.userID}))
	if err != nil {
		t.Fatalf("AddGroupMember failed: %v", err)
	}
	if len(addResp.Msg.Group.Members) != 2 {
		t.Errorf("members: expected 2, got %d", len(addResp.Msg.Group.Members))
	}

	// New members can add others; repeats are no-ops.
	for range 2 {
		addResp, err = c.groups.AddGroupMember.CallUnary(ctx, as(bob, &AddGroupMemberRequest{GroupID: groupID, UserID: carol.userID}))
		if err != nil {
			t.Fatalf("AddGroupMember failed: %v", err)
		}
	}
	if len(addResp.Msg.Group.Members) != 3 {
		t.Errorf("members: expected 3, got %d", len(addResp.Msg.Group.Members))
	}

	_, err = c.groups.AddGroupMember.CallUnary(ctx, as(alice, &AddGroupMemberRequest{GroupID: groupID, UserID: "ghost"}))
	assertCode(t, err, connect.CodeInvalidArgument)

	membersResp, err := c.groups.GetGroupMembers.CallUnary(ctx, as(carol, &GetGroupMembersRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroupMembers failed: %v", err)
	}
	var usernames []string
	for _, u := range membersResp.Msg.Members {
		usernames = append(usernames, u.Username)
	}
	if strings.Join(usernames, ",") != "alice,bob,carol" {
		t.Errorf("members: expected alice,bob,carol, got %v", usernames)
	}
}

func TestDeleteGroup(t *testing.T) {
	for name, setup := range map[string]func(*testing.T) *testClients{
		"memory": setupMemoryServer,
		"sqlite": setupSQLiteServer,
	} {
		t.Run(name, func(t *testing.T) {
			c := setup(t)
			ctx := context.Background()
			alice := c.register(t, "alice")
			bob := c.register(t, "bob")

			createResp, err := c.groups.CreateGroup.CallUnary(ctx, as(alice, &CreateGroupRequest{
				Name:      "Trip",
				MemberIDs: []string{bob.userID},
			}))
			if err != nil {
				t.Fatalf("CreateGroup failed: %v", err)
			}
			groupID := createResp.Msg.Group.ID

			expResp, err := c.expenses.CreateExpense.CallUnary(ctx, as(alice, &CreateExpenseRequest{
				GroupID:   groupID,
				Amount:    "50",
				SplitWith: []string{alice.userID, bob.userID},
			}))
			if err != nil {
				t.Fatalf("CreateExpense failed: %v", err)
			}

			_, err = c.groups.DeleteGroup.CallUnary(ctx, as(bob, &DeleteGroupRequest{GroupID: groupID}))
			assertCode(t, err, connect.CodeFailedPrecondition)
			if err != nil && !strings.Contains(err.Error(), "pending") {
				t.Errorf("expected reason in message, got %q", err.Error())
			}

			// Still there.
			if _, err := c.groups.GetGroup.CallUnary(ctx, as(alice, &GetGroupRequest{GroupID: groupID})); err != nil {
				t.Fatalf("GetGroup after refused delete failed: %v", err)
			}

			if _, err := c.expenses.CancelExpense.CallUnary(ctx, as(bob, &CancelExpenseRequest{ExpenseID: expResp.Msg.Expense.ID})); err != nil {
				t.Fatalf("CancelExpense failed: %v", err)
			}

			if _, err := c.groups.DeleteGroup.CallUnary(ctx, as(alice, &DeleteGroupRequest{GroupID: groupID})); err != nil {
				t.Fatalf("DeleteGroup failed: %v", err)
			}

			_, err = c.groups.GetGroup.CallUnary(ctx, as(alice, &GetGroupRequest{GroupID: groupID}))
			assertCode(t, err, connect.CodeNotFound)

			remaining, err := c.engine.Store().ListExpensesByGroup(ctx, groupID)
			if err != nil {
				t.Fatalf("ListExpensesByGroup failed: %v", err)
			}
			if len(remaining) != 0 {
				t.Errorf("expected expenses to be deleted with the group, got %d", len(remaining))
			}
		})
	}
}

func TestGetGroupBalances(t *testing.T) {
	c := setupMemoryServer(t)
	ctx := context.Background()
	alice := c.register(t, "alice")
	bob := c.register(t, "bob")
	carol := c.register(t, "carol")

	createResp, err := c.groups.CreateGroup.CallUnary(ctx, as(alice, &CreateGroupRequest{
		Name:      "Trip",
		MemberIDs: []string{bob.userID, carol.userID},
	}))
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	groupID := createResp.Msg.Group.ID

	_, err = c.expenses.CreateExpense.CallUnary(ctx, as(alice, &CreateExpenseRequest{
		GroupID:     groupID,
		Description: "Dinner",
		Amount:      "90",
		SplitWith:   []string{alice.userID, bob.userID, carol.userID},
	}))
	if err != nil {
		t.Fatalf("CreateExpense failed: %v", err)
	}

	resp, err := c.groups.GetGroupBalances.CallUnary(ctx, as(bob, &GetGroupBalancesRequest{GroupID: groupID}))
	if err != nil {
		t.Fatalf("GetGroupBalances failed: %v", err)
	}

	want := map[string]string{alice.userID: "60.00", bob.userID: "-30.00", carol.userID: "-30.00"}
	if len(resp.Msg.Balances) != len(want) {
		t.Fatalf("expected %d balances, got %d", len(want), len(resp.Msg.Balances))
	}
	for _, b := range resp.Msg.Balances {
		if want[b.UserID] != b.Net {
			t.Errorf("balance for %s: expected %s, got %s", b.UserID, want[b.UserID], b.Net)
		}
	}

	if len(resp.Msg.Transfers) != 2 {
		t.Fatalf("expected 2 transfers, got %d", len(resp.Msg.Transfers))
	}
	for _, tr := range resp.Msg.Transfers {
		if tr.To != alice.userID || tr.Amount != "30.00" {
			t.Errorf("unexpected transfer %+v", tr)
		}
	}
}
