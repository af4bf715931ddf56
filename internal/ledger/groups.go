package ledger

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mmynk/amencash/internal/events"
	"github.com/mmynk/amencash/internal/models"
	"github.com/mmynk/amencash/internal/storage"
)

// CreateGroup creates a group whose first member is createdBy, followed by
// memberIDs in order. Repeated and empty IDs are dropped.
func (e *Engine) CreateGroup(ctx context.Context, name, createdBy string, memberIDs []string) (*models.Group, error) {
	var out outbox
	group, err := e.createGroup(ctx, name, createdBy, memberIDs, &out)
	e.observe("create_group", err)
	e.publish(ctx, out)
	return group, err
}

func (e *Engine) createGroup(ctx context.Context, name, createdBy string, memberIDs []string, out *outbox) (*models.Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyGroupName
	}
	if createdBy == "" {
		return nil, ErrMissingUser
	}

	members := []string{createdBy}
	seen := map[string]bool{createdBy: true}
	for _, id := range memberIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, id)
	}

	group := &models.Group{
		Name:      name,
		Members:   members,
		CreatedBy: createdBy,
		CreatedAt: e.now().Unix(),
	}
	if err := e.store.CreateGroup(ctx, group); err != nil {
		return nil, fmt.Errorf("failed to create group: %w", err)
	}

	e.logger.InfoContext(ctx, "Group created",
		"group_id", group.ID,
		"created_by", createdBy,
		"members_count", len(members),
	)
	e.raise(out, events.Event{
		Type:    events.GroupCreated,
		GroupID: group.ID,
		UserID:  createdBy,
	})

	return group, nil
}

// AddGroupMember appends userID to the group's members. Adding an existing
// member is a no-op.
func (e *Engine) AddGroupMember(ctx context.Context, groupID, userID string) error {
	var out outbox
	err := e.addGroupMember(ctx, groupID, userID, &out)
	e.observe("add_group_member", err)
	e.publish(ctx, out)
	return err
}

func (e *Engine) addGroupMember(ctx context.Context, groupID, userID string, out *outbox) error {
	if userID == "" {
		return ErrMissingUser
	}

	unlock, err := e.locks.Lock(ctx, groupID)
	if err != nil {
		return err
	}
	defer unlock()

	group, err := e.getGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if group.HasMember(userID) {
		return nil
	}

	members := append(group.Members, userID)
	if err := e.store.UpdateGroupMembers(ctx, groupID, members); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
		}
		return fmt.Errorf("failed to add group member: %w", err)
	}

	e.logger.InfoContext(ctx, "Group member added", "group_id", groupID, "user_id", userID)
	e.raise(out, events.Event{
		Type:    events.GroupMemberAdded,
		GroupID: groupID,
		UserID:  userID,
	})
	return nil
}

// DeleteGroup removes a group and all of its expenses. It refuses with an
// *InvariantViolationError while any expense is pending, leaving everything
// untouched.
func (e *Engine) DeleteGroup(ctx context.Context, groupID string) error {
	var out outbox
	err := e.deleteGroup(ctx, groupID, &out)
	e.observe("delete_group", err)
	e.publish(ctx, out)
	return err
}

func (e *Engine) deleteGroup(ctx context.Context, groupID string, out *outbox) error {
	unlock, err := e.locks.Lock(ctx, groupID)
	if err != nil {
		return err
	}
	defer unlock()

	if _, err := e.getGroup(ctx, groupID); err != nil {
		return err
	}

	expenses, err := e.store.ListExpensesByGroup(ctx, groupID)
	if err != nil {
		return fmt.Errorf("failed to list expenses: %w", err)
	}
	pending := 0
	for _, expense := range expenses {
		if expense.Status == models.ExpenseStatusPending {
			pending++
		}
	}
	if pending > 0 {
		return &InvariantViolationError{GroupID: groupID, Pending: pending}
	}

	// The store re-checks inside its own transaction for writers outside this process.
	if err := e.store.DeleteGroup(ctx, groupID); err != nil {
		switch {
		case errors.Is(err, storage.ErrGroupHasPendingExpenses):
			return &InvariantViolationError{GroupID: groupID}
		case errors.Is(err, storage.ErrNotFound):
			return fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
		}
		return fmt.Errorf("failed to delete group: %w", err)
	}

	e.logger.InfoContext(ctx, "Group deleted", "group_id", groupID, "expenses_removed", len(expenses))
	e.raise(out, events.Event{
		Type:    events.GroupDeleted,
		GroupID: groupID,
	})
	return nil
}

// GetGroup returns a group.
func (e *Engine) GetGroup(ctx context.Context, groupID string) (*models.Group, error) {
	return e.getGroup(ctx, groupID)
}

// GetUserGroups returns every group userID belongs to, oldest first.
func (e *Engine) GetUserGroups(ctx context.Context, userID string) ([]*models.Group, error) {
	groups, err := e.store.ListGroupsByMember(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list groups: %w", err)
	}
	return groups, nil
}

// GetGroupMembers resolves the group's members to users, in member order.
// Member IDs without a registered user are skipped.
func (e *Engine) GetGroupMembers(ctx context.Context, groupID string) ([]*models.User, error) {
	group, err := e.getGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}

	byID, err := e.store.GetUsersByIDs(ctx, group.Members)
	if err != nil {
		return nil, fmt.Errorf("failed to get members: %w", err)
	}

	users := make([]*models.User, 0, len(group.Members))
	for _, id := range group.Members {
		if u, ok := byID[id]; ok {
			users = append(users, u)
		}
	}
	return users, nil
}

func (e *Engine) getGroup(ctx context.Context, groupID string) (*models.Group, error) {
	group, err := e.store.GetGroup(ctx, groupID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrGroupNotFound, groupID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get group: %w", err)
	}
	return group, nil
}
