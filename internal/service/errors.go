package service

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"github.com/mmynk/amencash/internal/auth"
	"github.com/mmynk/amencash/internal/ledger"
	"github.com/mmynk/amencash/internal/middleware"
	"github.com/mmynk/amencash/internal/models"
)

var (
	// ErrNotMember is returned when the caller does not belong to the group they address.
	ErrNotMember = errors.New("you are not a member of this group")
	// ErrUnknownUser is returned when a request names a user with no account.
	ErrUnknownUser = errors.New("unknown user")
)

// connectError maps domain errors onto Connect codes.
func connectError(err error) error {
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}

	code := connect.CodeInternal
	switch {
	case errors.Is(err, ledger.ErrValidation),
		errors.Is(err, ErrUnknownUser),
		errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, auth.ErrPasswordTooLong),
		errors.Is(err, auth.ErrInvalidEmail),
		errors.Is(err, auth.ErrInvalidUsername),
		errors.Is(err, auth.ErrMissingDisplayName):
		code = connect.CodeInvalidArgument
	case errors.Is(err, ledger.ErrGroupNotFound),
		errors.Is(err, ledger.ErrExpenseNotFound):
		code = connect.CodeNotFound
	case errors.Is(err, ledger.ErrHasUnsettledExpenses):
		code = connect.CodeFailedPrecondition
	case errors.Is(err, ErrNotMember):
		code = connect.CodePermissionDenied
	case errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken):
		code = connect.CodeUnauthenticated
	case errors.Is(err, auth.ErrUserExists):
		code = connect.CodeAlreadyExists
	case errors.Is(err, context.Canceled):
		code = connect.CodeCanceled
	case errors.Is(err, context.DeadlineExceeded):
		code = connect.CodeDeadlineExceeded
	}
	return connect.NewError(code, err)
}

// callerID returns the authenticated user or an Unauthenticated error.
func callerID(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
	}
	return userID, nil
}

// requireMember loads the group and checks the caller belongs to it.
func requireMember(ctx context.Context, engine *ledger.Engine, groupID string) (*models.Group, string, error) {
	userID, err := callerID(ctx)
	if err != nil {
		return nil, "", err
	}
	group, err := engine.GetGroup(ctx, groupID)
	if err != nil {
		return nil, "", connectError(err)
	}
	if !group.HasMember(userID) {
		return nil, "", connect.NewError(connect.CodePermissionDenied, ErrNotMember)
	}
	return group, userID, nil
}
