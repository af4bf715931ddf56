package auth

import (
	"context"

	"github.com/mmynk/amencash/internal/models"
)

// Authenticator defines the interface for authentication implementations.
// This abstraction allows swapping between different auth methods (password, passkeys, OAuth, etc.)
// without changing the service layer code. The ledger itself never sees credentials.
type Authenticator interface {
	// Register creates a new user account with the given identity and credential.
	// Nothing is created when it fails.
	Register(ctx context.Context, email, username, displayName, credential string) (*models.User, error)

	// Authenticate verifies the credential for the user identified by email or username.
	Authenticate(ctx context.Context, identifier, credential string) (*models.User, error)

	// ValidateCredential checks if the credential meets the implementation's requirements.
	ValidateCredential(credential string) error
}
