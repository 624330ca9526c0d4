package santa

import "context"

// Store is the lookup/update facade the dialogue runs against.
// Lookups that match nothing return an error wrapping ErrNotFound.
type Store interface {
	UserExists(ctx context.Context, userID int64) (bool, error)
	AddUser(ctx context.Context, userID int64) error

	// CompleteRegistration stores the external identifier and marks the user complete in one statement.
	CompleteRegistration(ctx context.Context, userID int64, externalID string) error
	ExternalID(ctx context.Context, userID int64) (string, error)
	Status(ctx context.Context, userID int64) (Status, error)
	SetTracking(ctx context.Context, userID int64, code string) error
	Tracking(ctx context.Context, userID int64) (string, error)

	IsAssigned(ctx context.Context, externalID string) (bool, error)
	CounterpartExternalID(ctx context.Context, giverExternalID string) (string, error)
	GiverExternalID(ctx context.Context, receiverExternalID string) (string, error)
	UserIDForExternalID(ctx context.Context, externalID string) (int64, error)
	PreferencesFor(ctx context.Context, externalID string) (Preferences, error)
}
