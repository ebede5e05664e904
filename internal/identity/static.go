package identity

import "context"

// StaticUserID is the identity every request resolves to under --no-auth.
const StaticUserID = "dev-user-001"

// StaticVerifier accepts any non-empty bearer token as a fixed user.
// Used by the --no-auth flag for local development and by handler tests;
// never wired up in production configurations.
type StaticVerifier struct {
	UserID string
	Email  string
}

// NewStaticVerifier returns a verifier that resolves every non-empty token
// to the given user ID.
func NewStaticVerifier(userID string) *StaticVerifier {
	return &StaticVerifier{UserID: userID}
}

func (v *StaticVerifier) Verify(_ context.Context, token string) (Identity, error) {
	if token == "" {
		return Identity{}, ErrMissingToken
	}
	return Identity{UserID: v.UserID, Email: v.Email}, nil
}
