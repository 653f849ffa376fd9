package supabase

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// UserIDFromToken extracts the owner identity (the sub claim) from a
// Supabase access token. The token is parsed without signature verification;
// verifying it is the backend's job, the client only needs the identity to
// partition local storage and stamp inserted rows.
func UserIDFromToken(accessToken string) (string, error) {
	token, _, err := jwt.NewParser().ParseUnverified(accessToken, jwt.MapClaims{})
	if err != nil {
		return "", fmt.Errorf("failed to parse access token: %w", err)
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || sub == "" {
		return "", fmt.Errorf("access token carries no subject claim")
	}
	return sub, nil
}
