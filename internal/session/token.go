package session

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

var errNoIdentity = errors.New("token carries no user id")

// identityFromToken reads the user id and name from the token's claims.
// The signature is not checked; only the backend can verify it.
func identityFromToken(token string) (uint, string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, "", fmt.Errorf("parsing token: %w", err)
	}

	var username string
	if v, ok := claims["username"].(string); ok {
		username = v
	}

	for _, key := range []string{"userId", "user_id", "id", "sub"} {
		id, ok := claimUint(claims[key])
		if ok {
			return id, username, nil
		}
		if key == "sub" && username == "" {
			if s, ok := claims[key].(string); ok {
				username = s
			}
		}
	}
	return 0, username, errNoIdentity
}

func claimUint(v any) (uint, bool) {
	switch n := v.(type) {
	case float64:
		if n > 0 && n == float64(uint(n)) {
			return uint(n), true
		}
	case string:
		id, err := strconv.ParseUint(n, 10, 64)
		if err == nil && id > 0 {
			return uint(id), true
		}
	}
	return 0, false
}
