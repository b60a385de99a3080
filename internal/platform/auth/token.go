package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// SessionCookieName is the cookie holding the backend-issued bearer token.
const SessionCookieName = "medtik_token"

var (
	// ErrNoToken indicates neither an Authorization header nor a session cookie was sent.
	ErrNoToken = errors.New("missing authorization header")

	// ErrInvalidToken indicates a malformed header or a token that failed verification.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenExpired indicates the token's exp claim is in the past.
	ErrTokenExpired = errors.New("token expired")
)

// TokenSource yields the current session credential. ok is false when there is none.
type TokenSource interface {
	Token(ctx context.Context) (token string, ok bool)
}

// StaticToken is a TokenSource bound to a single credential.
type StaticToken string

// Token reports the credential, or ok=false when it is blank.
func (s StaticToken) Token(context.Context) (string, bool) {
	t := strings.TrimSpace(string(s))
	return t, t != ""
}

// ExtractBearerToken extracts the token from an Authorization header value.
func ExtractBearerToken(header string) (string, error) {
	if header == "" {
		return "", ErrNoToken
	}
	parts := strings.Fields(header)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
		return "", ErrInvalidToken
	}
	return parts[1], nil
}

// tokenFromHeaders prefers the Authorization header and falls back to the session cookie.
func tokenFromHeaders(authorization, cookieHeader string) (string, error) {
	if authorization != "" {
		return ExtractBearerToken(authorization)
	}
	if cookieHeader != "" {
		cookies, err := http.ParseCookie(cookieHeader)
		if err == nil {
			for _, c := range cookies {
				if c.Name == SessionCookieName && c.Value != "" {
					return c.Value, nil
				}
			}
		}
	}
	return "", ErrNoToken
}

// TokenFromRequest returns the bearer token or session cookie value carried by r.
func TokenFromRequest(r *http.Request) (string, error) {
	return tokenFromHeaders(r.Header.Get("Authorization"), r.Header.Get("Cookie"))
}

// SessionCookie builds the cookie that stores token for the portal front end.
func SessionCookie(token string, secure bool) http.Cookie {
	return http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// ExpiredSessionCookie clears the session cookie.
func ExpiredSessionCookie(secure bool) http.Cookie {
	c := SessionCookie("", secure)
	c.MaxAge = -1
	return c
}
