package auth

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// Roles issued by the backend.
const (
	RoleAdmin   = "ADMIN"
	RoleDoctor  = "DOCTOR"
	RolePatient = "PATIENT"
)

// Session is the caller identity derived from a backend token.
type Session struct {
	Token   string
	Role    string
	Subject string
}

// IsDoctor reports whether the session belongs to a doctor.
func (s *Session) IsDoctor() bool {
	return s != nil && strings.EqualFold(s.Role, RoleDoctor)
}

// Verifier turns a bearer token into a Session.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Session, error)
}

// Claims is the payload the backend signs. Only role is required by the portal.
type Claims struct {
	Role   string `json:"role"`
	UserID any    `json:"id,omitempty"`
	jwt.RegisteredClaims
}

// JWTVerifier reads role claims from backend JWTs. With a secret it checks the HMAC
// signature and registered claims; without one it only decodes the payload and checks exp,
// leaving signature checks to the backend.
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier. An empty secret selects decode-only mode.
func NewJWTVerifier(secret string) *JWTVerifier {
	v := &JWTVerifier{}
	if secret != "" {
		v.secret = []byte(secret)
	}
	return v
}

// Verify parses token and returns the session it describes.
func (v *JWTVerifier) Verify(_ context.Context, token string) (*Session, error) {
	claims := &Claims{}
	if len(v.secret) > 0 {
		parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return v.secret, nil
		})
		if err != nil {
			return nil, mapJWTError(err)
		}
		if !parsed.Valid {
			return nil, ErrInvalidToken
		}
	} else {
		if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
			return nil, ErrInvalidToken
		}
		if err := jwt.NewValidator().Validate(claims); err != nil {
			return nil, mapJWTError(err)
		}
	}

	sub, _ := claims.GetSubject()
	if sub == "" && claims.UserID != nil {
		sub = jsonScalar(claims.UserID)
	}
	return &Session{Token: token, Role: strings.ToUpper(claims.Role), Subject: sub}, nil
}

func mapJWTError(err error) error {
	if errors.Is(err, jwt.ErrTokenExpired) {
		return ErrTokenExpired
	}
	return ErrInvalidToken
}

func jsonScalar(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return ""
	}
}

// RouteForRole returns the landing area for a role, defaulting to the patient area.
func RouteForRole(role string) string {
	switch strings.ToUpper(role) {
	case RoleAdmin:
		return "/admin"
	case RoleDoctor:
		return "/doctor"
	default:
		return "/patient"
	}
}

var _ Verifier = (*JWTVerifier)(nil)
