package auth

import "context"

// MockVerifier returns a fixed session or error. A nil Session echoes the token back
// as a doctor session.
type MockVerifier struct {
	Session *Session
	Error   error
}

// Verify returns the configured session or error.
func (m *MockVerifier) Verify(_ context.Context, token string) (*Session, error) {
	if m.Error != nil {
		return nil, m.Error
	}
	if m.Session == nil {
		return &Session{Token: token, Role: RoleDoctor, Subject: "42"}, nil
	}
	s := *m.Session
	if s.Token == "" {
		s.Token = token
	}
	return &s, nil
}

// TestSession returns a standard doctor session.
func TestSession() *Session {
	return &Session{Token: "doctor-token", Role: RoleDoctor, Subject: "42"}
}

var _ Verifier = (*MockVerifier)(nil)
