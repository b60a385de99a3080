package profile

import "github.com/mennan0809/medtik-portal/internal/gate"

// ProfileStateOutput for the profile read, update and refresh operations.
type ProfileStateOutput struct {
	Body ProfileState
}

// ProfileStatusOutput for GET /v1/doctor/profile/status
type ProfileStatusOutput struct {
	Body ProfileStatus
}

// AccessOutput for GET /v1/doctor/access
type AccessOutput struct {
	Body gate.Decision
}
