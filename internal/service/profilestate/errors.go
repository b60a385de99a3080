package profilestate

import "errors"

// SessionExpiredMessage is shown to doctors whose credential is gone.
const SessionExpiredMessage = "Doctor session expired. Please log in again."

// ErrSessionExpired is returned when no credential is available; no backend call is made.
var ErrSessionExpired = errors.New(SessionExpiredMessage) //nolint:staticcheck // user-facing text
