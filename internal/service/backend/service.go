// Package backend talks to the medtik REST backend that owns doctor profiles and sessions.
package backend

import (
	"context"
	"errors"
	"slices"
)

// Fallback messages used when the backend gives nothing better.
const (
	FallbackProfileMessage = "Unable to load doctor profile. Please try again."
	FallbackLoginMessage   = "Something went wrong. Please try again."
)

var (
	// ErrRejected matches every *Error: the backend answered with a failure or could not be reached.
	ErrRejected = errors.New("backend request rejected")

	// ErrInvalidPayload indicates an update payload failed validation; no request was sent.
	ErrInvalidPayload = errors.New("invalid profile update payload")
)

// Error carries the normalized, human-readable message for a failed backend call.
// Status is the HTTP status, or 0 when the request never got a response.
type Error struct {
	Status  int
	Message string
	cause   error
}

func (e *Error) Error() string {
	if e == nil || e.Message == "" {
		return FallbackProfileMessage
	}
	return e.Message
}

// Unwrap exposes ErrRejected and, for transport failures, the underlying error.
func (e *Error) Unwrap() []error {
	if e == nil {
		return nil
	}
	if e.cause == nil {
		return []error{ErrRejected}
	}
	return []error{ErrRejected, e.cause}
}

// Service is the subset of the backend API the portal needs.
type Service interface {
	GetProfile(ctx context.Context, token string) (*DoctorProfile, error)
	UpdateProfile(ctx context.Context, token string, payload UpdatePayload) (*DoctorProfile, error)
	Login(ctx context.Context, email, password string) (*LoginResult, error)
}

// ServiceType names a consultation channel a doctor can price.
type ServiceType string

const (
	ServiceChat  ServiceType = "CHAT"
	ServiceVoice ServiceType = "VOICE"
	ServiceVideo ServiceType = "VIDEO"
)

// RequiredServices lists the channels every complete profile must price.
var RequiredServices = []ServiceType{ServiceChat, ServiceVoice, ServiceVideo}

// Department is the doctor's department as embedded by the backend.
type Department struct {
	ID          int64
	Name        string
	Description string
}

// Pricing is one priced service. Price is nil when the backend sent null.
type Pricing struct {
	ID       int64
	Service  ServiceType
	Currency string
	Price    *float64
}

// Availability lists the channels a doctor accepts. Also used as-is in update payloads.
type Availability struct {
	Chat  bool `json:"chat"`
	Voice bool `json:"voice"`
	Video bool `json:"video"`
}

// DoctorProfile is the last-known server state of a doctor's profile.
// Optional scalars are pointers so that "absent" and "zero" stay distinguishable.
type DoctorProfile struct {
	ID                 int64
	MustChangePassword bool

	Title             string
	Bio               string
	Phone             string
	DepartmentID      *int64
	YearsOfExperience *int
	LicenseNumber     string
	AvatarURL         string
	Department        *Department

	Languages    []string
	Hospitals    []string
	Education    []string
	Certificates []string
	Pricing      []Pricing
	Availability *Availability

	VideoProvider      string
	CancellationPolicy *int
	RefundPolicy       *bool
	ReschedulePolicy   *int
}

// Clone returns a deep copy of p. Clone of nil is nil.
func (p *DoctorProfile) Clone() *DoctorProfile {
	if p == nil {
		return nil
	}
	c := *p
	c.DepartmentID = clonePtr(p.DepartmentID)
	c.YearsOfExperience = clonePtr(p.YearsOfExperience)
	c.CancellationPolicy = clonePtr(p.CancellationPolicy)
	c.RefundPolicy = clonePtr(p.RefundPolicy)
	c.ReschedulePolicy = clonePtr(p.ReschedulePolicy)
	c.Availability = clonePtr(p.Availability)
	if p.Department != nil {
		d := *p.Department
		c.Department = &d
	}
	c.Languages = slices.Clone(p.Languages)
	c.Hospitals = slices.Clone(p.Hospitals)
	c.Education = slices.Clone(p.Education)
	c.Certificates = slices.Clone(p.Certificates)
	if p.Pricing != nil {
		c.Pricing = make([]Pricing, len(p.Pricing))
		for i, pr := range p.Pricing {
			pr.Price = clonePtr(pr.Price)
			c.Pricing[i] = pr
		}
	}
	return &c
}

func clonePtr[T any](v *T) *T {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// PricingInput is one pricing entry of an update payload.
type PricingInput struct {
	Service  ServiceType `json:"service" validate:"required,oneof=CHAT VOICE VIDEO"`
	Currency string      `json:"currency" validate:"required,max=8"`
	Price    float64     `json:"price" validate:"gte=0"`
}

// UpdatePayload is the partial profile sent to PUT /doctor/update. Nil fields are omitted.
type UpdatePayload struct {
	Title              *string        `json:"title,omitempty" validate:"omitempty,max=120"`
	Bio                *string        `json:"bio,omitempty" validate:"omitempty,max=4000"`
	DepartmentID       *int64         `json:"departmentId,omitempty" validate:"omitempty,gt=0"`
	YearsOfExperience  *int           `json:"yearsOfExperience,omitempty" validate:"omitempty,gte=0,lte=80"`
	LicenseNumber      *string        `json:"licenseNumber,omitempty" validate:"omitempty,max=64"`
	AvatarURL          *string        `json:"avatarUrl,omitempty" validate:"omitempty,max=2048"`
	Phone              *string        `json:"phone,omitempty" validate:"omitempty,max=32"`
	Languages          []string       `json:"languages,omitempty" validate:"omitempty,dive,required,max=64"`
	Hospitals          []string       `json:"hospitals,omitempty" validate:"omitempty,dive,max=200"`
	Education          []string       `json:"education,omitempty" validate:"omitempty,dive,max=200"`
	Certificates       []string       `json:"certificates,omitempty" validate:"omitempty,dive,max=200"`
	Pricing            []PricingInput `json:"pricing,omitempty" validate:"omitempty,dive"`
	Availability       *Availability  `json:"availability,omitempty"`
	VideoProvider      *string        `json:"videoProvider,omitempty" validate:"omitempty,max=64"`
	CancellationPolicy *int           `json:"cancellationPolicy,omitempty" validate:"omitempty,gte=0"`
	RefundPolicy       *bool          `json:"refundPolicy,omitempty"`
	ReschedulePolicy   *int           `json:"reschedulePolicy,omitempty" validate:"omitempty,gte=0"`
	Password           *string        `json:"password,omitempty" validate:"omitempty,min=8,max=128"`
}

// LoginResult is the backend's answer to a successful login.
type LoginResult struct {
	Message string
	Token   string
}
