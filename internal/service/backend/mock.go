package backend

import (
	"context"
	"sync"
)

// MockService implements Service for tests. It records calls and returns the configured values.
// When Block is non-nil, GetProfile waits for it to be closed (or ctx to end) before answering.
type MockService struct {
	mu sync.Mutex

	Profile     *DoctorProfile
	GetErr      error
	UpdateErr   error
	LoginResult *LoginResult
	LoginErr    error
	Block       chan struct{}

	getCalls    int
	updateCalls int
	loginCalls  int
	lastToken   string
	lastPayload *UpdatePayload
}

// NewMockService returns a mock serving a copy of profile.
func NewMockService(profile *DoctorProfile) *MockService {
	return &MockService{Profile: profile.Clone()}
}

func (m *MockService) GetProfile(ctx context.Context, token string) (*DoctorProfile, error) {
	m.mu.Lock()
	m.getCalls++
	m.lastToken = token
	block := m.Block
	m.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, transportError(ctx.Err(), FallbackProfileMessage)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetErr != nil {
		return nil, m.GetErr
	}
	return m.Profile.Clone(), nil
}

func (m *MockService) UpdateProfile(_ context.Context, token string, payload UpdatePayload) (*DoctorProfile, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	m.lastToken = token
	m.lastPayload = &payload
	if m.UpdateErr != nil {
		return nil, m.UpdateErr
	}
	m.Profile = ApplyPayload(m.Profile, payload)
	return m.Profile.Clone(), nil
}

func (m *MockService) Login(_ context.Context, _, _ string) (*LoginResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loginCalls++
	if m.LoginErr != nil {
		return nil, m.LoginErr
	}
	if m.LoginResult == nil {
		return &LoginResult{Message: "Login successful", Token: "doctor-token"}, nil
	}
	r := *m.LoginResult
	return &r, nil
}

// SetProfile replaces the profile served by later calls.
func (m *MockService) SetProfile(p *DoctorProfile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Profile = p.Clone()
}

// SetGetErr replaces the error returned by later GetProfile calls.
func (m *MockService) SetGetErr(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetErr = err
}

// GetCalls reports how many times GetProfile was called.
func (m *MockService) GetCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.getCalls
}

// UpdateCalls reports how many times UpdateProfile reached the backend.
func (m *MockService) UpdateCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.updateCalls
}

// LoginCalls reports how many times Login was called.
func (m *MockService) LoginCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loginCalls
}

// LastToken returns the token of the most recent call.
func (m *MockService) LastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastToken
}

// LastPayload returns the most recent update payload, or nil.
func (m *MockService) LastPayload() *UpdatePayload {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastPayload
}

// ApplyPayload returns a copy of p with every non-nil payload field applied.
func ApplyPayload(p *DoctorProfile, payload UpdatePayload) *DoctorProfile {
	out := p.Clone()
	if out == nil {
		out = &DoctorProfile{}
	}
	setString(&out.Title, payload.Title)
	setString(&out.Bio, payload.Bio)
	setString(&out.LicenseNumber, payload.LicenseNumber)
	setString(&out.AvatarURL, payload.AvatarURL)
	setString(&out.Phone, payload.Phone)
	setString(&out.VideoProvider, payload.VideoProvider)
	if payload.DepartmentID != nil {
		out.DepartmentID = clonePtr(payload.DepartmentID)
	}
	if payload.YearsOfExperience != nil {
		out.YearsOfExperience = clonePtr(payload.YearsOfExperience)
	}
	if payload.Languages != nil {
		out.Languages = append([]string(nil), payload.Languages...)
	}
	if payload.Hospitals != nil {
		out.Hospitals = append([]string(nil), payload.Hospitals...)
	}
	if payload.Education != nil {
		out.Education = append([]string(nil), payload.Education...)
	}
	if payload.Certificates != nil {
		out.Certificates = append([]string(nil), payload.Certificates...)
	}
	if payload.Pricing != nil {
		out.Pricing = make([]Pricing, len(payload.Pricing))
		for i, pr := range payload.Pricing {
			price := pr.Price
			out.Pricing[i] = Pricing{ID: int64(i + 1), Service: pr.Service, Currency: pr.Currency, Price: &price}
		}
	}
	if payload.Availability != nil {
		out.Availability = clonePtr(payload.Availability)
	}
	if payload.CancellationPolicy != nil {
		out.CancellationPolicy = clonePtr(payload.CancellationPolicy)
	}
	if payload.RefundPolicy != nil {
		out.RefundPolicy = clonePtr(payload.RefundPolicy)
	}
	if payload.ReschedulePolicy != nil {
		out.ReschedulePolicy = clonePtr(payload.ReschedulePolicy)
	}
	if payload.Password != nil {
		out.MustChangePassword = false
	}
	return out
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

var _ Service = (*MockService)(nil)

// CompleteProfile returns a profile that satisfies every completeness requirement.
func CompleteProfile() *DoctorProfile {
	dept := int64(3)
	years := 12
	price := func(v float64) *float64 { return &v }
	return &DoctorProfile{
		ID:                42,
		Title:             "Consultant Cardiologist",
		Bio:               "Fifteen years of cardiology practice.",
		Phone:             "+20 100 000 0000",
		DepartmentID:      &dept,
		YearsOfExperience: &years,
		LicenseNumber:     "EG-CARD-7781",
		AvatarURL:         "https://cdn.medtik.example/avatars/42.png",
		Department:        &Department{ID: 3, Name: "Cardiology"},
		Languages:         []string{"English", "Arabic"},
		Pricing: []Pricing{
			{ID: 1, Service: ServiceChat, Currency: "EGP", Price: price(150)},
			{ID: 2, Service: ServiceVoice, Currency: "EGP", Price: price(250)},
			{ID: 3, Service: ServiceVideo, Currency: "EGP", Price: price(400)},
		},
		Availability: &Availability{Chat: true},
	}
}
