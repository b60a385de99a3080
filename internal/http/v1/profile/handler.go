package profile

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/mennan0809/medtik-portal/internal/gate"
	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	"github.com/mennan0809/medtik-portal/internal/platform/logging"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
	"github.com/mennan0809/medtik-portal/internal/service/profilestate"
)

var doctorSecurity = []map[string][]string{
	{"bearerAuth": {}},
}

// Register registers the doctor profile endpoints.
func Register(api huma.API, registry *profilestate.Registry, g *gate.Gate) {
	huma.Register(api, huma.Operation{
		OperationID: "get-doctor-profile",
		Method:      http.MethodGet,
		Path:        "/v1/doctor/profile",
		Summary:     "Get doctor profile",
		Description: "Returns the cached profile of the authenticated doctor, loading it from the backend on first use or when force is set.",
		Tags:        []string{"Doctor profile"},
		Security:    doctorSecurity,
	}, func(ctx context.Context, input *ProfileGetInput) (*ProfileStateOutput, error) {
		store, err := storeFor(ctx, registry)
		if err != nil {
			return nil, err
		}
		p, err := store.LoadProfile(ctx, input.Force)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return &ProfileStateOutput{Body: stateBody(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-doctor-profile",
		Method:      http.MethodPut,
		Path:        "/v1/doctor/profile",
		Summary:     "Update doctor profile",
		Description: "Sends the provided fields to the backend and caches the returned profile.",
		Tags:        []string{"Doctor profile"},
		Security:    doctorSecurity,
	}, func(ctx context.Context, input *ProfileUpdateInput) (*ProfileStateOutput, error) {
		store, err := storeFor(ctx, registry)
		if err != nil {
			return nil, err
		}
		payload := toPayload(input)
		p, err := store.UpdateProfile(ctx, payload)
		subject := auth.SessionFromContext(ctx).Subject
		audit := logging.AuditEvent{
			Action:       "update",
			Actor:        subject,
			ResourceType: "doctor_profile",
			ResourceID:   subject,
			Result:       logging.AuditSuccess,
			Details:      map[string]any{"password_changed": payload.Password != nil},
		}
		if err != nil {
			audit.Result = logging.AuditFailure
			logging.LogAuditEvent(ctx, audit)
			return nil, mapStoreError(err)
		}
		logging.LogAuditEvent(ctx, audit)
		return &ProfileStateOutput{Body: stateBody(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "refresh-doctor-profile",
		Method:      http.MethodPost,
		Path:        "/v1/doctor/profile/refresh",
		Summary:     "Refresh doctor profile",
		Description: "Discards the cached profile and fetches it again from the backend.",
		Tags:        []string{"Doctor profile"},
		Security:    doctorSecurity,
	}, func(ctx context.Context, _ *ProfileRefreshInput) (*ProfileStateOutput, error) {
		store, err := storeFor(ctx, registry)
		if err != nil {
			return nil, err
		}
		p, err := store.RefreshProfile(ctx)
		if err != nil {
			return nil, mapStoreError(err)
		}
		return &ProfileStateOutput{Body: stateBody(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-doctor-profile-status",
		Method:      http.MethodGet,
		Path:        "/v1/doctor/profile/status",
		Summary:     "Get profile completeness",
		Description: "Reports the cached locked and loading flags. Never calls the backend.",
		Tags:        []string{"Doctor profile"},
		Security:    doctorSecurity,
	}, func(ctx context.Context, _ *ProfileStatusInput) (*ProfileStatusOutput, error) {
		store, err := storeFor(ctx, registry)
		if err != nil {
			return nil, err
		}
		st := store.Snapshot()
		return &ProfileStatusOutput{Body: ProfileStatus{
			Locked:  st.Locked,
			Loading: st.Loading,
			Missing: missing(st.Profile),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-doctor-access",
		Method:      http.MethodGet,
		Path:        "/v1/doctor/access",
		Summary:     "Check doctor area access",
		Description: "Evaluates the doctor area gate for a child route without navigating.",
		Tags:        []string{"Doctor profile"},
		Security:    doctorSecurity,
	}, func(ctx context.Context, input *AccessInput) (*AccessOutput, error) {
		store, err := storeFor(ctx, registry)
		if err != nil {
			return nil, err
		}
		target := input.URL
		if target == "" {
			target = "/doctor/" + input.Path
		}
		return &AccessOutput{Body: g.Evaluate(ctx, store, input.Path, target)}, nil
	})
}

func storeFor(ctx context.Context, registry *profilestate.Registry) (*profilestate.Store, error) {
	session := auth.SessionFromContext(ctx)
	if session == nil {
		return nil, huma.Error401Unauthorized(profilestate.SessionExpiredMessage)
	}
	if !session.IsDoctor() {
		return nil, huma.Error403Forbidden("doctor role required")
	}
	return registry.Store(session.Token), nil
}

func mapStoreError(err error) error {
	if errors.Is(err, profilestate.ErrSessionExpired) {
		return huma.Error401Unauthorized(profilestate.SessionExpiredMessage)
	}

	var verr *backend.ValidationError
	if errors.As(err, &verr) {
		details := make([]error, 0, len(verr.Fields))
		for _, f := range verr.Fields {
			details = append(details, &huma.ErrorDetail{
				Location: "body." + f.Field,
				Message:  "failed rule " + f.Rule,
			})
		}
		return huma.Error422UnprocessableEntity("invalid profile update", details...)
	}
	if errors.Is(err, backend.ErrInvalidPayload) {
		return huma.Error422UnprocessableEntity("invalid profile update")
	}

	var berr *backend.Error
	if errors.As(err, &berr) {
		switch berr.Status {
		case http.StatusUnauthorized, http.StatusForbidden:
			return huma.Error401Unauthorized(berr.Error())
		case http.StatusNotFound:
			return huma.Error404NotFound(berr.Error())
		default:
			return huma.Error502BadGateway(berr.Error())
		}
	}
	return huma.Error500InternalServerError("internal error")
}

func stateBody(p *backend.DoctorProfile) ProfileState {
	return ProfileState{
		Profile: toHTTPProfile(p),
		Locked:  profilestate.IsLocked(p),
		Missing: missing(p),
	}
}

func missing(p *backend.DoctorProfile) []string {
	m := profilestate.MissingItems(p)
	if m == nil {
		return []string{}
	}
	return m
}

func toPayload(input *ProfileUpdateInput) backend.UpdatePayload {
	b := input.Body
	payload := backend.UpdatePayload{
		Title:              b.Title,
		Bio:                b.Bio,
		DepartmentID:       b.DepartmentID,
		YearsOfExperience:  b.YearsOfExperience,
		LicenseNumber:      b.LicenseNumber,
		AvatarURL:          b.AvatarURL,
		Phone:              b.Phone,
		Languages:          b.Languages,
		Hospitals:          b.Hospitals,
		Education:          b.Education,
		Certificates:       b.Certificates,
		VideoProvider:      b.VideoProvider,
		CancellationPolicy: b.CancellationPolicy,
		RefundPolicy:       b.RefundPolicy,
		ReschedulePolicy:   b.ReschedulePolicy,
		Password:           b.Password,
	}
	if b.Pricing != nil {
		payload.Pricing = make([]backend.PricingInput, len(b.Pricing))
		for i, pr := range b.Pricing {
			payload.Pricing[i] = backend.PricingInput{
				Service:  backend.ServiceType(pr.Service),
				Currency: pr.Currency,
				Price:    pr.Price,
			}
		}
	}
	if a := b.Availability; a != nil {
		payload.Availability = &backend.Availability{Chat: a.Chat, Voice: a.Voice, Video: a.Video}
	}
	return payload
}
