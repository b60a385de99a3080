// Package session exposes portal login and logout on top of the backend's auth API.
package session

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"go.uber.org/zap"

	"github.com/mennan0809/medtik-portal/internal/platform/auth"
	"github.com/mennan0809/medtik-portal/internal/platform/logging"
	"github.com/mennan0809/medtik-portal/internal/service/backend"
	"github.com/mennan0809/medtik-portal/internal/service/profilestate"
)

// LogoutPath is the logout endpoint.
const LogoutPath = "/v1/auth/logout"

// Register registers the login and logout endpoints.
func Register(
	api huma.API,
	svc backend.Service,
	verifier auth.Verifier,
	registry *profilestate.Registry,
	secureCookie bool,
) {
	huma.Register(api, huma.Operation{
		OperationID: "login",
		Method:      http.MethodPost,
		Path:        "/v1/auth/login",
		Summary:     "Log in",
		Description: "Authenticates against the backend, stores the token in the session cookie and returns the landing area for the caller's role.",
		Tags:        []string{"Session"},
	}, func(ctx context.Context, input *LoginInput) (*LoginOutput, error) {
		email := strings.TrimSpace(input.Body.Email)
		audit := logging.AuditEvent{
			Action:       "login",
			Actor:        email,
			ResourceType: "session",
			Result:       logging.AuditFailure,
		}

		result, err := svc.Login(ctx, email, input.Body.Password)
		if err != nil {
			logging.LogAuditEvent(ctx, audit)
			return nil, mapLoginError(err)
		}
		if result.Token == "" {
			logging.LogAuditEvent(ctx, audit)
			logging.LogWarn(ctx, "backend login returned no token")
			return nil, huma.Error502BadGateway(backend.FallbackLoginMessage)
		}

		session, err := verifier.Verify(ctx, result.Token)
		if err != nil {
			logging.LogAuditEvent(ctx, audit)
			logging.LogWarn(ctx, "backend issued an unreadable token", zap.Error(err))
			return nil, huma.Error502BadGateway(backend.FallbackLoginMessage)
		}

		if session.IsDoctor() {
			// Not fatal: the gate loads the profile again on the first navigation.
			if _, err := registry.Store(result.Token).RefreshProfile(ctx); err != nil {
				logging.LogWarn(ctx, "doctor profile refresh after login failed", zap.Error(err))
			}
		}

		audit.Result = logging.AuditSuccess
		audit.ResourceID = session.Subject
		audit.Details = map[string]any{"role": session.Role}
		logging.LogAuditEvent(ctx, audit)

		return &LoginOutput{
			SetCookie: auth.SessionCookie(result.Token, secureCookie),
			Body: LoginResponse{
				Message:  result.Message,
				Role:     session.Role,
				Redirect: auth.RouteForRole(session.Role),
			},
		}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "logout",
		Method:        http.MethodPost,
		Path:          LogoutPath,
		Summary:       "Log out",
		Description:   "Clears the session cookie and drops the cached doctor profile for the session.",
		Tags:          []string{"Session"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *LogoutInput) (*LogoutOutput, error) {
		token := strings.TrimSpace(input.Token)
		if token == "" {
			token, _ = auth.ExtractBearerToken(input.Authorization)
		}
		if token != "" {
			registry.Forget(token)
			logging.LogAuditEvent(ctx, logging.AuditEvent{
				Action:       "logout",
				ResourceType: "session",
				Result:       logging.AuditSuccess,
			})
		}
		return &LogoutOutput{SetCookie: auth.ExpiredSessionCookie(secureCookie)}, nil
	})
}

func mapLoginError(err error) error {
	var berr *backend.Error
	if errors.As(err, &berr) {
		msg := berr.Message
		if msg == "" {
			msg = backend.FallbackLoginMessage
		}
		switch berr.Status {
		case http.StatusBadRequest, http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound:
			return huma.Error401Unauthorized(msg)
		default:
			return huma.Error502BadGateway(msg)
		}
	}
	return huma.Error500InternalServerError("internal error")
}
