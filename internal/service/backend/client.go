package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mennan0809/medtik-portal/internal/platform/logging"
	"github.com/mennan0809/medtik-portal/internal/platform/metrics"
)

const (
	defaultBaseURL = "http://localhost:3000/api"
	userAgent      = "medtik-portal"
	maxErrorBody   = 64 << 10
)

// Client implements Service over the backend's JSON API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	metrics    *metrics.PortalMetrics
}

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the API root, e.g. "https://api.medtik.example/api".
func WithBaseURL(url string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(url, "/")
	}
}

// WithMetrics records per-operation latency.
func WithMetrics(m *metrics.PortalMetrics) Option {
	return func(c *Client) {
		c.metrics = m
	}
}

// NewClient creates a backend client. A nil httpClient uses http.DefaultClient.
func NewClient(httpClient *http.Client, opts ...Option) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		httpClient: httpClient,
		baseURL:    defaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Backend wire types (camelCase JSON, nullable fields as pointers).

type wireDepartment struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}

type wirePricing struct {
	ID       int64      `json:"id"`
	Service  string     `json:"service"`
	Currency *string    `json:"currency"`
	Price    wireNumber `json:"price"`
}

// wireNumber accepts a JSON number or a numeric string ("10.00" from decimal columns).
// Null and anything that does not parse decode as absent, which the completeness
// check reports as missing instead of failing the whole load.
type wireNumber struct {
	value float64
	set   bool
}

func (n *wireNumber) UnmarshalJSON(data []byte) error {
	*n = wireNumber{}
	text := strings.TrimSpace(string(data))
	if strings.HasPrefix(text, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		text = strings.TrimSpace(s)
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	*n = wireNumber{value: v, set: true}
	return nil
}

func (n wireNumber) asFloat() *float64 {
	if !n.set {
		return nil
	}
	v := n.value
	return &v
}

// whole returns the value as an integer. Fractions are truncated only when truncate is set;
// otherwise a fractional value counts as absent.
func (n wireNumber) whole(truncate bool) (int64, bool) {
	if !n.set || math.Abs(n.value) >= math.MaxInt64 {
		return 0, false
	}
	v := n.value
	if truncate {
		v = math.Trunc(v)
	} else if v != math.Trunc(v) {
		return 0, false
	}
	return int64(v), true
}

func (n wireNumber) asInt64() *int64 {
	v, ok := n.whole(false)
	if !ok {
		return nil
	}
	return &v
}

func (n wireNumber) asInt() *int {
	v, ok := n.whole(true)
	if !ok || v > math.MaxInt32 || v < math.MinInt32 {
		return nil
	}
	i := int(v)
	return &i
}

type wireDoctor struct {
	ID                 int64           `json:"id"`
	MustChangePassword bool            `json:"mustChangePassword"`
	Title              *string         `json:"title"`
	Bio                *string         `json:"bio"`
	Phone              *string         `json:"phone"`
	YearsOfExperience  wireNumber      `json:"yearsOfExperience"`
	LicenseNumber      *string         `json:"licenseNumber"`
	AvatarURL          *string         `json:"avatarUrl"`
	DepartmentID       wireNumber      `json:"departmentId"`
	Department         *wireDepartment `json:"department"`
	Languages          []string        `json:"languages"`
	Hospitals          []string        `json:"hospitals"`
	Education          []string        `json:"education"`
	Certificates       []string        `json:"certificates"`
	Pricing            []wirePricing   `json:"pricing"`
	Availability       *Availability   `json:"availability"`
	VideoProvider      *string         `json:"videoProvider"`
	CancellationPolicy *int            `json:"cancellationPolicy"`
	RefundPolicy       *bool           `json:"refundPolicy"`
	ReschedulePolicy   *int            `json:"reschedulePolicy"`
}

type wireProfileResponse struct {
	Message string      `json:"message"`
	Doctor  *wireDoctor `json:"doctor"`
}

type wireLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type wireLoginResponse struct {
	Message string `json:"message"`
	Token   string `json:"token"`
}

func (c *Client) doRequest(ctx context.Context, method, path, token string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return c.httpClient.Do(req)
}

// call performs one request and decodes a 2xx JSON body into target. Any failure is
// returned as *Error carrying the normalized message.
func (c *Client) call(ctx context.Context, op, method, path, token string, body, target any, fallback string) error {
	start := time.Now()
	defer func() { c.metrics.ObserveBackendLatency(op, time.Since(start).Seconds()) }()

	resp, err := c.doRequest(ctx, method, path, token, body)
	if err != nil {
		logging.LogWarn(ctx, "backend request failed", zap.String("operation", op), zap.Error(err))
		return transportError(err, fallback)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		e := &Error{Status: resp.StatusCode, Message: messageFromBody(raw, fallback)}
		if e.Message == "" {
			e.Message = fmt.Sprintf("%s %s: %s", method, path, resp.Status)
		}
		logging.LogWarn(ctx, "backend rejected request",
			zap.String("operation", op),
			zap.Int("status", resp.StatusCode),
			zap.String("message", e.Message),
		)
		return e
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		logging.LogWarn(ctx, "backend response undecodable", zap.String("operation", op), zap.Error(err))
		return &Error{Status: resp.StatusCode, Message: fallback, cause: err}
	}
	return nil
}

// messageFromBody picks the backend's message: a JSON "error" string, then a JSON "message"
// string, then a non-empty raw body. A JSON body with neither field yields fallback.
// An empty body yields "" so the caller can fall back to the transport status line.
func messageFromBody(raw []byte, fallback string) string {
	text := strings.TrimSpace(string(raw))
	if text == "" {
		return ""
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return text
	}
	switch v := decoded.(type) {
	case map[string]any:
		for _, key := range []string{"error", "message"} {
			if s, ok := v[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
		return fallback
	case string:
		if strings.TrimSpace(v) != "" {
			return v
		}
		return fallback
	default:
		return text
	}
}

func transportError(err error, fallback string) *Error {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return &Error{Status: 0, Message: msg, cause: err}
}

// GetProfile fetches the caller's profile from GET /doctor/profile.
func (c *Client) GetProfile(ctx context.Context, token string) (*DoctorProfile, error) {
	var out wireProfileResponse
	if err := c.call(ctx, "get_profile", http.MethodGet, "/doctor/profile", token, nil, &out, FallbackProfileMessage); err != nil {
		return nil, err
	}
	if out.Doctor == nil {
		return nil, &Error{Status: http.StatusOK, Message: FallbackProfileMessage, cause: errors.New("response has no doctor")}
	}
	return out.Doctor.toDomain(), nil
}

// UpdateProfile validates payload, sends it to PUT /doctor/update and returns the stored profile.
func (c *Client) UpdateProfile(ctx context.Context, token string, payload UpdatePayload) (*DoctorProfile, error) {
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	var out wireProfileResponse
	if err := c.call(ctx, "update_profile", http.MethodPut, "/doctor/update", token, payload, &out, FallbackProfileMessage); err != nil {
		return nil, err
	}
	if out.Doctor == nil {
		return nil, &Error{Status: http.StatusOK, Message: FallbackProfileMessage, cause: errors.New("response has no doctor")}
	}
	return out.Doctor.toDomain(), nil
}

// Login exchanges credentials for a backend token via POST /auth/login.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	var out wireLoginResponse
	body := wireLoginRequest{Email: email, Password: password}
	if err := c.call(ctx, "login", http.MethodPost, "/auth/login", "", body, &out, FallbackLoginMessage); err != nil {
		return nil, err
	}
	return &LoginResult{Message: out.Message, Token: out.Token}, nil
}

func (w *wireDoctor) toDomain() *DoctorProfile {
	p := &DoctorProfile{
		ID:                 w.ID,
		MustChangePassword: w.MustChangePassword,
		Title:              deref(w.Title),
		Bio:                deref(w.Bio),
		Phone:              deref(w.Phone),
		DepartmentID:       w.DepartmentID.asInt64(),
		YearsOfExperience:  w.YearsOfExperience.asInt(),
		LicenseNumber:      deref(w.LicenseNumber),
		AvatarURL:          deref(w.AvatarURL),
		Languages:          w.Languages,
		Hospitals:          w.Hospitals,
		Education:          w.Education,
		Certificates:       w.Certificates,
		Availability:       w.Availability,
		VideoProvider:      deref(w.VideoProvider),
		CancellationPolicy: w.CancellationPolicy,
		RefundPolicy:       w.RefundPolicy,
		ReschedulePolicy:   w.ReschedulePolicy,
	}
	if w.Department != nil {
		p.Department = &Department{
			ID:          w.Department.ID,
			Name:        w.Department.Name,
			Description: deref(w.Department.Description),
		}
	}
	if w.Pricing != nil {
		p.Pricing = make([]Pricing, len(w.Pricing))
		for i, pr := range w.Pricing {
			p.Pricing[i] = Pricing{
				ID:       pr.ID,
				Service:  ServiceType(pr.Service),
				Currency: deref(pr.Currency),
				Price:    pr.Price.asFloat(),
			}
		}
	}
	return p
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

var _ Service = (*Client)(nil)
