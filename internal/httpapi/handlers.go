package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/obs"
)

const serviceName = "gatehouse-api"

// CredentialStore registers and verifies identifier/secret pairs.
type CredentialStore interface {
	Register(ctx context.Context, identifier, secret string) (auth.Account, error)
	Verify(ctx context.Context, identifier, secret string) (auth.Account, error)
}

// TokenIssuer mints and verifies session tokens.
type TokenIssuer interface {
	Issue(identifier string) (auth.Token, error)
	Verify(token string) (*auth.Claims, error)
}

// API is the HTTP layer.
type API struct {
	mux     *http.ServeMux
	store   CredentialStore
	issuer  TokenIssuer
	version string

	corsOrigins  []string
	maxBodyBytes int64
}

// Option configures API.
type Option func(*API)

// WithVersion sets the version reported by /healthz and /v1/info.
func WithVersion(v string) Option {
	return func(a *API) { a.version = v }
}

// WithCORSOrigins sets the browser origins allowed to call the API.
func WithCORSOrigins(origins []string) Option {
	return func(a *API) { a.corsOrigins = append([]string(nil), origins...) }
}

// WithMaxBodyBytes limits request body size.
func WithMaxBodyBytes(n int64) Option {
	return func(a *API) {
		if n > 0 {
			a.maxBodyBytes = n
		}
	}
}

// New wires the routes. store and issuer are shared by every request for the
// lifetime of the process.
func New(store CredentialStore, issuer TokenIssuer, opts ...Option) *API {
	a := &API{
		mux:          http.NewServeMux(),
		store:        store,
		issuer:       issuer,
		version:      "dev",
		maxBodyBytes: 1 << 20,
	}
	for _, opt := range opts {
		opt(a)
	}

	// the browser client calls these under /api
	for _, prefix := range []string{"", "/api"} {
		a.mux.HandleFunc(prefix+"/signup", a.handleSignup)
		a.mux.HandleFunc(prefix+"/login", a.handleLogin)
		a.mux.Handle(prefix+"/protected", a.requireSession(http.HandlerFunc(a.handleProtected)))
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "Not found")
	})

	return a
}

// Handler returns the mux wrapped in the middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = a.mux
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = CORS(a.corsOrigins)(h)
	h = SecurityHeaders(h)
	h = Recover(h)
	h = LoggingJSON(h)
	h = RequestID(h)
	return obs.Instrument(h)
}

// Check reports whether the API has everything it needs to serve requests.
func (a *API) Check(ctx context.Context) error {
	if a.store == nil {
		return errors.New("credential store not configured")
	}
	if a.issuer == nil {
		return errors.New("token issuer not configured")
	}
	return ctx.Err()
}

// --- Handlers ---

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.Check(r.Context()); err != nil {
		obs.Error("readiness check failed", err, map[string]any{"request_id": audit.RequestIDFromContext(r.Context())})
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":      serviceName,
		"time":      time.Now().UTC().Format(time.RFC3339),
		"version":   a.version,
		"token_ttl": auth.TokenTTL.String(),
	})
}

// --- helpers ---

type errorResponse struct {
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, r *http.Request, code int, msg string) {
	writeJSON(w, code, errorResponse{
		Message:   msg,
		RequestID: audit.RequestIDFromContext(r.Context()),
	})
}

// internalError logs err server-side and answers with a generic message.
func internalError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	obs.Error(msg, err, map[string]any{
		"request_id": audit.RequestIDFromContext(r.Context()),
		"method":     r.Method,
		"path":       r.URL.Path,
	})
	writeError(w, r, http.StatusInternalServerError, "Server error")
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request, allowed ...string) {
	for _, m := range allowed {
		w.Header().Add("Allow", m)
	}
	writeError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

func writeDecodeError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		writeError(w, r, http.StatusRequestEntityTooLarge, "Request body too large")
		return
	}
	writeError(w, r, http.StatusBadRequest, "Invalid JSON body")
}

var errEmptyBody = errors.New("request body is empty")

// decodeJSON decodes a single JSON value from the body. An empty body yields
// errEmptyBody so callers can treat it as missing fields.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return errEmptyBody
	}
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return errEmptyBody
		}
		return err
	}
	if dec.More() {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}
