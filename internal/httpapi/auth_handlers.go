package httpapi

import (
	"errors"
	"net/http"
	"time"

	"gatehouse.org/internal/audit"
	"gatehouse.org/internal/auth"
	"gatehouse.org/internal/obs"
)

// credentialsRequest accepts both naming schemes the browser client has used.
type credentialsRequest struct {
	Identifier string `json:"identifier"`
	Secret     string `json:"secret"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

func (req credentialsRequest) credentials() (identifier, secret string) {
	identifier, secret = req.Identifier, req.Secret
	if identifier == "" {
		identifier = req.Email
	}
	if secret == "" {
		secret = req.Password
	}
	return identifier, secret
}

type messageResponse struct {
	Message string `json:"message"`
}

type tokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type protectedResponse struct {
	Message string       `json:"message"`
	Claims  *auth.Claims `json:"claims"`
}

func (a *API) handleSignup(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		obs.RecordAuth("signup", "bad_request")
		writeDecodeError(w, r, err)
		return
	}
	identifier, secret := req.credentials()
	if identifier == "" || secret == "" {
		obs.RecordAuth("signup", "bad_request")
		writeError(w, r, http.StatusBadRequest, "Missing fields")
		return
	}

	acc, err := a.store.Register(r.Context(), identifier, secret)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAlreadyExists):
			obs.RecordAuth("signup", "conflict")
			writeError(w, r, http.StatusConflict, "User already exists")
		case errors.Is(err, auth.ErrInvalidInput):
			obs.RecordAuth("signup", "bad_request")
			writeError(w, r, http.StatusBadRequest, "Invalid fields")
		default:
			obs.RecordAuth("signup", "error")
			internalError(w, r, "signup failed", err)
		}
		return
	}

	obs.RecordAuth("signup", "success")
	_ = audit.LogEvent(r.Context(), audit.EventSignup, map[string]any{
		"account":    acc.Identifier,
		"created_at": acc.CreatedAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusCreated, messageResponse{Message: "Signup successful"})
}

func (a *API) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil && !errors.Is(err, errEmptyBody) {
		obs.RecordAuth("login", "bad_request")
		writeDecodeError(w, r, err)
		return
	}
	identifier, secret := req.credentials()

	acc, err := a.store.Verify(r.Context(), identifier, secret)
	if err != nil {
		if errors.Is(err, auth.ErrNotFound) || errors.Is(err, auth.ErrMismatch) {
			obs.RecordAuth("login", "invalid_credentials")
			// same response for unknown identifier and wrong secret
			_ = audit.LogEvent(r.Context(), audit.EventLoginFailed, map[string]any{
				"account": identifier,
			})
			writeError(w, r, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		obs.RecordAuth("login", "error")
		internalError(w, r, "login failed", err)
		return
	}

	tok, err := a.issuer.Issue(acc.Identifier)
	if err != nil {
		obs.RecordAuth("login", "error")
		internalError(w, r, "token issue failed", err)
		return
	}

	obs.RecordAuth("login", "success")
	_ = audit.LogEvent(r.Context(), audit.EventLoginSucceeded, map[string]any{
		"account":    acc.Identifier,
		"expires_at": tok.ExpiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{Token: tok.Value, ExpiresAt: tok.ExpiresAt})
}

// handleProtected runs behind requireSession.
func (a *API) handleProtected(w http.ResponseWriter, r *http.Request) {
	claims, ok := auth.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, r, http.StatusUnauthorized, "Missing token")
		return
	}
	obs.RecordAuth("access", "granted")
	_ = audit.LogEvent(r.Context(), audit.EventAccessGranted, nil)
	writeJSON(w, http.StatusOK, protectedResponse{
		Message: "Access granted",
		Claims:  claims,
	})
}
