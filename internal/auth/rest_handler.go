package auth

import (
	"context"
	"encoding/json"
	"net"
	"net/http"

	"bazaar/infrastructure"

	"github.com/gorilla/mux"
)

type JSONHandler struct {
	service *Service
}

func NewJSONAuthHandler(service *Service) *JSONHandler {
	return &JSONHandler{service: service}
}

func (h *JSONHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.SignUp(r.Context(), req.Name, req.Email, req.Password, clientIP(r))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SignUpResponse{
		ID:           result.User.ID.String(),
		Name:         result.User.Name,
		Email:        result.User.Email,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	})
}

func (h *JSONHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.SignIn(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	switch result.Status {
	case StatusAuthenticated:
		writeJSON(w, http.StatusOK, SignInResponse{AccessToken: result.AccessToken, User: result.User})
	default:
		writeJSON(w, http.StatusOK, SignInResponse{Data: string(result.Status)})
	}
}

func (h *JSONHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req VerifyOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.service.VerifyOTP(r.Context(), req.Email, req.OTP)
	if err != nil {
		writeError(w, err)
		return
	}

	if result.Verified {
		writeJSON(w, http.StatusOK, VerifyOTPResponse{Success: true, Message: "Email verified successfully"})
		return
	}
	writeJSON(w, http.StatusOK, VerifyOTPResponse{Success: true, AccessToken: result.AccessToken, User: result.User})
}

func (h *JSONHandler) SendVerificationOTP(w http.ResponseWriter, r *http.Request) {
	h.sendOTP(w, r, h.service.SendVerificationOTP)
}

func (h *JSONHandler) SendTwoFactorOTP(w http.ResponseWriter, r *http.Request) {
	h.sendOTP(w, r, h.service.SendTwoFactorOTP)
}

func (h *JSONHandler) sendOTP(w http.ResponseWriter, r *http.Request, send func(ctx context.Context, email, ip string) error) {
	var req SendOTPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := send(r.Context(), req.Email, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "OTP sent successfully"})
}

func (h *JSONHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	accessToken, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, RefreshTokenResponse{AccessToken: accessToken})
}

func (h *JSONHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := infrastructure.ClaimsFromContext(r.Context())
	if !ok {
		writeError(w, infrastructure.ErrUnauthorized)
		return
	}

	var req LogoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	userID, err := claims.UserUUID()
	if err != nil {
		writeError(w, infrastructure.ErrInvalidToken)
		return
	}

	if err := h.service.Logout(r.Context(), userID, req.RefreshToken, clientIP(r)); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, MessageResponse{Message: "Logged out successfully"})
}

// SetupJSONAuthRoutes mounts the public and authenticated account routes.
func SetupJSONAuthRoutes(r *mux.Router, h *JSONHandler, m *Middleware, signInLimiter func(http.HandlerFunc) http.HandlerFunc) {
	r.HandleFunc("/signup", h.SignUp).Methods("POST")
	r.HandleFunc("/signin", signInLimiter(h.SignIn)).Methods("POST")
	r.HandleFunc("/verifyOTP", h.VerifyOTP).Methods("POST")
	r.HandleFunc("/send-verification-otp", h.SendVerificationOTP).Methods("POST")
	r.HandleFunc("/send-2fa-otp", h.SendTwoFactorOTP).Methods("POST")
	r.HandleFunc("/refresh-token", h.RefreshToken).Methods("POST")
	r.HandleFunc("/logout", m.RequireAuth(h.Logout)).Methods("POST")
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	infrastructure.WriteJSON(w, status, body)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	infrastructure.WriteJSONError(w, status, message)
}

func writeError(w http.ResponseWriter, err error) {
	infrastructure.WriteError(w, err)
}
