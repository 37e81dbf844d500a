package user

import (
	"encoding/json"
	"net/http"

	"bazaar/infrastructure"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

type JSONHandler struct {
	service *Service
}

func NewJSONUserHandler(service *Service) *JSONHandler {
	return &JSONHandler{service: service}
}

type updateUserRequest struct {
	Name              *string `json:"name"`
	Email             *string `json:"email"`
	IsAdmin           *bool   `json:"is_admin"`
	IsSeller          *bool   `json:"is_seller"`
	SellerName        *string `json:"seller_name"`
	SellerLogo        *string `json:"seller_logo"`
	SellerDescription *string `json:"seller_description"`
}

type updateProfileRequest struct {
	Name     *string `json:"name"`
	Email    *string `json:"email"`
	Password *string `json:"password"`
}

type profileResponse struct {
	User        *User  `json:"user"`
	AccessToken string `json:"accessToken"`
}

type toggleTwoFactorResponse struct {
	TwoFactorEnabled bool `json:"two_factor_enabled"`
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return uuid.Parse(mux.Vars(r)[name])
}

func (h *JSONHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.AllUsers(r.Context())
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, users)
}

func (h *JSONHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		infrastructure.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	u, err := h.service.UserByID(r.Context(), id)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, u)
}

func (h *JSONHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		infrastructure.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, err := h.service.UpdateUser(r.Context(), id, UpdateUserInput{
		Name:              req.Name,
		Email:             req.Email,
		IsAdmin:           req.IsAdmin,
		IsSeller:          req.IsSeller,
		SellerName:        req.SellerName,
		SellerLogo:        req.SellerLogo,
		SellerDescription: req.SellerDescription,
	})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, u)
}

func (h *JSONHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		infrastructure.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.service.DeleteUser(r.Context(), id); err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}

// UpdateProfile is restricted to the account owner or an admin.
func (h *JSONHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		infrastructure.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims, ok := infrastructure.ClaimsFromContext(r.Context())
	if !ok || (claims.UserID != id.String() && !claims.IsAdmin) {
		infrastructure.WriteError(w, infrastructure.ErrForbidden)
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrastructure.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	u, accessToken, err := h.service.UpdateProfile(r.Context(), id, UpdateProfileInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, profileResponse{User: u, AccessToken: accessToken})
}

func (h *JSONHandler) ToggleTwoFactor(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "userId")
	if err != nil {
		infrastructure.WriteJSONError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	claims, ok := infrastructure.ClaimsFromContext(r.Context())
	if !ok || (claims.UserID != id.String() && !claims.IsAdmin) {
		infrastructure.WriteError(w, infrastructure.ErrForbidden)
		return
	}

	enabled, err := h.service.ToggleTwoFactor(r.Context(), id)
	if err != nil {
		infrastructure.WriteError(w, err)
		return
	}
	infrastructure.WriteJSON(w, http.StatusOK, toggleTwoFactorResponse{TwoFactorEnabled: enabled})
}

// SetupJSONUserRoutes mounts the account-management routes. The middleware
// wrappers come from the auth package; they are passed in to keep this
// package free of that dependency.
func SetupJSONUserRoutes(r *mux.Router, h *JSONHandler, requireAuth, requireAdmin func(http.HandlerFunc) http.HandlerFunc) {
	r.HandleFunc("", requireAdmin(h.List)).Methods("GET")
	r.HandleFunc("/profile/{id}", requireAuth(h.UpdateProfile)).Methods("PUT")
	r.HandleFunc("/toggle-2fa/{userId}", requireAuth(h.ToggleTwoFactor)).Methods("PUT")
	r.HandleFunc("/{id}", requireAdmin(h.Get)).Methods("GET")
	r.HandleFunc("/{id}", requireAdmin(h.Update)).Methods("PUT")
	r.HandleFunc("/{id}", requireAdmin(h.Delete)).Methods("DELETE")
}
