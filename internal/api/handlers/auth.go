package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/api/middleware"
	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
	user *service.UserService
}

func NewAuthHandler(auth *service.AuthService, user *service.UserService) *AuthHandler {
	return &AuthHandler{auth: auth, user: user}
}

type RegisterRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Birthday  string `json:"birthday"`
	Gender    string `json:"gender"`
	Avatar    string `json:"avatar"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
	DeviceID string `json:"deviceId"`
	FcmToken string `json:"fcmtoken"`
}

type GoogleLoginRequest struct {
	User struct {
		Email     string `json:"email"`
		Name      string `json:"name"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Birthday  string `json:"birthday"`
		Gender    string `json:"gender"`
		Avatar    string `json:"avatar"`
		Password  string `json:"password"`
	} `json:"user"`
	DeviceID string `json:"deviceId"`
	FcmToken string `json:"fcmtoken"`
}

type AuthData struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email,omitempty"`
	Phone        string `json:"phone,omitempty"`
	Avatar       string `json:"avatar,omitempty"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func authData(result *service.AuthResult) AuthData {
	data := AuthData{
		ID:           result.User.ID.String(),
		Name:         result.User.Name,
		Avatar:       result.User.Avatar,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	if result.User.Email != nil {
		data.Email = *result.User.Email
	}
	if result.User.Phone != nil {
		data.Phone = *result.User.Phone
	}
	return data
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}

	user, err := h.auth.Register(r.Context(), service.RegisterInput{
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthday:  parseBirthday(req.Birthday),
		Gender:    req.Gender,
		Avatar:    req.Avatar,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	data := map[string]any{
		"id":   user.ID.String(),
		"name": user.Name,
	}
	if user.Email != nil {
		data["email"] = *user.Email
	}
	if user.Phone != nil {
		data["phone"] = *user.Phone
	}
	respond(w, http.StatusCreated, "registration successful", data)
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}

	result, err := h.auth.Login(r.Context(), service.LoginInput{
		Email:    req.Email,
		Phone:    req.Phone,
		Password: req.Password,
		DeviceID: req.DeviceID,
		FcmToken: req.FcmToken,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "login successful", authData(result))
}

func (h *AuthHandler) Google(w http.ResponseWriter, r *http.Request) {
	var req GoogleLoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}

	result, err := h.auth.LoginWithGoogle(r.Context(), service.GoogleLoginInput{
		User: service.GoogleUser{
			Email:     req.User.Email,
			Name:      req.User.Name,
			FirstName: req.User.FirstName,
			LastName:  req.User.LastName,
			Birthday:  parseBirthday(req.User.Birthday),
			Gender:    req.User.Gender,
			Avatar:    req.User.Avatar,
			Password:  req.User.Password,
		},
		DeviceID: req.DeviceID,
		FcmToken: req.FcmToken,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "login successful", authData(result))
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RefreshToken string `json:"refreshToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.RefreshToken == "" {
		respondError(w, domain.E(domain.KindInvalidArgument, "refresh token is required"))
		return
	}

	result, err := h.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "token refreshed", authData(result))
}

func (h *AuthHandler) ForgetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Identifier string `json:"identifier"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Identifier == "" {
		respondError(w, domain.E(domain.KindInvalidArgument, "identifier is required"))
		return
	}

	userID, err := h.auth.ForgetPassword(r.Context(), req.Identifier)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "otp sent", map[string]any{"userId": userID.String()})
}

func (h *AuthHandler) VerifyOTP(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID string `json:"userId"`
		OTP    string `json:"otp"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "userId is required"))
		return
	}

	if err := h.auth.VerifyOTP(r.Context(), userID, req.OTP); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "otp verified", nil)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID      string `json:"userId"`
		NewPassword string `json:"newPassword"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}
	userID, err := uuid.Parse(req.UserID)
	if err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "userId is required"))
		return
	}

	if err := h.auth.ResetPassword(r.Context(), userID, req.NewPassword); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "password updated", nil)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID   string `json:"userId"`
		FcmToken string `json:"fcmtoken"`
	}
	// Body is optional on logout.
	_ = json.NewDecoder(r.Body).Decode(&req)

	h.auth.Logout(r.Context(), middleware.BearerToken(r), req.UserID, req.FcmToken)

	respond(w, http.StatusOK, "logged out", nil)
}

func (h *AuthHandler) SetFcmToken(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	var req struct {
		FcmToken string `json:"fcmToken"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FcmToken == "" {
		respondError(w, domain.E(domain.KindInvalidArgument, "fcmToken is required"))
		return
	}

	if err := h.auth.SetFcmToken(r.Context(), userID, req.FcmToken); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "fcm token set", nil)
}

func (h *AuthHandler) RemoveFcmToken(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")

	fcmToken := r.URL.Query().Get("fcmToken")
	if fcmToken == "" {
		var req struct {
			FcmToken string `json:"fcmToken"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)
		fcmToken = req.FcmToken
	}
	if fcmToken == "" {
		respondError(w, domain.E(domain.KindInvalidArgument, "fcmToken is required"))
		return
	}

	if err := h.auth.RemoveFcmToken(r.Context(), userID, fcmToken); err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "fcm token removed", nil)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		respondError(w, domain.E(domain.KindUnauthorized, "unauthorized"))
		return
	}

	user, err := h.user.GetByID(r.Context(), userID)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "success", user)
}

func parseBirthday(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t
		}
	}
	return nil
}
