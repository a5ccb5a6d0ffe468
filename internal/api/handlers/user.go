package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/metachat/accounts/internal/api/middleware"
	"github.com/metachat/accounts/internal/domain"
	"github.com/metachat/accounts/internal/service"
)

const maxAvatarSize = 5 << 20 // 5 MiB

type UserHandler struct {
	user   *service.UserService
	search *service.SearchService
}

func NewUserHandler(user *service.UserService, search *service.SearchService) *UserHandler {
	return &UserHandler{user: user, search: search}
}

type UpdateUserRequest struct {
	Email     *string `json:"email"`
	Phone     *string `json:"phone"`
	Password  *string `json:"password"`
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	Birthday  *string `json:"birthday"`
	Gender    *string `json:"gender"`
	Avatar    *string `json:"avatar"`
}

func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid user id"))
		return
	}

	var req UpdateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid request body"))
		return
	}

	var birthday *time.Time
	if req.Birthday != nil {
		birthday = parseBirthday(*req.Birthday)
	}

	user, err := h.user.Update(r.Context(), id, service.UpdateInput{
		Email:     req.Email,
		Phone:     req.Phone,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Birthday:  birthday,
		Gender:    req.Gender,
		Avatar:    req.Avatar,
	})
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "profile updated", user)
}

func (h *UserHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid user id"))
		return
	}

	if err := r.ParseMultipartForm(maxAvatarSize); err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		respondError(w, domain.E(domain.KindInvalidArgument, "avatar file is required"))
		return
	}
	defer file.Close()

	user, err := h.user.UploadAvatar(r.Context(), id, header.Filename, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "avatar uploaded", map[string]string{"avatar": user.Avatar})
}

// Search is the skip/limit variant of user search.
func (h *UserHandler) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("search")
	skip := queryInt(r, "skip", 0)
	limit := queryInt(r, "limit", 10)
	if limit < 1 {
		limit = 10
	}

	page := skip/limit + 1

	result, err := h.search.Search(r.Context(), callerID(r), query, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "search successful", result)
}

func callerID(r *http.Request) string {
	if id, ok := middleware.GetUserID(r.Context()); ok {
		return id.String()
	}
	// Fallback for callers that pass their id explicitly.
	return r.URL.Query().Get("_id")
}

func queryInt(r *http.Request, key string, fallback int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
