package handlers

import (
	"net/http"

	"github.com/metachat/accounts/internal/service"
)

type FriendHandler struct {
	search *service.SearchService
}

func NewFriendHandler(search *service.SearchService) *FriendHandler {
	return &FriendHandler{search: search}
}

// Search is the page/limit variant used by the friend picker.
func (h *FriendHandler) Search(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("text")
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 10)

	result, err := h.search.Search(r.Context(), callerID(r), text, page, limit)
	if err != nil {
		respondError(w, err)
		return
	}

	respond(w, http.StatusOK, "success", result)
}
