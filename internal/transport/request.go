package transport

import (
	"net/http"
	"strconv"
	"strings"

	"car-marketplace/internal/middleware"

	"github.com/go-chi/chi/v5"
)

// message is the body of endpoints that only acknowledge an action
type message struct {
	Message string `json:"message"`
}

// pathID parses a positive numeric URL parameter. It writes a 400 and
// returns false when the value is malformed.
func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

// queryInt reads an integer query parameter, falling back to def when it is
// absent or malformed
func queryInt(r *http.Request, name string, def int) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil {
		return def
	}
	return v
}

// queryBool reads a boolean query parameter. Absent or malformed values yield nil.
func queryBool(r *http.Request, name string) *bool {
	v, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(name)))
	if err != nil {
		return nil
	}
	return &v
}

// currentUser returns the authenticated user id. It writes a 401 and returns
// false when the request carries no identity.
func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return 0, false
	}
	return userID, true
}
