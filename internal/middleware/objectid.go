package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devconnector/backend/internal/models"
)

// ObjectID rejects requests whose named URL parameters are not 24-char hex
// object ids with 400 {"msg":"Invalid ID"}.
func ObjectID(params ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !validIDs(w, r, params) {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ValidIDs is ObjectID for authenticated handlers, so the token is checked
// before the path.
func ValidIDs(params ...string) func(AuthedHandlerFunc) AuthedHandlerFunc {
	return func(next AuthedHandlerFunc) AuthedHandlerFunc {
		return func(w http.ResponseWriter, r *http.Request, caller Caller) {
			if !validIDs(w, r, params) {
				return
			}
			next(w, r, caller)
		}
	}
}

func validIDs(w http.ResponseWriter, r *http.Request, params []string) bool {
	for _, p := range params {
		if !primitive.IsValidObjectID(chi.URLParam(r, p)) {
			writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Invalid ID"))
			return false
		}
	}
	return true
}
