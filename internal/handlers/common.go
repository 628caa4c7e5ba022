package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devconnector/backend/internal/models"
)

const requestTimeout = 10 * time.Second

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func contextWithTimeout(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, requestTimeout)
}

// decodeJSON reads the request body into v. An empty body leaves v zeroed
// so that field validation reports what is missing.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func writeBadBody(w http.ResponseWriter) {
	writeJSON(w, http.StatusBadRequest, models.NewErrorResponse("Invalid request body"))
}

// serverError logs err against the request and answers with a bare 500.
func serverError(w http.ResponseWriter, r *http.Request, op string, err error) {
	zerolog.Ctx(r.Context()).Error().Err(err).Str("op", op).Msg("request failed")
	http.Error(w, "Server Error", http.StatusInternalServerError)
}

// pathObjectID reads an id URL parameter. Routes validate these with
// middleware.ObjectID or middleware.ValidIDs, so a malformed value never
// reaches here. If one does, the zero id matches no document.
func pathObjectID(r *http.Request, name string) primitive.ObjectID {
	id, _ := primitive.ObjectIDFromHex(chi.URLParam(r, name))
	return id
}
