package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/devconnector/backend/internal/middleware"
	"github.com/devconnector/backend/internal/models"
	"github.com/devconnector/backend/internal/services"
	"github.com/devconnector/backend/internal/validation"
)

type PostHandler struct {
	postService services.PostService
	userService services.UserService
	validator   *validation.Validator
}

func NewPostHandler(postService services.PostService, userService services.UserService, v *validation.Validator) *PostHandler {
	return &PostHandler{
		postService: postService,
		userService: userService,
		validator:   v,
	}
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	var req models.PostRequest
	if !h.decodePostRequest(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	author, ok := h.author(ctx, w, r, caller)
	if !ok {
		return
	}
	post, err := h.postService.Create(ctx, author, req.Text)
	if err != nil {
		serverError(w, r, "post_create", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request, _ middleware.Caller) {
	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	posts, err := h.postService.List(ctx)
	if err != nil {
		serverError(w, r, "post_list", err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request, _ middleware.Caller) {
	postID := pathObjectID(r, "id")

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	post, err := h.postService.GetByID(ctx, postID)
	if err != nil {
		h.postError(w, r, "post_get", err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	postID := pathObjectID(r, "id")

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	if err := h.postService.Delete(ctx, postID, caller.ID); err != nil {
		h.postError(w, r, "post_delete", err)
		return
	}
	writeJSON(w, http.StatusOK, models.NewMessageResponse("Post removed"))
}

func (h *PostHandler) Like(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	postID := pathObjectID(r, "id")

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	likes, err := h.postService.Like(ctx, postID, caller.ID)
	if err != nil {
		h.postError(w, r, "post_like", err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

func (h *PostHandler) Unlike(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	postID := pathObjectID(r, "id")

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	likes, err := h.postService.Unlike(ctx, postID, caller.ID)
	if err != nil {
		h.postError(w, r, "post_unlike", err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

func (h *PostHandler) AddComment(w http.ResponseWriter, r *http.Request, caller middleware.Caller) {
	postID := pathObjectID(r, "id")
	var req models.PostRequest
	if !h.decodePostRequest(w, r, &req) {
		return
	}

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	author, ok := h.author(ctx, w, r, caller)
	if !ok {
		return
	}
	comments, err := h.postService.AddComment(ctx, postID, author, req.Text)
	if err != nil {
		h.postError(w, r, "comment_add", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

// DeleteComment removes a comment by id. Any authenticated caller may remove any comment.
func (h *PostHandler) DeleteComment(w http.ResponseWriter, r *http.Request, _ middleware.Caller) {
	postID := pathObjectID(r, "id")

	ctx, cancel := contextWithTimeout(r.Context())
	defer cancel()

	comments, err := h.postService.RemoveComment(ctx, postID, chi.URLParam(r, "comment_id"))
	if err != nil {
		h.postError(w, r, "comment_delete", err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *PostHandler) decodePostRequest(w http.ResponseWriter, r *http.Request, req *models.PostRequest) bool {
	if err := decodeJSON(r, req); err != nil {
		writeBadBody(w)
		return false
	}
	if errs := h.validator.Struct(req); errs != nil {
		writeJSON(w, http.StatusBadRequest, models.NewErrorsResponse(errs))
		return false
	}
	return true
}

// author loads the caller so posts and comments can snapshot name and avatar.
func (h *PostHandler) author(ctx context.Context, w http.ResponseWriter, r *http.Request, caller middleware.Caller) (*models.User, bool) {
	user, err := h.userService.GetByID(ctx, caller.ID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			writeJSON(w, http.StatusNotFound, models.NewMessageResponse("User not found"))
			return nil, false
		}
		serverError(w, r, "post_author", err)
		return nil, false
	}
	return user, true
}

func (h *PostHandler) postError(w http.ResponseWriter, r *http.Request, op string, err error) {
	switch {
	case errors.Is(err, services.ErrPostNotFound):
		writeJSON(w, http.StatusNotFound, models.NewMessageResponse("Post not found"))
	case errors.Is(err, services.ErrNotAuthorized):
		writeJSON(w, http.StatusUnauthorized, models.NewMessageResponse("User not authorized"))
	case errors.Is(err, services.ErrAlreadyLiked):
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Post already liked"))
	case errors.Is(err, services.ErrNotLiked):
		writeJSON(w, http.StatusBadRequest, models.NewMessageResponse("Post has not yet been liked"))
	case errors.Is(err, services.ErrCommentNotFound):
		writeJSON(w, http.StatusNotFound, models.NewMessageResponse("Comment does not exist"))
	default:
		serverError(w, r, op, err)
	}
}
