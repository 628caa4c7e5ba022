package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/devconnector/backend/internal/middleware"
	"github.com/devconnector/backend/internal/models"
	"github.com/devconnector/backend/internal/testutil"
	"github.com/devconnector/backend/internal/validation"
)

type postFixture struct {
	h        *PostHandler
	ada, bob middleware.Caller
}

func newPostFixture(t *testing.T) *postFixture {
	t.Helper()
	store := testutil.NewStore()
	register := func(name, email string) middleware.Caller {
		u, err := store.Users().Register(context.Background(), &models.RegisterRequest{Name: name, Email: email, Password: "secret1"})
		require.NoError(t, err)
		return middleware.Caller{ID: u.ID}
	}
	return &postFixture{
		h:   NewPostHandler(store.Posts(), store.Users(), validation.New()),
		ada: register("Ada", "ada@example.com"),
		bob: register("Bob", "bob@example.com"),
	}
}

func (f *postFixture) create(t *testing.T, caller middleware.Caller, text string) models.Post {
	t.Helper()
	rec := serve(http.MethodPost, "/api/posts", "/api/posts", `{"text":"`+text+`"}`, as(caller, f.h.Create))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[models.Post](t, rec)
}

func TestPostHandler_CreateGetList(t *testing.T) {
	f := newPostFixture(t)

	post := f.create(t, f.ada, "hello")
	assert.Equal(t, "Ada", post.Name)
	assert.Equal(t, f.ada.ID, post.User)
	assert.NotNil(t, post.Likes)

	rec := serve(http.MethodPost, "/api/posts", "/api/posts", `{"text":""}`, as(f.ada, f.h.Create))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Text is required", errorsOf(t, rec)[0].Msg)

	rec = serve(http.MethodGet, "/api/posts/{id}", "/api/posts/"+post.ID.Hex(), "", as(f.bob, f.h.Get))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello", decode[models.Post](t, rec).Text)

	rec = serve(http.MethodGet, "/api/posts/{id}", "/api/posts/"+primitive.NewObjectID().Hex(), "", as(f.bob, f.h.Get))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", msgOf(t, rec))

	rec = serve(http.MethodGet, "/api/posts", "/api/posts", "", as(f.bob, f.h.List))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode[[]models.Post](t, rec), 1)
}

func TestPostHandler_CreateForDeletedUser(t *testing.T) {
	f := newPostFixture(t)
	ghost := middleware.Caller{ID: primitive.NewObjectID()}

	rec := serve(http.MethodPost, "/api/posts", "/api/posts", `{"text":"boo"}`, as(ghost, f.h.Create))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", msgOf(t, rec))
}

func TestPostHandler_Delete(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, f.ada, "mine")
	path := "/api/posts/" + post.ID.Hex()

	rec := serve(http.MethodDelete, "/api/posts/{id}", path, "", as(f.bob, f.h.Delete))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "User not authorized", msgOf(t, rec))

	rec = serve(http.MethodDelete, "/api/posts/{id}", path, "", as(f.ada, f.h.Delete))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Post removed", msgOf(t, rec))

	rec = serve(http.MethodDelete, "/api/posts/{id}", path, "", as(f.ada, f.h.Delete))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostHandler_LikeUnlike(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, f.ada, "like me")
	path := "/api/posts/like/" + post.ID.Hex()
	unlikePath := "/api/posts/unlike/" + post.ID.Hex()

	rec := serve(http.MethodPut, "/api/posts/unlike/{id}", unlikePath, "", as(f.bob, f.h.Unlike))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Post has not yet been liked", msgOf(t, rec))

	rec = serve(http.MethodPut, "/api/posts/like/{id}", path, "", as(f.bob, f.h.Like))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(http.MethodPut, "/api/posts/like/{id}", path, "", as(f.ada, f.h.Like))
	require.Equal(t, http.StatusOK, rec.Code)
	likes := decode[[]models.Like](t, rec)
	require.Len(t, likes, 2)
	assert.Equal(t, f.ada.ID, likes[0].User, "likes are prepended")

	rec = serve(http.MethodPut, "/api/posts/like/{id}", path, "", as(f.bob, f.h.Like))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Post already liked", msgOf(t, rec))

	rec = serve(http.MethodPut, "/api/posts/unlike/{id}", unlikePath, "", as(f.bob, f.h.Unlike))
	require.Equal(t, http.StatusOK, rec.Code)
	likes = decode[[]models.Like](t, rec)
	require.Len(t, likes, 1)
	assert.Equal(t, f.ada.ID, likes[0].User)

	rec = serve(http.MethodPut, "/api/posts/like/{id}", "/api/posts/like/"+primitive.NewObjectID().Hex(), "", as(f.bob, f.h.Like))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestPostHandler_Comments(t *testing.T) {
	f := newPostFixture(t)
	post := f.create(t, f.ada, "discuss")
	commentPath := "/api/posts/comment/" + post.ID.Hex()

	rec := serve(http.MethodPost, "/api/posts/comment/{id}", commentPath, `{"text":"first"}`, as(f.bob, f.h.AddComment))
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(http.MethodPost, "/api/posts/comment/{id}", commentPath, `{"text":"second"}`, as(f.ada, f.h.AddComment))
	require.Equal(t, http.StatusOK, rec.Code)
	comments := decode[[]models.Comment](t, rec)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Text)
	assert.Equal(t, "Bob", comments[1].Name)

	rec = serve(http.MethodPost, "/api/posts/comment/{id}", commentPath, `{}`, as(f.ada, f.h.AddComment))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	const route = "/api/posts/comment/{id}/{comment_id}"
	for _, cid := range []string{primitive.NewObjectID().Hex(), "nope"} {
		rec = serve(http.MethodDelete, route, commentPath+"/"+cid, "", as(f.ada, f.h.DeleteComment))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "Comment does not exist", msgOf(t, rec))
	}

	rec = serve(http.MethodDelete, route, "/api/posts/comment/"+primitive.NewObjectID().Hex()+"/"+comments[0].ID.Hex(), "",
		as(f.ada, f.h.DeleteComment))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Post not found", msgOf(t, rec))

	// Any authenticated user may remove a comment.
	rec = serve(http.MethodDelete, route, commentPath+"/"+comments[1].ID.Hex(), "", as(f.ada, f.h.DeleteComment))
	require.Equal(t, http.StatusOK, rec.Code)
	left := decode[[]models.Comment](t, rec)
	require.Len(t, left, 1)
	assert.Equal(t, "second", left[0].Text)
}

func TestPostHandler_IDsCheckedByMiddleware(t *testing.T) {
	f := newPostFixture(t)
	f.create(t, f.ada, "hello")

	direct := serve(http.MethodGet, "/api/posts/{id}", "/api/posts/not-an-id", "", as(f.ada, f.h.Get))
	assert.Equal(t, http.StatusNotFound, direct.Code, "an unchecked id matches no post")

	routed := serve(http.MethodGet, "/api/posts/{id}", "/api/posts/not-an-id", "",
		as(f.ada, middleware.ValidIDs("id")(f.h.Get)))
	assert.Equal(t, http.StatusBadRequest, routed.Code)
	assert.Equal(t, "Invalid ID", msgOf(t, routed))
}
