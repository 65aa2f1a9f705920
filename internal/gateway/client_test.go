package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"vibewall/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorded struct {
	method string
	path   string
	query  string
	auth   string
	body   string
	ctype  string
}

func newBackend(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) (*Client, func() []recorded) {
	t.Helper()
	var (
		mu    sync.Mutex
		calls []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		calls = append(calls, recorded{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			auth:   r.Header.Get("Authorization"),
			body:   string(body),
			ctype:  r.Header.Get("Content-Type"),
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return New(srv.URL + "/"), func() []recorded {
		mu.Lock()
		defer mu.Unlock()
		return append([]recorded(nil), calls...)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func TestListPosts_AttachesTokenAndDecodesPage(t *testing.T) {
	c, calls := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"content": []map[string]any{{"id": 1, "userId": 2, "text": "hello"}},
			"number":  1,
			"last":    true,
		})
	})

	page, err := c.WithToken("tok").ListPosts(context.Background(), 1, 5)
	require.NoError(t, err)
	require.Len(t, page.Content, 1)
	assert.Equal(t, "hello", page.Content[0].Text)
	assert.True(t, page.Last)

	require.Len(t, calls(), 1)
	call := calls()[0]
	assert.Equal(t, http.MethodGet, call.method)
	assert.Equal(t, "/posts", call.path)
	assert.Equal(t, "page=1&size=5", call.query)
	assert.Equal(t, "Bearer tok", call.auth)
}

func TestNoTokenSendsNoAuthorization(t *testing.T) {
	c, calls := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	})

	require.NoError(t, c.Register(context.Background(), "alice", "a@example.com", "pw"))
	require.Len(t, calls(), 1)
	assert.Empty(t, calls()[0].auth)
	assert.JSONEq(t, `{"username":"alice","email":"a@example.com","password":"pw"}`, calls()[0].body)
}

func TestNon2xxIsAPIError(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "not your post", http.StatusForbidden)
	})

	_, err := c.WithToken("tok").EditPost(context.Background(), 9, "new")
	var apiErr *models.APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.Status)
	assert.Equal(t, "/posts/9", apiErr.Path)
	assert.Contains(t, apiErr.Body, "not your post")
}

func TestLoginAndRegisterFailuresAreAuthErrors(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	_, err := c.Login(context.Background(), "alice", "wrong")
	var authErr *models.AuthError
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)

	err = c.Register(context.Background(), "alice", "a@example.com", "pw")
	require.True(t, errors.As(err, &authErr))
	assert.Equal(t, "register", authErr.Op)
}

func TestLoginWithoutTokenFails(t *testing.T) {
	c, _ := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"userId": 1})
	})

	_, err := c.Login(context.Background(), "alice", "pw")
	var authErr *models.AuthError
	assert.True(t, errors.As(err, &authErr))
}

func TestNetworkFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	_, err := New(base).ListPosts(context.Background(), 0, 5)
	var netErr *models.NetworkError
	require.True(t, errors.As(err, &netErr))
	assert.Equal(t, "/posts", netErr.Path)
}

func TestCancelledContextAbortsRequest(t *testing.T) {
	c, calls := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.ListPosts(ctx, 0, 5)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Empty(t, calls())
}

func TestFriendshipEndpoints(t *testing.T) {
	c, calls := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/friendships":
			writeJSON(w, http.StatusCreated, map[string]any{"id": 11, "requesterId": 1, "receiverId": 2, "status": "PENDING"})
		case "/friendships/status":
			writeJSON(w, http.StatusOK, map[string]any{"status": "PENDING", "friendshipId": 11, "requesterId": 1, "receiverId": 2})
		default:
			writeJSON(w, http.StatusOK, map[string]any{"id": 11, "status": "ACCEPTED"})
		}
	})
	ctx := context.Background()
	authed := c.WithToken("tok")

	f, err := authed.SendFriendRequest(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, uint(11), f.ID)

	st, err := authed.FriendshipStatus(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", st.Status)

	_, err = authed.AcceptFriendRequest(ctx, 11, 2)
	require.NoError(t, err)
	_, err = authed.RejectFriendRequest(ctx, 11, 2)
	require.NoError(t, err)

	require.Len(t, calls(), 4)
	assert.JSONEq(t, `{"requesterId":1,"receiverId":2}`, calls()[0].body)
	assert.Equal(t, "userId=2", calls()[1].query)
	assert.Equal(t, http.MethodPut, calls()[2].method)
	assert.Equal(t, "/friendships/11/accept", calls()[2].path)
	assert.Equal(t, "userId=2", calls()[2].query)
	assert.Equal(t, "/friendships/11/reject", calls()[3].path)
}

func TestCommentEndpoints(t *testing.T) {
	c, calls := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			writeJSON(w, http.StatusOK, map[string]any{"content": []any{}, "last": true})
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()
	authed := c.WithToken("tok")

	_, err := authed.ListComments(ctx, 3, 0, 5)
	require.NoError(t, err)
	_, err = authed.CreateComment(ctx, models.NewComment{PostID: 3, Content: "hi"})
	require.NoError(t, err)
	require.NoError(t, authed.EditComment(ctx, 4, "edited"))
	require.NoError(t, authed.LikeComment(ctx, 4))
	require.NoError(t, authed.DeleteComment(ctx, 4))

	got := calls()
	require.Len(t, got, 5)
	assert.Equal(t, "/comments/post/3", got[0].path)
	assert.JSONEq(t, `{"postId":3,"content":"hi","parentCommentId":null}`, got[1].body)
	assert.JSONEq(t, `{"content":"edited"}`, got[2].body)
	assert.Equal(t, "/comments/4/like", got[3].path)
	assert.Equal(t, http.MethodDelete, got[4].method)
}

func TestProfileImageRoundTrip(t *testing.T) {
	c, calls := newBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte("png-bytes"))
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	ctx := context.Background()
	authed := c.WithToken("tok")

	require.NoError(t, authed.UploadProfileImage(ctx, "me.jpg", "image/jpeg", []byte("jpeg-bytes")))
	img, err := authed.FetchProfileImage(ctx, 5)
	require.NoError(t, err)
	assert.Equal(t, "image/png", img.ContentType)
	assert.Equal(t, []byte("png-bytes"), img.Data)

	got := calls()
	require.Len(t, got, 2)
	assert.Contains(t, got[0].ctype, "multipart/form-data")
	assert.Contains(t, got[0].body, `name="file"; filename="me.jpg"`)
	assert.Contains(t, got[0].body, "jpeg-bytes")
	assert.Equal(t, "/users/5/profile-image", got[1].path)
}

func TestGetWallDecodesUserAndPosts(t *testing.T) {
	c, calls := newBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"user":  map[string]any{"id": 2, "username": "bob", "displayName": "Bob", "bio": "hi"},
			"posts": map[string]any{"content": []map[string]any{{"id": 1, "userId": 2, "text": "x"}}, "last": false},
		})
	})

	wall, err := c.WithToken("tok").GetWall(context.Background(), 2, 0, 5)
	require.NoError(t, err)
	assert.Equal(t, "Bob", wall.User.DisplayName)
	assert.Len(t, wall.Posts.Content, 1)
	assert.False(t, wall.Posts.Last)
	assert.Equal(t, "/users/2/with-posts", calls()[0].path)
}
