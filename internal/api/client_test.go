package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/fakeyudi/storyapp/internal/session"
)

type staticTokens struct {
	mu sync.Mutex
	s  session.Session
}

func (s *staticTokens) Current() session.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.s
}

func (s *staticTokens) set(v session.Session) {
	s.mu.Lock()
	s.s = v
	s.mu.Unlock()
}

// fakeAPI serves the four story endpoints and records the last
// Authorization header it saw.
type fakeAPI struct {
	mu         sync.Mutex
	lastAuth   string
	lastUpload *http.Request
	photo      []byte
	photoType  string
	desc       string
}

func (f *fakeAPI) router() http.Handler {
	r := mux.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			f.mu.Lock()
			f.lastAuth = req.Header.Get("Authorization")
			f.mu.Unlock()
			next.ServeHTTP(w, req)
		})
	})
	r.HandleFunc("/v1/register", func(w http.ResponseWriter, req *http.Request) {
		var in registerRequest
		_ = json.NewDecoder(req.Body).Decode(&in)
		if in.Email == "taken@example.com" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = io.WriteString(w, `{"error":true,"message":"Email already used"}`)
			return
		}
		_, _ = io.WriteString(w, `{"error":false,"message":"User created"}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/v1/login", func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `{"error":false,"message":"success","loginResult":{"userId":"u-1","name":"Me","token":"tok-123"}}`)
	}).Methods(http.MethodPost)
	r.HandleFunc("/v1/stories", func(w http.ResponseWriter, req *http.Request) {
		_, _ = io.WriteString(w, `{"error":false,"message":"Stories fetched successfully","listStory":[
			{"id":"story-1","name":"Ann","description":"hello","photoUrl":"https://img/1.jpg","createdAt":"2024-01-02T03:04:05.000Z","lat":-6.2,"lon":106.8},
			{"id":"story-2","name":"Bob","description":"world","photoUrl":"https://img/2.jpg","createdAt":"2024-01-03T03:04:05.000Z"}]}`)
	}).Methods(http.MethodGet)
	r.HandleFunc("/v1/stories", func(w http.ResponseWriter, req *http.Request) {
		if err := req.ParseMultipartForm(1 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		file, hdr, err := req.FormFile("photo")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		defer file.Close()
		data, _ := io.ReadAll(file)

		f.mu.Lock()
		f.lastUpload = req
		f.photo = data
		f.photoType = hdr.Header.Get("Content-Type")
		f.desc = req.FormValue("description")
		f.mu.Unlock()
		_, _ = io.WriteString(w, `{"error":false,"message":"Story created successfully"}`)
	}).Methods(http.MethodPost)
	return r
}

func newTestClient(t *testing.T, tokens TokenSource) (*Client, *fakeAPI) {
	t.Helper()
	fake := &fakeAPI{}
	srv := httptest.NewServer(fake.router())
	t.Cleanup(srv.Close)

	c, err := NewClient(Options{BaseURL: srv.URL + "/v1"}, tokens)
	require.NoError(t, err)
	return c, fake
}

func TestNewClientRejectsRelativeBaseURL(t *testing.T) {
	_, err := NewClient(Options{BaseURL: "story-api/v1"}, &staticTokens{})
	assert.Error(t, err)
}

func TestLoginDecodesResult(t *testing.T) {
	c, _ := newTestClient(t, &staticTokens{})

	resp, err := c.Login(context.Background(), "me@example.com", "password1")
	require.NoError(t, err)
	assert.False(t, resp.Error)
	require.NotNil(t, resp.LoginResult)
	assert.Equal(t, "tok-123", resp.LoginResult.Token)
}

func TestRegisterHTTPErrorKeepsBody(t *testing.T) {
	c, _ := newTestClient(t, &staticTokens{})

	_, err := c.Register(context.Background(), "Me", "taken@example.com", "password1")
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr), "got %T: %v", err, err)
	assert.Equal(t, http.StatusBadRequest, httpErr.StatusCode)
	assert.JSONEq(t, `{"error":true,"message":"Email already used"}`, string(httpErr.Body))
	assert.Equal(t, "HTTP 400 Bad Request", httpErr.Error())
}

func TestListStoriesDecodesFeed(t *testing.T) {
	c, _ := newTestClient(t, &staticTokens{})

	resp, err := c.ListStories(context.Background())
	require.NoError(t, err)
	require.Len(t, resp.ListStory, 2)
	first := resp.ListStory[0]
	assert.Equal(t, "story-1", first.ID)
	require.NotNil(t, first.Lat)
	assert.InDelta(t, -6.2, *first.Lat, 1e-9)
	assert.Nil(t, resp.ListStory[1].Lat)
	assert.Equal(t, 2024, first.CreatedAt.Year())
}

func TestUploadStoryMultipartParts(t *testing.T) {
	c, fake := newTestClient(t, &staticTokens{})

	photo := filepath.Join(t.TempDir(), "REDUCED_1.jpg")
	require.NoError(t, os.WriteFile(photo, []byte("\xff\xd8jpeg-bytes"), 0o644))

	resp, err := c.UploadStory(context.Background(), photo, "a sunny day")
	require.NoError(t, err)
	assert.False(t, resp.Error)

	fake.mu.Lock()
	defer fake.mu.Unlock()
	assert.Equal(t, "\xff\xd8jpeg-bytes", string(fake.photo))
	assert.Equal(t, "image/jpeg", fake.photoType)
	assert.Equal(t, "a sunny day", fake.desc)
}

func TestUploadStoryMissingPhoto(t *testing.T) {
	c, fake := newTestClient(t, &staticTokens{})

	_, err := c.UploadStory(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"), "x")
	assert.Error(t, err)
	assert.Nil(t, fake.lastUpload, "no request may be sent without a photo")
}

// Every request carries "Bearer <token>", including the empty token.
func TestAuthHeaderFollowsSession(t *testing.T) {
	tokens := &staticTokens{}
	c, fake := newTestClient(t, tokens)

	rapid.Check(t, func(rt *rapid.T) {
		token := rapid.StringMatching(`[A-Za-z0-9._-]{0,40}`).Draw(rt, "token")
		tokens.set(session.Login("me@example.com", token))

		if _, err := c.ListStories(context.Background()); err != nil {
			rt.Fatalf("ListStories: %v", err)
		}
		fake.mu.Lock()
		got := fake.lastAuth
		fake.mu.Unlock()
		// header values are trimmed on the server side
		if want := strings.TrimSpace("Bearer " + token); got != want {
			rt.Fatalf("Authorization: got %q, want %q", got, want)
		}
	})
}

func TestMalformedSuccessBodyIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, "<html>proxy</html>")
	}))
	defer srv.Close()

	c, err := NewClient(Options{BaseURL: srv.URL}, &staticTokens{})
	require.NoError(t, err)

	_, err = c.ListStories(context.Background())
	require.Error(t, err)
	var httpErr *HTTPError
	assert.False(t, errors.As(err, &httpErr))
}
