// Package apitest provides an in-process fake of the story API for tests
// outside the api package.
package apitest

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/fakeyudi/storyapp/internal/api"
)

// Upload is one accepted story upload.
type Upload struct {
	Description string
	Photo       []byte
	PhotoType   string
	FileName    string
}

type account struct {
	name     string
	password string
}

// Server is a fake story API mounted under /v1.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	accounts map[string]account // by email
	tokens   map[string]string  // token -> email
	stories  []api.Story
	uploads  []Upload
	auths    []string
}

// NewServer starts a Server that is closed when t finishes.
func NewServer(t testing.TB) *Server {
	s := &Server{
		accounts: make(map[string]account),
		tokens:   make(map[string]string),
	}
	s.Server = httptest.NewServer(s.router())
	t.Cleanup(s.Close)
	return s
}

// BaseURL is the API root to configure clients with.
func (s *Server) BaseURL() string { return s.URL + "/v1/" }

// AddUser registers an account directly.
func (s *Server) AddUser(name, email, password string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[email] = account{name: name, password: password}
}

// AddStory appends a story to the feed.
func (s *Server) AddStory(st api.Story) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stories = append(s.stories, st)
}

// Uploads returns every accepted upload in order.
func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

// Auths returns the Authorization header of every request seen so far.
func (s *Server) Auths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auths...)
}

func (s *Server) router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.recordAuth)
	v1 := r.PathPrefix("/v1").Subrouter()
	v1.HandleFunc("/register", s.register).Methods(http.MethodPost)
	v1.HandleFunc("/login", s.login).Methods(http.MethodPost)
	v1.HandleFunc("/stories", s.requireToken(s.listStories)).Methods(http.MethodGet)
	v1.HandleFunc("/stories", s.requireToken(s.addStory)).Methods(http.MethodPost)
	return r
}

func (s *Server) recordAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.mu.Lock()
		s.auths = append(s.auths, req.Header.Get("Authorization"))
		s.mu.Unlock()
		next.ServeHTTP(w, req)
	})
}

func (s *Server) requireToken(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		token := strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer"))
		s.mu.Lock()
		_, ok := s.tokens[token]
		s.mu.Unlock()
		if !ok {
			reply(w, http.StatusUnauthorized, map[string]any{"error": true, "message": "Missing authentication"})
			return
		}
		next(w, req)
	}
}

func (s *Server) register(w http.ResponseWriter, req *http.Request) {
	var in struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		reply(w, http.StatusBadRequest, map[string]any{"error": true, "message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.accounts[in.Email]; taken {
		reply(w, http.StatusBadRequest, map[string]any{"error": true, "message": "Email is already taken"})
		return
	}
	s.accounts[in.Email] = account{name: in.Name, password: in.Password}
	reply(w, http.StatusCreated, map[string]any{"error": false, "message": "User created"})
}

func (s *Server) login(w http.ResponseWriter, req *http.Request) {
	var in struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		reply(w, http.StatusBadRequest, map[string]any{"error": true, "message": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	acct, ok := s.accounts[in.Email]
	if !ok {
		reply(w, http.StatusNotFound, map[string]any{"error": true, "message": "User not found"})
		return
	}
	if acct.password != in.Password {
		reply(w, http.StatusUnauthorized, map[string]any{"error": true, "message": "Invalid password"})
		return
	}
	token := uuid.NewString()
	s.tokens[token] = in.Email
	reply(w, http.StatusOK, map[string]any{
		"error":   false,
		"message": "success",
		"loginResult": map[string]any{
			"userId": "user-" + in.Email,
			"name":   acct.name,
			"token":  token,
		},
	})
}

func (s *Server) listStories(w http.ResponseWriter, req *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stories := s.stories
	if stories == nil {
		stories = []api.Story{}
	}
	reply(w, http.StatusOK, api.StoryResponse{Message: "Stories fetched successfully", ListStory: stories})
}

func (s *Server) addStory(w http.ResponseWriter, req *http.Request) {
	if err := req.ParseMultipartForm(10 << 20); err != nil {
		reply(w, http.StatusBadRequest, map[string]any{"error": true, "message": err.Error()})
		return
	}
	file, header, err := req.FormFile("photo")
	if err != nil {
		reply(w, http.StatusBadRequest, map[string]any{"error": true, "message": "photo is required"})
		return
	}
	defer file.Close()
	photo, err := io.ReadAll(file)
	if err != nil {
		reply(w, http.StatusBadRequest, map[string]any{"error": true, "message": err.Error()})
		return
	}

	up := Upload{
		Description: req.FormValue("description"),
		Photo:       photo,
		PhotoType:   header.Header.Get("Content-Type"),
		FileName:    header.Filename,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	token := strings.TrimSpace(strings.TrimPrefix(req.Header.Get("Authorization"), "Bearer"))
	s.uploads = append(s.uploads, up)
	s.stories = append([]api.Story{{
		ID:          "story-" + uuid.NewString(),
		Name:        s.accounts[s.tokens[token]].name,
		Description: up.Description,
		PhotoURL:    "https://story-api.test/images/" + up.FileName,
		CreatedAt:   time.Now().UTC(),
	}}, s.stories...)
	reply(w, http.StatusCreated, map[string]any{"error": false, "message": "Story created successfully"})
}

func reply(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
