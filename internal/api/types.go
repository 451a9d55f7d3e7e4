package api

import "time"

// Story is a single feed entry as returned by the server.
type Story struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PhotoURL    string    `json:"photoUrl"`
	CreatedAt   time.Time `json:"createdAt"`
	Lat         *float64  `json:"lat,omitempty"`
	Lon         *float64  `json:"lon,omitempty"`
}

// The server reports application failures inside normal bodies, so every
// response carries Error and Message.

type RegisterResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type LoginResponse struct {
	Error       bool         `json:"error"`
	Message     string       `json:"message"`
	LoginResult *LoginResult `json:"loginResult,omitempty"`
}

type LoginResult struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Token  string `json:"token"`
}

type StoryResponse struct {
	Error     bool    `json:"error"`
	Message   string  `json:"message"`
	ListStory []Story `json:"listStory"`
}

type UploadResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type registerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Status reports the server's error flag and message.
func (r *RegisterResponse) Status() (failed bool, message string) { return r.Error, r.Message }

func (r *LoginResponse) Status() (failed bool, message string) { return r.Error, r.Message }

func (r *StoryResponse) Status() (failed bool, message string) { return r.Error, r.Message }

func (r *UploadResponse) Status() (failed bool, message string) { return r.Error, r.Message }
