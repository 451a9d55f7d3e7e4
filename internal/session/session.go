package session

// Session is the persisted login state. The zero value is the logged-out
// default.
type Session struct {
	Email   string `json:"email"`
	Token   string `json:"token"`
	IsLogin bool   `json:"isLogin"`
}

// Login builds the session stored after the server accepts a login.
// IsLogin is only set when a token is present.
func Login(email, token string) Session {
	return Session{Email: email, Token: token, IsLogin: token != ""}
}
