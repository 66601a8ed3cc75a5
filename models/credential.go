package models

// Credential is the session identity returned by /login. Token is opaque to
// the client; it is handed back to the server on every connection and fetch.
type Credential struct {
	UserID string `json:"user_id"`
	Token  string `json:"token"`
}
