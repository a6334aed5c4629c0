// Package model defines domain entities for the application.
package model

// User is the account returned by the backend on login.
type User struct {
	Username string `json:"username"`
}

// LoginRequest is the credential payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is the backend's answer to a successful login.
type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}
