package auth

import (
	userModel "pickabook/models/user"
)

// SendOTPRequest represents the request payload for requesting a login code
type SendOTPRequest struct {
	Email string `json:"email"`
}

// SendOTPResponse acknowledges issuance and tells the client how long to
// wait before the next request.
type SendOTPResponse struct {
	Message         string `json:"message"`
	Email           string `json:"email"`
	CooldownSeconds int    `json:"cooldownSeconds"`
}

// VerifyOTPRequest represents the request payload for verifying a login code
type VerifyOTPRequest struct {
	Email    string `json:"email"`
	OTP      string `json:"otp"`
	Username string `json:"username,omitempty"`
}

// VerifyOTPResponse carries the minted session token and the user projection.
type VerifyOTPResponse struct {
	Message string           `json:"message"`
	Token   string           `json:"token"`
	User    userModel.Public `json:"user"`
}

// CurrentUserResponse is the body of GET /auth/me.
type CurrentUserResponse struct {
	User userModel.Public `json:"user"`
}

// ListUsersResponse is the admin-only user listing, newest first.
type ListUsersResponse struct {
	Users []userModel.Public `json:"users"`
}

// UpdateCreditsRequest sets a user's balance to an exact value.
// Credits is a pointer so a missing field can be told apart from zero.
type UpdateCreditsRequest struct {
	Credits *int `json:"credits"`
}

// UpdateCreditsResponse returns the updated projection.
type UpdateCreditsResponse struct {
	Message string           `json:"message"`
	User    userModel.Public `json:"user"`
}
