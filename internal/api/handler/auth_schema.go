package handler

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request / Response types ---

type signUpRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// signInRequest accepts either username or email; exactly one locator plus
// the password is required.
type signInRequest struct {
	Username string `json:"username" validate:"required_without=Email"`
	Email    string `json:"email"    validate:"required_without=Username,omitempty,email"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email" validate:"omitempty,email"`
	Role  string `json:"role"  validate:"omitempty,oneof=ADMIN USER"`
}

type messageResponse struct {
	Message string `json:"message"`
}

type accessTokenResponse struct {
	AccessToken string `json:"access_token"`
}
