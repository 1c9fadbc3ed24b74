package dto

// LoginRequest represents the request to authenticate a user
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// UserDTO represents a user in responses
type UserDTO struct {
	ID          uint    `json:"id"`
	UUID        string  `json:"uuid"`
	Email       string  `json:"email"`
	DisplayName *string `json:"display_name,omitempty"`
	Timezone    *string `json:"timezone,omitempty"`
}

// LoginResponse represents the response to a successful login
type LoginResponse struct {
	AccessToken string  `json:"access_token"`
	TokenType   string  `json:"token_type"`
	ExpiresIn   int     `json:"expires_in"`
	User        UserDTO `json:"user"`
}
