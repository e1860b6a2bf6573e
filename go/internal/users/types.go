package users

// CreateUserRequest contains the fields for creating a new user
type CreateUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

// UpdateUserRequest contains the fields for updating an existing user
type UpdateUserRequest struct {
	DisplayName string  `json:"display_name"`
	AvatarURL   *string `json:"avatar_url,omitempty"`
}

// LoginRequest contains the credentials for authentication
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}
