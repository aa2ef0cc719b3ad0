package dto

type SignUpRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Platform string `json:"platform"`
}

type LogInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Platform string `json:"platform"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Tracking carries per-request client data into session rows.
type Tracking struct {
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
}
