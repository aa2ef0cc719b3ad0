package dto

// SessionOut is the payload returned by register, login and refresh.
// ExpiresIn is the access-token lifetime in seconds, fixed at issuance.
type SessionOut struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}
