package domain

// User is a profile as returned by the user service.
type User struct {
	ID           int    `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email"`
	Avatar       string `json:"avatar,omitempty"`
	OnlineStatus bool   `json:"online_status"`
	Friends      []int  `json:"friends,omitempty"`
	OTPStatus    bool   `json:"otp_status,omitempty"`
}

// Credentials identify the caller to the user service. They are supplied by
// the caller and never persisted by the client package.
type Credentials struct {
	UserID int    `json:"user_id"`
	Token  string `json:"token"`
}

// Valid reports whether both an id and a token are present.
func (c Credentials) Valid() bool {
	return c.UserID > 0 && c.Token != ""
}
