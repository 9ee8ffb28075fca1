package dto

// SSOHeaders are injected by the campus single sign-on proxy in front of the
// portal. Requests reaching /auth/login without them did not pass through it.
type SSOHeaders struct {
	Username     string `header:"Uid"       binding:"required,max=64"`
	PersonNumber string `header:"Pn"        binding:"required,max=32"`
	FirstName    string `header:"Givenname" binding:"required,max=128"`
	LastName     string `header:"Sn"        binding:"required,max=128"`
}

// DevLoginRequest impersonates an SSO login. Only honored in developer mode.
type DevLoginRequest struct {
	Username     string `json:"username"      binding:"required,max=64"`
	FirstName    string `json:"first_name"    binding:"omitempty,max=128"`
	LastName     string `json:"last_name"     binding:"omitempty,max=128"`
	PersonNumber string `json:"person_number" binding:"omitempty,max=32"`
}

// TokenResponse is returned after login. The token is also set as a cookie.
type TokenResponse struct {
	AccessToken string       `json:"access_token"`
	ExpiresIn   int          `json:"expires_in"` // seconds
	User        UserResponse `json:"user"`
}

// MeResponse GET /auth/me
type MeResponse struct {
	User          UserResponse `json:"user"`
	DeveloperMode bool         `json:"developer_mode"`
}

// AdminToggleResponse POST /auth/admin-toggle
type AdminToggleResponse struct {
	IsAdmin     bool   `json:"is_admin"`
	Message     string `json:"message"`
	AccessToken string `json:"-"` // reissued session cookie carrying the new flag
}
