package session

// LoginResponse tells the client where its role lands.
type LoginResponse struct {
	Message  string `json:"message"  doc:"Backend login message"      example:"Login successful"`
	Role     string `json:"role"     doc:"Role decoded from the token" example:"DOCTOR"`
	Redirect string `json:"redirect" doc:"Landing area for the role"  example:"/doctor"`
}
