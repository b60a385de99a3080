package session

import "net/http"

// LoginOutput for POST /v1/auth/login
type LoginOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie" doc:"Session cookie carrying the backend token"`
	Body      LoginResponse
}

// LogoutOutput for POST /v1/auth/logout (204 No Content)
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie" doc:"Expired session cookie"`
}
