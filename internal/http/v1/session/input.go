package session

// LoginInput for POST /v1/auth/login
type LoginInput struct {
	Body struct {
		Email    string `json:"email"    format:"email" maxLength:"254" required:"true" doc:"Account email"    example:"doctor@medtik.example"`
		Password string `json:"password" minLength:"1"  maxLength:"128" required:"true" doc:"Account password" example:"correct-horse"`
	}
}

// LogoutInput for POST /v1/auth/logout. Either credential may be present.
type LogoutInput struct {
	Authorization string `header:"Authorization"                doc:"Bearer token"`
	Token         string `cookie:"medtik_token"                 doc:"Session cookie"`
}
