package profile

// ProfileGetInput for GET /v1/doctor/profile
type ProfileGetInput struct {
	Force bool `query:"force" doc:"Bypass the cache and fetch from the backend" example:"false"`
}

// PricingInput is one pricing entry of an update.
type PricingInput struct {
	Service  string  `json:"service"  enum:"CHAT,VOICE,VIDEO" required:"true" doc:"Consultation channel" example:"VIDEO"`
	Currency string  `json:"currency" minLength:"1" maxLength:"8" required:"true" doc:"ISO currency code" example:"EGP"`
	Price    float64 `json:"price"    minimum:"0"                  required:"true" doc:"Price per consultation" example:"400"`
}

// ProfileUpdateInput for PUT /v1/doctor/profile. Only provided fields are sent to the backend.
type ProfileUpdateInput struct {
	Body struct {
		Title              *string        `json:"title,omitempty"              maxLength:"120"  doc:"Professional title"            example:"Consultant Cardiologist"`
		Bio                *string        `json:"bio,omitempty"                maxLength:"4000" doc:"Short biography"`
		DepartmentID       *int64         `json:"departmentId,omitempty"       minimum:"1"      doc:"Department identifier"         example:"3"`
		YearsOfExperience  *int           `json:"yearsOfExperience,omitempty"  minimum:"0" maximum:"80" doc:"Years in practice"     example:"12"`
		LicenseNumber      *string        `json:"licenseNumber,omitempty"      maxLength:"64"   doc:"Medical license number"        example:"EG-CARD-7781"`
		AvatarURL          *string        `json:"avatarUrl,omitempty"          maxLength:"2048" doc:"Profile image URL"`
		Phone              *string        `json:"phone,omitempty"              maxLength:"32"   doc:"Contact phone"                 example:"+201000000000"`
		Languages          []string       `json:"languages,omitempty"                           doc:"Spoken languages"`
		Hospitals          []string       `json:"hospitals,omitempty"                           doc:"Affiliated hospitals"`
		Education          []string       `json:"education,omitempty"                           doc:"Degrees and training"`
		Certificates       []string       `json:"certificates,omitempty"                        doc:"Certificates"`
		Pricing            []PricingInput `json:"pricing,omitempty"                             doc:"Consultation prices"`
		Availability       *Availability  `json:"availability,omitempty"                        doc:"Accepted channels"`
		VideoProvider      *string        `json:"videoProvider,omitempty"      maxLength:"64"   doc:"Preferred video provider"      example:"zoom"`
		CancellationPolicy *int           `json:"cancellationPolicy,omitempty" minimum:"0"      doc:"Free cancellation window in hours"`
		RefundPolicy       *bool          `json:"refundPolicy,omitempty"                        doc:"Refunds offered"`
		ReschedulePolicy   *int           `json:"reschedulePolicy,omitempty"   minimum:"0"      doc:"Free reschedule window in hours"`
		Password           *string        `json:"password,omitempty"           minLength:"8" maxLength:"128" doc:"New password"`
	}
}

// ProfileRefreshInput for POST /v1/doctor/profile/refresh (no body needed)
type ProfileRefreshInput struct{}

// ProfileStatusInput for GET /v1/doctor/profile/status (no body needed)
type ProfileStatusInput struct{}

// AccessInput for GET /v1/doctor/access
type AccessInput struct {
	Path string `query:"path" required:"true" maxLength:"64"  doc:"Doctor area child route" example:"dashboard"`
	URL  string `query:"url"                  maxLength:"2048" doc:"Full URL being navigated to; defaults to /doctor/{path}" example:"/doctor/dashboard"`
}
