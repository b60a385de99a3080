package profile

import (
	"github.com/mennan0809/medtik-portal/internal/service/backend"
)

// Department is the doctor's department.
type Department struct {
	ID          int64  `json:"id"                    doc:"Department identifier" example:"3"`
	Name        string `json:"name"                  doc:"Department name"       example:"Cardiology"`
	Description string `json:"description,omitempty" doc:"Department description"`
}

// Pricing is one priced consultation channel.
type Pricing struct {
	ID       int64    `json:"id"       doc:"Pricing entry identifier" example:"1"`
	Service  string   `json:"service"  doc:"Consultation channel"     example:"VIDEO" enum:"CHAT,VOICE,VIDEO"`
	Currency string   `json:"currency" doc:"ISO currency code"        example:"EGP"`
	Price    *float64 `json:"price"    doc:"Price per consultation"   example:"400"   nullable:"true"`
}

// Availability lists the channels a doctor accepts.
type Availability struct {
	Chat  bool `json:"chat"  doc:"Accepts chat consultations"  example:"true"`
	Voice bool `json:"voice" doc:"Accepts voice consultations" example:"false"`
	Video bool `json:"video" doc:"Accepts video consultations" example:"true"`
}

// Profile is the doctor profile as returned to portal clients.
type Profile struct {
	ID                 int64         `json:"id"                           doc:"Doctor identifier"                      example:"42"`
	MustChangePassword bool          `json:"mustChangePassword"           doc:"Password must be changed on next login" example:"false"`
	Title              string        `json:"title"                        doc:"Professional title"                     example:"Consultant Cardiologist"`
	Bio                string        `json:"bio"                          doc:"Short biography"`
	Phone              string        `json:"phone"                        doc:"Contact phone"                          example:"+201000000000"`
	DepartmentID       *int64        `json:"departmentId"                 doc:"Department identifier"                  example:"3"   nullable:"true"`
	YearsOfExperience  *int          `json:"yearsOfExperience"            doc:"Years in practice"                      example:"12"  nullable:"true"`
	LicenseNumber      string        `json:"licenseNumber"                doc:"Medical license number"                 example:"EG-CARD-7781"`
	AvatarURL          string        `json:"avatarUrl"                    doc:"Profile image URL"`
	Department         *Department   `json:"department,omitempty"         doc:"Department details"`
	Languages          []string      `json:"languages"                    doc:"Spoken languages"`
	Hospitals          []string      `json:"hospitals"                    doc:"Affiliated hospitals"`
	Education          []string      `json:"education"                    doc:"Degrees and training"`
	Certificates       []string      `json:"certificates"                 doc:"Certificates"`
	Pricing            []Pricing     `json:"pricing"                      doc:"Consultation prices"`
	Availability       *Availability `json:"availability"                 doc:"Accepted channels"`
	VideoProvider      string        `json:"videoProvider,omitempty"      doc:"Preferred video provider"               example:"zoom"`
	CancellationPolicy *int          `json:"cancellationPolicy,omitempty" doc:"Free cancellation window in hours"      example:"24"`
	RefundPolicy       *bool         `json:"refundPolicy,omitempty"       doc:"Refunds offered"                        example:"true"`
	ReschedulePolicy   *int          `json:"reschedulePolicy,omitempty"   doc:"Free reschedule window in hours"        example:"12"`
}

// ProfileState is the cached profile together with its completeness.
type ProfileState struct {
	Profile *Profile `json:"profile" doc:"Last known profile; null until loaded"`
	Locked  bool     `json:"locked"  doc:"True until every requirement is met"   example:"true"`
	Missing []string `json:"missing" doc:"Unmet requirements in display order"`
}

// ProfileStatus is the cached completeness state without the profile itself.
type ProfileStatus struct {
	Locked  bool     `json:"locked"  doc:"True until every requirement is met" example:"true"`
	Loading bool     `json:"loading" doc:"A backend fetch is in flight"        example:"false"`
	Missing []string `json:"missing" doc:"Unmet requirements in display order"`
}

func toHTTPProfile(p *backend.DoctorProfile) *Profile {
	if p == nil {
		return nil
	}
	out := &Profile{
		ID:                 p.ID,
		MustChangePassword: p.MustChangePassword,
		Title:              p.Title,
		Bio:                p.Bio,
		Phone:              p.Phone,
		DepartmentID:       p.DepartmentID,
		YearsOfExperience:  p.YearsOfExperience,
		LicenseNumber:      p.LicenseNumber,
		AvatarURL:          p.AvatarURL,
		Languages:          nonNil(p.Languages),
		Hospitals:          nonNil(p.Hospitals),
		Education:          nonNil(p.Education),
		Certificates:       nonNil(p.Certificates),
		Pricing:            make([]Pricing, 0, len(p.Pricing)),
		VideoProvider:      p.VideoProvider,
		CancellationPolicy: p.CancellationPolicy,
		RefundPolicy:       p.RefundPolicy,
		ReschedulePolicy:   p.ReschedulePolicy,
	}
	if d := p.Department; d != nil {
		out.Department = &Department{ID: d.ID, Name: d.Name, Description: d.Description}
	}
	for _, pr := range p.Pricing {
		out.Pricing = append(out.Pricing, Pricing{
			ID:       pr.ID,
			Service:  string(pr.Service),
			Currency: pr.Currency,
			Price:    pr.Price,
		})
	}
	if a := p.Availability; a != nil {
		out.Availability = &Availability{Chat: a.Chat, Voice: a.Voice, Video: a.Video}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
