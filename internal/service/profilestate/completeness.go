package profilestate

import (
	"strings"

	"github.com/mennan0809/medtik-portal/internal/service/backend"
)

// Requirement labels, in the order MissingItems reports them.
const (
	ItemTitle        = "professional title"
	ItemBio          = "bio"
	ItemDepartment   = "department"
	ItemExperience   = "years of experience"
	ItemLicense      = "license number"
	ItemAvatar       = "profile image"
	ItemPhone        = "phone number"
	ItemLanguages    = "languages"
	ItemPricing      = "pricing for chat, voice, and video"
	ItemAvailability = "choose at least one availability option"
)

var allItems = []string{
	ItemTitle, ItemBio, ItemDepartment, ItemExperience, ItemLicense,
	ItemAvatar, ItemPhone, ItemLanguages, ItemPricing, ItemAvailability,
}

// IsLocked reports whether p is missing any requirement. A nil profile is locked.
func IsLocked(p *backend.DoctorProfile) bool {
	return len(MissingItems(p)) > 0
}

// MissingItems lists the requirements p fails, in a fixed order. A nil profile fails all of them.
func MissingItems(p *backend.DoctorProfile) []string {
	if p == nil {
		return append([]string(nil), allItems...)
	}
	var missing []string
	if blank(p.Title) {
		missing = append(missing, ItemTitle)
	}
	if blank(p.Bio) {
		missing = append(missing, ItemBio)
	}
	if p.DepartmentID == nil || *p.DepartmentID == 0 {
		missing = append(missing, ItemDepartment)
	}
	if p.YearsOfExperience == nil || *p.YearsOfExperience <= 0 {
		missing = append(missing, ItemExperience)
	}
	if blank(p.LicenseNumber) {
		missing = append(missing, ItemLicense)
	}
	if blank(p.AvatarURL) {
		missing = append(missing, ItemAvatar)
	}
	if blank(p.Phone) {
		missing = append(missing, ItemPhone)
	}
	if len(p.Languages) == 0 {
		missing = append(missing, ItemLanguages)
	}
	if !pricingComplete(p.Pricing) {
		missing = append(missing, ItemPricing)
	}
	if a := p.Availability; a == nil || !(a.Chat || a.Voice || a.Video) {
		missing = append(missing, ItemAvailability)
	}
	return missing
}

// pricingComplete reports whether every required service has a usable price entry.
// Duplicates are fine; one valid entry per service is enough.
func pricingComplete(pricing []backend.Pricing) bool {
	for _, svc := range backend.RequiredServices {
		covered := false
		for _, pr := range pricing {
			if pr.Service == svc && !blank(pr.Currency) && pr.Price != nil && *pr.Price > 0 {
				covered = true
				break
			}
		}
		if !covered {
			return false
		}
	}
	return true
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
