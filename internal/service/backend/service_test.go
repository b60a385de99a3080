package backend

import (
	"errors"
	"io"
	"testing"
)

func TestErrorUnwrap(t *testing.T) {
	e := &Error{Status: 401, Message: "Token expired"}
	if !errors.Is(e, ErrRejected) {
		t.Fatal("expected ErrRejected")
	}
	if e.Error() != "Token expired" {
		t.Fatalf("unexpected message %q", e.Error())
	}

	wrapped := &Error{Message: "eof", cause: io.ErrUnexpectedEOF}
	if !errors.Is(wrapped, io.ErrUnexpectedEOF) || !errors.Is(wrapped, ErrRejected) {
		t.Fatal("expected both cause and ErrRejected in chain")
	}

	var empty *Error
	if empty.Error() != FallbackProfileMessage || empty.Unwrap() != nil {
		t.Fatal("unexpected nil error behaviour")
	}
}

func TestCloneIsDeep(t *testing.T) {
	orig := CompleteProfile()
	c := orig.Clone()

	*c.DepartmentID = 99
	*c.YearsOfExperience = 1
	c.Languages[0] = "French"
	*c.Pricing[0].Price = 1
	c.Availability.Video = true
	c.Department.Name = "Changed"

	if *orig.DepartmentID != 3 || *orig.YearsOfExperience != 12 {
		t.Fatal("scalar pointers were shared")
	}
	if orig.Languages[0] != "English" || *orig.Pricing[0].Price != 150 {
		t.Fatal("slices were shared")
	}
	if orig.Availability.Video || orig.Department.Name != "Cardiology" {
		t.Fatal("nested structs were shared")
	}

	var nilProfile *DoctorProfile
	if nilProfile.Clone() != nil {
		t.Fatal("expected nil clone of nil")
	}
}

func TestApplyPayload(t *testing.T) {
	title := "Dr."
	years := 5
	out := ApplyPayload(nil, UpdatePayload{
		Title:             &title,
		YearsOfExperience: &years,
		Pricing:           []PricingInput{{Service: ServiceChat, Currency: "USD", Price: 10}},
	})
	if out.Title != "Dr." || *out.YearsOfExperience != 5 {
		t.Fatalf("unexpected profile %+v", out)
	}
	if len(out.Pricing) != 1 || *out.Pricing[0].Price != 10 {
		t.Fatalf("unexpected pricing %+v", out.Pricing)
	}

	base := CompleteProfile()
	out = ApplyPayload(base, UpdatePayload{})
	if out.Title != base.Title || out == base {
		t.Fatal("expected an unchanged copy for an empty payload")
	}
}
