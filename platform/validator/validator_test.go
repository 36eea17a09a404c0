package validator

import (
	"errors"
	"testing"
)

type sample struct {
	Urgency string `json:"urgencyLevel" validate:"required,oneof=low medium high"`
	Brand   string `json:"brand" validate:"required,max=5"`
}

func TestFieldErrorsUsesJSONNames(t *testing.T) {
	v := New()
	err := v.Struct(sample{Urgency: "urgent", Brand: "Samsung"})
	if err == nil {
		t.Fatal("expected validation error")
	}

	fields := FieldErrors(err)
	if fields["urgencyLevel"] != "oneof=low medium high" {
		t.Errorf("urgencyLevel rule = %q", fields["urgencyLevel"])
	}
	if fields["brand"] != "max=5" {
		t.Errorf("brand rule = %q", fields["brand"])
	}
}

func TestFieldErrorsIgnoresOtherErrors(t *testing.T) {
	if FieldErrors(errors.New("boom")) != nil {
		t.Fatal("expected nil for non-validation error")
	}
}
