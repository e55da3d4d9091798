package validate_test

import (
	"testing"

	"github.com/poppys-produce/backend/pkg/validate"
)

type orderInput struct {
	Email    string `json:"email"    validate:"required,email"`
	Quantity int    `json:"quantity" validate:"required,gte=1,lte=999"`
	Status   string `json:"status"   validate:"required,in=Unsubmitted,Pending"`
	Notes    string `json:"notes"    validate:"nullable,max=500"`
}

func TestValidInput(t *testing.T) {
	errs := validate.Struct(orderInput{
		Email:    "shop@example.com",
		Quantity: 3,
		Status:   "Pending",
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected no errors, got: %v", errs)
	}
}

func TestRequiredFails(t *testing.T) {
	errs := validate.Struct(orderInput{})
	if !validate.HasErrors(errs) {
		t.Fatal("expected required errors")
	}
	for _, field := range []string{"email", "quantity", "status"} {
		if _, ok := errs[field]; !ok {
			t.Errorf("expected %s to be required", field)
		}
	}
	if _, ok := errs["notes"]; ok {
		t.Error("nullable notes must not error when empty")
	}
}

func TestEmailRule(t *testing.T) {
	type in struct {
		Email string `json:"email" validate:"required,email"`
	}
	if errs := validate.Struct(in{Email: "not-an-email"}); len(errs) == 0 {
		t.Error("expected email validation error")
	}
	if errs := validate.Struct(in{Email: "valid@example.com"}); len(errs) != 0 {
		t.Errorf("expected valid email to pass, got: %v", errs)
	}
}

func TestNumericBounds(t *testing.T) {
	type in struct {
		Quantity int `json:"quantity" validate:"required,gte=1,lte=999"`
	}
	if errs := validate.Struct(in{Quantity: -1}); len(errs) == 0 {
		t.Error("expected quantity below 1 to fail")
	}
	if errs := validate.Struct(in{Quantity: 1000}); len(errs) == 0 {
		t.Error("expected quantity above 999 to fail")
	}
	if errs := validate.Struct(in{Quantity: 12}); len(errs) != 0 {
		t.Errorf("expected 12 to pass, got: %v", errs)
	}
}

func TestInRuleKeepsCommaSeparatedValues(t *testing.T) {
	type in struct {
		Role string `json:"role" validate:"required,in=admin,superuser,max=20"`
	}
	if errs := validate.Struct(in{Role: "superuser"}); len(errs) != 0 {
		t.Errorf("expected superuser to be allowed, got: %v", errs)
	}
	if errs := validate.Struct(in{Role: "max=20"}); len(errs) == 0 {
		t.Error("a trailing rule keyword must not leak into the in= list")
	}
	if errs := validate.Struct(in{Role: "viewer"}); len(errs) == 0 {
		t.Error("expected viewer to be rejected")
	}
}

func TestMinMaxOnStrings(t *testing.T) {
	type in struct {
		Password string `json:"password" validate:"required,min=8"`
	}
	if errs := validate.Struct(in{Password: "short"}); len(errs) == 0 {
		t.Error("expected short password to fail min=8")
	}
	if errs := validate.Struct(in{Password: "long enough"}); len(errs) != 0 {
		t.Errorf("expected long password to pass, got: %v", errs)
	}
}

func TestBooleanAndInteger(t *testing.T) {
	type in struct {
		Enabled string `json:"enabled" validate:"required,boolean"`
		Cutoff  string `json:"cutoff"  validate:"required,integer"`
	}
	if errs := validate.Struct(in{Enabled: "yes", Cutoff: "21"}); len(errs) != 1 {
		t.Errorf("expected only the boolean error, got: %v", errs)
	}
	if errs := validate.Struct(in{Enabled: "true", Cutoff: "21.5"}); len(errs) != 1 {
		t.Errorf("expected only the integer error, got: %v", errs)
	}
	if errs := validate.Struct(in{Enabled: "false", Cutoff: "21"}); len(errs) != 0 {
		t.Errorf("expected valid input to pass, got: %v", errs)
	}
}

func TestPointerInput(t *testing.T) {
	errs := validate.Struct(&orderInput{
		Email:    "shop@example.com",
		Quantity: 1,
		Status:   "Unsubmitted",
	})
	if validate.HasErrors(errs) {
		t.Errorf("expected pointer input to validate, got: %v", errs)
	}
}
