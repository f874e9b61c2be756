package payment

import (
	"testing"

	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
)

func TestValidateCardNumber(t *testing.T) {
	if err := ValidateCardNumber("4539148803436467"); err != nil {
		t.Fatalf("expected valid card, got %v", err)
	}
	if err := ValidateCardNumber("4539 1488 0343 6467"); err != nil {
		t.Fatalf("expected spaces to be tolerated, got %v", err)
	}
}

func TestValidateCardNumberChecksumFailure(t *testing.T) {
	err := ValidateCardNumber("4539148803436468")
	if err == nil {
		t.Fatal("expected checksum failure")
	}
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation code, got %s", pkgerrors.As(err).Code())
	}
}

func TestValidateCardNumberLength(t *testing.T) {
	if err := ValidateCardNumber("123456"); err == nil {
		t.Fatal("expected short numbers to be rejected")
	}
	if err := ValidateCardNumber("45391488034364670000"); err == nil {
		t.Fatal("expected long numbers to be rejected")
	}
}

func TestValidateCardNumberNonDigits(t *testing.T) {
	if err := ValidateCardNumber("4539x4880343646y"); err == nil {
		t.Fatal("expected non-digit characters to be rejected")
	}
}

func TestMaskAndLast4(t *testing.T) {
	if got := Mask("4539148803436467"); got != "************6467" {
		t.Fatalf("unexpected mask %q", got)
	}
	if got := Last4("4539148803436467"); got != "6467" {
		t.Fatalf("unexpected last4 %q", got)
	}
}
