package payment

import (
	"strings"

	pkgerrors "github.com/harvestlink/harvestlink-backend/pkg/errors"
)

const (
	minCardDigits = 13
	maxCardDigits = 19
)

// NormalizeCardNumber strips spaces and dashes from user-entered card numbers.
func NormalizeCardNumber(raw string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(raw))
}

// ValidateCardNumber checks length, digit content, and the Luhn checksum.
func ValidateCardNumber(raw string) error {
	number := NormalizeCardNumber(raw)
	if len(number) < minCardDigits || len(number) > maxCardDigits {
		return pkgerrors.New(pkgerrors.CodeValidation, "card number must be 13-19 digits")
	}
	for _, r := range number {
		if r < '0' || r > '9' {
			return pkgerrors.New(pkgerrors.CodeValidation, "card number must contain only digits")
		}
	}
	if !luhnValid(number) {
		return pkgerrors.New(pkgerrors.CodeValidation, "card number failed checksum")
	}
	return nil
}

// Last4 returns the last four digits of a normalized card number.
func Last4(raw string) string {
	number := NormalizeCardNumber(raw)
	if len(number) < 4 {
		return number
	}
	return number[len(number)-4:]
}

// Mask renders a card number with every digit but the last four obscured.
func Mask(raw string) string {
	number := NormalizeCardNumber(raw)
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}

func luhnValid(number string) bool {
	sum := 0
	double := false
	for i := len(number) - 1; i >= 0; i-- {
		digit := int(number[i] - '0')
		if double {
			digit *= 2
			if digit > 9 {
				digit -= 9
			}
		}
		sum += digit
		double = !double
	}
	return sum%10 == 0
}
