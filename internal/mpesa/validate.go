package mpesa

import (
	"math"
	"regexp"
	"strings"
)

// Kenyan mobile number: optional trunk/country prefix, then 9 significant
// digits starting with 1 or 7.
var phonePattern = regexp.MustCompile(`^(254|0)?([17]\d{8})$`)

var phoneSeparators = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "")

// NormalizePhone canonicalizes a subscriber number to the 254XXXXXXXXX form
// the gateway expects. "0712345678", "254712345678" and "+254712345678" all
// normalize to "254712345678". Anything else fails with ErrValidation.
func NormalizePhone(input string) (string, error) {
	cleaned := phoneSeparators.Replace(strings.TrimSpace(input))
	cleaned = strings.TrimPrefix(cleaned, "+")

	m := phonePattern.FindStringSubmatch(cleaned)
	if m == nil {
		return "", validationErr("phone number", "must be a valid Kenyan mobile number")
	}
	return "254" + m[2], nil
}

// FormatAmount rounds a caller-supplied amount to the nearest whole unit.
// The gateway only accepts positive integer amounts.
func FormatAmount(value float64) (int, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, validationErr("amount", "must be a number")
	}
	rounded := int(math.Round(value))
	if rounded <= 0 {
		return 0, validationErr("amount", "must be positive")
	}
	return rounded, nil
}
