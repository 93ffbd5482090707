// Package cpf validates and formats Brazilian CPF tax ids.
package cpf

import "strings"

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Valid reports whether value carries a CPF with correct check digits.
// Formatting characters are ignored, so "085.534.020-70" and "08553402070"
// validate identically.
func Valid(value string) bool {
	digits := onlyDigits(value)
	if len(digits) != 11 {
		return false
	}

	// Repdigit sequences like 111.111.111-11 pass the checksum but are not
	// issuable CPFs.
	allSame := true
	for i := 1; i < 11; i++ {
		if digits[i] != digits[0] {
			allSame = false
			break
		}
	}
	if allSame {
		return false
	}

	if checkDigit(digits, 9) != int(digits[9]-'0') {
		return false
	}
	return checkDigit(digits, 10) == int(digits[10]-'0')
}

// checkDigit computes the verification digit over the first n digits with
// weights n+1 down to 2.
func checkDigit(digits string, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += int(digits[i]-'0') * (n + 1 - i)
	}
	remainder := (sum * 10) % 11
	if remainder == 10 || remainder == 11 {
		remainder = 0
	}
	return remainder
}

// Format renders a digit string in the display pattern 000.000.000-00.
// Input that does not hold exactly 11 digits is returned stripped but
// unformatted.
func Format(value string) string {
	digits := onlyDigits(value)
	if len(digits) != 11 {
		return digits
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// Strip removes everything but digits, the canonical storage form.
func Strip(value string) string {
	return onlyDigits(value)
}
