package types

import (
	"fmt"
	"strings"
)

// CPF represents a Brazilian individual taxpayer registry number in its
// canonical digit-only form (11 digits, two trailing check digits).
type CPF string

// ParseCPF strips formatting, validates the check digits and returns the
// canonical form. Accepts formatted ("529.982.247-25") and bare
// ("52998224725") input.
func ParseCPF(s string) (CPF, error) {
	var b strings.Builder
	for _, c := range s {
		if c >= '0' && c <= '9' {
			b.WriteRune(c)
		}
	}
	digits := b.String()

	if len(digits) != 11 {
		return "", fmt.Errorf("CPF must contain exactly 11 digits")
	}

	cpf := CPF(digits)
	if !cpf.IsValid() {
		return "", fmt.Errorf("invalid CPF check digits")
	}

	return cpf, nil
}

// String returns the canonical digit-only representation.
func (c CPF) String() string {
	return string(c)
}

// Formatted returns the conventional display form 000.000.000-00.
func (c CPF) Formatted() string {
	if len(c) != 11 {
		return string(c)
	}
	s := string(c)
	return s[:3] + "." + s[3:6] + "." + s[6:9] + "-" + s[9:]
}

// Masked returns a partially hidden form for display and logs.
func (c CPF) Masked() string {
	if len(c) != 11 {
		return "***********"
	}
	return string(c)[:3] + ".***.***-" + string(c)[9:]
}

// IsValid validates both check digits.
//
// The first check digit is a weighted mod 11 sum over the first 9 digits
// (weights 10..2), the second over the first 10 (weights 11..2). A
// computed value of 10 or 11 counts as 0. Sequences of a single repeated
// digit pass the arithmetic but are not valid CPFs and are rejected.
func (c CPF) IsValid() bool {
	if len(c) != 11 {
		return false
	}

	digits := make([]int, 11)
	repeated := true
	for i, r := range c {
		if r < '0' || r > '9' {
			return false
		}
		digits[i] = int(r - '0')
		if digits[i] != digits[0] {
			repeated = false
		}
	}
	if repeated {
		return false
	}

	return checkDigit(digits, 9) == digits[9] && checkDigit(digits, 10) == digits[10]
}

// IsZero checks if the CPF is empty.
func (c CPF) IsZero() bool {
	return c == ""
}

// checkDigit computes the check digit over the first n digits, with
// weights n+1 down to 2.
func checkDigit(digits []int, n int) int {
	sum := 0
	for i := 0; i < n; i++ {
		sum += digits[i] * (n + 1 - i)
	}

	d := 11 - sum%11
	if d >= 10 {
		d = 0
	}
	return d
}
