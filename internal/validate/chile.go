// Package validate checks user input: Chilean national ids and phone numbers,
// email addresses and struct-level rules declared with validate tags.
package validate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	rutStrip   = strings.NewReplacer(".", "", "-", "", " ", "", "\t", "")
	phoneStrip = strings.NewReplacer(" ", "", "-", "", "(", "", ")", "", "\t", "")

	phonePatterns = []*regexp.Regexp{
		regexp.MustCompile(`^\+56[2-9]\d{8}$`),
		regexp.MustCompile(`^56[2-9]\d{8}$`),
		regexp.MustCompile(`^[2-9]\d{8}$`),
	}
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

func cleanRUT(s string) string {
	return strings.ToUpper(rutStrip.Replace(s))
}

// rutCheckDigit computes the modulo-11 verifier for the numeric body.
func rutCheckDigit(body string) byte {
	sum, mul := 0, 2
	for i := len(body) - 1; i >= 0; i-- {
		sum += int(body[i]-'0') * mul
		if mul == 7 {
			mul = 2
		} else {
			mul++
		}
	}
	switch r := sum % 11; r {
	case 0:
		return '0'
	case 1:
		return 'K'
	default:
		return strconv.Itoa(11 - r)[0]
	}
}

// ValidRUT reports whether s is a Chilean RUT with a correct check digit.
// Dots, dashes and spaces are ignored; a lowercase k is accepted.
func ValidRUT(s string) bool {
	c := cleanRUT(s)
	if len(c) < 8 || len(c) > 9 {
		return false
	}
	body, dv := c[:len(c)-1], c[len(c)-1]
	for i := 0; i < len(body); i++ {
		if body[i] < '0' || body[i] > '9' {
			return false
		}
	}
	return rutCheckDigit(body) == dv
}

// FormatRUT renders s as 12.345.678-9. It does not validate.
func FormatRUT(s string) string {
	c := cleanRUT(s)
	if len(c) < 2 {
		return c
	}
	body, dv := c[:len(c)-1], c[len(c)-1:]

	var b strings.Builder
	for i, r := range body {
		if i > 0 && (len(body)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return b.String() + "-" + dv
}

// ValidPhone accepts Chilean numbers with or without the 56 country code.
func ValidPhone(s string) bool {
	c := phoneStrip.Replace(s)
	if c == "" {
		return false
	}
	for _, re := range phonePatterns {
		if re.MatchString(c) {
			return true
		}
	}
	return false
}

// FormatPhone renders a nine-digit national number as +56 9 1234 5678.
// Input it cannot interpret is returned unchanged.
func FormatPhone(s string) string {
	c := phoneStrip.Replace(s)
	var n string
	switch {
	case strings.HasPrefix(c, "+56"):
		n = c[3:]
	case strings.HasPrefix(c, "56"):
		n = c[2:]
	default:
		n = c
	}
	if len(n) != 9 {
		return s
	}
	return "+56 " + n[:1] + " " + n[1:5] + " " + n[5:]
}

// ValidEmail performs a loose shape check: something@something.tld.
func ValidEmail(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return s != "" && emailPattern.MatchString(s)
}
