// Package normalizers canonicalizes raw consumer fields into comparable values.
package normalizers

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Func is a function that normalizes a string value
type Func func(string) string

// registry holds all registered primitive normalizers
var registry = make(map[string]Func)

func init() {
	Register("lowercase", Lowercase)
	Register("trim", Trim)
	Register("fold", Fold)
	Register("strip_accents", StripAccents)
	Register("collapse_whitespace", CollapseWhitespace)
	Register("digits_only", DigitsOnly)
	Register("alphanumeric", Alphanumeric)
	Register("nphone", NormalizePhone)
	Register("nemail", NormalizeEmail)
	Register("nzip", NormalizePostalCode)
}

// Register adds a normalizer to the registry
func Register(name string, fn Func) {
	registry[name] = fn
}

// Get retrieves a normalizer by name
func Get(name string) (Func, bool) {
	fn, ok := registry[name]
	return fn, ok
}

// Apply applies a named normalizer to a value. Unknown names leave the value untouched.
func Apply(value, normalizer string) string {
	fn, ok := registry[normalizer]
	if !ok {
		return value
	}
	return fn(value)
}

// ApplyChain applies multiple normalizers in sequence
func ApplyChain(value string, normalizers ...string) string {
	result := value
	for _, name := range normalizers {
		result = Apply(result, name)
	}
	return result
}

// textChain is the shared case and accent canonicalization for names, streets and cities.
// Folding runs again after decomposition since compatibility forms can surface upper-case letters.
var textChain = []string{"fold", "strip_accents", "fold"}

// Lowercase converts string to lowercase
func Lowercase(s string) string {
	return strings.ToLower(s)
}

// Trim removes leading and trailing whitespace
func Trim(s string) string {
	return strings.TrimSpace(s)
}

// Fold applies Unicode case folding
func Fold(s string) string {
	return cases.Fold().String(s)
}

// StripAccents decomposes compatibility forms and removes combining marks
func StripAccents(s string) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

// CollapseWhitespace trims and reduces every whitespace run to one space
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// DigitsOnly keeps only digit characters
func DigitsOnly(s string) string {
	var result strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// Alphanumeric keeps only alphanumeric characters
func Alphanumeric(s string) string {
	var result strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			result.WriteRune(r)
		}
	}
	return result.String()
}

// NormalizePhone reduces a phone number to its 10 national digits.
// A leading US country code is dropped; longer international numbers keep their last 10 digits.
// Returns "" when fewer than 10 digits remain.
func NormalizePhone(s string) string {
	digits := DigitsOnly(s)
	switch {
	case len(digits) < 10:
		return ""
	case len(digits) == 11 && digits[0] == '1':
		return digits[1:]
	default:
		return digits[len(digits)-10:]
	}
}

var emailPattern = regexp.MustCompile(`^[a-z0-9._%+-]+@[a-z0-9.-]+\.[a-z]{2,}$`)

// NormalizeEmail lower-cases and trims an email address. Subaddress tags are kept.
// Returns "" when the result is not a plausible address.
func NormalizeEmail(s string) string {
	email := strings.ToLower(strings.TrimSpace(s))
	if !emailPattern.MatchString(email) {
		return ""
	}
	return email
}

// NormalizePostalCode returns the 5 digit US ZIP, truncating ZIP+4. Returns "" otherwise.
func NormalizePostalCode(s string) string {
	digits := DigitsOnly(s)
	switch len(digits) {
	case 5:
		return digits
	case 9:
		return digits[:5]
	default:
		return ""
	}
}

// tokenize splits canonicalized text into word tokens. Apostrophes and periods are dropped so
// "O'Brien" and "St." stay one token; every other non-alphanumeric rune separates tokens.
// Runes in keep are emitted as tokens of their own.
func tokenize(s string, keep string) []string {
	s = ApplyChain(s, textChain...)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r == '\'' || r == '’' || r == '.':
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case strings.ContainsRune(keep, r):
			b.WriteRune(' ')
			b.WriteRune(r)
			b.WriteRune(' ')
		default:
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}
