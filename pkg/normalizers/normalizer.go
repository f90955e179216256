package normalizers

import (
	"slices"
	"strings"
	"unicode"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/models"
)

// Normalizer canonicalizes raw fields using an immutable set of lookup tables.
// Every method is idempotent: normalizing an already normalized value returns it unchanged.
type Normalizer struct {
	nicknames      map[string]string
	nameSuffixes   map[string]struct{}
	streetSuffixes map[string]string
	directionals   map[string]string
	unitMarkers    map[string]struct{}
	states         map[string]string
}

// New builds a Normalizer from tables. Unset tables use their defaults.
// Nickname chains are resolved transitively; a cycle or a table entry that would make
// normalization non-idempotent is a ConfigurationError.
func New(tables Tables) (*Normalizer, error) {
	tables = tables.WithDefaults()
	n := &Normalizer{
		nicknames:      make(map[string]string, len(tables.Nicknames)),
		nameSuffixes:   make(map[string]struct{}, len(tables.NameSuffixes)),
		streetSuffixes: make(map[string]string, len(tables.StreetSuffixes)),
		directionals:   make(map[string]string, len(tables.Directionals)),
		unitMarkers:    make(map[string]struct{}, len(tables.UnitMarkers)),
		states:         make(map[string]string, len(tables.States)),
	}

	for _, marker := range tables.UnitMarkers {
		token, err := singleToken("unit_markers", marker, "#")
		if err != nil {
			return nil, err
		}
		n.unitMarkers[token] = struct{}{}
	}
	// Address.Line writes "unit" before the unit part
	n.unitMarkers["unit"] = struct{}{}
	for _, suffix := range tables.NameSuffixes {
		token, err := singleToken("name_suffixes", suffix, "")
		if err != nil {
			return nil, err
		}
		n.nameSuffixes[token] = struct{}{}
	}
	if err := loadTokenMap("street_suffixes", tables.StreetSuffixes, n.streetSuffixes); err != nil {
		return nil, err
	}
	if err := loadTokenMap("directionals", tables.Directionals, n.directionals); err != nil {
		return nil, err
	}
	for abbr, full := range n.streetSuffixes {
		if err := n.checkStreetToken("street_suffixes", abbr, full); err != nil {
			return nil, err
		}
	}
	for abbr, full := range n.directionals {
		if err := n.checkStreetToken("directionals", abbr, full); err != nil {
			return nil, err
		}
	}

	direct := make(map[string]string, len(tables.Nicknames))
	if err := loadTokenMap("nicknames", tables.Nicknames, direct); err != nil {
		return nil, err
	}
	for nickname := range direct {
		canonical, err := resolveNickname(direct, nickname)
		if err != nil {
			return nil, err
		}
		n.nicknames[nickname] = canonical
	}

	for name, code := range tables.States {
		key := strings.Join(tokenize(name, ""), " ")
		code = strings.ToUpper(strings.TrimSpace(code))
		if key == "" || len(code) != 2 || !isLetters(code) {
			return nil, errors.NewConfigurationErrorf("states", "entry %q -> %q must map a name to a two letter code", name, code)
		}
		n.states[key] = code
	}
	return n, nil
}

func singleToken(table, value, keep string) (string, error) {
	tokens := tokenize(value, keep)
	if len(tokens) != 1 {
		return "", errors.NewConfigurationErrorf(table, "entry %q must be a single token", value)
	}
	return tokens[0], nil
}

// loadTokenMap canonicalizes keys and values of a token table into dst. Self-maps are ignored.
func loadTokenMap(table string, src, dst map[string]string) error {
	for from, to := range src {
		key, err := singleToken(table, from, "")
		if err != nil {
			return err
		}
		value, err := singleToken(table, to, "")
		if err != nil {
			return err
		}
		if key != value {
			dst[key] = value
		}
	}
	return nil
}

// checkStreetToken rejects expansions that a second pass would rewrite again.
func (n *Normalizer) checkStreetToken(table, abbr, full string) error {
	if _, ok := n.unitMarkers[full]; ok {
		return errors.NewConfigurationErrorf(table, "expansion %q of %q is a unit marker", full, abbr)
	}
	if again, ok := n.streetSuffixes[full]; ok && again != full {
		return errors.NewConfigurationErrorf(table, "expansion %q of %q is itself abbreviated to %q", full, abbr, again)
	}
	if again, ok := n.directionals[full]; ok && again != full {
		return errors.NewConfigurationErrorf(table, "expansion %q of %q is itself abbreviated to %q", full, abbr, again)
	}
	return nil
}

func resolveNickname(direct map[string]string, nickname string) (string, error) {
	seen := map[string]struct{}{nickname: {}}
	canonical := direct[nickname]
	for {
		next, ok := direct[canonical]
		if !ok {
			return canonical, nil
		}
		if _, loop := seen[canonical]; loop {
			return "", errors.NewConfigurationErrorf("nicknames", "cycle through %q", nickname)
		}
		seen[canonical] = struct{}{}
		canonical = next
	}
}

func isLetters(s string) bool {
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// Normalize canonicalizes raw as the given field kind. Blank or unusable input yields models.Missing.
// Address input is a single street line; the result is "street" or "street unit <unit>".
func (n *Normalizer) Normalize(kind models.FieldKind, raw string) models.Value {
	switch kind {
	case models.FieldName:
		return n.NormalizeName(raw)
	case models.FieldAddress:
		return n.NormalizeAddress(raw, "", "").Line()
	case models.FieldPhone:
		return models.Present(NormalizePhone(raw))
	case models.FieldEmail:
		return models.Present(NormalizeEmail(raw))
	default:
		return models.Missing
	}
}

// NormalizeName folds case, strips accents and punctuation, resolves nicknames and drops
// generational or professional suffixes. Token order is preserved.
func (n *Normalizer) NormalizeName(raw string) models.Value {
	tokens := tokenize(raw, "")
	for i, token := range tokens {
		if canonical, ok := n.nicknames[token]; ok {
			tokens[i] = canonical
		}
	}
	kept := slices.DeleteFunc(slices.Clone(tokens), func(token string) bool {
		_, suffix := n.nameSuffixes[token]
		return suffix
	})
	// a name made only of suffix tokens is kept as is
	if len(kept) == 0 {
		kept = tokens
	}
	return models.Present(strings.Join(kept, " "))
}

// Address is a normalized postal address split into its parts.
type Address struct {
	Street models.Value
	Unit   models.Value
	City   models.Value
	State  models.Value
}

// Line is the normalized street line: "street" or "street unit <unit>". Missing without a street.
func (a Address) Line() models.Value {
	if a.Street.IsMissing() {
		return models.Missing
	}
	if a.Unit.IsMissing() {
		return a.Street
	}
	return models.Present(a.Street.Text + " unit " + a.Unit.Text)
}

// Comparable is the text scored for address similarity: street, city and state tokens.
// The unit is not compared. Missing without a street.
func (a Address) Comparable() models.Value {
	if a.Street.IsMissing() {
		return models.Missing
	}
	parts := []string{a.Street.Text}
	if !a.City.IsMissing() {
		parts = append(parts, a.City.Text)
	}
	if !a.State.IsMissing() {
		parts = append(parts, strings.ToLower(a.State.Text))
	}
	return models.Present(strings.Join(parts, " "))
}

// NormalizeAddress canonicalizes the parts of an address. Unit markers in the street line
// split off the unit; street suffixes and directionals are expanded to full words.
func (n *Normalizer) NormalizeAddress(street, city, state string) Address {
	streetTokens, unitTokens := n.splitUnit(tokenize(street, "#"))
	for i, token := range streetTokens {
		if full, ok := n.streetSuffixes[token]; ok {
			streetTokens[i] = full
			continue
		}
		// a lone directional is a street name ("N"), not a prefix
		if full, ok := n.directionals[token]; ok && len(streetTokens) > 1 {
			streetTokens[i] = full
		}
	}
	return Address{
		Street: models.Present(strings.Join(streetTokens, " ")),
		Unit:   models.Present(strings.Join(unitTokens, " ")),
		City:   models.Present(strings.Join(tokenize(city, ""), " ")),
		State:  n.NormalizeState(state),
	}
}

func (n *Normalizer) splitUnit(tokens []string) (street, unit []string) {
	for i, token := range tokens {
		if _, ok := n.unitMarkers[token]; !ok {
			continue
		}
		for _, rest := range tokens[i+1:] {
			if _, marker := n.unitMarkers[rest]; !marker {
				unit = append(unit, rest)
			}
		}
		return tokens[:i], unit
	}
	return tokens, nil
}

// NormalizeState maps a state name or code to its upper-case two letter code.
// Unknown values are kept upper-cased.
func (n *Normalizer) NormalizeState(raw string) models.Value {
	key := strings.Join(tokenize(raw, ""), " ")
	if code, ok := n.states[key]; ok {
		return models.Present(code)
	}
	return models.Present(strings.ToUpper(key))
}

// NormalizeRecord canonicalizes every field of raw. Non-blank input that could not be used
// is reported as a FieldCoercionWarning and stored as models.Missing.
func (n *Normalizer) NormalizeRecord(raw models.RawRecord) (models.NormalizedRecord, []*errors.FieldCoercionWarning) {
	var warnings []*errors.FieldCoercionWarning
	coerce := func(field, input string, value models.Value, reason string) models.Value {
		if value.IsMissing() && strings.TrimSpace(input) != "" {
			warnings = append(warnings, errors.NewFieldCoercionWarning(field, input, reason).
				AddRecord(string(raw.Source), strings.TrimSpace(raw.RecordID)))
		}
		return value
	}

	name := raw.FullName()
	address := n.NormalizeAddress(raw.Street, raw.City, raw.State)
	return models.NormalizedRecord{
		Source:     raw.Source,
		RecordID:   strings.TrimSpace(raw.RecordID),
		Name:       coerce("name", name, n.NormalizeName(name), "has no name tokens"),
		Address:    address.Comparable(),
		Street:     coerce("street", raw.Street, address.Street, "has no street tokens"),
		Unit:       address.Unit,
		City:       address.City,
		State:      address.State,
		PostalCode: coerce("postal_code", raw.PostalCode, models.Present(NormalizePostalCode(raw.PostalCode)), "is not a 5 or 9 digit ZIP code"),
		Phone:      coerce("phone", raw.Phone, n.Normalize(models.FieldPhone, raw.Phone), "has fewer than 10 digits"),
		Email:      coerce("email", raw.Email, n.Normalize(models.FieldEmail, raw.Email), "is not a valid email address"),
	}, warnings
}
