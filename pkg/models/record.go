// Package models holds the record, candidate, and audit types shared by the resolution pipeline.
package models

import "strings"

// Source identifies the dataset a record was loaded from.
type Source string

const (
	SourceA Source = "A"
	SourceB Source = "B"
)

// FieldKind names one of the compared identity fields.
type FieldKind string

const (
	FieldName    FieldKind = "name"
	FieldAddress FieldKind = "address"
	FieldPhone   FieldKind = "phone"
	FieldEmail   FieldKind = "email"
)

// FieldKinds lists the compared fields in their output order.
var FieldKinds = []FieldKind{FieldName, FieldAddress, FieldPhone, FieldEmail}

// Value is a normalized field value. The zero value is the missing sentinel.
type Value struct {
	Text  string `json:"text,omitempty"`
	Valid bool   `json:"valid"`
}

// Missing is the sentinel for absent or invalid data.
var Missing = Value{}

// Present wraps text as a valid value. Empty text yields Missing.
func Present(text string) Value {
	if text == "" {
		return Missing
	}
	return Value{Text: text, Valid: true}
}

// IsMissing reports whether v is the missing sentinel.
func (v Value) IsMissing() bool {
	return !v.Valid
}

func (v Value) String() string {
	return v.Text
}

// RawRecord is one input row as read from a dataset, before any canonicalization.
type RawRecord struct {
	Source     Source `json:"source"`
	RecordID   string `json:"record_id" validate:"required"`
	Line       int    `json:"-"`
	Name       string `json:"name,omitempty"`
	GivenName  string `json:"first_name,omitempty"`
	FamilyName string `json:"last_name,omitempty"`
	Street     string `json:"street,omitempty"`
	City       string `json:"city,omitempty"`
	State      string `json:"state,omitempty"`
	PostalCode string `json:"zip,omitempty"`
	Phone      string `json:"phone,omitempty"`
	Email      string `json:"email,omitempty"`
}

// FullName returns the full-name column when set, otherwise given and family names joined.
func (r RawRecord) FullName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	return strings.TrimSpace(strings.TrimSpace(r.GivenName) + " " + strings.TrimSpace(r.FamilyName))
}

// IsEmpty reports whether every data column is blank.
func (r RawRecord) IsEmpty() bool {
	for _, v := range []string{r.FullName(), r.Street, r.City, r.State, r.PostalCode, r.Phone, r.Email} {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// NormalizedRecord is the canonical form of exactly one RawRecord.
//
// Address holds the comparable address text (street, city and state tokens);
// Street, Unit, City and State keep the parts for output.
type NormalizedRecord struct {
	Source     Source `json:"source"`
	RecordID   string `json:"record_id"`
	Name       Value  `json:"name"`
	Address    Value  `json:"address"`
	Street     Value  `json:"street"`
	Unit       Value  `json:"unit"`
	City       Value  `json:"city"`
	State      Value  `json:"state"`
	PostalCode Value  `json:"postal_code"`
	Phone      Value  `json:"phone"`
	Email      Value  `json:"email"`
}

// Field returns the value compared for kind.
func (r NormalizedRecord) Field(kind FieldKind) Value {
	switch kind {
	case FieldName:
		return r.Name
	case FieldAddress:
		return r.Address
	case FieldPhone:
		return r.Phone
	case FieldEmail:
		return r.Email
	default:
		return Missing
	}
}

// AllMissing reports whether none of the compared fields carry data.
func (r NormalizedRecord) AllMissing() bool {
	for _, kind := range FieldKinds {
		if !r.Field(kind).IsMissing() {
			return false
		}
	}
	return true
}
