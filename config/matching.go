package config

import (
	"bytes"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/Ramsey-B/fern/pkg/errors"
	"github.com/Ramsey-B/fern/pkg/matching"
	"github.com/Ramsey-B/fern/pkg/models"
	"github.com/Ramsey-B/fern/pkg/normalizers"
)

// Matching is the match profile: thresholds, weights, similarity metric and lookup tables.
// It is loaded once and passed by value into the components that consume it.
type Matching struct {
	Thresholds models.Thresholds  `json:"thresholds" yaml:"thresholds"`
	Weights    models.Weights     `json:"weights" yaml:"weights"`
	Metric     string             `json:"metric" yaml:"metric" validate:"oneof=indel jaro_winkler levenshtein"`
	Tables     normalizers.Tables `json:"tables" yaml:"tables"`
}

// DefaultMatching returns the built-in profile.
func DefaultMatching() Matching {
	return Matching{
		Thresholds: models.Thresholds{
			Name:    0.80,
			Address: 0.70,
			Phone:   0.90,
			Email:   0.90,
			Overall: 0.70,
		},
		Weights: models.Weights{
			Name:    0.30,
			Address: 0.30,
			Phone:   0.20,
			Email:   0.20,
		},
		Metric: matching.MetricIndel,
		Tables: normalizers.DefaultTables(),
	}
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	// report fields by their profile keys
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// LoadMatching reads a YAML profile from path. An empty path returns the defaults.
func LoadMatching(path string) (Matching, error) {
	if path == "" {
		return DefaultMatching(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Matching{}, errors.NewIOError("read", path, err)
	}
	return ParseMatching(data)
}

// ParseMatching decodes and validates a YAML profile. Thresholds and weights that are omitted
// keep their defaults; an omitted table falls back to the built-in table, a given table replaces it.
func ParseMatching(data []byte) (Matching, error) {
	m := DefaultMatching()
	m.Tables = normalizers.Tables{}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&m); err != nil && !stderrors.Is(err, io.EOF) {
		return Matching{}, errors.NewConfigurationError("", fmt.Sprintf("malformed profile: %v", err))
	}
	m.Tables = m.Tables.WithDefaults()

	if err := m.Validate(); err != nil {
		return Matching{}, err
	}
	return m, nil
}

// Validate checks thresholds lie in [0,1], weights are non-negative with a positive total, the
// metric is known and the lookup tables are consistent. Failures are ConfigurationErrors.
func (m Matching) Validate() error {
	if err := validate.Struct(m); err != nil {
		var verrs validator.ValidationErrors
		if stderrors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			field := fe.Namespace()
			if i := strings.Index(field, "."); i >= 0 {
				field = field[i+1:]
			}
			return errors.NewConfigurationErrorf(field, "rule '%s %s' failed for value %v", fe.Tag(), fe.Param(), fe.Value())
		}
		return errors.NewConfigurationError("", err.Error())
	}
	if m.Weights.Total() <= 0 {
		return errors.NewConfigurationError("weights", "at least one weight must be positive")
	}
	if _, err := normalizers.New(m.Tables); err != nil {
		return err
	}
	return nil
}

// Normalizer builds the normalizer for the profile's tables.
func (m Matching) Normalizer() (*normalizers.Normalizer, error) {
	return normalizers.New(m.Tables)
}

// Similarity returns the profile's string similarity metric.
func (m Matching) Similarity() (matching.StringSimilarity, error) {
	sim, err := matching.NewSimilarity(m.Metric)
	if err != nil {
		return nil, errors.NewConfigurationError("metric", err.Error())
	}
	return sim, nil
}

// YAML renders the profile as YAML.
func (m Matching) YAML() ([]byte, error) {
	return yaml.Marshal(m)
}
