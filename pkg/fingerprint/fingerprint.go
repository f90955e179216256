// Package fingerprint derives stable identifiers for resolved records.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// namespace scopes resolved-record UUIDs.
var namespace = uuid.MustParse("8f0b6c1e-3d5a-5b7e-9c2f-4a61d0e8b3f7")

// consumerIDLength is the number of hex characters kept for a consumer id.
const consumerIDLength = 12

// Generate creates a deterministic fingerprint for record data.
// The fingerprint is a SHA256 hash of the canonicalized JSON.
func Generate(data map[string]any) string {
	hash := sha256.Sum256([]byte(canonicalize(data)))
	return hex.EncodeToString(hash[:])
}

// ResolvedID is the UUIDv5 of the contributing source ids. An unmatched record passes "" for the missing side.
// The same pair always yields the same id.
func ResolvedID(sourceAID, sourceBID string) string {
	return uuid.NewSHA1(namespace, []byte("A:"+sourceAID+"|B:"+sourceBID)).String()
}

// ConsumerID is the short fingerprint of the identity fields of a resolved record.
// Records carrying the same normalized identity share a consumer id across runs.
func ConsumerID(name, street, postalCode, email, phone string) string {
	return Generate(map[string]any{
		"name":        name,
		"street":      street,
		"postal_code": postalCode,
		"email":       email,
		"phone":       phone,
	})[:consumerIDLength]
}

// canonicalize renders data with sorted keys so equal maps always hash equally.
func canonicalize(data any) string {
	var b strings.Builder
	writeCanonical(&b, data)
	return b.String()
}

func writeCanonical(b *strings.Builder, data any) {
	switch v := data.(type) {
	case map[string]any:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		slices.Sort(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			keyJSON, _ := json.Marshal(k)
			b.Write(keyJSON)
			b.WriteByte(':')
			writeCanonical(b, v[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, item := range v {
			if i > 0 {
				b.WriteByte(',')
			}
			writeCanonical(b, item)
		}
		b.WriteByte(']')
	default:
		raw, _ := json.Marshal(v)
		b.Write(raw)
	}
}
