package utils

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// UUIDPattern matches a canonical UUID in route variables.
const UUIDPattern = "[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{4}-[0-9a-fA-F]{12}"

// NewComplaintCode returns "CMP-" followed by 8 uppercase hex digits.
func NewComplaintCode() (string, error) {
	b := make([]byte, 4)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return "CMP-" + strings.ToUpper(hex.EncodeToString(b)), nil
}

// FlexID is a lookup id that clients may send as a JSON number or a numeric
// string. "", null and 0 all decode to zero, meaning "not set".
type FlexID uint

func (f *FlexID) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(string(b))
	if s == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var str string
		if err := json.Unmarshal(b, &str); err != nil {
			return err
		}
		s = strings.TrimSpace(str)
	}
	if s == "" {
		*f = 0
		return nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return fmt.Errorf("invalid id %q", s)
	}
	*f = FlexID(v)
	return nil
}

// Ptr returns nil for zero, for optional foreign keys.
func (f FlexID) Ptr() *uint {
	if f == 0 {
		return nil
	}
	v := uint(f)
	return &v
}

// ParseOptionalID parses a form value into an optional id. Empty is nil.
func ParseOptionalID(s string) (*uint, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("invalid id %q", s)
	}
	id := uint(v)
	if id == 0 {
		return nil, nil
	}
	return &id, nil
}
