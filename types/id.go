package types

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// ID is a record identifier. Different API responses send ids either as
// JSON strings or as JSON numbers, so decoding accepts both and always
// yields the string form.
type ID string

// String returns the id as a plain string
func (id ID) String() string {
	return string(id)
}

// IsZero reports whether the id is empty
func (id ID) IsZero() bool {
	return id == ""
}

// UnmarshalJSON accepts strings and numbers. JSON null leaves the id empty.
func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("invalid id: %w", err)
		}
		*id = ID(s)
		return nil
	}

	// Keep the literal number text so 42 and "42" compare equal
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("invalid id %s: must be a string or number", string(data))
	}
	*id = ID(strings.TrimSpace(n.String()))
	return nil
}

// UnmarshalYAML mirrors UnmarshalJSON for yaml input files, where ids are
// usually written as bare scalars.
func (id *ID) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var raw interface{}
	if err := unmarshal(&raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*id = ""
	case string:
		*id = ID(v)
	case int, int64, uint64, float64:
		*id = ID(fmt.Sprint(v))
	default:
		return fmt.Errorf("invalid id %v: must be a string or number", v)
	}
	return nil
}

// IDPtr returns a pointer to an ID built from s, used when building raw records
func IDPtr(s string) *ID {
	id := ID(s)
	return &id
}
