package protocol

import (
	"encoding/json"
	"fmt"
)

// ID is a JSON-RPC 2.0 request identifier: the union of a 64-bit integer
// and a string. Equality is by value and type — an ID{Num: 1} never equals
// an ID{Str: "1"}.
type ID struct {
	IsString bool
	Num      int64
	Str      string
}

// NewIntID builds a numeric ID.
func NewIntID(n int64) ID { return ID{Num: n} }

// NewStringID builds a string ID.
func NewStringID(s string) ID { return ID{IsString: true, Str: s} }

// Equal reports whether two IDs have the same type and value.
func (id ID) Equal(other ID) bool {
	if id.IsString != other.IsString {
		return false
	}
	if id.IsString {
		return id.Str == other.Str
	}
	return id.Num == other.Num
}

// Key renders the ID as a map key, disambiguating numeric and string IDs
// that would otherwise collide (e.g. ID 1 vs ID "1").
func (id ID) Key() string {
	if id.IsString {
		return "s:" + id.Str
	}
	return fmt.Sprintf("n:%d", id.Num)
}

func (id ID) String() string {
	if id.IsString {
		return id.Str
	}
	return fmt.Sprintf("%d", id.Num)
}

func (id ID) MarshalJSON() ([]byte, error) {
	if id.IsString {
		return json.Marshal(id.Str)
	}
	return json.Marshal(id.Num)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var n int64
	if err := json.Unmarshal(data, &n); err == nil {
		*id = ID{Num: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*id = ID{IsString: true, Str: s}
		return nil
	}
	return fmt.Errorf("protocol: id must be a number or a string, got %s", string(data))
}
