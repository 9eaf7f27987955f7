package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

var (
	ErrUnknownResource = errors.New("unknown resource type")
	ErrInvalidRecord   = errors.New("invalid record")
)

// Record is an opaque JSON object owned by the server. Only "id" is read.
type Record map[string]any

// ID returns the canonical string form of the record's id, or "" if absent.
func (r Record) ID() string {
	if r == nil {
		return ""
	}
	return NormalizeID(r["id"])
}

// Text returns a string field, or "" when missing or not a string.
func (r Record) Text(key string) string {
	s, _ := r[key].(string)
	return s
}

// NormalizeID converts server and caller ids to one canonical string so that
// 7, 7.0, "7.0", json.Number("7") and "7" all compare equal. Integer literals
// are kept digit for digit; only fractions and exponents go through float64.
func NormalizeID(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		s := strings.TrimSpace(id)
		if n, ok := canonicalNumber(s); ok {
			return n
		}
		return s
	case json.Number:
		if n, ok := canonicalNumber(id.String()); ok {
			return n
		}
		return id.String()
	case float64:
		if id == math.Trunc(id) && math.Abs(id) < 1<<63 {
			return strconv.FormatInt(int64(id), 10)
		}
		return strconv.FormatFloat(id, 'f', -1, 64)
	case float32:
		return NormalizeID(float64(id))
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	case int32:
		return strconv.FormatInt(int64(id), 10)
	case uint64:
		return strconv.FormatUint(id, 10)
	case fmt.Stringer:
		return id.String()
	default:
		return fmt.Sprint(id)
	}
}

// canonicalNumber reports whether s is a JSON number literal and returns its
// id form. "007" is not a JSON number and stays a plain string id.
func canonicalNumber(s string) (string, bool) {
	if s == "" || (s[0] != '-' && (s[0] < '0' || s[0] > '9')) || !json.Valid([]byte(s)) {
		return "", false
	}
	if !strings.ContainsAny(s, ".eE") {
		return s, true
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return "", false
	}
	return NormalizeID(f), true
}

// DecodeRecords decodes a JSON array of objects. Absent or non-array payloads
// yield an empty slice.
func DecodeRecords(data []byte) []Record {
	if len(data) == 0 {
		return []Record{}
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return []Record{}
	}
	out := records[:0]
	for _, r := range records {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// DecodeRecord decodes a single JSON object.
func DecodeRecord(data []byte) (Record, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty payload", ErrInvalidRecord)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if rec == nil {
		return nil, fmt.Errorf("%w: null payload", ErrInvalidRecord)
	}
	return rec, nil
}
