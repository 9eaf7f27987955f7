package service

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"orgsite-client/internal/domain"
)

var fieldRegex = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_.\-]*)=(.*)$`)

// ErrInvalidField is returned for arguments that are not key=value.
var ErrInvalidField = errors.New("invalid field, expected key=value")

// ParseFields turns key=value arguments into a record. Values that are JSON
// numbers, booleans, null, objects, arrays or quoted strings are decoded;
// anything else is kept as a plain string.
func ParseFields(args []string) (domain.Record, error) {
	rec := domain.Record{}
	for _, arg := range args {
		matches := fieldRegex.FindStringSubmatch(strings.TrimSpace(arg))
		if matches == nil {
			return nil, fmt.Errorf("%w: %q", ErrInvalidField, arg)
		}
		rec[matches[1]] = parseValue(matches[2])
	}
	return rec, nil
}

func parseValue(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	switch trimmed[0] {
	case '{', '[', '"', '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
	default:
		if trimmed != "true" && trimmed != "false" && trimmed != "null" {
			return raw
		}
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(trimmed)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil || dec.More() {
		return raw
	}
	return v
}
