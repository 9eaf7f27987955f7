package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"orgsite-client/internal/domain"
)

// ErrUnauthorized matches any result that failed with a 401.
var ErrUnauthorized = errors.New("unauthorized")

// Result is the uniform outcome of every network-facing operation.
// Data is nil when the response carried no usable body; Status is 0 when
// no response was received.
type Result struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Status  int             `json:"status,omitempty"`
	Error   string          `json:"error,omitempty"`
	Cached  bool            `json:"cached,omitempty"`
}

// RequestError is the error form of a failed Result.
type RequestError struct {
	Status  int
	Message string
}

func (e *RequestError) Error() string {
	return e.Message
}

// Is makes errors.Is(err, ErrUnauthorized) work for 401 failures.
func (e *RequestError) Is(target error) bool {
	return target == ErrUnauthorized && e.Status == http.StatusUnauthorized
}

// Ok builds a successful result.
func Ok(data json.RawMessage, status int) Result {
	return Result{Success: true, Data: data, Status: status}
}

// Fail builds a failed result.
func Fail(message string, status int) Result {
	return Result{Success: false, Error: message, Status: status}
}

// Err returns nil on success and a *RequestError otherwise.
func (r Result) Err() error {
	if r.Success {
		return nil
	}
	return &RequestError{Status: r.Status, Message: r.Error}
}

// Decode unmarshals Data into out. Absent data leaves out untouched.
func (r Result) Decode(out any) error {
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, out); err != nil {
		return fmt.Errorf("api: failed to decode response: %w", err)
	}
	return nil
}

// Records interprets Data as a list of records.
func (r Result) Records() []domain.Record {
	return domain.DecodeRecords(r.Data)
}

// Record interprets Data as a single record.
func (r Result) Record() (domain.Record, error) {
	return domain.DecodeRecord(r.Data)
}
