// Package memory holds the mock backend's state: accounts, bearer tokens and
// the record collections. Everything lives in process memory and is lost on
// restart.
package memory

import "errors"

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidInput       = errors.New("invalid input")
	ErrEmailExists        = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("incorrect username or password")
	ErrInvalidToken       = errors.New("could not validate credentials")
)
