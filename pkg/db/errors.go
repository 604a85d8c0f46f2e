package db

import "errors"

var (
	ErrNilConfig        = errors.New("database config is nil")
	ErrHostRequired     = errors.New("database host is required")
	ErrDatabaseRequired = errors.New("database name is required")

	// Row validation.

	ErrDeviceNotFound     = errors.New("device not found")
	ErrCredentialNotFound = errors.New("credential not found")
	ErrTargetNotFound     = errors.New("audit target not found")
	ErrDefinitionNotFound = errors.New("stig definition not found")
	ErrJobNotFound        = errors.New("audit job not found")
)
