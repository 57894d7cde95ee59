package services

import "errors"

var (
	// ErrRunNotFound is returned when no stored run has the requested ID.
	ErrRunNotFound = errors.New("run not found")
	// ErrNoRecords is returned when a stored run holds no records.
	ErrNoRecords = errors.New("run has no records")
	// ErrInvalidJob is returned for job files that fail validation.
	ErrInvalidJob = errors.New("invalid job")
	// ErrRecordFormat is returned for run documents written in another layout.
	ErrRecordFormat = errors.New("unsupported record format")
)
