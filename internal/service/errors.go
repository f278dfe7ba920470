package service

import "errors"

var (
	// ErrValidation wraps a *validate.Error describing the bad fields.
	ErrValidation = errors.New("validation failed")
	// ErrQuotaExceeded is returned when the user already owns as many
	// listings as their limit allows.
	ErrQuotaExceeded = errors.New("publication limit reached")
	// ErrQuotaExpired is returned when editing or deleting without a quota
	// in force.
	ErrQuotaExpired = errors.New("no active quota")
	// ErrUpload is returned when an image could not be stored.
	ErrUpload = errors.New("image upload failed")
)
