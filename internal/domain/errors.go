package domain

import "errors"

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrInsufficientCredits = errors.New("insufficient credits")
	ErrNoImageGenerated    = errors.New("no image generated by model")
)
