package llm

import (
	"errors"
	"fmt"
)

var (
	// ErrUnknownProvider matches any UnknownProviderError via errors.Is.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrMissingProviderKey matches any MissingProviderKeyError via errors.Is.
	ErrMissingProviderKey = errors.New("missing provider key")
)

// UnknownProviderError reports a provider id outside the supported set.
type UnknownProviderError struct {
	Provider string
}

func (e *UnknownProviderError) Error() string {
	return fmt.Sprintf("unknown provider %q", e.Provider)
}

func (e *UnknownProviderError) Is(target error) bool {
	return target == ErrUnknownProvider
}

// MissingProviderKeyError reports a supported provider with no API key configured.
type MissingProviderKeyError struct {
	Provider string
}

func (e *MissingProviderKeyError) Error() string {
	return fmt.Sprintf("no API key configured for provider %q", e.Provider)
}

func (e *MissingProviderKeyError) Is(target error) bool {
	return target == ErrMissingProviderKey
}
