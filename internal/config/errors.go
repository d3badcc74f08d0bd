package config

import (
	"errors"
	"fmt"
)

// ErrMissingCredentials is returned when a real provider is selected but its key is empty.
var ErrMissingCredentials = errors.New("missing credentials")

type MissingCredentialsError struct {
	Provider string
	Setting  string
}

func (e *MissingCredentialsError) Error() string {
	return fmt.Sprintf("%s: %s is not set (set it or enable mock mode)", e.Provider, e.Setting)
}

func (e *MissingCredentialsError) Unwrap() error { return ErrMissingCredentials }

// RequireKey fails fast when a real provider has no credential.
func RequireKey(provider, setting, value string) error {
	if value == "" {
		return &MissingCredentialsError{Provider: provider, Setting: setting}
	}
	return nil
}
