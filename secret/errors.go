package secret

import "errors"

var (
	// ErrMissingEnv reports a ${VAR} reference to an unset variable.
	ErrMissingEnv = errors.New("secret: missing environment variable")

	// ErrProviderNotFound reports a reference to an unknown provider.
	ErrProviderNotFound = errors.New("secret: provider not registered")

	// ErrEmptySecret reports a provider that resolved to "" in strict mode.
	ErrEmptySecret = errors.New("secret: empty value")

	// ErrInvalidRef reports a malformed reference.
	ErrInvalidRef = errors.New("secret: invalid reference")
)
