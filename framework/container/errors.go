package container

import "github.com/pkg/errors"

var (
	// ErrInvalidFactory is returned when a value that cannot act as a
	// zero-argument factory is registered.
	ErrInvalidFactory = errors.New("container: invalid factory")

	// ErrInvalidAlias is returned when registering under an empty alias.
	ErrInvalidAlias = errors.New("container: invalid alias")

	// ErrAliasLocked is returned by callers that cannot proceed when an alias
	// is locked. Register itself reports a locked alias through its bool.
	ErrAliasLocked = errors.New("container: alias locked")

	// ErrUnsupportedOperation is returned by Handle.Invoke when the
	// materialized value has no method with the requested name.
	ErrUnsupportedOperation = errors.New("container: unsupported operation")

	// ErrInvalidArguments is returned by Handle.Invoke when the arguments do
	// not fit the target method's signature.
	ErrInvalidArguments = errors.New("container: invalid arguments")

	// ErrAliasAbsent is returned by Resolve when nothing is registered under
	// the alias. Get reports absence through its bool result instead.
	ErrAliasAbsent = errors.New("container: alias not registered")

	// ErrTypeMismatch is returned when a materialized value is not of the
	// requested type.
	ErrTypeMismatch = errors.New("container: type mismatch")
)
