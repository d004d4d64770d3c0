package auth

import "errors"

// Kind classifies an expected authentication failure.
type Kind int

const (
	// KindValidation marks malformed input: empty or short fields, bad email.
	KindValidation Kind = iota + 1
	// KindAuthorization marks rejected credentials, account state or recovery code.
	KindAuthorization
	// KindNotFound marks an email with no account.
	KindNotFound
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

// Error is the failure outcome of an auth operation. Message is meant for end users.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func validationError(msg string) error    { return &Error{Kind: KindValidation, Message: msg} }
func authorizationError(msg string) error { return &Error{Kind: KindAuthorization, Message: msg} }
func notFoundError(msg string) error      { return &Error{Kind: KindNotFound, Message: msg} }

// KindOf returns the kind of err, or zero when err is not an *Error.
func KindOf(err error) Kind {
	var authErr *Error
	if errors.As(err, &authErr) {
		return authErr.Kind
	}
	return 0
}

// IsKind reports whether err is an *Error of kind k.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
