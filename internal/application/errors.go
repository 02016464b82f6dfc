package application

import "errors"

// Error is a rule-engine failure surfaced to API callers. Errors with the
// same Code are interchangeable under errors.Is.
type Error struct {
	Code    string
	Message string
	Details map[string]string
}

func (e *Error) Error() string { return e.Message }

func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Extensions is picked up by the GraphQL layer and rendered into the error's
// "extensions" object.
func (e *Error) Extensions() map[string]interface{} {
	ext := map[string]interface{}{"code": e.Code}
	if len(e.Details) > 0 {
		ext["details"] = e.Details
	}
	return ext
}

// ErrAuthenticationFailed is shared by the unknown-email and wrong-password
// paths of login so callers cannot tell them apart.
var (
	ErrAuthenticationRequired = &Error{Code: "UNAUTHENTICATED", Message: "authentication required"}
	ErrAuthenticationFailed   = &Error{Code: "AUTHENTICATION_FAILED", Message: "authentication failed"}
	ErrPermissionDenied       = &Error{Code: "FORBIDDEN", Message: "permission denied"}
	ErrNotFound               = &Error{Code: "NOT_FOUND", Message: "not found"}
	ErrInvalidPassword        = &Error{Code: "INVALID_PASSWORD", Message: "password does not meet the policy"}
	ErrEmailTaken             = &Error{Code: "EMAIL_TAKEN", Message: "email is already taken"}
	ErrCommentOnUnpublished   = &Error{Code: "COMMENT_ON_UNPUBLISHED", Message: "cannot comment on an unpublished post"}
	ErrInvalidInput           = &Error{Code: "BAD_USER_INPUT", Message: "invalid input"}
)

func invalidInput(details map[string]string) error {
	return &Error{Code: ErrInvalidInput.Code, Message: ErrInvalidInput.Message, Details: details}
}

func invalidPassword(reason string) error {
	return &Error{Code: ErrInvalidPassword.Code, Message: reason}
}
