package invite

import (
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

const (
	TextCodeValidation       = "INVITE_VALIDATION"
	TextCodeSelfInvite       = "INVITE_SELF"
	TextCodeDuplicateInvite  = "INVITE_DUPLICATE"
	TextCodeInvalidReference = "INVITE_INVALID_REFERENCE"
	TextCodeNotFound         = "INVITE_NOT_FOUND"
	TextCodeUnauthorized     = "INVITE_UNAUTHORIZED"
	TextCodeForbidden        = "INVITE_FORBIDDEN"
	TextCodeStorage          = "INVITE_STORAGE"
)

const (
	msgSelfInvite       = "You cannot invite yourself."
	msgDuplicateInvite  = "An active invite has already been sent to this email."
	msgInvalidReference = "Invalid reference string"
	msgNotFound         = "Invite not found"
	msgUnauthorized     = "Could not validate credentials"
	msgForbidden        = "Operation not permitted"
	msgStorage          = "Unable to store invitation QR code"
)

// NewValidationError wraps a payload validation failure (malformed email, etc.)
func NewValidationError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryValidation, "Invalid invitation payload").
		WithTextCode(TextCodeValidation).
		WithCode(http.StatusUnprocessableEntity)
}

// NewSelfInviteError is returned when a caller invites their own email
func NewSelfInviteError(email string) *goerrors.Error {
	return goerrors.New(msgSelfInvite, goerrors.CategoryBadInput).
		WithTextCode(TextCodeSelfInvite).
		WithCode(goerrors.CodeBadRequest).
		WithMetadata(map[string]any{"email": email})
}

// NewDuplicateInviteError is returned when a pending invitation already
// exists for the email.
func NewDuplicateInviteError(email string) *goerrors.Error {
	return goerrors.New(msgDuplicateInvite, goerrors.CategoryConflict).
		WithTextCode(TextCodeDuplicateInvite).
		WithCode(goerrors.CodeConflict).
		WithMetadata(map[string]any{"email": email})
}

// NewInvalidReferenceError is returned for references that cannot be decoded
func NewInvalidReferenceError(err error) *goerrors.Error {
	if err == nil {
		return goerrors.New(msgInvalidReference, goerrors.CategoryBadInput).
			WithTextCode(TextCodeInvalidReference).
			WithCode(goerrors.CodeBadRequest)
	}
	return goerrors.Wrap(err, goerrors.CategoryBadInput, msgInvalidReference).
		WithTextCode(TextCodeInvalidReference).
		WithCode(goerrors.CodeBadRequest)
}

// NewNotFoundError is returned when no pending invitation matches
func NewNotFoundError(email string) *goerrors.Error {
	return goerrors.New(msgNotFound, goerrors.CategoryNotFound).
		WithTextCode(TextCodeNotFound).
		WithCode(goerrors.CodeNotFound).
		WithMetadata(map[string]any{"email": email})
}

// NewUnauthorizedError is returned when the caller identity cannot be resolved
func NewUnauthorizedError(err error) *goerrors.Error {
	if err == nil {
		return goerrors.New(msgUnauthorized, goerrors.CategoryAuth).
			WithTextCode(TextCodeUnauthorized).
			WithCode(goerrors.CodeUnauthorized)
	}
	return goerrors.Wrap(err, goerrors.CategoryAuth, msgUnauthorized).
		WithTextCode(TextCodeUnauthorized).
		WithCode(goerrors.CodeUnauthorized)
}

// NewForbiddenError is returned when the caller role is not allowed
func NewForbiddenError(role string) *goerrors.Error {
	return goerrors.New(msgForbidden, goerrors.CategoryAuthz).
		WithTextCode(TextCodeForbidden).
		WithCode(goerrors.CodeForbidden).
		WithMetadata(map[string]any{"role": role})
}

// NewStorageError is returned when the object store rejects the QR upload
func NewStorageError(err error) *goerrors.Error {
	return goerrors.Wrap(err, goerrors.CategoryInternal, msgStorage).
		WithTextCode(TextCodeStorage).
		WithCode(http.StatusBadGateway)
}

// HasTextCode reports whether err is a rich error carrying the text code
func HasTextCode(err error, code string) bool {
	if err == nil {
		return false
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.TextCode == code
}

func IsValidationError(err error) bool       { return HasTextCode(err, TextCodeValidation) }
func IsSelfInviteError(err error) bool       { return HasTextCode(err, TextCodeSelfInvite) }
func IsDuplicateInviteError(err error) bool  { return HasTextCode(err, TextCodeDuplicateInvite) }
func IsInvalidReferenceError(err error) bool { return HasTextCode(err, TextCodeInvalidReference) }
func IsNotFoundError(err error) bool         { return HasTextCode(err, TextCodeNotFound) }
func IsUnauthorizedError(err error) bool     { return HasTextCode(err, TextCodeUnauthorized) }
func IsForbiddenError(err error) bool        { return HasTextCode(err, TextCodeForbidden) }
func IsStorageError(err error) bool          { return HasTextCode(err, TextCodeStorage) }
