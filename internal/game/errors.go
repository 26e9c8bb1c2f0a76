package game

import "errors"

// Code is a machine-readable error category.
type Code string

const (
	CodeResourceExhausted Code = "RESOURCE_EXHAUSTED"
	CodeNotFound          Code = "NOT_FOUND"
	CodePreconditionStale Code = "PRECONDITION_STALE"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeRejected          Code = "REJECTED"
)

// Error is the domain error type. Key names the localized message shown to
// players; Metadata fills its template.
type Error struct {
	Code     Code
	Key      string
	Message  string
	Metadata map[string]string
	Cause    error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code. A target carrying a key only matches errors with the
// same key, so sentinels stay distinguishable within one code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if e.Code != t.Code {
		return false
	}
	return t.Key == "" || t.Key == e.Key
}

func NewError(code Code, key, message string) *Error {
	return &Error{Code: code, Key: key, Message: message}
}

// WithMetadata returns a copy of e carrying metadata, keeping code and key.
func (e *Error) WithMetadata(kv ...string) *Error {
	out := *e
	out.Metadata = make(map[string]string, len(kv)/2+len(e.Metadata))
	for k, v := range e.Metadata {
		out.Metadata[k] = v
	}
	for i := 0; i+1 < len(kv); i += 2 {
		out.Metadata[kv[i]] = kv[i+1]
	}
	return &out
}

// Wrap returns a copy of e with cause attached.
func (e *Error) Wrap(cause error) *Error {
	out := *e
	out.Cause = cause
	return &out
}

var (
	ErrZoneExhausted      = NewError(CodeResourceExhausted, "error.zone_exhausted", "zone pool exhausted")
	ErrDuplicateOwner     = NewError(CodeRejected, "error.duplicate_owner", "owner already holds a zone")
	ErrDefinitionNotFound = NewError(CodeNotFound, "error.definition_not_found", "dungeon definition not found")
	ErrInstanceNotFound   = NewError(CodeNotFound, "error.instance_not_found", "instance not found")
	ErrRoomNotFound       = NewError(CodeNotFound, "error.room_not_found", "room not found")
	ErrUnknownRoomType    = NewError(CodeInvalidArgument, "error.unknown_room_type", "unknown room type")
	ErrInstanceFull       = NewError(CodeRejected, "error.instance_full", "instance is full")
	ErrInstanceFinished   = NewError(CodeRejected, "error.instance_finished", "instance no longer accepts players")
	ErrNotMember          = NewError(CodeRejected, "error.not_member", "player is not a member of the instance")
	ErrNotSupported       = NewError(CodeRejected, "error.not_supported", "operation not supported by this instance")
	ErrVoteClosed         = NewError(CodeRejected, "error.vote_closed", "no branch selection is open")
	ErrAlreadyVoted       = NewError(CodeRejected, "error.already_voted", "player already voted")
	ErrInvalidChoice      = NewError(CodeInvalidArgument, "error.invalid_choice", "room is not a branch option")
	ErrNotNearPortal      = NewError(CodeRejected, "error.not_near_portal", "player is not near the portal")
	ErrPortalBusy         = NewError(CodeRejected, "error.portal_busy", "another member is channeling the portal")
	ErrStale              = NewError(CodePreconditionStale, "error.stale", "precondition no longer holds")
	ErrBadRequest         = NewError(CodeInvalidArgument, "error.bad_request", "malformed command")
	ErrUnknownCommand     = NewError(CodeInvalidArgument, "error.unknown_command", "unknown command")
	ErrMapTooLarge        = NewError(CodeResourceExhausted, "error.map_too_large", "map does not fit inside a zone")
)

// CodeOf extracts the code of the first domain error in err's chain.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// KeyOf extracts the localized message key of err, if any.
func KeyOf(err error) string {
	var de *Error
	if errors.As(err, &de) {
		return de.Key
	}
	return ""
}
