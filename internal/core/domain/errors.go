package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrLocationNotFound    = errors.New("location not found")
	ErrPermissionDenied    = errors.New("location permission denied")
	ErrLocationUnavailable = errors.New("location unavailable")
	ErrLocationRequired    = errors.New("location required")
	ErrUpstream            = errors.New("upstream unavailable")
	ErrSelectionFull       = errors.New("selection full")
	ErrNoRoute             = errors.New("no route")
	ErrStaleResult         = errors.New("stale result")
	ErrInvalidTransition   = errors.New("invalid map surface transition")
)

// User-facing notices.
const (
	MsgNameRequired        = "Please add a name."
	MsgInvalidCoordinates  = "Please add valid latitude and longitude numbers."
	MsgDuplicateName       = "A space with that name already exists."
	MsgLocationNotFound    = "Couldn’t find that location. Try a postcode, place name or map link."
	MsgPermissionBlocked   = "Location permission was blocked."
	MsgEnterManually       = "Enter your location manually instead."
	MsgLocationFailed      = "Couldn’t get your location. Try again."
	MsgLocationRequired    = "Share your location to get directions."
	MsgNoRoute             = "Could not find a route. Please try a different transport mode."
	MsgDirectionsFailed    = "Failed to get directions. Please try again."
	MsgSpaceNotFound       = "That space no longer exists."
	msgSelectionFullFormat = "You can select up to %d spaces."
)

// SelectionFullMessage is the notice shown when the checked set is at capacity.
func SelectionFullMessage(limit int) string {
	return fmt.Sprintf(msgSelectionFullFormat, limit)
}

// UserError pairs an error kind with a message safe to show to the user.
type UserError struct {
	Kind    error
	Message string
}

// NewUserError returns a UserError of the given kind.
func NewUserError(kind error, message string) *UserError {
	return &UserError{Kind: kind, Message: message}
}

func (e *UserError) Error() string { return e.Message }

func (e *UserError) Unwrap() error { return e.Kind }

// UserMessage extracts the user-facing message from err, if any.
func UserMessage(err error) (string, bool) {
	var ue *UserError
	if errors.As(err, &ue) {
		return ue.Message, true
	}
	return "", false
}

var noticeKinds = []struct {
	kind error
	name string
}{
	{ErrValidation, "validation_error"},
	{ErrLocationNotFound, "location_not_found"},
	{ErrPermissionDenied, "permission_denied"},
	{ErrLocationUnavailable, "location_unavailable"},
	{ErrLocationRequired, "location_required"},
	{ErrUpstream, "upstream_unavailable"},
	{ErrSelectionFull, "selection_full"},
	{ErrConflict, "conflict"},
	{ErrNoRoute, "no_route"},
	{ErrNotFound, "not_found"},
}

// NoticeFor turns a user-facing error into a notice. It returns nil for
// errors that carry no user message.
func NoticeFor(err error) *Notice {
	var ue *UserError
	if !errors.As(err, &ue) {
		return nil
	}
	n := &Notice{Kind: "error", Message: ue.Message}
	for _, k := range noticeKinds {
		if errors.Is(ue.Kind, k.kind) {
			n.Kind = k.name
			break
		}
	}
	return n
}
