package invite

import (
	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeInvalidTransition = "INVALID_INVITE_STATE_TRANSITION"
	textCodeTerminalState     = "TERMINAL_INVITE_STATE"
)

// ErrInvalidTransition is returned when a requested status change is not allowed.
var ErrInvalidTransition = goerrors.New("invalid invitation state transition", goerrors.CategoryValidation).
	WithTextCode(textCodeInvalidTransition).
	WithCode(goerrors.CodeBadRequest)

// ErrTerminalState is returned when attempting to move away from accepted.
var ErrTerminalState = goerrors.New("invitation state is terminal", goerrors.CategoryConflict).
	WithTextCode(textCodeTerminalState).
	WithCode(goerrors.CodeConflict)

var invitationTransitions = map[InvitationStatus]map[InvitationStatus]struct{}{
	StatusPending: {
		StatusAccepted: {},
	},
}

// IsTerminal reports whether no transition leaves status
func (s InvitationStatus) IsTerminal() bool {
	return s.IsValid() && len(invitationTransitions[s]) == 0
}

// CanTransition reports whether from -> to is allowed
func CanTransition(from, to InvitationStatus) bool {
	_, ok := invitationTransitions[from][to]
	return ok
}

// ValidateTransition returns ErrTerminalState or ErrInvalidTransition when the
// status change is not allowed.
func ValidateTransition(from, to InvitationStatus) error {
	if from.IsTerminal() {
		return ErrTerminalState.Clone().WithMetadata(map[string]any{
			"from": string(from),
			"to":   string(to),
		})
	}

	if !CanTransition(from, to) {
		return ErrInvalidTransition.Clone().WithMetadata(map[string]any{
			"from": string(from),
			"to":   string(to),
		})
	}

	return nil
}
