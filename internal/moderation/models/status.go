package models

import dErrors "modgate/pkg/domain-errors"

// Kind discriminates the two moderated resource kinds.
type Kind string

const (
	KindSubmission Kind = "submission"
	KindAccount    Kind = "account"
)

var validKinds = map[Kind]bool{
	KindSubmission: true,
	KindAccount:    true,
}

func (k Kind) IsValid() bool { return validKinds[k] }

// ParseKind constructs a Kind from external input (URL path segment).
func ParseKind(s string) (Kind, error) {
	k := Kind(s)
	if !k.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown resource kind: "+s)
	}
	return k, nil
}

// Status is a moderation status. The set of values legal for a resource is
// closed per kind: submissions use all five, accounts never hold Approved.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

var statusesByKind = map[Kind]map[Status]bool{
	KindSubmission: {
		StatusPending:  true,
		StatusApproved: true,
		StatusRejected: true,
		StatusActive:   true,
		StatusInactive: true,
	},
	KindAccount: {
		StatusPending:  true,
		StatusActive:   true,
		StatusInactive: true,
		StatusRejected: true,
	},
}

// ValidFor reports whether the status is part of the closed set for kind.
func (s Status) ValidFor(kind Kind) bool { return statusesByKind[kind][s] }

// ParseStatus constructs a Status from external input, checked against the
// closed set for the given kind.
func ParseStatus(kind Kind, s string) (Status, error) {
	st := Status(s)
	if !st.ValidFor(kind) {
		return "", dErrors.New(dErrors.CodeValidation, "unknown status for "+string(kind)+": "+s)
	}
	return st, nil
}

// Action names a moderator-invoked transition trigger.
type Action string

const (
	ActionAccept     Action = "accept"
	ActionReject     Action = "reject"
	ActionActivate   Action = "activate"
	ActionDeactivate Action = "deactivate"
)

var validActions = map[Action]bool{
	ActionAccept:     true,
	ActionReject:     true,
	ActionActivate:   true,
	ActionDeactivate: true,
}

func (a Action) IsValid() bool { return validActions[a] }

// ParseAction constructs an Action from external input.
func ParseAction(s string) (Action, error) {
	a := Action(s)
	if !a.IsValid() {
		return "", dErrors.New(dErrors.CodeValidation, "unknown action: "+s)
	}
	return a, nil
}
