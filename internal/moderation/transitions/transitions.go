// Package transitions declares every legal moderation transition in one
// closed table. Anything absent from the table is not allowed; there is no
// implicit fallback, so illegal actions are rejected structurally rather than
// hidden behind dashboard button visibility.
package transitions

import "modgate/internal/moderation/models"

type key struct {
	kind   models.Kind
	from   models.Status
	action models.Action
}

// table is the single source of truth for legal transitions.
//
// The submission and account tables are structurally similar but deliberately
// not unified: accounts have no Approved resting state, and submissions need
// the separate approve-then-activate step. Approved has no transition back to
// Rejected; it is a legitimate resting state.
var table = map[key]models.Status{
	// Submissions.
	{models.KindSubmission, models.StatusPending, models.ActionAccept}:     models.StatusApproved,
	{models.KindSubmission, models.StatusPending, models.ActionReject}:     models.StatusRejected,
	{models.KindSubmission, models.StatusRejected, models.ActionAccept}:    models.StatusApproved,
	{models.KindSubmission, models.StatusRejected, models.ActionReject}:    models.StatusRejected,
	{models.KindSubmission, models.StatusApproved, models.ActionActivate}:  models.StatusActive,
	{models.KindSubmission, models.StatusActive, models.ActionDeactivate}:  models.StatusInactive,
	{models.KindSubmission, models.StatusInactive, models.ActionActivate}:  models.StatusActive,

	// Accounts.
	{models.KindAccount, models.StatusPending, models.ActionAccept}:    models.StatusActive,
	{models.KindAccount, models.StatusPending, models.ActionReject}:    models.StatusRejected,
	{models.KindAccount, models.StatusRejected, models.ActionAccept}:   models.StatusActive,
	{models.KindAccount, models.StatusActive, models.ActionDeactivate}: models.StatusInactive,
	{models.KindAccount, models.StatusInactive, models.ActionActivate}: models.StatusActive,
}

// Lookup returns the status that applying action from the current status
// yields, or ok=false when the combination is not in the table.
func Lookup(kind models.Kind, from models.Status, action models.Action) (models.Status, bool) {
	next, ok := table[key{kind, from, action}]
	return next, ok
}

// allActions fixes a stable presentation order for Actions.
var allActions = []models.Action{
	models.ActionAccept,
	models.ActionReject,
	models.ActionActivate,
	models.ActionDeactivate,
}

// Actions returns the legal actions from the given status, in stable order.
// Dashboards use this instead of hard-coding per-status button conditions.
func Actions(kind models.Kind, from models.Status) []models.Action {
	var out []models.Action
	for _, a := range allActions {
		if _, ok := table[key{kind, from, a}]; ok {
			out = append(out, a)
		}
	}
	return out
}
