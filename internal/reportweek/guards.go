package reportweek

import (
	"fmt"
	"time"
)

// Status is the lifecycle state of a report week.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPublished Status = "published"
)

func (s Status) Valid() bool {
	return s == StatusDraft || s == StatusPublished
}

// ParseStatus accepts only draft and published.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", Validationf("invalid status %q, must be draft or published", s)
	}
	return st, nil
}

// GuardResult is the outcome of a lifecycle precondition check.
type GuardResult struct {
	Allowed bool
	Reason  string
}

// Error converts a refused guard into a state error.
func (r GuardResult) Error() error {
	if r.Allowed {
		return nil
	}
	return Statef("%s", r.Reason)
}

func draftOnly(status Status, action string) GuardResult {
	if status != StatusDraft {
		return GuardResult{
			Allowed: false,
			Reason:  fmt.Sprintf("cannot %s a %s report week, unpublish it first", action, status),
		}
	}
	return GuardResult{Allowed: true}
}

// CanEditDate reports whether a week in status may move to another
// week-ending date. Only drafts may.
func CanEditDate(status Status) GuardResult {
	return draftOnly(status, "change the week ending date of")
}

// CanDelete reports whether a week in status may be deleted.
func CanDelete(status Status) GuardResult {
	return draftOnly(status, "delete")
}

// CanEditManual reports whether the manual content of a week in status is
// still writable. It is frozen once published.
func CanEditManual(status Status) GuardResult {
	return draftOnly(status, "edit manual content of")
}

// Transition is the effect of a requested status change.
type Transition int

const (
	TransitionNone Transition = iota
	TransitionPublish
	TransitionUnpublish
)

func (t Transition) String() string {
	switch t {
	case TransitionPublish:
		return "publish"
	case TransitionUnpublish:
		return "unpublish"
	default:
		return "none"
	}
}

// PlanTransition maps (current, requested) onto a transition. Requesting the
// current status is a no-op.
func PlanTransition(from, to Status) (Transition, error) {
	if !to.Valid() {
		return TransitionNone, Validationf("invalid status %q, must be draft or published", to)
	}
	switch {
	case from == to:
		return TransitionNone, nil
	case from == StatusDraft && to == StatusPublished:
		return TransitionPublish, nil
	case from == StatusPublished && to == StatusDraft:
		return TransitionUnpublish, nil
	default:
		return TransitionNone, Statef("report week has unknown status %q", from)
	}
}

// Publication is the publish bookkeeping carried by a report week. Both
// fields are set iff the week is published.
type Publication struct {
	PublishedAt *time.Time
	PublishedBy *uint
}

// Apply returns the bookkeeping after t. TransitionNone keeps current as is.
func (t Transition) Apply(current Publication, actorID uint, now time.Time) Publication {
	switch t {
	case TransitionPublish:
		at := now.UTC()
		by := actorID
		return Publication{PublishedAt: &at, PublishedBy: &by}
	case TransitionUnpublish:
		return Publication{}
	default:
		return current
	}
}
