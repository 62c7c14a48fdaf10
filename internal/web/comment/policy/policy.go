// Package policy decides which actor may mutate which comment.
package policy

import (
	"github.com/Laisky/errors/v2"

	"github.com/Laisky/laisky-newsroom/internal/library/models"
	"github.com/Laisky/laisky-newsroom/internal/web/comment/model"
)

// Action mutation attempted on a comment
type Action string

const (
	// ActionCreate posts a root comment or a reply
	ActionCreate Action = "create"
	// ActionEdit replaces the content of a comment
	ActionEdit Action = "edit"
	// ActionDelete hides a comment from its thread
	ActionDelete Action = "delete"
)

// Decision result of a policy evaluation
type Decision bool

const (
	// Deny the actor may not perform the action
	Deny Decision = false
	// Allow the actor may perform the action
	Allow Decision = true
)

func (d Decision) String() string {
	if d == Allow {
		return "allow"
	}
	return "deny"
}

// Evaluate decides whether actor may perform action on cmt.
//
// cmt is ignored for ActionCreate and may be nil.
// Editing is reserved to the author, administrators included in the deny.
// Deleting is allowed to the author and to administrators.
func Evaluate(actor models.Actor, cmt *model.Comment, action Action) Decision {
	if actor.IsAnonymous() {
		return Deny
	}

	switch action {
	case ActionCreate:
		return Allow
	case ActionEdit:
		return Decision(cmt != nil && cmt.AuthorID == actor.ID)
	case ActionDelete:
		if cmt == nil {
			return Deny
		}
		return Decision(cmt.AuthorID == actor.ID || actor.IsAdmin())
	default:
		return Deny
	}
}

// Authorize is Evaluate that returns a wrapped model.ErrForbidden on deny
func Authorize(actor models.Actor, cmt *model.Comment, action Action) error {
	if Evaluate(actor, cmt, action) == Allow {
		return nil
	}

	if cmt == nil {
		return errors.Wrapf(model.ErrForbidden, "actor %d cannot %s comment", actor.ID, action)
	}
	return errors.Wrapf(model.ErrForbidden, "actor %d cannot %s comment %s", actor.ID, action, cmt.ID)
}
