// Package policy holds the authorization rules for the job board.
// Every predicate is pure: it looks only at the principal and, where given,
// the target's owner.
package policy

import (
	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/model"
)

// Principal is the authenticated caller. The zero value is anonymous.
type Principal struct {
	ID   uint
	Role model.Role
}

// Anonymous is the principal used when no credentials were presented.
var Anonymous = Principal{}

// Authenticated reports whether the principal resolved to a user.
func (p Principal) Authenticated() bool {
	return p.ID != 0
}

func (p Principal) Is(role model.Role) bool {
	return p.Authenticated() && p.Role == role
}

// Owned is implemented by entities that belong to one principal.
type Owned interface {
	OwnedBy() uint
}

func owns(p Principal, target Owned) bool {
	return p.Authenticated() && target != nil && target.OwnedBy() == p.ID
}

func CanManageCategories(p Principal) bool {
	return p.Is(model.RoleAdmin)
}

func CanCreatePosting(p Principal) bool {
	return p.Is(model.RoleEmployer) || p.Is(model.RoleAdmin)
}

// CanModifyPosting allows admins and the owning employer.
func CanModifyPosting(p Principal, posting Owned) bool {
	return p.Is(model.RoleAdmin) || owns(p, posting)
}

func CanApply(p Principal) bool {
	return p.Is(model.RoleJobSeeker)
}

// CanViewPostingApplications allows admins and the employer that owns the posting.
func CanViewPostingApplications(p Principal, posting Owned) bool {
	return p.Is(model.RoleAdmin) || (p.Is(model.RoleEmployer) && owns(p, posting))
}

// CanUpdateApplicationStatus applies the posting rule to the application's job owner.
func CanUpdateApplicationStatus(p Principal, application Owned) bool {
	return CanViewPostingApplications(p, application)
}

// CanReviewApplications is the role gate in front of employer-scoped application
// endpoints, before any particular posting is known.
func CanReviewApplications(p Principal) bool {
	return p.Is(model.RoleEmployer) || p.Is(model.RoleAdmin)
}

func CanToggleSavedJob(p Principal) bool {
	return p.Authenticated()
}

func CanViewStats(p Principal) bool {
	return CanReviewApplications(p)
}

// Require turns a predicate result into an error: unauthenticated callers get
// Unauthorized, everyone else Forbidden.
func Require(p Principal, allowed bool) error {
	if !p.Authenticated() {
		return apperrors.Unauthorized("")
	}
	if !allowed {
		return apperrors.Forbidden("")
	}
	return nil
}

// RequireMsg is Require with a custom forbidden message.
func RequireMsg(p Principal, allowed bool, msg string) error {
	if !p.Authenticated() {
		return apperrors.Unauthorized("")
	}
	if !allowed {
		return apperrors.Forbidden(msg)
	}
	return nil
}

// RequireAuthenticated fails with Unauthorized for anonymous callers.
func RequireAuthenticated(p Principal) error {
	return Require(p, true)
}
