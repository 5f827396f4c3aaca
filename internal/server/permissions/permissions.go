// Package permissions decides whether one principal may act on another
// principal's account.
package permissions

import (
	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// CanManage reports whether actor may manage target.
//
// A principal always manages itself. SuperAdmin manages everyone, Admin
// manages Standard and Banned accounts, nobody else manages anyone.
func CanManage(actor, target models.Principal) bool {
	if actor.ID == target.ID {
		return true
	}
	switch actor.Level {
	case models.SuperAdmin:
		return true
	case models.Admin:
		return target.Level <= models.Standard
	default:
		return false
	}
}

// AssertCanManage is CanManage returning common.ErrPermissionDenied on refusal.
func AssertCanManage(actor, target models.Principal) error {
	if !CanManage(actor, target) {
		return common.ErrPermissionDenied
	}
	return nil
}
