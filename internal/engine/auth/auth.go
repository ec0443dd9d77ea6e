package auth

import (
	"fmt"
	"sort"

	"atelier/internal/domain"
)

// Affordances a role unlocks in the UI. They are advisory: callers use them
// to show or hide actions, nothing in the engine enforces them.
const (
	ProjectCreate       = "project.create"
	ProjectStatusChange = "project.status.change"
	MeasurementEdit     = "measurement.edit"
	AttachmentEdit      = "attachment.edit"
	TaskEdit            = "task.edit"
	DeliveryPropose     = "delivery.propose"
	DeliveryValidate    = "delivery.validate"
	DeliveryProofUpload = "delivery.proof.upload"
	StockEdit           = "stock.edit"
	UserManage          = "user.manage"
)

var roleAffordances = map[domain.Role][]string{
	domain.RoleAdmin: {
		ProjectCreate, ProjectStatusChange, MeasurementEdit, AttachmentEdit, TaskEdit,
		DeliveryPropose, DeliveryValidate, DeliveryProofUpload, StockEdit, UserManage,
	},
	domain.RoleCommercial: {
		ProjectCreate, ProjectStatusChange, MeasurementEdit, AttachmentEdit,
		DeliveryPropose, DeliveryValidate,
	},
	domain.RoleAtelier: {
		ProjectStatusChange, TaskEdit, AttachmentEdit, StockEdit,
	},
	domain.RoleLivraison: {
		ProjectStatusChange, DeliveryPropose, DeliveryProofUpload,
	},
}

// ForbiddenError reports a missing affordance.
type ForbiddenError struct {
	Role       domain.Role
	Affordance string
}

func (e ForbiddenError) Error() string {
	return fmt.Sprintf("role %s lacks %s", e.Role, e.Affordance)
}

// Can reports whether the role unlocks the affordance.
func Can(role domain.Role, affordance string) bool {
	for _, a := range roleAffordances[role] {
		if a == affordance {
			return true
		}
	}
	return false
}

// Check is Can returning a ForbiddenError.
func Check(role domain.Role, affordance string) error {
	if Can(role, affordance) {
		return nil
	}
	return ForbiddenError{Role: role, Affordance: affordance}
}

// Affordances lists what a role unlocks, sorted.
func Affordances(role domain.Role) []string {
	out := append([]string(nil), roleAffordances[role]...)
	sort.Strings(out)
	return out
}
