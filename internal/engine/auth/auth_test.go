package auth

import (
	"errors"
	"testing"

	"atelier/internal/domain"
)

func TestMeasurementEditLimitedToCommercialAndAdmin(t *testing.T) {
	for role, want := range map[domain.Role]bool{
		domain.RoleAdmin:      true,
		domain.RoleCommercial: true,
		domain.RoleAtelier:    false,
		domain.RoleLivraison:  false,
	} {
		if got := Can(role, MeasurementEdit); got != want {
			t.Fatalf("%s: expected %v got %v", role, want, got)
		}
	}
}

func TestCheck(t *testing.T) {
	err := Check(domain.RoleLivraison, UserManage)
	var fe ForbiddenError
	if !errors.As(err, &fe) || fe.Affordance != UserManage {
		t.Fatalf("expected forbidden error, got %v", err)
	}
	if err := Check(domain.RoleAdmin, UserManage); err != nil {
		t.Fatalf("admin should manage users: %v", err)
	}
	if got := Affordances(domain.Role("Guest")); len(got) != 0 {
		t.Fatalf("unknown role should unlock nothing, got %v", got)
	}
	aff := Affordances(domain.RoleLivraison)
	if len(aff) != 3 || aff[0] != DeliveryProofUpload {
		t.Fatalf("unexpected sorted affordances %v", aff)
	}
}
