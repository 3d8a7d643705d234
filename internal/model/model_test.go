package model

import "testing"

func TestEnums(t *testing.T) {
	t.Run("phases", func(t *testing.T) {
		for _, p := range []string{PhasePlanner, PhaseLibrarian, PhaseMentor} {
			if !ValidPhase(p) {
				t.Errorf("ValidPhase(%q) = false, want true", p)
			}
		}
		for _, p := range []string{"", "PLANNER", "review", "archived"} {
			if ValidPhase(p) {
				t.Errorf("ValidPhase(%q) = true, want false", p)
			}
		}
	})

	t.Run("statuses", func(t *testing.T) {
		for _, s := range []string{StatusDraft, StatusInProgress, StatusCompleted} {
			if !ValidStatus(s) {
				t.Errorf("ValidStatus(%q) = false, want true", s)
			}
		}
		if ValidStatus("archived") {
			t.Error("ValidStatus(\"archived\") = true, want false")
		}
	})

	t.Run("roles", func(t *testing.T) {
		for _, r := range []string{RoleUser, RoleAssistant, RoleSystem} {
			if !ValidRole(r) {
				t.Errorf("ValidRole(%q) = false, want true", r)
			}
		}
		if ValidRole("bot") {
			t.Error("ValidRole(\"bot\") = true, want false")
		}
	})
}

func TestPrincipal(t *testing.T) {
	svc := ServicePrincipal()
	if !svc.Service || svc.UserID != "" {
		t.Errorf("ServicePrincipal() = %+v, want service identity without user id", svc)
	}
	usr := UserPrincipal("u-1")
	if usr.Service || usr.UserID != "u-1" {
		t.Errorf("UserPrincipal(\"u-1\") = %+v", usr)
	}
}
