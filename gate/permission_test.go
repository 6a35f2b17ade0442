package gate_test

import (
	"testing"

	"github.com/diewo77/go-school/gate"
)

func TestPermission_NewPermission(t *testing.T) {
	perm := gate.NewPermission("students", gate.ActionCreate)
	if perm != "students:create" {
		t.Errorf("expected 'students:create', got '%s'", perm)
	}
}

func TestPermission_Parse(t *testing.T) {
	res, act := gate.Permission("fees:view").Parse()
	if res != "fees" {
		t.Errorf("expected resource 'fees', got '%s'", res)
	}
	if act != gate.ActionView {
		t.Errorf("expected action 'view', got '%s'", act)
	}
}

func TestPermission_Parse_Invalid(t *testing.T) {
	res, act := gate.Permission("invalid").Parse()
	if res != "" || act != "" {
		t.Errorf("expected empty strings, got '%s' and '%s'", res, act)
	}
}

func TestPermission_Matches(t *testing.T) {
	tests := []struct {
		name      string
		perm      gate.Permission
		requested gate.Permission
		want      bool
	}{
		{"exact", "students:create", "students:create", true},
		{"different action", "students:create", "students:delete", false},
		{"different resource", "students:create", "teachers:create", false},
		{"all", gate.PermissionAll, "salaries:delete", true},
		{"resource wildcard", "attendance:*", "attendance:update", true},
		{"resource wildcard other resource", "attendance:*", "fees:update", false},
		{"malformed never widens", "invalid", "invalid:view", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.perm.Matches(tt.requested); got != tt.want {
				t.Errorf("%s.Matches(%s) = %v, want %v", tt.perm, tt.requested, got, tt.want)
			}
		})
	}
}
