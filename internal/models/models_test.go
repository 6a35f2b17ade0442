package models

import (
	"testing"

	"github.com/diewo77/go-school/gate"
)

func ptr(v uint) *uint { return &v }

func TestStudent_OwnedBy(t *testing.T) {
	s := &Student{UserID: ptr(3), ParentUserID: ptr(9)}
	tests := []struct {
		user uint
		want bool
	}{
		{3, true},
		{9, true},
		{4, false},
	}
	for _, tt := range tests {
		if got := s.OwnedBy(tt.user); got != tt.want {
			t.Errorf("OwnedBy(%d) = %v, want %v", tt.user, got, tt.want)
		}
	}
	if (&Student{}).OwnedBy(0) {
		t.Error("student without accounts should not be owned")
	}
}

func TestFeeAndAttendance_OwnedByStudent(t *testing.T) {
	st := &Student{ParentUserID: ptr(5)}
	if !(&Fee{Student: st}).OwnedBy(5) {
		t.Error("parent should own the fee")
	}
	if (&Fee{}).OwnedBy(5) {
		t.Error("fee without loaded student should not be owned")
	}
	if !(&Attendance{Student: st}).OwnedBy(5) {
		t.Error("parent should own the attendance record")
	}
}

func TestProfile_Gate(t *testing.T) {
	p := &Profile{UserID: 2, FullName: "Ada", Role: "Teacher", IsApproved: true}
	g := p.Gate()
	if g.Role != gate.RoleTeacher || !g.Approved || g.UserID != 2 {
		t.Errorf("unexpected gate profile %+v", g)
	}
	if (&Profile{Role: "headmaster"}).Gate().Role != gate.RoleUnknown {
		t.Error("unrecognised role should map to unknown")
	}
}

func TestProfile_Pending(t *testing.T) {
	if !(&Profile{}).Pending() {
		t.Error("new profile should be pending")
	}
	if (&Profile{IsApproved: true}).Pending() {
		t.Error("approved profile should not be pending")
	}
}

func TestNormalizeEmail(t *testing.T) {
	if got := NormalizeEmail("  Ada@Example.COM "); got != "ada@example.com" {
		t.Errorf("NormalizeEmail = %q", got)
	}
}
