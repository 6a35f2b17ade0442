package handlers

import (
	"fmt"
	"strconv"
	"time"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/models"
	"github.com/diewo77/go-school/internal/store"
	"github.com/diewo77/go-school/validation"
	"gorm.io/gorm"
)

func day(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func dayPtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return day(*t)
}

func cents(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	return fmt.Sprintf("%s%d.%02d", sign, n/100, n%100)
}

func uintString(n uint) string { return strconv.FormatUint(uint64(n), 10) }

// Resources builds the handlers of every school table, in menu order.
func Resources(db *gorm.DB, authz Authorizer, v *validation.Validator) []ResourceHandler {
	return []ResourceHandler{
		NewResource(gate.TableStudents,
			store.NewTable[models.Student](db, store.TableOptions{
				Preload: []string{"Class"},
				Search:  []string{"full_name", "admission_no"},
				Order:   "full_name ASC",
				Owner:   store.OwnedByStudentAccount,
			}),
			[]Column[models.Student]{
				{"admission_no", func(s *models.Student) string { return s.AdmissionNo }},
				{"full_name", func(s *models.Student) string { return s.FullName }},
				{"class", func(s *models.Student) string {
					if s.Class == nil {
						return ""
					}
					return s.Class.Name
				}},
				{"date_of_birth", func(s *models.Student) string { return dayPtr(s.DateOfBirth) }},
			}, authz, v),

		NewResource(gate.TableTeachers,
			store.NewTable[models.Teacher](db, store.TableOptions{
				Search: []string{"full_name", "email", "subject"},
				Order:  "full_name ASC",
			}),
			[]Column[models.Teacher]{
				{"full_name", func(t *models.Teacher) string { return t.FullName }},
				{"email", func(t *models.Teacher) string { return t.Email }},
				{"subject", func(t *models.Teacher) string { return t.Subject }},
				{"phone", func(t *models.Teacher) string { return t.Phone }},
			}, authz, v),

		NewResource(gate.TableClasses,
			store.NewTable[models.Class](db, store.TableOptions{
				Preload: []string{"Teacher"},
				Search:  []string{"name"},
				Order:   "grade ASC, name ASC",
			}),
			[]Column[models.Class]{
				{"name", func(c *models.Class) string { return c.Name }},
				{"grade", func(c *models.Class) string { return strconv.Itoa(c.Grade) }},
				{"teacher", func(c *models.Class) string {
					if c.Teacher == nil {
						return ""
					}
					return c.Teacher.FullName
				}},
			}, authz, v),

		NewResource(gate.TableAttendance,
			store.NewTable[models.Attendance](db, store.TableOptions{
				Preload: []string{"Student"},
				Search:  []string{"status", "note"},
				Order:   "day DESC, id DESC",
				Owner:   store.OwnedViaStudent,
			}),
			[]Column[models.Attendance]{
				{"day", func(a *models.Attendance) string { return day(a.Day) }},
				{"student", func(a *models.Attendance) string {
					if a.Student == nil {
						return uintString(a.StudentID)
					}
					return a.Student.FullName
				}},
				{"status", func(a *models.Attendance) string { return string(a.Status) }},
				{"note", func(a *models.Attendance) string { return a.Note }},
			}, authz, v),

		NewResource(gate.TableFees,
			store.NewTable[models.Fee](db, store.TableOptions{
				Preload: []string{"Student"},
				Search:  []string{"description"},
				Order:   "due_date DESC, id DESC",
				Owner:   store.OwnedViaStudent,
			}),
			[]Column[models.Fee]{
				{"student", func(f *models.Fee) string {
					if f.Student == nil {
						return uintString(f.StudentID)
					}
					return f.Student.FullName
				}},
				{"description", func(f *models.Fee) string { return f.Description }},
				{"amount", func(f *models.Fee) string { return cents(f.AmountCents) }},
				{"due_date", func(f *models.Fee) string { return day(f.DueDate) }},
				{"paid_at", func(f *models.Fee) string { return dayPtr(f.PaidAt) }},
			}, authz, v),

		NewResource(gate.TableNotices,
			store.NewTable[models.Notice](db, store.TableOptions{
				Search: []string{"title", "body"},
				Order:  "published_at DESC, id DESC",
			}),
			[]Column[models.Notice]{
				{"title", func(n *models.Notice) string { return n.Title }},
				{"audience", func(n *models.Notice) string { return n.Audience }},
				{"published_at", func(n *models.Notice) string { return dayPtr(n.PublishedAt) }},
			}, authz, v),

		NewResource(gate.TableTimetable,
			store.NewTable[models.TimetableEntry](db, store.TableOptions{
				Preload: []string{"Class"},
				Search:  []string{"subject", "room"},
				Order:   "weekday ASC, starts_at ASC",
			}),
			[]Column[models.TimetableEntry]{
				{"class", func(e *models.TimetableEntry) string {
					if e.Class == nil {
						return uintString(e.ClassID)
					}
					return e.Class.Name
				}},
				{"weekday", func(e *models.TimetableEntry) string { return strconv.Itoa(e.Weekday) }},
				{"time", func(e *models.TimetableEntry) string { return e.StartsAt + "-" + e.EndsAt }},
				{"subject", func(e *models.TimetableEntry) string { return e.Subject }},
				{"room", func(e *models.TimetableEntry) string { return e.Room }},
			}, authz, v),

		NewResource(gate.TableEnquiries,
			store.NewTable[models.Enquiry](db, store.TableOptions{
				Search: []string{"name", "email", "message"},
			}),
			[]Column[models.Enquiry]{
				{"name", func(e *models.Enquiry) string { return e.Name }},
				{"email", func(e *models.Enquiry) string { return e.Email }},
				{"phone", func(e *models.Enquiry) string { return e.Phone }},
				{"status", func(e *models.Enquiry) string { return e.Status }},
			}, authz, v),

		NewResource(gate.TableVisitors,
			store.NewTable[models.Visitor](db, store.TableOptions{
				Search: []string{"name", "purpose"},
				Order:  "arrived_at DESC",
			}),
			[]Column[models.Visitor]{
				{"name", func(x *models.Visitor) string { return x.Name }},
				{"purpose", func(x *models.Visitor) string { return x.Purpose }},
				{"arrived_at", func(x *models.Visitor) string { return x.ArrivedAt.Format("2006-01-02 15:04") }},
				{"left_at", func(x *models.Visitor) string { return dayPtr(x.LeftAt) }},
			}, authz, v),

		NewResource(gate.TableSalaries,
			store.NewTable[models.Salary](db, store.TableOptions{
				Preload: []string{"Teacher"},
				Search:  []string{"month"},
				Order:   "month DESC, id DESC",
			}),
			[]Column[models.Salary]{
				{"teacher", func(s *models.Salary) string {
					if s.Teacher == nil {
						return uintString(s.TeacherID)
					}
					return s.Teacher.FullName
				}},
				{"month", func(s *models.Salary) string { return s.Month }},
				{"amount", func(s *models.Salary) string { return cents(s.AmountCents) }},
				{"paid_at", func(s *models.Salary) string { return dayPtr(s.PaidAt) }},
			}, authz, v),
	}
}
