package models

import (
	"time"

	"gorm.io/gorm"
)

// Class is a taught group of students.
type Class struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name      string         `gorm:"size:100;uniqueIndex;not null" json:"name" validate:"required,max=100"`
	Grade     int            `gorm:"not null" json:"grade" validate:"gte=0,lte=13"`
	TeacherID *uint          `gorm:"index" json:"teacher_id,omitempty"`
	Teacher   *Teacher       `gorm:"foreignKey:TeacherID" json:"teacher,omitempty" validate:"-"`
}

// Teacher is a member of the teaching staff.
type Teacher struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	// UserID links the teacher to a login, if any.
	UserID   *uint  `gorm:"uniqueIndex" json:"user_id,omitempty"`
	FullName string `gorm:"size:255;not null" json:"full_name" validate:"required,max=255"`
	Email    string `gorm:"size:255;uniqueIndex" json:"email" validate:"omitempty,email"`
	Phone    string `gorm:"size:50" json:"phone,omitempty" validate:"max=50"`
	Subject  string `gorm:"size:100" json:"subject,omitempty" validate:"max=100"`
}

// Student is an enrolled pupil. A student may sign in with their own account
// and may be followed by a parent account.
type Student struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	AdmissionNo  string         `gorm:"size:50;uniqueIndex;not null" json:"admission_no" validate:"required,max=50"`
	FullName     string         `gorm:"size:255;not null" json:"full_name" validate:"required,max=255"`
	DateOfBirth  *time.Time     `json:"date_of_birth,omitempty"`
	ClassID      *uint          `gorm:"index" json:"class_id,omitempty"`
	Class        *Class         `gorm:"foreignKey:ClassID" json:"class,omitempty" validate:"-"`
	UserID       *uint          `gorm:"index" json:"user_id,omitempty"`
	ParentUserID *uint          `gorm:"index" json:"parent_user_id,omitempty"`
}

// OwnedBy reports whether userID is the student or their parent.
func (s *Student) OwnedBy(userID uint) bool {
	return (s.UserID != nil && *s.UserID == userID) ||
		(s.ParentUserID != nil && *s.ParentUserID == userID)
}

// AttendanceStatus is the outcome recorded for a student on a day.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
	AttendanceExcused AttendanceStatus = "excused"
)

// Attendance is one student's presence on one day.
type Attendance struct {
	ID        uint             `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `gorm:"index" json:"deleted_at,omitempty"`
	StudentID uint             `gorm:"not null;uniqueIndex:idx_attendance_student_day" json:"student_id" validate:"required"`
	Student   *Student         `gorm:"foreignKey:StudentID" json:"student,omitempty" validate:"-"`
	Day       time.Time        `gorm:"type:date;not null;uniqueIndex:idx_attendance_student_day" json:"day" validate:"required"`
	Status    AttendanceStatus `gorm:"size:20;not null" json:"status" validate:"required,oneof=present absent late excused"`
	Note      string           `gorm:"size:500" json:"note,omitempty" validate:"max=500"`
}

// TableName keeps the table singular like the resource name.
func (Attendance) TableName() string { return "attendance" }

// OwnedBy defers to the student the record belongs to.
func (a *Attendance) OwnedBy(userID uint) bool {
	return a.Student != nil && a.Student.OwnedBy(userID)
}

// Fee is an amount billed to a student, in cents.
type Fee struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	StudentID   uint           `gorm:"index;not null" json:"student_id" validate:"required"`
	Student     *Student       `gorm:"foreignKey:StudentID" json:"student,omitempty" validate:"-"`
	Description string         `gorm:"size:255;not null" json:"description" validate:"required,max=255"`
	AmountCents int64          `gorm:"not null" json:"amount_cents" validate:"gt=0"`
	DueDate     time.Time      `gorm:"type:date;not null" json:"due_date" validate:"required"`
	PaidAt      *time.Time     `json:"paid_at,omitempty"`
}

// OwnedBy defers to the student the fee is billed to.
func (f *Fee) OwnedBy(userID uint) bool {
	return f.Student != nil && f.Student.OwnedBy(userID)
}

// Paid reports whether the fee has been settled.
func (f *Fee) Paid() bool { return f.PaidAt != nil }

// Notice is an announcement shown on dashboards.
type Notice struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Title       string         `gorm:"size:255;not null" json:"title" validate:"required,max=255"`
	Body        string         `gorm:"type:text" json:"body"`
	Audience    string         `gorm:"size:32;not null;default:'all'" json:"audience" validate:"omitempty,oneof=all super_admin admin teacher student parent"`
	PublishedAt *time.Time     `gorm:"index" json:"published_at,omitempty"`
}

// TimetableEntry is one weekly slot of a class.
type TimetableEntry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	ClassID   uint           `gorm:"index;not null" json:"class_id" validate:"required"`
	Class     *Class         `gorm:"foreignKey:ClassID" json:"class,omitempty" validate:"-"`
	Weekday   int            `gorm:"not null" json:"weekday" validate:"gte=1,lte=7"`
	StartsAt  string         `gorm:"size:5;not null" json:"starts_at" validate:"required,datetime=15:04"`
	EndsAt    string         `gorm:"size:5;not null" json:"ends_at" validate:"required,datetime=15:04"`
	Subject   string         `gorm:"size:100;not null" json:"subject" validate:"required,max=100"`
	TeacherID *uint          `gorm:"index" json:"teacher_id,omitempty"`
	Room      string         `gorm:"size:50" json:"room,omitempty" validate:"max=50"`
}

// TableName keeps the table named like the resource.
func (TimetableEntry) TableName() string { return "timetable" }

// Enquiry is an admission request from a prospective family.
type Enquiry struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name      string         `gorm:"size:255;not null" json:"name" validate:"required,max=255"`
	Email     string         `gorm:"size:255" json:"email,omitempty" validate:"omitempty,email"`
	Phone     string         `gorm:"size:50" json:"phone,omitempty" validate:"max=50"`
	Message   string         `gorm:"type:text" json:"message,omitempty"`
	Status    string         `gorm:"size:20;not null;default:'open'" json:"status" validate:"omitempty,oneof=open contacted closed"`
}

// Visitor is an entry in the front-desk log.
type Visitor struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	Name      string         `gorm:"size:255;not null" json:"name" validate:"required,max=255"`
	Purpose   string         `gorm:"size:255" json:"purpose,omitempty" validate:"max=255"`
	ArrivedAt time.Time      `gorm:"not null" json:"arrived_at" validate:"required"`
	LeftAt    *time.Time     `json:"left_at,omitempty"`
}

// Salary is a monthly payment to a teacher, in cents.
type Salary struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
	TeacherID   uint           `gorm:"not null;uniqueIndex:idx_salary_teacher_month" json:"teacher_id" validate:"required"`
	Teacher     *Teacher       `gorm:"foreignKey:TeacherID" json:"teacher,omitempty" validate:"-"`
	Month       string         `gorm:"size:7;not null;uniqueIndex:idx_salary_teacher_month" json:"month" validate:"required,datetime=2006-01"`
	AmountCents int64          `gorm:"not null" json:"amount_cents" validate:"gt=0"`
	PaidAt      *time.Time     `json:"paid_at,omitempty"`
}

// All lists every model for migrations, in dependency order.
func All() []any {
	return []any{
		&User{}, &Profile{}, &Session{},
		&Teacher{}, &Class{}, &Student{},
		&Attendance{}, &Fee{}, &Notice{}, &TimetableEntry{},
		&Enquiry{}, &Visitor{}, &Salary{},
	}
}
