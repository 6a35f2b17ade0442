package db

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/models"
	"github.com/diewo77/go-school/internal/store"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

// Fixtures is demo data for an empty school. Rows refer to each other by
// email (accounts, teachers), name (classes) or admission number.
type Fixtures struct {
	Accounts []FixtureAccount `yaml:"accounts"`
	Teachers []FixtureTeacher `yaml:"teachers"`
	Classes  []FixtureClass   `yaml:"classes"`
	Students []FixtureStudent `yaml:"students"`
	Notices  []FixtureNotice  `yaml:"notices"`
}

type FixtureAccount struct {
	Email    string `yaml:"email"`
	Name     string `yaml:"name"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
	Approved bool   `yaml:"approved"`
}

type FixtureTeacher struct {
	FullName string `yaml:"full_name"`
	Email    string `yaml:"email"`
	Subject  string `yaml:"subject"`
	// Account is the email of the teacher's login, if any.
	Account string `yaml:"account"`
}

type FixtureClass struct {
	Name    string `yaml:"name"`
	Grade   int    `yaml:"grade"`
	Teacher string `yaml:"teacher"` // teacher email
}

type FixtureStudent struct {
	AdmissionNo string `yaml:"admission_no"`
	FullName    string `yaml:"full_name"`
	Class       string `yaml:"class"`
	Account     string `yaml:"account"`
	Parent      string `yaml:"parent"`
}

type FixtureNotice struct {
	Title     string `yaml:"title"`
	Body      string `yaml:"body"`
	Audience  string `yaml:"audience"`
	Published bool   `yaml:"published"`
}

// ParseFixtures decodes YAML fixtures. Unknown keys are rejected.
func ParseFixtures(r io.Reader) (*Fixtures, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	var f Fixtures
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &f, nil
}

// LoadFixtures inserts f in one transaction. Any failure, a duplicate
// included, leaves the database untouched.
func LoadFixtures(ctx context.Context, db *gorm.DB, f *Fixtures) (map[string]int, error) {
	counts := map[string]int{}
	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		accounts := map[string]uint{}
		users := store.NewUsers(tx)
		for _, a := range f.Accounts {
			role := gate.ParseRole(a.Role)
			if !role.Known() {
				return fmt.Errorf("account %s: unknown role %q", a.Email, a.Role)
			}
			u, err := users.Create(ctx, store.NewAccount{
				Email: a.Email, Password: a.Password, FullName: a.Name, Role: role, Approved: a.Approved,
			})
			if err != nil {
				return fmt.Errorf("account %s: %w", a.Email, err)
			}
			accounts[u.Email] = u.ID
		}
		counts["accounts"] = len(f.Accounts)

		lookupAccount := func(email string) (*uint, error) {
			if email == "" {
				return nil, nil
			}
			id, ok := accounts[models.NormalizeEmail(email)]
			if !ok {
				return nil, fmt.Errorf("unknown account %s", email)
			}
			return &id, nil
		}

		teachers := map[string]uint{}
		for _, t := range f.Teachers {
			uid, err := lookupAccount(t.Account)
			if err != nil {
				return fmt.Errorf("teacher %s: %w", t.FullName, err)
			}
			row := models.Teacher{FullName: t.FullName, Email: t.Email, Subject: t.Subject, UserID: uid}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("teacher %s: %w", t.FullName, err)
			}
			teachers[t.Email] = row.ID
		}
		counts[gate.TableTeachers] = len(f.Teachers)

		classes := map[string]uint{}
		for _, c := range f.Classes {
			row := models.Class{Name: c.Name, Grade: c.Grade}
			if c.Teacher != "" {
				id, ok := teachers[c.Teacher]
				if !ok {
					return fmt.Errorf("class %s: unknown teacher %s", c.Name, c.Teacher)
				}
				row.TeacherID = &id
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("class %s: %w", c.Name, err)
			}
			classes[c.Name] = row.ID
		}
		counts[gate.TableClasses] = len(f.Classes)

		for _, s := range f.Students {
			row := models.Student{AdmissionNo: s.AdmissionNo, FullName: s.FullName}
			if s.Class != "" {
				id, ok := classes[s.Class]
				if !ok {
					return fmt.Errorf("student %s: unknown class %s", s.AdmissionNo, s.Class)
				}
				row.ClassID = &id
			}
			var err error
			if row.UserID, err = lookupAccount(s.Account); err != nil {
				return fmt.Errorf("student %s: %w", s.AdmissionNo, err)
			}
			if row.ParentUserID, err = lookupAccount(s.Parent); err != nil {
				return fmt.Errorf("student %s: %w", s.AdmissionNo, err)
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("student %s: %w", s.AdmissionNo, err)
			}
		}
		counts[gate.TableStudents] = len(f.Students)

		now := time.Now()
		for _, n := range f.Notices {
			row := models.Notice{Title: n.Title, Body: n.Body, Audience: n.Audience}
			if row.Audience == "" {
				row.Audience = "all"
			}
			if n.Published {
				row.PublishedAt = &now
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("notice %q: %w", n.Title, err)
			}
		}
		counts[gate.TableNotices] = len(f.Notices)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return counts, nil
}
