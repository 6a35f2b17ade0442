package store

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/go-school/gate"
	"github.com/diewo77/go-school/internal/models"
	"gorm.io/gorm"
)

// Dashboard reads the summaries shown on the role dashboards.
type Dashboard struct {
	DB *gorm.DB
}

func NewDashboard(db *gorm.DB) *Dashboard {
	return &Dashboard{DB: db}
}

var tableModels = map[string]any{
	gate.TableStudents:   &models.Student{},
	gate.TableTeachers:   &models.Teacher{},
	gate.TableClasses:    &models.Class{},
	gate.TableAttendance: &models.Attendance{},
	gate.TableFees:       &models.Fee{},
	gate.TableNotices:    &models.Notice{},
	gate.TableTimetable:  &models.TimetableEntry{},
	gate.TableEnquiries:  &models.Enquiry{},
	gate.TableVisitors:   &models.Visitor{},
	gate.TableSalaries:   &models.Salary{},
}

// Counts returns the number of live rows of each named table.
func (d *Dashboard) Counts(ctx context.Context, tables []string) (map[string]int64, error) {
	out := make(map[string]int64, len(tables))
	for _, name := range tables {
		m, ok := tableModels[name]
		if !ok {
			return nil, fmt.Errorf("unknown table %q", name)
		}
		var n int64
		if err := d.DB.WithContext(ctx).Model(m).Count(&n).Error; err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out[name] = n
	}
	return out, nil
}

// Notices returns the latest published notices addressed to everyone or to role.
func (d *Dashboard) Notices(ctx context.Context, role gate.Role, limit int) ([]models.Notice, error) {
	var out []models.Notice
	err := d.DB.WithContext(ctx).
		Where("published_at IS NOT NULL AND published_at <= ?", time.Now()).
		Where("audience IN ?", []string{"all", string(role)}).
		Order("published_at DESC").
		Limit(limit).
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list notices: %w", err)
	}
	return out, nil
}
