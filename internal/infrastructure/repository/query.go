package repository

import (
	"sort"
	"strings"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/infrastructure/database/models"
)

// sortColumns maps an allowed sort field to its column.
type sortColumns map[string]string

func (s sortColumns) fields() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// paginate counts q, then loads one page ordered by the requested column with
// id as a tie-breaker so pages never overlap.
func paginate[M any](q *gorm.DB, p domain.Pagination, sorts sortColumns) ([]M, int64, domain.Pagination, error) {
	p, err := p.Normalize(sorts.fields())
	if err != nil {
		return nil, 0, p, err
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, p, err
	}

	rows := []M{}
	if int64(p.Offset()) >= total {
		return rows, total, p, nil
	}

	err = q.Session(&gorm.Session{}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: sorts[p.SortBy]}, Desc: p.SortOrder == domain.SortDesc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}}).
		Offset(p.Offset()).
		Limit(p.PageSize).
		Find(&rows).Error
	return rows, total, p, err
}

// applyTenant keeps rows whose col references an entity of subscriberID.
func applyTenant(q *gorm.DB, col, subscriberID string) *gorm.DB {
	if subscriberID == "" {
		return q
	}
	owned := q.Session(&gorm.Session{NewDB: true}).
		Unscoped().
		Model(&models.Entity{}).
		Select("id").
		Where("subscriber_id = ?", subscriberID)
	return q.Where(col+" IN (?)", owned)
}

func applyScope(q *gorm.DB, s domain.Scope) *gorm.DB {
	if s.IncludeDeleted {
		q = q.Unscoped()
	}
	if !s.IncludeInactive {
		q = q.Where("is_active = ?", true)
	}
	return q
}

// applyTemporal narrows by effective range; fromCol/toCol name the range columns.
func applyTemporal(q *gorm.DB, state domain.TemporalState, fromCol, toCol string, asOf time.Time) *gorm.DB {
	day := domain.Day(asOf)
	switch state {
	case domain.TemporalCurrent:
		return q.Where("is_active = ?", true).
			Where(fromCol+" <= ?", day).
			Where("("+toCol+" IS NULL OR "+toCol+" >= ?)", day)
	case domain.TemporalExpired:
		return q.Where(toCol+" < ?", day)
	case domain.TemporalFuture:
		return q.Where(fromCol+" > ?", day)
	}
	return q
}

func applyDateRange(q *gorm.DB, col string, r domain.DateRange) *gorm.DB {
	if r.From != nil {
		q = q.Where(col+" >= ?", *r.From)
	}
	if r.To != nil {
		q = q.Where(col+" <= ?", *r.To)
	}
	return q
}

func applyPercentRange(q *gorm.DB, col string, r domain.PercentRange) *gorm.DB {
	if r.Min != nil {
		q = q.Where(col+" >= ?", *r.Min)
	}
	if r.Max != nil {
		q = q.Where(col+" <= ?", *r.Max)
	}
	return q
}

func applyIn[T ~string](q *gorm.DB, col string, values []T) *gorm.DB {
	if len(values) == 0 {
		return q
	}
	return q.Where(col+" IN ?", values)
}

func applyBool(q *gorm.DB, col string, v *bool) *gorm.DB {
	if v == nil {
		return q
	}
	return q.Where(col+" = ?", *v)
}

// applyPredicate adds expr, or its negation, when v is set.
func applyPredicate(q *gorm.DB, expr string, v *bool, args ...any) *gorm.DB {
	if v == nil {
		return q
	}
	if *v {
		return q.Where("("+expr+")", args...)
	}
	return q.Where("NOT ("+expr+")", args...)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// applySearch matches term as a case-insensitive substring of any column.
func applySearch(q *gorm.DB, term string, cols ...string) *gorm.DB {
	term = strings.TrimSpace(term)
	if term == "" || len(cols) == 0 {
		return q
	}
	pattern := "%" + likeEscaper.Replace(term) + "%"
	parts := make([]string, len(cols))
	args := make([]any, len(cols))
	for i, c := range cols {
		parts[i] = c + " ILIKE ?"
		args[i] = pattern
	}
	return q.Where("("+strings.Join(parts, " OR ")+")", args...)
}

func ptrOrNil(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func deletedAt(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}
