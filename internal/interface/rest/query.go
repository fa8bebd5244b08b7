package rest

import (
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/present/rest/presenter"
)

const dateLayout = "2006-01-02"

// date accepts a calendar day or an RFC 3339 timestamp.
type date struct {
	time.Time
}

// parseDate returns midnight UTC of the calendar day written in s. A
// timestamp keeps the day of its own offset, so 2024-01-01T00:30:00+02:00
// is 2024-01-01.
func parseDate(s string) (time.Time, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
}

func (d *date) UnmarshalJSON(b []byte) error {
	s, err := strconv.Unquote(string(b))
	if err != nil {
		return err
	}
	t, err := parseDate(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func (d *date) ptr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

func (d *date) value() time.Time {
	if d == nil {
		return time.Time{}
	}
	return d.Time
}

// idParams are the path parameters that carry row ids.
var idParams = map[string]bool{"id": true, "entityId": true, "valueId": true}

// parseID returns the canonical form of a UUID or a ValidationError naming field.
func parseID(field, s string) (string, error) {
	id, err := uuid.Parse(strings.TrimSpace(s))
	if err != nil {
		return "", domain.Invalid(field, "must be a UUID")
	}
	return id.String(), nil
}

// validPathIDs rejects malformed ids before they reach a query, and rewrites
// them into canonical form.
func validPathIDs(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		names := c.ParamNames()
		values := c.ParamValues()
		for i, name := range names {
			if !idParams[name] || i >= len(values) {
				continue
			}
			id, err := parseID(name, values[i])
			if err != nil {
				return presenter.Error(c, err)
			}
			values[i] = id
		}
		c.SetParamValues(values...)
		return next(c)
	}
}

// queryParser reads typed query parameters and keeps the first failure.
type queryParser struct {
	c   echo.Context
	err error
}

func newQueryParser(c echo.Context) *queryParser {
	return &queryParser{c: c}
}

func (q *queryParser) fail(name, reason string) {
	if q.err == nil {
		q.err = domain.Invalid(name, reason)
	}
}

func (q *queryParser) str(name string) string {
	return strings.TrimSpace(q.c.QueryParam(name))
}

// list accepts both repeated parameters and comma separated values.
func (q *queryParser) list(name string) []string {
	var out []string
	for _, raw := range q.c.QueryParams()[name] {
		for _, v := range strings.Split(raw, ",") {
			if v = strings.TrimSpace(v); v != "" {
				out = append(out, v)
			}
		}
	}
	return out
}

// id reads an optional UUID parameter.
func (q *queryParser) id(name string) string {
	s := q.str(name)
	if s == "" {
		return ""
	}
	id, err := parseID(name, s)
	if err != nil {
		q.fail(name, "must be a UUID")
		return ""
	}
	return id
}

func (q *queryParser) ids(name string) []string {
	raw := q.list(name)
	for i, s := range raw {
		id, err := parseID(name, s)
		if err != nil {
			q.fail(name, "must be a list of UUIDs")
			return nil
		}
		raw[i] = id
	}
	return raw
}

func (q *queryParser) integer(name string) int {
	s := q.str(name)
	if s == "" {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		q.fail(name, "must be an integer")
	}
	return v
}

func (q *queryParser) boolean(name string) *bool {
	s := q.str(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseBool(s)
	if err != nil {
		q.fail(name, "must be true or false")
		return nil
	}
	return &v
}

func (q *queryParser) number(name string) *float64 {
	s := q.str(name)
	if s == "" {
		return nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		q.fail(name, "must be a number")
		return nil
	}
	return &v
}

func (q *queryParser) day(name string) *time.Time {
	s := q.str(name)
	if s == "" {
		return nil
	}
	t, err := parseDate(s)
	if err != nil {
		q.fail(name, "must be YYYY-MM-DD or RFC 3339")
		return nil
	}
	return &t
}

func (q *queryParser) asOf() time.Time {
	if t := q.day("asOf"); t != nil {
		return *t
	}
	return time.Time{}
}

func (q *queryParser) dateRange(prefix string) domain.DateRange {
	return domain.DateRange{From: q.day(prefix + "From"), To: q.day(prefix + "To")}
}

func (q *queryParser) percentRange(prefix string) domain.PercentRange {
	return domain.PercentRange{Min: q.number("min" + prefix), Max: q.number("max" + prefix)}
}

func (q *queryParser) scope() domain.Scope {
	s := domain.Scope{}
	if v := q.boolean("includeInactive"); v != nil {
		s.IncludeInactive = *v
	}
	if v := q.boolean("includeDeleted"); v != nil {
		s.IncludeDeleted = *v
	}
	return s
}

func (q *queryParser) pagination() domain.Pagination {
	return domain.Pagination{
		Page:      q.integer("page"),
		PageSize:  q.integer("pageSize"),
		SortBy:    q.str("sortBy"),
		SortOrder: domain.SortOrder(q.str("sortOrder")),
	}
}

func typed[T ~string](in []string) []T {
	if len(in) == 0 {
		return nil
	}
	out := make([]T, len(in))
	for i, v := range in {
		out[i] = T(v)
	}
	return out
}

func (q *queryParser) relationshipFilter() domain.RelationshipFilter {
	return domain.RelationshipFilter{
		Scope:             q.scope(),
		PrimaryIDs:        q.ids("primaryIds"),
		RelatedIDs:        q.ids("relatedIds"),
		EntityIDs:         q.ids("entityIds"),
		RelationshipTypes: typed[domain.RelationshipType](q.list("relationshipTypes")),
		Verified:          q.boolean("verified"),
		Temporal:          domain.TemporalState(q.str("temporal")),
		EffectiveFrom:     q.dateRange("effectiveFrom"),
		EffectiveTo:       q.dateRange("effectiveTo"),
		CreatedAt:         q.dateRange("created"),
		Ownership:         q.percentRange("Ownership"),
		CreatedBy:         q.ids("createdBy"),
		Search:            q.str("search"),
		AsOf:              q.asOf(),
	}
}

func (q *queryParser) associationFilter() domain.AssociationFilter {
	return domain.AssociationFilter{
		Scope:                        q.scope(),
		OrganizationIDs:              q.ids("organizationIds"),
		IndividualIDs:                q.ids("individualIds"),
		RelationshipTypes:            typed[domain.RelationshipType](q.list("relationshipTypes")),
		OwnershipTypes:               typed[domain.OwnershipType](q.list("ownershipTypes")),
		RiskLevels:                   typed[domain.RiskLevel](q.list("riskLevels")),
		ControlLevels:                typed[domain.ControlLevel](q.list("controlLevels")),
		VerificationStatuses:         typed[domain.VerificationStatus](q.list("verificationStatuses")),
		IsBeneficialOwner:            q.boolean("isBeneficialOwner"),
		IsUltimateBeneficialOwner:    q.boolean("isUltimateBeneficialOwner"),
		IsKeyManagementPersonnel:     q.boolean("isKeyManagementPersonnel"),
		IsAuthorizedSignatory:        q.boolean("isAuthorizedSignatory"),
		HasSigningAuthority:          q.boolean("hasSigningAuthority"),
		IsPEP:                        q.boolean("isPep"),
		IsSanctionsRelated:           q.boolean("isSanctionsRelated"),
		RequiresEnhancedDueDiligence: q.boolean("requiresEnhancedDueDiligence"),
		SignificantControl:           q.boolean("significantControl"),
		HighRisk:                     q.boolean("highRisk"),
		NeedsReview:                  q.boolean("needsReview"),
		Temporal:                     domain.TemporalState(q.str("temporal")),
		EffectiveFrom:                q.dateRange("effectiveFrom"),
		EffectiveTo:                  q.dateRange("effectiveTo"),
		CreatedAt:                    q.dateRange("created"),
		Ownership:                    q.percentRange("Ownership"),
		Voting:                       q.percentRange("Voting"),
		CreatedBy:                    q.ids("createdBy"),
		Search:                       q.str("search"),
		AsOf:                         q.asOf(),
	}
}

func (q *queryParser) entityFilter() domain.EntityFilter {
	return domain.EntityFilter{
		Scope:             q.scope(),
		EntityTypes:       typed[domain.EntityType](q.list("entityTypes")),
		Statuses:          typed[domain.EntityStatus](q.list("statuses")),
		RiskLevels:        typed[domain.RiskLevel](q.list("riskLevels")),
		ScreeningStatuses: typed[domain.ScreeningStatus](q.list("screeningStatuses")),
		CreatedAt:         q.dateRange("created"),
		Search:            q.str("search"),
	}
}

func (q *queryParser) listFilter() domain.ListFilter {
	f := domain.ListFilter{
		Types:  typed[domain.ListType](q.list("types")),
		Scope:  q.str("scope"),
		Search: q.str("search"),
	}
	if v := q.boolean("includeInactive"); v != nil {
		f.IncludeInactive = *v
	}
	return f
}
