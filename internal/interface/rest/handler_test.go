package rest

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/totegamma/kycgraph/internal/domain"
	"github.com/totegamma/kycgraph/internal/usecase"
)

const (
	tenantA  = "1a2b3c4d-0000-4000-8000-00000000000a"
	tenantB  = "1a2b3c4d-0000-4000-8000-00000000000b"
	testUser = "1a2b3c4d-0000-4000-8000-0000000000f1"
	orgID    = "5e6f7a8b-0000-4000-8000-000000000001"
	indID    = "5e6f7a8b-0000-4000-8000-000000000002"
)

type passTx struct{}

func (passTx) Do(ctx context.Context, fn func(ctx context.Context) error) error { return fn(ctx) }

type memEntities struct {
	rows map[string]domain.Entity
}

func (m *memEntities) Create(ctx context.Context, e domain.Entity) (domain.Entity, error) {
	e.ID = uuid.NewString()
	m.rows[e.ID] = e
	return e, nil
}

func (m *memEntities) Get(ctx context.Context, id string) (domain.Entity, error) {
	e, ok := m.rows[id]
	if !ok || e.DeletedAt != nil {
		return domain.Entity{}, domain.NotFoundError{Resource: "entity"}
	}
	return e, nil
}

func (m *memEntities) Lock(ctx context.Context, ids ...string) (map[string]domain.Entity, error) {
	out := map[string]domain.Entity{}
	for _, id := range ids {
		if e, ok := m.rows[id]; ok {
			out[id] = e
		}
	}
	return out, nil
}

func (m *memEntities) Find(ctx context.Context, f domain.EntityFilter, p domain.Pagination) (domain.Page[domain.Entity], error) {
	var items []domain.Entity
	for _, e := range m.rows {
		if e.SubscriberID == f.SubscriberID {
			items = append(items, e)
		}
	}
	return domain.NewPage(items, int64(len(items)), p), nil
}

func (m *memEntities) SoftDelete(ctx context.Context, id, by string, at time.Time) error {
	e := m.rows[id]
	e.DeletedAt = &at
	m.rows[id] = e
	return nil
}

func (m *memEntities) RecordScreening(context.Context, string, domain.ScreeningStatus, string, time.Time) error {
	return nil
}

func (m *memEntities) RecordRisk(context.Context, string, domain.RiskLevel, string, time.Time) error {
	return nil
}

type memAssociations struct {
	rows []domain.Association
}

func (m *memAssociations) Create(ctx context.Context, a domain.Association) (domain.Association, error) {
	a.ID = uuid.NewString()
	m.rows = append(m.rows, a)
	return a, nil
}

func (m *memAssociations) Get(ctx context.Context, id string) (domain.Association, error) {
	for _, a := range m.rows {
		if a.ID == id {
			return a, nil
		}
	}
	return domain.Association{}, domain.NotFoundError{Resource: "organization association"}
}

func (m *memAssociations) Update(context.Context, domain.Association, time.Time) error { return nil }

func (m *memAssociations) SoftDelete(context.Context, string) error { return nil }

func (m *memAssociations) Find(ctx context.Context, f domain.AssociationFilter, p domain.Pagination) (domain.Page[domain.Association], error) {
	items, _ := m.List(ctx, f)
	return domain.NewPage(items, int64(len(items)), p), nil
}

func (m *memAssociations) List(ctx context.Context, f domain.AssociationFilter) ([]domain.Association, error) {
	var out []domain.Association
	for _, a := range m.rows {
		if len(f.OrganizationIDs) == 0 || a.OrganizationID() == f.OrganizationIDs[0] {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memAssociations) OwnershipStructure(ctx context.Context, organizationID string, minOwnership float64, asOf time.Time) ([]domain.Association, error) {
	return m.List(ctx, domain.AssociationFilter{OrganizationIDs: []string{organizationID}})
}

type memHistory struct {
	entries []domain.HistoryEntry
}

func (m *memHistory) Append(ctx context.Context, entries ...domain.HistoryEntry) error {
	m.entries = append(m.entries, entries...)
	return nil
}

func (m *memHistory) List(ctx context.Context, entityID string, p domain.Pagination) (domain.Page[domain.HistoryEntry], error) {
	return domain.NewPage(m.entries, int64(len(m.entries)), p), nil
}

type memCustomFields struct {
	rows map[string]domain.CustomField
}

func (m *memCustomFields) Upsert(ctx context.Context, f domain.CustomField) (domain.CustomField, error) {
	f.ID = uuid.NewString()
	m.rows[f.EntityID+"/"+f.Key] = f
	return f, nil
}

func (m *memCustomFields) Get(ctx context.Context, entityID, key string) (domain.CustomField, error) {
	f, ok := m.rows[entityID+"/"+key]
	if !ok {
		return domain.CustomField{}, domain.NotFoundError{Resource: "custom field"}
	}
	return f, nil
}

func (m *memCustomFields) List(ctx context.Context, entityID, category string) ([]domain.CustomField, error) {
	var out []domain.CustomField
	for _, f := range m.rows {
		if f.EntityID == entityID {
			out = append(out, f)
		}
	}
	return out, nil
}

func (m *memCustomFields) Delete(ctx context.Context, entityID, key string) error {
	delete(m.rows, entityID+"/"+key)
	return nil
}

type testServer struct {
	e        *echo.Echo
	entities *memEntities
	assocs   *memAssociations
}

func newTestServer() *testServer {
	entities := &memEntities{rows: map[string]domain.Entity{}}
	assocs := &memAssociations{}
	history := &memHistory{}

	h := NewHandler(
		nil,
		usecase.NewEntityUsecase(entities, history, passTx{}),
		nil, nil, nil,
		usecase.NewAssociationUsecase(assocs, entities, history, passTx{}, nil, nil, domain.DefaultControlThresholds),
		usecase.NewOwnershipUsecase(assocs, entities, nil, nil, domain.DefaultControlThresholds),
		usecase.NewHistoryUsecase(history, entities),
		nil,
		nil,
		usecase.NewCustomFieldUsecase(&memCustomFields{rows: map[string]domain.CustomField{}}, entities, history, passTx{}),
	)

	e := echo.New()
	e.Validator = NewValidator()
	h.RegisterRoutes(e)
	return &testServer{e: e, entities: entities, assocs: assocs}
}

func (s *testServer) do(method, path, subscriber, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	if subscriber != "" {
		req.Header.Set(domain.SubscriberIDHeader, subscriber)
		req.Header.Set(domain.ActingUserIDHeader, testUser)
	}
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func TestOnboardAndGetEntity(t *testing.T) {
	s := newTestServer()

	rec := s.do(http.MethodPost, "/api/v1/entities", tenantA, `{"entityType":"ORGANIZATION","organization":{"legalName":"Acme Holdings"}}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created domain.Entity
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Acme Holdings", created.Name)
	assert.Equal(t, tenantA, created.SubscriberID)

	rec = s.do(http.MethodGet, "/api/v1/entities/"+created.ID, tenantA, "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(http.MethodGet, "/api/v1/entities/"+created.ID, tenantB, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestErrorMapping(t *testing.T) {
	s := newTestServer()

	t.Run("anonymous", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/entities", "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("missing required field", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/entities", tenantA, `{"name":"nobody"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "entityType", body["field"])
	})

	t.Run("domain validation", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/entities", tenantA, `{"entityType":"ORGANIZATION"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "organization", body["field"])
	})

	t.Run("bad query parameter", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/entities?page=two", tenantA, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown entity", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/entities/"+uuid.NewString(), tenantA, "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("malformed path id", func(t *testing.T) {
		for _, path := range []string{
			"/api/v1/associations/not-a-uuid",
			"/api/v1/entities/missing",
			"/api/v1/organizations/abc/ownership-summary",
			"/api/v1/lists/not-a-uuid",
			"/api/v1/entities/nope/custom-fields",
		} {
			rec := s.do(http.MethodGet, path, tenantA, "")
			require.Equal(t, http.StatusBadRequest, rec.Code, path)

			var body map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, "id", body["field"], path)
		}
	})

	t.Run("malformed list value id", func(t *testing.T) {
		rec := s.do(http.MethodDelete, "/api/v1/lists/"+orgID+"/values/v-1", tenantA, "")
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "valueId", body["field"])
	})

	t.Run("malformed id filter", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/associations?organizationIds="+orgID+",nope", tenantA, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		rec = s.do(http.MethodGet, "/api/v1/associations/named/current?organizationId=nope", tenantA, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body id", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/api/v1/associations", tenantA,
			`{"organizationId":"acme","individualId":"`+indID+`","relationshipType":"DIRECTOR"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "organizationID", body["field"])
	})

	t.Run("malformed actor header", func(t *testing.T) {
		rec := s.do(http.MethodGet, "/api/v1/entities", "sub-1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestOwnershipSummaryETag(t *testing.T) {
	s := newTestServer()
	s.entities.rows[orgID] = domain.Entity{
		ID:           orgID,
		SubscriberID: tenantA,
		EntityType:   domain.EntityTypeOrganization,
		IsActive:     true,
	}
	stake := 30.0
	s.assocs.rows = append(s.assocs.rows, domain.Association{
		Edge: domain.Edge{
			ID:                  uuid.NewString(),
			Kind:                domain.KindOrganizationAssociation,
			PrimaryID:           orgID,
			RelatedID:           indID,
			RelationshipType:    domain.AssocShareholder,
			OwnershipPercentage: &stake,
			EffectiveFrom:       time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
			IsActive:            true,
		},
		IsBeneficialOwner: true,
	})

	path := "/api/v1/organizations/" + orgID + "/ownership-summary?asOf=2024-06-15"
	rec := s.do(http.MethodGet, path, tenantA, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	var summary domain.OwnershipSummary
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
	assert.Equal(t, 1, summary.BeneficialOwnersCount)

	rec = s.do(http.MethodGet, path, tenantA, "", "If-None-Match", etag)
	assert.Equal(t, http.StatusNotModified, rec.Code)

	rec = s.do(http.MethodGet, path, tenantB, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCustomFields(t *testing.T) {
	s := newTestServer()
	s.entities.rows[indID] = domain.Entity{
		ID:           indID,
		SubscriberID: tenantA,
		EntityType:   domain.EntityTypeIndividual,
		IsActive:     true,
	}
	path := "/api/v1/entities/" + indID + "/custom-fields/"

	rec := s.do(http.MethodPut, path+"annual_income", tenantA, `{"type":"number","value":"lots"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, path+"Annual-Income", tenantA, `{"value":"1"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())

	rec = s.do(http.MethodPut, path+"tax_id", tenantA, `{"value":"123-45-6789","isSensitive":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "6789")

	rec = s.do(http.MethodGet, path+"tax_id", tenantA, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var f domain.CustomField
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &f))
	assert.Equal(t, "tax_id", f.Key)
	assert.Equal(t, domain.FieldText, f.Type)
	assert.NotEqual(t, "123-45-6789", f.Value)

	rec = s.do(http.MethodGet, "/api/v1/entities/"+indID+"/custom-fields", tenantB, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodDelete, path+"tax_id", tenantA, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
