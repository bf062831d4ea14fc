package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/modelhub-io/modelhub-api/internal/models"
	"github.com/modelhub-io/modelhub-api/pkg/config"
	appErrors "github.com/modelhub-io/modelhub-api/pkg/errors"
)

type mockQueryStore struct {
	nextID  int64
	queries map[int64]*models.Query
}

func newMockQueryStore() *mockQueryStore {
	return &mockQueryStore{queries: make(map[int64]*models.Query)}
}

func (m *mockQueryStore) Create(ctx context.Context, query *models.Query) error {
	m.nextID++
	query.ID = m.nextID
	copied := *query
	m.queries[query.ID] = &copied
	return nil
}

func (m *mockQueryStore) GetByID(ctx context.Context, id int64) (*models.Query, error) {
	q, ok := m.queries[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *q
	return &copied, nil
}

func (m *mockQueryStore) UpdateString(ctx context.Context, id int64, queryString string) error {
	q, ok := m.queries[id]
	if !ok {
		return sql.ErrNoRows
	}
	q.String = queryString
	return nil
}

func (m *mockQueryStore) SetResult(ctx context.Context, id int64, result json.RawMessage) error {
	q, ok := m.queries[id]
	if !ok {
		return sql.ErrNoRows
	}
	q.Result = result
	q.Outdated = false
	return nil
}

func (m *mockQueryStore) Delete(ctx context.Context, id int64) error {
	if _, ok := m.queries[id]; !ok {
		return sql.ErrNoRows
	}
	delete(m.queries, id)
	return nil
}

// newQueryFixture sets up project 1 with user 1 as Editor and user 2 as
// Viewer, one stored query, and a stub engine answering every query.
func newQueryFixture(t *testing.T, engineAddr string) (*QueryService, *mockQueryStore) {
	t.Helper()

	accesses := newMockAccessStore()
	accesses.put(models.Access{Role: models.RoleEditor, ProjectID: 1, UserID: 1})
	accesses.put(models.Access{Role: models.RoleViewer, ProjectID: 1, UserID: 2})

	users := &mockAccessUserStore{users: map[int64]*models.User{
		1: {ID: 1, Username: "alice"},
		2: {ID: 2, Username: "bob"},
	}}
	projects := &mockProjectStore{projects: map[int64]*models.Project{
		1: {ID: 1, Name: "traffic-light", OwnerID: 1, ComponentsInfo: json.RawMessage(`{"components":[]}`)},
	}}

	queries := newMockQueryStore()
	queries.queries[1] = &models.Query{ID: 1, ProjectID: 1, String: "refinement: A <= B", Outdated: true}
	queries.nextID = 1

	access := NewAccessService(accesses, users, projects, nil, zap.NewNop())
	engine := NewEngineService(config.EngineConfig{Addr: engineAddr, RequestTimeout: 5 * time.Second}, nil, nil, zap.NewNop())
	svc := NewQueryService(queries, projects, access, engine, nil, zap.NewNop())
	return svc, queries
}

func stubEngine(t *testing.T, verdict string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"result":` + verdict + `}`)) //nolint:errcheck
	}))
}

func TestQueryCreateRequiresEditor(t *testing.T) {
	svc, _ := newQueryFixture(t, "http://unused")

	_, err := svc.Create(context.Background(), 2, models.CreateQueryRequest{ProjectID: 1, String: "consistency: C"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPermissionDenied.Code, appErr.Code)

	query, err := svc.Create(context.Background(), 1, models.CreateQueryRequest{ProjectID: 1, String: "consistency: C"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), query.ID)
}

func TestQueryUpdateKeepsStoredResult(t *testing.T) {
	svc, queries := newQueryFixture(t, "http://unused")
	queries.queries[1].Result = json.RawMessage(`{"satisfied":false}`)

	err := svc.Update(context.Background(), 1, 1, models.UpdateQueryRequest{String: "consistency: C"})
	require.NoError(t, err)
	assert.Equal(t, "consistency: C", queries.queries[1].String)
	assert.JSONEq(t, `{"satisfied":false}`, string(queries.queries[1].Result))
	assert.True(t, queries.queries[1].Outdated)
}

func TestQueryUpdateRequiresEditor(t *testing.T) {
	svc, _ := newQueryFixture(t, "http://unused")

	err := svc.Update(context.Background(), 2, 1, models.UpdateQueryRequest{String: "consistency: C"})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPermissionDenied.Code, appErr.Code)
}

func TestQueryDeleteMissing(t *testing.T) {
	svc, _ := newQueryFixture(t, "http://unused")

	err := svc.Delete(context.Background(), 1, 99)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestQuerySendStoresVerdict(t *testing.T) {
	server := stubEngine(t, `{"satisfied":true}`)
	defer server.Close()
	svc, queries := newQueryFixture(t, server.URL)

	res, err := svc.Send(context.Background(), 2, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.QueryID)
	assert.JSONEq(t, `{"satisfied":true}`, string(res.Result))
	assert.JSONEq(t, `{"satisfied":true}`, string(queries.queries[1].Result))
	assert.False(t, queries.queries[1].Outdated)
}

func TestQuerySendRequiresAccess(t *testing.T) {
	server := stubEngine(t, `{"satisfied":true}`)
	defer server.Close()
	svc, _ := newQueryFixture(t, server.URL)

	_, err := svc.Send(context.Background(), 9, 1)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrPermissionDenied.Code, appErr.Code)
}
