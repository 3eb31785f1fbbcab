package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vigil-monitoring/vigil/pkg/logger"
	"github.com/vigil-monitoring/vigil/pkg/model"
)

type fakeStore struct {
	actives []model.ActiveRecord
	err     error
}

func (f *fakeStore) Initialise(context.Context) error { return nil }
func (f *fakeStore) Close() error                     { return nil }

func (f *fakeStore) ActiveExists(context.Context, model.Identity) (bool, error) {
	return false, nil
}

func (f *fakeStore) GetActive(context.Context, model.Identity) (*model.ActiveRecord, error) {
	return nil, nil
}

func (f *fakeStore) GetAllActives(context.Context) ([]model.ActiveRecord, error) {
	return f.actives, f.err
}

func (f *fakeStore) SaveActive(context.Context, model.ActiveRecord) error { return nil }
func (f *fakeStore) RemoveActive(context.Context, model.Identity) error   { return nil }

func TestHealthz(t *testing.T) {
	srv := New(":0", &fakeStore{}, logger.NewDefault())

	w := httptest.NewRecorder()
	srv.handleHealthz(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestActivesEmpty(t *testing.T) {
	srv := New(":0", &fakeStore{}, logger.NewDefault())

	w := httptest.NewRecorder()
	srv.handleActives(w, httptest.NewRequest(http.MethodGet, "/actives", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `[]`, w.Body.String())
}

func TestActivesReturnsRecords(t *testing.T) {
	st := &fakeStore{actives: []model.ActiveRecord{{
		Identity: model.Identity{
			EnvironmentGroup: "prod",
			Environment:      "us-east",
			EndpointGroup:    "web",
			Endpoint:         "health",
		},
		Timestamp: 1700000000,
		Message:   "prod us-east web health expected 200, actual: 503",
		URL:       "https://example.com/health",
	}}}
	srv := New(":0", st, logger.NewDefault())

	w := httptest.NewRecorder()
	srv.handleActives(w, httptest.NewRequest(http.MethodGet, "/actives", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var decoded []map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decoded))
	require.Len(t, decoded, 1)
	assert.Equal(t, "prod", decoded[0]["environment_group"])
	assert.Equal(t, "health", decoded[0]["endpoint"])
}

func TestActivesStoreFailure(t *testing.T) {
	srv := New(":0", &fakeStore{err: errors.New("boom")}, logger.NewDefault())

	w := httptest.NewRecorder()
	srv.handleActives(w, httptest.NewRequest(http.MethodGet, "/actives", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
}
