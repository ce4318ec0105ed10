package nurse

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zack-klein/api.zacharyjklein.com/pkg/db"
	"github.com/zack-klein/api.zacharyjklein.com/pkg/registry"
)

// memStore keeps checks in a slice.
type memStore struct {
	nextID int64
	checks []db.HealthCheck
}

func (m *memStore) Add(_ context.Context, site string, healthy bool) (int64, error) {
	m.nextID++
	m.checks = append(m.checks, db.HealthCheck{ID: m.nextID, Site: site, Healthy: healthy, CheckedAt: time.Unix(0, 0).UTC()})
	return m.nextID, nil
}

func (m *memStore) List(context.Context) ([]db.HealthCheck, error) {
	return m.checks, nil
}

func (m *memStore) Delete(_ context.Context, id int64) error {
	for i, c := range m.checks {
		if c.ID == id {
			m.checks = append(m.checks[:i], m.checks[i+1:]...)
			return nil
		}
	}
	return db.ErrNotFound
}

func run(t *testing.T, res *registry.Resource, action string, params map[string]interface{}) (interface{}, error) {
	t.Helper()
	a, err := res.Action(action)
	require.NoError(t, err)
	return a.Fn(context.Background(), registry.NewArgs(a.Params, params))
}

func TestNurse_AddGetDelete(t *testing.T) {
	store := &memStore{}
	res, err := New(store, "1.0.0")
	require.NoError(t, err)

	out, err := run(t, res, "get", nil)
	require.NoError(t, err)
	assert.Equal(t, []db.HealthCheck{}, out)

	out, err = run(t, res, "add", map[string]interface{}{"site": "https://zacharyjklein.com", "healthy": "true"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"id": int64(1)}, out)

	out, err = run(t, res, "get", nil)
	require.NoError(t, err)
	require.Len(t, out.([]db.HealthCheck), 1)
	assert.True(t, out.([]db.HealthCheck)[0].Healthy)

	out, err = run(t, res, "delete", map[string]interface{}{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"success": true}, out)

	_, err = run(t, res, "delete", map[string]interface{}{"id": 1})
	assert.EqualError(t, err, "health check 1 does not exist")
}

func TestNurse_AddRejectsEmptySite(t *testing.T) {
	res, err := New(&memStore{}, "")
	require.NoError(t, err)

	_, err = run(t, res, "add", map[string]interface{}{"site": "", "healthy": false})
	assert.Equal(t, registry.CodeInvalidParameter, registry.CodeOf(err))
}
