package server_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/metric-agent/internal/server"
	"github.com/metric-agent/pkg/agent"
	"github.com/metric-agent/pkg/config"
	"github.com/metric-agent/pkg/host"
	"github.com/metric-agent/pkg/module"
	"github.com/metric-agent/pkg/telemetry"
)

func newTestServer(t *testing.T) *server.HTTPServer {
	t.Helper()

	alpha := &module.MockModule{
		Defs: []module.MetricDef{{Name: "a.value", Type: "gauge", Unit: "none"}},
		FetchFunc: func(item, inst int) (module.FetchResult, error) {
			if item != 0 {
				return module.NoSuchMetric(), nil
			}
			return module.OKValue(42), nil
		},
	}
	beta := &module.MockModule{
		HasInstances: true,
		Defs:         []module.MetricDef{{Name: "b.value", Type: "gauge", Unit: "none", PerInstance: true}},
		RefreshFunc: func() (map[int]string, error) {
			return map[int]string{0: "inst0"}, nil
		},
	}

	impls := module.Registry{}
	impls.Register("alpha-impl", func(module.Options) (module.Module, error) { return alpha, nil })
	impls.Register("beta-impl", func(module.Options) (module.Module, error) { return beta, nil })

	reg, err := agent.LoadModules([]config.Descriptor{
		{Name: "alpha", Implementation: "alpha-impl", Cluster: 10, Prefix: "test"},
		{Name: "beta", Implementation: "beta-impl", Cluster: 20, Prefix: "test"},
	}, impls, zap.NewNop())
	require.NoError(t, err)

	schema := host.NewSchemaTable()
	require.NoError(t, agent.Allocate(reg, schema, zap.NewNop()))

	tel := telemetry.New(false)
	dispatcher := agent.NewDispatcher(reg, schema, tel, zap.NewNop())
	return server.NewHTTPServer(config.NewDefaultConfig().Server, dispatcher, schema, tel, zap.NewNop())
}

func doGET(t *testing.T, s *server.HTTPServer, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealthEndpoint(t *testing.T) {
	rec := doGET(t, newTestServer(t), "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", rec.Body.String())
}

func TestSchemaEndpoint(t *testing.T) {
	rec := doGET(t, newTestServer(t), "/schema")
	require.Equal(t, http.StatusOK, rec.Code)

	var specs []host.MetricSpec
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &specs))
	require.Len(t, specs, 2)
	assert.Equal(t, "test.a.value", specs[0].Name)
	assert.Equal(t, "test.b.value", specs[1].Name)
}

func TestRefreshEndpoint(t *testing.T) {
	rec := doGET(t, newTestServer(t), "/refresh?cluster=20")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Cluster   int               `json:"cluster"`
		Instances map[string]string `json:"instances"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 20, resp.Cluster)
	assert.Equal(t, map[string]string{"0": "inst0"}, resp.Instances)
}

func TestRefreshUnknownCluster(t *testing.T) {
	rec := doGET(t, newTestServer(t), "/refresh?cluster=99")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestFetchEndpoint(t *testing.T) {
	rec := doGET(t, newTestServer(t), "/fetch?cluster=10&item=0")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string   `json:"status"`
		Value  *float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp.Status)
	require.NotNil(t, resp.Value)
	assert.Equal(t, 42.0, *resp.Value)
}

func TestFetchNoSuchMetric(t *testing.T) {
	rec := doGET(t, newTestServer(t), "/fetch?cluster=10&item=9")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Status string   `json:"status"`
		Value  *float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "no-such-metric", resp.Status)
	assert.Nil(t, resp.Value)
}

func TestFetchBadParams(t *testing.T) {
	s := newTestServer(t)
	assert.Equal(t, http.StatusBadRequest, doGET(t, s, "/fetch?cluster=abc&item=0").Code)
	assert.Equal(t, http.StatusBadRequest, doGET(t, s, "/fetch?cluster=10").Code)
}

func TestMetricsEndpoint(t *testing.T) {
	rec := doGET(t, newTestServer(t), "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
}
