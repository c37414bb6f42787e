package router

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydrochat-core/server/internal/agent/model"
	"github.com/hydrochat-core/server/internal/agent/routing"
)

type fixedWeather map[string]Reading

func (f fixedWeather) Temperature(ctx context.Context, dc DataCenter) Reading {
	return f[dc.Region]
}

type fakeGenerator struct {
	mu          sync.Mutex
	regionalErr error
	globalErr   error
	regions     []string
	globalCalls int
}

func (g *fakeGenerator) GenerateRegional(ctx context.Context, region, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.regions = append(g.regions, region)
	if g.regionalErr != nil {
		return "", g.regionalErr
	}
	return "regional: " + prompt, nil
}

func (g *fakeGenerator) GenerateGlobal(ctx context.Context, prompt string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.globalCalls++
	if g.globalErr != nil {
		return "", g.globalErr
	}
	return "global: " + prompt, nil
}

var coldMontreal = fixedWeather{
	Montreal.Region:  {Celsius: 3},
	Eemshaven.Region: {Celsius: 9},
}

func newTestServer(t *testing.T, gen Generator) (*httptest.Server, *Service) {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := NewService(coldMontreal, gen, model.ServerConfig{WaterPerDegree: 2}, reg)
	srv := httptest.NewServer(NewHandler(svc, reg))
	t.Cleanup(srv.Close)
	return srv, svc
}

func TestGenerateGreenRoute(t *testing.T) {
	gen := &fakeGenerator{}
	srv, svc := newTestServer(t, gen)

	reply, err := routing.NewClient(model.RouterClientConfig{URL: srv.URL + "/generate"}).
		Route(context.Background(), "Why save water?")
	require.NoError(t, err)

	assert.Equal(t, "regional: Why save water?", reply.Response)
	assert.Equal(t, "Montreal, Canada", reply.RoutedTo)
	assert.Equal(t, "Montreal is colder (3°C vs 9°C)", reply.WeatherLogic)
	assert.Equal(t, 12.0, reply.WaterSavedML)
	assert.True(t, reply.IsEstimate)
	assert.Equal(t, []string{"northamerica-northeast1"}, gen.regions)
	assert.Zero(t, gen.globalCalls)

	assert.Equal(t, 1.0, testutil.ToFloat64(svc.metrics.requests.WithLabelValues("green")))
	assert.Equal(t, 3.0, testutil.ToFloat64(svc.metrics.temperature.WithLabelValues("Montreal")))
}

func TestGenerateFallback(t *testing.T) {
	gen := &fakeGenerator{regionalErr: errors.New("permission denied")}
	srv, _ := newTestServer(t, gen)

	reply, err := routing.NewClient(model.RouterClientConfig{URL: srv.URL + "/generate"}).
		Route(context.Background(), "hi")
	require.NoError(t, err)

	assert.Equal(t, "global: hi", reply.Response)
	assert.Equal(t, FallbackName, reply.RoutedTo)
	assert.Equal(t, FallbackLogic, reply.WeatherLogic)
	assert.Zero(t, reply.WaterSavedML)
	assert.False(t, reply.IsEstimate)
}

func TestGenerateBothRoutesFail(t *testing.T) {
	gen := &fakeGenerator{regionalErr: errors.New("no vertex"), globalErr: errors.New("quota")}
	srv, _ := newTestServer(t, gen)

	_, err := routing.NewClient(model.RouterClientConfig{URL: srv.URL + "/generate"}).
		Route(context.Background(), "hi")
	var rf *routing.RoutingFailure
	require.True(t, errors.As(err, &rf))
	assert.Equal(t, http.StatusBadGateway, rf.StatusCode)
}

func TestGenerateBadRequests(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})
	for _, body := range []string{`not json`, `{"prompt":"   "}`, `{}`} {
		resp, err := http.Post(srv.URL+"/generate", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, body)
	}

	resp, err := http.Get(srv.URL + "/generate")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestHealthAndMetrics(t *testing.T) {
	srv, _ := newTestServer(t, &fakeGenerator{})

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Post(srv.URL+"/generate", "application/json", strings.NewReader(`{"prompt":"x"}`))
	require.NoError(t, err)
	resp.Body.Close()

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `hydrochat_router_requests_total{route="green"} 1`)
}
