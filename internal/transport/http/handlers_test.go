package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rollbench/internal/bench"
	"rollbench/internal/config"
	"rollbench/internal/portfolio"
	"rollbench/internal/profile"
	"rollbench/internal/report"
	"rollbench/internal/strategy"
	"rollbench/pkg/contracts/domain"
)

// alwaysHealthyTask is a benchmarkable no-op for transport tests.
type alwaysHealthyTask struct{}

func (alwaysHealthyTask) ID() string   { return "noop" }
func (alwaysHealthyTask) Name() string { return "No-op" }

func (alwaysHealthyTask) Run(ctx context.Context, kind strategy.Kind, workers int) (bench.TaskOutput, error) {
	return bench.TaskOutput{
		Results: []domain.MetricResult{{Symbol: "AAPL", Window: 20}},
	}, nil
}

func newTestServer(t *testing.T, tasks ...bench.Task) (*httptest.Server, *bench.Manager, *bench.JobQueue, *report.MemorySink) {
	t.Helper()

	if len(tasks) == 0 {
		tasks = []bench.Task{alwaysHealthyTask{}}
	}
	registry := bench.NewRegistry()
	for _, task := range tasks {
		require.NoError(t, registry.Register(task))
	}

	manager := bench.NewManager(registry, profile.New(time.Millisecond), bench.Config{
		Kinds:   []strategy.Kind{strategy.Sequential},
		Workers: 1,
	}, nil)
	sink := report.NewMemorySink()
	manager.AddSink(sink)

	queue := bench.NewJobQueue(manager, 2, nil)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	queue.Start(ctx)
	t.Cleanup(func() { queue.Stop(time.Second) })

	router := NewRouter(Deps{
		Manager: manager,
		Queue:   queue,
		Sink:    sink,
		RateLimit: config.RateLimitConfig{Enabled: false},
	})
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	return server, manager, queue, sink
}

func getJSON(t *testing.T, url string, out interface{}) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthEndpoint(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	var body map[string]interface{}
	status := getJSON(t, server.URL+"/api/health", &body)

	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "healthy", body["status"])
}

func TestRunEndpoints(t *testing.T) {
	server, manager, _, _ := newTestServer(t)

	runs, err := manager.RunSuite(context.Background())
	require.NoError(t, err)
	require.Len(t, runs, 1)

	var list struct {
		Runs []struct {
			ID       string `json:"id"`
			Task     string `json:"task"`
			Strategy string `json:"strategy"`
		} `json:"runs"`
		States []struct {
			Status string `json:"status"`
		} `json:"states"`
	}
	status := getJSON(t, server.URL+"/api/runs", &list)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, list.Runs, 1)
	assert.Equal(t, runs[0].ID, list.Runs[0].ID)
	assert.Equal(t, "noop", list.Runs[0].Task)
	require.Len(t, list.States, 1)
	assert.Equal(t, "completed", list.States[0].Status)

	var detail domain.StrategyRun
	status = getJSON(t, server.URL+"/api/runs/"+runs[0].ID, &detail)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, runs[0].ID, detail.ID)
	require.Len(t, detail.Results, 1)
	assert.Equal(t, "AAPL", detail.Results[0].Symbol)

	status = getJSON(t, server.URL+"/api/runs/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

// portfolioStubTask produces a summary and a tree like the real portfolio
// task does.
type portfolioStubTask struct{}

func (portfolioStubTask) ID() string   { return "portfolio_stub" }
func (portfolioStubTask) Name() string { return "Portfolio stub" }

func (portfolioStubTask) Run(ctx context.Context, kind strategy.Kind, workers int) (bench.TaskOutput, error) {
	return bench.TaskOutput{
		Summary: &domain.PortfolioSummary{
			Symbols:         []string{"AAPL"},
			LatestValue:     1855,
			Volatility:      0.02,
			VolatilityBasis: domain.BasisCovariance,
			Window:          20,
		},
		Tree: &portfolio.TreeSummary{Name: "root", TotalValue: 1855},
	}, nil
}

func TestPortfolioEndpoint(t *testing.T) {
	server, manager, _, _ := newTestServer(t, portfolioStubTask{})

	// No portfolio runs recorded yet.
	status := getJSON(t, server.URL+"/api/portfolio", nil)
	assert.Equal(t, http.StatusNotFound, status)

	_, err := manager.RunSuite(context.Background())
	require.NoError(t, err)

	var body struct {
		Summaries map[string]domain.PortfolioSummary `json:"summaries"`
		Trees     map[string]*portfolio.TreeSummary  `json:"trees"`
	}
	status = getJSON(t, server.URL+"/api/portfolio", &body)
	require.Equal(t, http.StatusOK, status)

	summary, ok := body.Summaries["sequential"]
	require.True(t, ok)
	assert.Equal(t, []string{"AAPL"}, summary.Symbols)
	require.Contains(t, body.Trees, "sequential")
	assert.Equal(t, "root", body.Trees["sequential"].Name)
}

func TestBenchmarkJobEndpoints(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	resp, err := http.Post(server.URL+"/api/benchmarks", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	var job bench.Job
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&job))
	require.NotEmpty(t, job.ID)

	require.Eventually(t, func() bool {
		var got bench.Job
		status := getJSON(t, server.URL+"/api/benchmarks/"+job.ID, &got)
		return status == http.StatusOK && got.Status == bench.JobStatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	var jobs struct {
		Jobs []bench.Job `json:"jobs"`
	}
	status := getJSON(t, server.URL+"/api/benchmarks", &jobs)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, jobs.Jobs, 1)

	status = getJSON(t, server.URL+"/api/benchmarks/missing", nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestRequestIDHeaderOnResponses(t *testing.T) {
	server, _, _, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/api/health")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}
