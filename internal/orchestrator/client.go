// Package orchestrator adapts the control plane to the external workflow
// engine's HTTP API: token exchange, DAG
// lifecycle, and run/task status queries.
package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/scystream/control-plane/internal/ports"
	cperrors "github.com/scystream/control-plane/pkg/errors"
)

// Client is a resty-based ports.Orchestrator. It re-acquires its bearer
// token on 401 and never retries transient failures on its own.
type Client struct {
	http     *resty.Client
	username string
	password string
	dagDir   string

	registrationTimeout  time.Duration
	registrationInterval time.Duration

	logger ports.Logger

	mu    sync.Mutex
	token string
}

// New returns a Client against baseURL, authenticating with username and
// password. requestTimeout bounds each HTTP call; registrationTimeout and
// registrationInterval bound the Register wait-poll loop (default 10s,
// 500ms cadence). dagDir is the directory DAG artifacts are written to;
// Delete removes the artifact there; a missing file is not fatal.
func New(baseURL, username, password string, requestTimeout, registrationTimeout, registrationInterval time.Duration, dagDir string, logger ports.Logger) *Client {
	http := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(requestTimeout)

	return &Client{
		http:                 http,
		username:             username,
		password:             password,
		dagDir:               dagDir,
		registrationTimeout:  registrationTimeout,
		registrationInterval: registrationInterval,
		logger:               logger,
	}
}

var _ ports.Orchestrator = (*Client)(nil)

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

func (c *Client) authenticate(ctx context.Context) (string, error) {
	var out tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.username, c.password).
		SetResult(&out).
		Post("/auth/token")
	if err != nil {
		return "", cperrors.NewUpstreamFailureError("orchestrator", 0, "", err)
	}
	if resp.IsError() {
		return "", cperrors.NewUpstreamFailureError("orchestrator", resp.StatusCode(), resp.String(), nil)
	}

	c.mu.Lock()
	c.token = out.AccessToken
	c.mu.Unlock()
	return out.AccessToken, nil
}

func (c *Client) bearerToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	token := c.token
	c.mu.Unlock()
	if token != "" {
		return token, nil
	}
	return c.authenticate(ctx)
}

// request executes fn with a bearer token set, re-authenticating once and
// retrying if the first attempt returns 401.
func (c *Client) request(ctx context.Context, fn func(*resty.Request) (*resty.Response, error)) (*resty.Response, error) {
	token, err := c.bearerToken(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := fn(c.http.R().SetContext(ctx).SetAuthToken(token))
	if err != nil {
		return nil, cperrors.NewUpstreamFailureError("orchestrator", 0, "", err)
	}
	if resp.StatusCode() == 401 {
		token, err = c.authenticate(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = fn(c.http.R().SetContext(ctx).SetAuthToken(token))
		if err != nil {
			return nil, cperrors.NewUpstreamFailureError("orchestrator", 0, "", err)
		}
	}
	if resp.IsError() {
		return nil, cperrors.NewUpstreamFailureError("orchestrator", resp.StatusCode(), resp.String(), nil)
	}
	return resp, nil
}

type listDAGsResponse struct {
	DAGs []struct {
		DAGID string `json:"dag_id"`
	} `json:"dags"`
}

// Register wait-polls the engine until dagID appears in the dag list,
// bounded by c.registrationTimeout.
func (c *Client) Register(ctx context.Context, dagID string) error {
	deadline := time.Now().Add(c.registrationTimeout)
	ticker := time.NewTicker(c.registrationInterval)
	defer ticker.Stop()

	for {
		dags, err := c.ListDAGs(ctx)
		if err != nil {
			return err
		}
		for _, id := range dags {
			if id == dagID {
				return nil
			}
		}
		if time.Now().After(deadline) {
			return cperrors.NewUpstreamFailureError("orchestrator", 0, fmt.Sprintf("dag %s did not register within %s", dagID, c.registrationTimeout), nil)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// ListDAGs returns every dag id known to the engine.
func (c *Client) ListDAGs(ctx context.Context) ([]string, error) {
	var out listDAGsResponse
	resp, err := c.request(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get("/dags")
	})
	if err != nil {
		return nil, err
	}
	_ = resp
	ids := make([]string, 0, len(out.DAGs))
	for _, d := range out.DAGs {
		ids = append(ids, d.DAGID)
	}
	return ids, nil
}

// Unpause lifts a DAG's pause flag so it can be triggered.
func (c *Client) Unpause(ctx context.Context, dagID string) error {
	_, err := c.request(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(map[string]bool{"is_paused": false}).Patch("/dags/" + dagID)
	})
	return err
}

type triggerResponse struct {
	DAGRunID string `json:"dag_run_id"`
}

// Trigger creates a new run of dagID.
func (c *Client) Trigger(ctx context.Context, dagID string) (string, error) {
	var out triggerResponse
	_, err := c.request(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Post(fmt.Sprintf("/dags/%s/dagRuns", dagID))
	})
	if err != nil {
		return "", err
	}
	return out.DAGRunID, nil
}

type runResponse struct {
	DAGRunID    string `json:"dag_run_id"`
	State       string `json:"state"`
	LogicalDate string `json:"logical_date"`
}

type listRunsResponse struct {
	DAGRuns []runResponse `json:"dag_runs"`
}

// LatestRun returns the run with the greatest start time for dagID, or nil
// if the dag has never run.
func (c *Client) LatestRun(ctx context.Context, dagID string) (*ports.RunSummary, error) {
	var out listRunsResponse
	_, err := c.request(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).
			SetQueryParam("limit", "1").
			SetQueryParam("order_by", "-logical_date").
			Get(fmt.Sprintf("/dags/%s/dagRuns", dagID))
	})
	if err != nil {
		return nil, err
	}
	if len(out.DAGRuns) == 0 {
		return nil, nil
	}
	return toRunSummary(dagID, out.DAGRuns[0]), nil
}

type batchRunsRequest struct {
	DAGIDs    []string `json:"dag_ids"`
	PageLimit int      `json:"page_limit"`
}

type batchRunsResponse struct {
	DAGRuns []runResponseWithDAG `json:"dag_runs"`
}

type runResponseWithDAG struct {
	DAGID       string `json:"dag_id"`
	DAGRunID    string `json:"dag_run_id"`
	State       string `json:"state"`
	LogicalDate string `json:"logical_date"`
}

// LastRunBatch returns, per dag id, the run with the greatest start time.
func (c *Client) LastRunBatch(ctx context.Context, dagIDs []string) (map[string]ports.RunSummary, error) {
	if len(dagIDs) == 0 {
		return map[string]ports.RunSummary{}, nil
	}
	var out batchRunsResponse
	_, err := c.request(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetBody(batchRunsRequest{DAGIDs: dagIDs, PageLimit: len(dagIDs)}).
			SetResult(&out).
			Post("/dags/~/dagRuns/list")
	})
	if err != nil {
		return nil, err
	}

	latest := make(map[string]ports.RunSummary, len(dagIDs))
	for _, r := range out.DAGRuns {
		summary := *toRunSummary(r.DAGID, runResponse{DAGRunID: r.DAGRunID, State: r.State, LogicalDate: r.LogicalDate})
		existing, ok := latest[r.DAGID]
		if !ok || summary.StartedAt.After(existing.StartedAt) {
			latest[r.DAGID] = summary
		}
	}
	return latest, nil
}

type taskInstance struct {
	TaskID string `json:"task_id"`
	State  string `json:"state"`
}

type taskInstancesResponse struct {
	TaskInstances []taskInstance `json:"task_instances"`
}

// TaskStates returns task_id -> external_state for one run.
func (c *Client) TaskStates(ctx context.Context, dagID, runID string) (map[string]string, error) {
	var out taskInstancesResponse
	_, err := c.request(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.SetResult(&out).Get(fmt.Sprintf("/dags/%s/dagRuns/%s/taskInstances", dagID, runID))
	})
	if err != nil {
		return nil, err
	}
	states := make(map[string]string, len(out.TaskInstances))
	for _, ti := range out.TaskInstances {
		states[ti.TaskID] = ti.State
	}
	return states, nil
}

// Delete removes the dag's artifact file (a missing file is not fatal) and
// deregisters it from the engine.
func (c *Client) Delete(ctx context.Context, dagID string) error {
	path := filepath.Join(c.dagDir, fmt.Sprintf("dag_%s.py", strings.ReplaceAll(dagID, "-", "_")))
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove dag artifact %s: %w", path, err)
	}

	_, err := c.request(ctx, func(r *resty.Request) (*resty.Response, error) {
		return r.Delete("/dags/" + dagID)
	})
	return err
}

func toRunSummary(dagID string, r runResponse) *ports.RunSummary {
	startedAt, _ := time.Parse(time.RFC3339, r.LogicalDate)
	return &ports.RunSummary{
		RunID:     r.DAGRunID,
		DAGID:     dagID,
		State:     mapExternalRunState(r.State),
		StartedAt: startedAt,
	}
}

func mapExternalRunState(state string) ports.RunState {
	return ports.ProjectWorkflowState(state)
}
