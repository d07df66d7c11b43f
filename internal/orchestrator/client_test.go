package orchestrator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/scystream/control-plane/internal/logging"
	"github.com/scystream/control-plane/internal/ports"
)

func newTestServer(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestRegisterSucceedsOncePresent(t *testing.T) {
	t.Parallel()

	calls := 0
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/auth/token":
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok"})
		case r.URL.Path == "/dags":
			calls++
			dags := listDAGsResponse{}
			if calls >= 2 {
				dags.DAGs = append(dags.DAGs, struct {
					DAGID string `json:"dag_id"`
				}{DAGID: "proj_1"})
			}
			json.NewEncoder(w).Encode(dags)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	c := New(srv.URL, "u", "p", time.Second, 2*time.Second, 10*time.Millisecond, t.TempDir(), logging.NoOp{})
	err := c.Register(context.Background(), "proj_1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, calls, 2)
}

func TestRegisterTimesOut(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok"})
		case "/dags":
			json.NewEncoder(w).Encode(listDAGsResponse{})
		}
	})

	c := New(srv.URL, "u", "p", time.Second, 30*time.Millisecond, 10*time.Millisecond, t.TempDir(), logging.NoOp{})
	err := c.Register(context.Background(), "proj_1")
	require.Error(t, err)
}

func TestReauthenticatesOn401(t *testing.T) {
	t.Parallel()

	tokenCalls := 0
	firstAttempt := true
	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			tokenCalls++
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok"})
		case "/dags/proj_1":
			if firstAttempt {
				firstAttempt = false
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			w.WriteHeader(http.StatusOK)
		}
	})

	c := New(srv.URL, "u", "p", time.Second, time.Second, 10*time.Millisecond, t.TempDir(), logging.NoOp{})
	err := c.Unpause(context.Background(), "proj_1")
	require.NoError(t, err)
	require.Equal(t, 2, tokenCalls)
}

func TestDeleteIgnoresMissingArtifact(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok"})
		case "/dags/proj_1":
			w.WriteHeader(http.StatusOK)
		}
	})

	c := New(srv.URL, "u", "p", time.Second, time.Second, 10*time.Millisecond, t.TempDir(), logging.NoOp{})
	err := c.Delete(context.Background(), "proj_1")
	require.NoError(t, err)
}

func TestTaskStatesParsesResponse(t *testing.T) {
	t.Parallel()

	srv := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/token":
			json.NewEncoder(w).Encode(tokenResponse{AccessToken: "tok"})
		case "/dags/proj_1/dagRuns/run_1/taskInstances":
			json.NewEncoder(w).Encode(taskInstancesResponse{TaskInstances: []taskInstance{
				{TaskID: "task_a_1", State: "success"},
			}})
		}
	})

	c := New(srv.URL, "u", "p", time.Second, time.Second, 10*time.Millisecond, t.TempDir(), logging.NoOp{})
	states, err := c.TaskStates(context.Background(), "proj_1", "run_1")
	require.NoError(t, err)
	require.Equal(t, ports.RunState("SUCCESS"), ports.ProjectBlockState(states["task_a_1"]))
}
