package lcabyg

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PhelGc/lcabyg-sensitivity/internal/config"
)

const testToken = "3f1c6a52-8f5e-4a0e-9b1d-0d1f2a3b4c5d"

// fakeAPI simula la API v2 con un solo job
type fakeAPI struct {
	mu        sync.Mutex
	statuses  []string // estados que devuelve GET /v2/jobs/{id}, en orden
	polls     int
	logins    int
	finished  []string
	posted    NewJob
	output    string
	expireAll bool
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}
	authorized := func(w http.ResponseWriter, r *http.Request) bool {
		if f.expireAll || r.Header.Get("Authorization") != "Bearer "+testToken {
			w.WriteHeader(StatusAuthTokenExpired)
			io.WriteString(w, "token expired")
			return false
		}
		return true
	}

	mux.HandleFunc("POST /v2/login", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.logins++
		f.mu.Unlock()
		user, key, ok := r.BasicAuth()
		if !ok || user != "user" || key != "key" {
			http.Error(w, "bad credentials", http.StatusUnauthorized)
			return
		}
		writeJSON(w, testToken)
	})
	mux.HandleFunc("GET /v2/ping", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, "pong")
	})
	mux.HandleFunc("GET /v2/ping_secure", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			writeJSON(w, "pong_secure")
		}
	})
	mux.HandleFunc("GET /v2/jobs", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			writeJSON(w, []string{"job-1"})
		}
	})
	mux.HandleFunc("POST /v2/jobs", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.posted))
		writeJSON(w, Job{ID: "job-1", Status: StatusNew})
	})
	mux.HandleFunc("GET /v2/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		f.mu.Lock()
		status := f.statuses[min(f.polls, len(f.statuses)-1)]
		f.polls++
		f.mu.Unlock()
		writeJSON(w, Job{ID: r.PathValue("id"), Status: status, ExtraOutput: "Building.json: missing field"})
	})
	mux.HandleFunc("GET /v2/jobs/{id}/output", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			writeJSON(w, base64.StdEncoding.EncodeToString([]byte(f.output)))
		}
	})
	mux.HandleFunc("GET /v2/jobs/{id}/input", func(w http.ResponseWriter, r *http.Request) {
		if authorized(w, r) {
			writeJSON(w, f.posted.InputBlob)
		}
	})
	mux.HandleFunc("DELETE /v2/jobs/{id}", func(w http.ResponseWriter, r *http.Request) {
		if !authorized(w, r) {
			return
		}
		f.mu.Lock()
		f.finished = append(f.finished, r.PathValue("id"))
		f.mu.Unlock()
		writeJSON(w, "ok")
	})
	return mux
}

func newTestClient(t *testing.T, api *fakeAPI, maxAttempts int) *Client {
	server := httptest.NewServer(api.handler(t))
	t.Cleanup(server.Close)

	return NewClient(config.LCAbygConfig{
		ServerURL: server.URL,
		Username:  "user",
		APIKey:    "key",
		Target:    "lcabyg5+br23",
		Poll:      config.PollConfig{Interval: time.Millisecond, MaxAttempts: maxAttempts},
		Timeout:   5 * time.Second,
	})
}

func TestLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("returns the session token", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{}, 10)

		token, err := client.Login(ctx)
		require.NoError(t, err)
		assert.Equal(t, testToken, token)
	})

	t.Run("wrong credentials surface as api error", func(t *testing.T) {
		client := newTestClient(t, &fakeAPI{}, 10)
		client.apiKey = "wrong"

		_, err := client.Login(ctx)
		var apiErr *APIError
		require.True(t, errors.As(err, &apiErr))
		assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	})

	t.Run("token must be a uuid", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, `"not-a-uuid"`)
		}))
		defer server.Close()

		client := NewClient(config.LCAbygConfig{ServerURL: server.URL, Username: "u", APIKey: "k"})
		_, err := client.Login(ctx)
		assert.Error(t, err)
	})
}

func TestPing(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{}
	client := newTestClient(t, api, 10)

	res, err := client.Ping(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong", res)
	assert.Equal(t, 0, api.logins)

	res, err = client.PingSecure(ctx)
	require.NoError(t, err)
	assert.Equal(t, "pong_secure", res)
	assert.Equal(t, 1, api.logins)

	_, err = client.PingSecure(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, api.logins, "el token se reutiliza")
}

func TestAuthTokenExpired(t *testing.T) {
	api := &fakeAPI{}
	client := newTestClient(t, api, 10)
	_, err := client.Login(context.Background())
	require.NoError(t, err)

	api.expireAll = true
	_, err = client.ListJobs(context.Background())

	var expired *AuthTokenExpiredError
	require.True(t, errors.As(err, &expired))
	assert.Equal(t, "/v2/jobs", expired.Path)
}

func TestSubmitJob(t *testing.T) {
	ctx := context.Background()
	projects := []json.RawMessage{json.RawMessage(`{"Node":{"Project":{"id":"p"}}}`)}

	t.Run("polls until ready and returns decoded output", func(t *testing.T) {
		api := &fakeAPI{
			statuses: []string{StatusStarted, StatusStarted, StatusReady},
			output:   `{"model":[],"results":{}}`,
		}
		client := newTestClient(t, api, 10)

		newJob, err := PackProject(client.Target(), projects)
		require.NoError(t, err)

		job, output, err := client.SubmitJob(ctx, newJob)
		require.NoError(t, err)
		assert.Equal(t, StatusReady, job.Status)
		assert.JSONEq(t, api.output, string(output))
		assert.Equal(t, 3, api.polls)
		assert.Equal(t, []string{"job-1"}, api.finished)
		assert.Equal(t, "lcabyg5+br23", api.posted.JobTarget)

		input, err := UnpackBytes(api.posted.InputBlob)
		require.NoError(t, err)
		assert.JSONEq(t, `[{"Node":{"Project":{"id":"p"}}}]`, string(input))
	})

	t.Run("failed job carries extra output", func(t *testing.T) {
		api := &fakeAPI{statuses: []string{StatusFailed}}
		client := newTestClient(t, api, 10)

		newJob, err := PackProject(client.Target(), projects)
		require.NoError(t, err)

		_, _, err = client.SubmitJob(ctx, newJob)
		var failed *JobFailedError
		require.True(t, errors.As(err, &failed))
		assert.Equal(t, "job-1", failed.JobID)
		assert.Contains(t, failed.ExtraOutput, "missing field")
		assert.Equal(t, []string{"job-1"}, api.finished)
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		api := &fakeAPI{statuses: []string{StatusStarted}}
		client := newTestClient(t, api, 3)

		newJob, err := PackProject(client.Target(), projects)
		require.NoError(t, err)

		_, _, err = client.SubmitJob(ctx, newJob)
		assert.ErrorIs(t, err, ErrPollExhausted)
		assert.Equal(t, 3, api.polls)
	})

	t.Run("context cancellation stops polling", func(t *testing.T) {
		api := &fakeAPI{statuses: []string{StatusStarted}}
		client := newTestClient(t, api, 1000)
		client.poll.Interval = time.Hour

		cancelled, cancel := context.WithCancel(ctx)
		time.AfterFunc(20*time.Millisecond, cancel)

		newJob, err := PackProject(client.Target(), projects)
		require.NoError(t, err)

		_, _, err = client.SubmitJob(cancelled, newJob)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestJobInput(t *testing.T) {
	ctx := context.Background()
	api := &fakeAPI{statuses: []string{StatusReady}, output: `{}`}
	client := newTestClient(t, api, 10)

	newJob, err := PackProject(client.Target(), []json.RawMessage{json.RawMessage(`{"a":1}`)})
	require.NoError(t, err)
	_, err = client.PostJob(ctx, newJob)
	require.NoError(t, err)

	input, err := client.GetJobInput(ctx, "job-1")
	require.NoError(t, err)
	assert.JSONEq(t, `[{"a":1}]`, string(input))

	ids, err := client.ListJobs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"job-1"}, ids)
}

func TestUnpackBytes(t *testing.T) {
	t.Run("decodes base64 json", func(t *testing.T) {
		data, err := UnpackBytes(base64.StdEncoding.EncodeToString([]byte(`{"ok":true}`)))
		require.NoError(t, err)
		assert.JSONEq(t, `{"ok":true}`, string(data))
	})

	t.Run("rejects invalid base64", func(t *testing.T) {
		_, err := UnpackBytes("%%%")
		assert.Error(t, err)
	})

	t.Run("rejects non json payload", func(t *testing.T) {
		_, err := UnpackBytes(base64.StdEncoding.EncodeToString([]byte("hola")))
		assert.Error(t, err)
	})
}
