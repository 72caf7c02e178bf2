package testsupport

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

// StartedJob records one job-start request received by a FakeRecognition.
type StartedJob struct {
	Kind string
	Body map[string]any
}

// FakeRecognition is an in-process stand-in for the speaker-recognition API.
// Jobs report running for RunningPolls polls, then succeed with the output
// registered for their kind, or fail when the kind is listed in Fail.
type FakeRecognition struct {
	Server *httptest.Server

	mu           sync.Mutex
	outputs      map[string]string
	fail         map[string]string
	runningPolls int
	uploads      [][]byte
	started      []StartedJob
	polls        map[string]int
}

// NewFakeRecognition starts a fake server and registers its cleanup.
func NewFakeRecognition(t testing.TB) *FakeRecognition {
	t.Helper()
	f := &FakeRecognition{
		outputs: map[string]string{},
		fail:    map[string]string{},
		polls:   map[string]int{},
	}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /media/input", f.handleMediaInput)
	mux.HandleFunc("PUT /upload/{key}", f.handleUpload)
	mux.HandleFunc("POST /{kind}", f.handleStart)
	mux.HandleFunc("GET /jobs/{id}", f.handleJob)
	mux.HandleFunc("GET /test", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]string{"status": "OK"})
	})
	f.Server = httptest.NewServer(mux)
	t.Cleanup(f.Server.Close)
	return f
}

// URL returns the API base URL.
func (f *FakeRecognition) URL() string {
	return f.Server.URL
}

// SetOutput registers the JSON output returned by succeeded jobs of kind.
func (f *FakeRecognition) SetOutput(kind, outputJSON string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outputs[kind] = outputJSON
}

// SetFailure makes jobs of kind fail with message.
func (f *FakeRecognition) SetFailure(kind, message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[kind] = message
}

// SetRunningPolls sets how many polls report running before a job finishes.
func (f *FakeRecognition) SetRunningPolls(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runningPolls = n
}

// Uploads returns the bodies received by the upload target.
func (f *FakeRecognition) Uploads() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([][]byte(nil), f.uploads...)
}

// Started returns the job-start requests in arrival order.
func (f *FakeRecognition) Started() []StartedJob {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]StartedJob(nil), f.started...)
}

func (f *FakeRecognition) handleMediaInput(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	_ = json.NewDecoder(r.Body).Decode(&body)
	key := strings.TrimPrefix(body.URL, "media://")
	writeJSON(w, map[string]string{"url": f.Server.URL + "/upload/" + key})
}

func (f *FakeRecognition) handleUpload(w http.ResponseWriter, r *http.Request) {
	data, _ := io.ReadAll(r.Body)
	f.mu.Lock()
	f.uploads = append(f.uploads, data)
	f.mu.Unlock()
	w.WriteHeader(http.StatusOK)
}

func (f *FakeRecognition) handleStart(w http.ResponseWriter, r *http.Request) {
	kind := r.PathValue("kind")
	var body map[string]any
	_ = json.NewDecoder(r.Body).Decode(&body)
	f.mu.Lock()
	f.started = append(f.started, StartedJob{Kind: kind, Body: body})
	f.mu.Unlock()
	writeJSON(w, map[string]string{"jobId": kind + "-job", "status": "created"})
}

func (f *FakeRecognition) handleJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	kind := strings.TrimSuffix(id, "-job")

	f.mu.Lock()
	f.polls[id]++
	polls := f.polls[id]
	running := polls <= f.runningPolls
	failure, failed := f.fail[kind]
	output := f.outputs[kind]
	f.mu.Unlock()

	switch {
	case running:
		writeJSON(w, map[string]any{"jobId": id, "status": "running"})
	case failed:
		writeJSON(w, map[string]any{"jobId": id, "status": "failed", "error": failure})
	default:
		if output == "" {
			output = "null"
		}
		writeJSON(w, map[string]any{"jobId": id, "status": "succeeded", "output": json.RawMessage(output)})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
