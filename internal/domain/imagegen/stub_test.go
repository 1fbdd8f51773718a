package imagegen

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/elidorascodex/tecflow/internal/shared/clock"
)

type recordedCall struct {
	Method string
	Path   string
	Accept string
	Auth   string
	Fields map[string][]string
	Files  map[string][]byte
	Names  map[string]string
}

type stubResponse struct {
	status int
	header map[string]string
	body   string
}

func imageResponse(contentType, seed, finish, body string) stubResponse {
	h := map[string]string{"Content-Type": contentType}
	if seed != "" {
		h["seed"] = seed
	}
	if finish != "" {
		h["finish-reason"] = finish
	}
	return stubResponse{status: http.StatusOK, header: h, body: body}
}

func jobResponse(id string) stubResponse {
	return stubResponse{
		status: http.StatusOK,
		header: map[string]string{"Content-Type": "application/json"},
		body:   `{"id":"` + id + `"}`,
	}
}

var pending = stubResponse{status: http.StatusAccepted, header: map[string]string{"Content-Type": "application/json"}, body: `{"status":"in-progress"}`}

// stubDoer replays scripted responses. POSTs and GETs have separate queues; once a queue
// is drained its last response repeats.
type stubDoer struct {
	t     *testing.T
	mu    sync.Mutex
	posts []stubResponse
	gets  []stubResponse
	calls []recordedCall
	onGet func(n int)
}

func (s *stubDoer) Do(req *http.Request) (*http.Response, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	call := recordedCall{
		Method: req.Method,
		Path:   req.URL.Path,
		Accept: req.Header.Get("Accept"),
		Auth:   req.Header.Get("Authorization"),
		Fields: map[string][]string{},
		Files:  map[string][]byte{},
		Names:  map[string]string{},
	}
	if req.Method == http.MethodPost {
		require.NoError(s.t, req.ParseMultipartForm(32<<20))
		call.Fields = req.MultipartForm.Value
		for name, headers := range req.MultipartForm.File {
			f, err := headers[0].Open()
			require.NoError(s.t, err)
			data, err := io.ReadAll(f)
			require.NoError(s.t, err)
			f.Close()
			call.Files[name] = data
			call.Names[name] = headers[0].Filename
		}
	}
	s.calls = append(s.calls, call)

	var queue *[]stubResponse
	if req.Method == http.MethodPost {
		queue = &s.posts
	} else {
		queue = &s.gets
		if s.onGet != nil {
			s.onGet(s.count(http.MethodGet))
		}
	}
	require.NotEmpty(s.t, *queue, "unexpected %s %s", req.Method, req.URL.Path)
	r := (*queue)[0]
	if len(*queue) > 1 {
		*queue = (*queue)[1:]
	}

	header := http.Header{}
	for k, v := range r.header {
		header.Set(k, v)
	}
	return &http.Response{
		StatusCode: r.status,
		Header:     header,
		Body:       io.NopCloser(bytes.NewBufferString(r.body)),
		Request:    req,
	}, nil
}

func (s *stubDoer) count(method string) int {
	n := 0
	for _, c := range s.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

func (s *stubDoer) Calls() []recordedCall {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]recordedCall(nil), s.calls...)
}

func (s *stubDoer) Count(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.count(method)
}

var testNow = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func newTestClient(t *testing.T, doer *stubDoer) (*Client, *clock.Fake, string) {
	t.Helper()
	doer.t = t
	dir := t.TempDir()
	cfg := DefaultConfig()
	cfg.APIKey = "sk-test"
	cfg.BaseURL = "https://api.stability.test/v2beta"
	cfg.OutputDir = dir
	clk := clock.NewFake(testNow)
	return NewClient(cfg, doer, clk, nil, nil, nil), clk, dir
}

func reader(s string) Input {
	return FromReader("input.png", strings.NewReader(s))
}
