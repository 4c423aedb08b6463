package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/cod1ng-earth/splicenft/pkg/catalog"
	"github.com/cod1ng-earth/splicenft/pkg/errors"
	"github.com/cod1ng-earth/splicenft/pkg/gate"
	"github.com/cod1ng-earth/splicenft/pkg/imagecodec"
	"github.com/cod1ng-earth/splicenft/pkg/pipeline"
	"github.com/cod1ng-earth/splicenft/pkg/receipt"
	"github.com/cod1ng-earth/splicenft/pkg/render"
	"github.com/cod1ng-earth/splicenft/pkg/storage"
	"github.com/cod1ng-earth/splicenft/pkg/style"
)

const (
	testCollection = "0x231e5BA16e2C9BE8918cf67d477052f3F6C35036"
	testNetwork    = "42"
)

var quiet = log.NewWithOptions(io.Discard, log.Options{})

type fixture struct {
	srv      *httptest.Server
	cas      *storage.MemoryCAS
	receipts *receipt.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dim := render.Dimensions{Width: 300, Height: 100}

	reg := style.NewRegistry(quiet, style.Network{ID: 42, Name: "test", Source: catalog.Builtin()})
	runner := pipeline.NewRunner(reg, render.NewEngine(0), nil, nil, quiet)
	cas := storage.NewMemoryCAS()
	receipts := receipt.NewMemoryStore()

	cfg := gate.DefaultConfig()
	cfg.Dim = dim
	g, err := gate.New(runner, storage.NewResolver(cas, nil, "", quiet), cfg, quiet)
	if err != nil {
		t.Fatal(err)
	}
	g.WithRecorder(receipts)

	s, err := New(Deps{
		Registry: reg,
		Runner:   runner,
		Gate:     g,
		Receipts: receipts,
		Metrics:  http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { io.WriteString(w, "metrics") }),
		Dim:      dim,
		Logger:   quiet,
	})
	if err != nil {
		t.Fatal(err)
	}
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, cas: cas, receipts: receipts}
}

func (f *fixture) get(t *testing.T, path string) *http.Response {
	t.Helper()
	resp, err := http.Get(f.srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func (f *fixture) post(t *testing.T, path string, body any) *http.Response {
	t.Helper()
	data, err := json.Marshal(body)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(f.srv.URL+path, "application/json", bytes.NewReader(data))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(resp.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	return v
}

func TestHealth(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/healthz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if _, err := uuid.Parse(resp.Header.Get(RequestIDHeader)); err != nil {
		t.Errorf("missing request id: %q", resp.Header.Get(RequestIDHeader))
	}
	h := decode[healthResponse](t, resp)
	if h.Status != "ok" || len(h.Networks) != 1 || h.Networks[0].ID != 42 {
		t.Errorf("health = %+v", h)
	}
}

func TestRequestID_Propagated(t *testing.T) {
	f := newFixture(t)
	id := uuid.NewString()
	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/healthz", nil)
	req.Header.Set(RequestIDHeader, id)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get(RequestIDHeader); got != id {
		t.Errorf("request id = %q, want %q", got, id)
	}
}

func TestStyles(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/styles/"+testNetwork)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	list := decode[[]map[string]any](t, resp)
	if len(list) != 3 {
		t.Fatalf("got %d styles, want 3", len(list))
	}
	if list[0]["program"] != "stripes" {
		t.Errorf("first program = %v", list[0]["program"])
	}
	if _, ok := list[1]["palette"]; !ok {
		t.Error("palette missing from style with palette")
	}
}

func TestRender(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/render/"+testNetwork+"/2")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != imagecodec.ContentType {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	id := storage.MustCID(body).String()
	if resp.Header.Get("X-Content-CID") != id {
		t.Errorf("X-Content-CID = %q, want %q", resp.Header.Get("X-Content-CID"), id)
	}
	r, err := imagecodec.Decode(body)
	if err != nil {
		t.Fatal(err)
	}
	if r.Width != 300 || r.Height != 100 {
		t.Errorf("got %dx%d, want 300x100", r.Width, r.Height)
	}

	req, _ := http.NewRequest(http.MethodGet, f.srv.URL+"/render/"+testNetwork+"/2", nil)
	req.Header.Set("If-None-Match", resp.Header.Get("ETag"))
	again, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer again.Body.Close()
	if again.StatusCode != http.StatusNotModified {
		t.Errorf("conditional status = %d, want 304", again.StatusCode)
	}
}

func TestSplice_Deterministic(t *testing.T) {
	f := newFixture(t)
	path := "/splice/" + testNetwork + "/" + testCollection + "/1?style=3"

	a, _ := io.ReadAll(f.get(t, path).Body)
	b, _ := io.ReadAll(f.get(t, path).Body)
	if len(a) == 0 || !bytes.Equal(a, b) {
		t.Fatal("same splice rendered different bytes")
	}
	c, _ := io.ReadAll(f.get(t, "/splice/"+testNetwork+"/"+testCollection+"/2?style=3").Body)
	if bytes.Equal(a, c) {
		t.Error("different tokens rendered identical images")
	}
	if got := f.get(t, path).Header.Get("X-Splice-Seed"); got != "3934047154" {
		t.Errorf("X-Splice-Seed = %q, want 3934047154", got)
	}
}

func TestSeed(t *testing.T) {
	f := newFixture(t)
	resp := f.get(t, "/seed/"+testCollection+"/0x2a")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	got := decode[seedResponse](t, resp)
	if got.Seed != 4155991876 || got.TokenID != "42" || got.Hex != "0xf7b76744" {
		t.Errorf("seed = %+v", got)
	}
}

func TestErrors(t *testing.T) {
	f := newFixture(t)
	tests := []struct {
		name   string
		path   string
		status int
		code   errors.Code
	}{
		{"bad network", "/styles/abc", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"unknown network", "/styles/7", http.StatusNotFound, errors.ErrCodeNotFound},
		{"unknown style", "/render/" + testNetwork + "/99", http.StatusNotFound, errors.ErrCodeNotFound},
		{"missing style param", "/splice/" + testNetwork + "/" + testCollection + "/1", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"bad collection", "/splice/" + testNetwork + "/0x12/1?style=1", http.StatusBadRequest, errors.ErrCodeInvalidAddress},
		{"bad token", "/seed/" + testCollection + "/-1", http.StatusBadRequest, errors.ErrCodeInvalidTokenID},
		{"bad palette", "/render/" + testNetwork + "/1?palette=zzz", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"bad receipt id", "/receipts/nope", http.StatusBadRequest, errors.ErrCodeInvalidInput},
		{"missing receipt", "/receipts/" + uuid.NewString(), http.StatusNotFound, errors.ErrCodeNotFound},
		{"bad receipt query", "/receipts?accepted=maybe", http.StatusBadRequest, errors.ErrCodeInvalidRequest},
		{"no route", "/nowhere", http.StatusNotFound, errors.ErrCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := f.get(t, tt.path)
			if resp.StatusCode != tt.status {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.status)
			}
			body := decode[errorBody](t, resp)
			if body.Code != tt.code {
				t.Errorf("code = %q, want %q", body.Code, tt.code)
			}
			if body.RequestID == "" {
				t.Error("error body has no request id")
			}
		})
	}
}

func TestValidate(t *testing.T) {
	f := newFixture(t)
	png, _ := io.ReadAll(f.get(t, "/splice/"+testNetwork+"/"+testCollection+"/5?style=2").Body)
	id, err := f.cas.Put(context.Background(), png)
	if err != nil {
		t.Fatal(err)
	}

	claim := gate.Claim{JobID: 9, Network: 42, Collection: testCollection, TokenID: "5", StyleID: 2, ImageRef: id.String()}
	res := decode[map[string]any](t, f.post(t, "/validate", claim))
	if res["state"] != "accepted" {
		t.Fatalf("state = %v, verdict = %v", res["state"], res["verdict"])
	}

	claim.TokenID = "6"
	res = decode[map[string]any](t, f.post(t, "/validate", claim))
	if res["state"] != "rejected" {
		t.Errorf("mismatched token state = %v", res["state"])
	}

	list := decode[[]receipt.Receipt](t, f.get(t, "/receipts?job=9&accepted=true"))
	if len(list) != 1 || list[0].Claim.TokenID != "5" {
		t.Fatalf("accepted receipts = %+v", list)
	}
	got := decode[receipt.Receipt](t, f.get(t, "/receipts/"+list[0].ID))
	if got.ID != list[0].ID || !got.Accepted {
		t.Errorf("receipt = %+v", got)
	}
	if f.receipts.Len() != 2 {
		t.Errorf("stored %d receipts, want 2", f.receipts.Len())
	}
}

func TestValidate_BadBody(t *testing.T) {
	f := newFixture(t)
	resp, err := http.Post(f.srv.URL+"/validate", "application/json", strings.NewReader(`{"job_id":"x"}`))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestMetrics(t *testing.T) {
	f := newFixture(t)
	body, _ := io.ReadAll(f.get(t, "/metrics").Body)
	if string(body) != "metrics" {
		t.Errorf("metrics body = %q", body)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[errors.Code]int{
		errors.ErrCodeInvalidTokenID:     400,
		errors.ErrCodeNotFound:           404,
		errors.ErrCodeImagesDiffer:       422,
		errors.ErrCodeCatalogUnavailable: 503,
		errors.ErrCodeNetwork:            502,
		errors.ErrCodeTimeout:            504,
		errors.ErrCodeUnsupported:        501,
		errors.ErrCodeRenderFailure:      500,
		errors.ErrCodeInternal:           500,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}

func TestRun_Shutdown(t *testing.T) {
	reg := style.NewRegistry(quiet, style.Network{ID: 1, Source: catalog.Builtin()})
	runner := pipeline.NewRunner(reg, render.NewEngine(0), nil, nil, quiet)
	g, _ := gate.New(runner, storage.NewResolver(storage.NewMemoryCAS(), nil, "", quiet), gate.DefaultConfig(), quiet)
	s, err := New(Deps{Registry: reg, Runner: runner, Gate: g})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Run() = %v", err)
	}
}

func TestNew_RequiresDeps(t *testing.T) {
	if _, err := New(Deps{}); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("New() = %v, want INVALID_INPUT", err)
	}
}
