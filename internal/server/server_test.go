package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"math/rand/v2"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cwbudde/algo-synth/internal/audio"
	"github.com/cwbudde/algo-synth/internal/store"
	"github.com/cwbudde/algo-synth/synth"
)

type fixture struct {
	srv    *httptest.Server
	player *audio.Player
	store  *store.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	s, err := synth.New(8000, synth.WithLogger(logger), synth.WithRand(rand.New(rand.NewPCG(1, 2))))
	if err != nil {
		t.Fatalf("synth.New() error = %v", err)
	}

	st, err := store.Open(t.TempDir(), store.WithLogger(logger))
	if err != nil {
		t.Fatalf("store.Open() error = %v", err)
	}

	p := audio.NewPlayer(s)
	srv := httptest.NewServer(New(p, Config{Store: st, Logger: logger}).Handler())
	t.Cleanup(srv.Close)

	return &fixture{srv: srv, player: p, store: st}
}

func (f *fixture) do(t *testing.T, method, path, body string) (int, []byte) {
	t.Helper()

	req, err := http.NewRequest(method, f.srv.URL+path, strings.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest() error = %v", err)
	}

	resp, err := f.srv.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s error = %v", method, path, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}

	return resp.StatusCode, data
}

func TestHealth(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code, body := f.do(t, http.MethodGet, "/health", "")

	if code != http.StatusOK || !strings.Contains(string(body), `"status":"ok"`) {
		t.Fatalf("GET /health = %d %s", code, body)
	}
}

func TestPatchSettings(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code, body := f.do(t, http.MethodPatch, "/settings", `{"volume":0.25,"delayMix":0.4}`)
	if code != http.StatusOK {
		t.Fatalf("PATCH /settings = %d %s", code, body)
	}

	var got synth.Settings
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if got.Volume != 0.25 || got.DelayMix != 0.4 || got.Cutoff != synth.DefaultSettings().Cutoff {
		t.Fatalf("settings = %+v", got)
	}
}

func TestErrorStatus(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		want   int
	}{
		{"malformed settings", http.MethodPatch, "/settings", `{"volume":`, http.StatusBadRequest},
		{"invalid settings", http.MethodPatch, "/settings", `{"waveform":"noise"}`, http.StatusBadRequest},
		{"bad note", http.MethodPost, "/notes/H9/on", "", http.StatusBadRequest},
		{"bad pitch class", http.MethodPost, "/scale/X/toggle", "", http.StatusBadRequest},
		{"bad reverb time", http.MethodPut, "/reverb/time", `{"seconds":0}`, http.StatusBadRequest},
		{"malformed preset", http.MethodPut, "/preset", `[1,2]`, http.StatusBadRequest},
		{"future preset", http.MethodPut, "/preset", `{"version":"2.0.0","settings":{}}`, http.StatusUnprocessableEntity},
		{"unknown voice", http.MethodPost, "/presets/voice/theremin", "", http.StatusNotFound},
		{"unknown style", http.MethodPost, "/presets/style/polka", "", http.StatusNotFound},
		{"missing stored preset", http.MethodPost, "/store/nothing/load", "", http.StatusNotFound},
	}

	f := newFixture(t)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			code, body := f.do(t, tc.method, tc.path, tc.body)
			if code != tc.want {
				t.Fatalf("%s %s = %d %s, want %d", tc.method, tc.path, code, body, tc.want)
			}
		})
	}
}

func TestNotesDriveKeyTracker(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	if code, _ := f.do(t, http.MethodPost, "/notes/A4/on", ""); code != http.StatusNoContent {
		t.Fatalf("note on = %d", code)
	}

	f.player.Do(func(s *synth.Synth) {
		if !s.Keys().Held(noteKey("A4")) || s.Voices().ActiveVoices() != 1 {
			t.Fatal("note on did not start a voice")
		}
	})

	if code, _ := f.do(t, http.MethodPost, "/notes/A4/off", ""); code != http.StatusNoContent {
		t.Fatalf("note off = %d", code)
	}

	f.player.Do(func(s *synth.Synth) {
		if s.Keys().Held(noteKey("A4")) {
			t.Fatal("key still held after note off")
		}
	})
}

func TestScaleRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	code, body := f.do(t, http.MethodPost, "/scale/E/toggle", "")
	if code != http.StatusOK || !strings.Contains(string(body), `"detuned":true`) {
		t.Fatalf("toggle = %d %s", code, body)
	}

	_, body = f.do(t, http.MethodGet, "/scale", "")
	if strings.TrimSpace(string(body)) != `{"E":-50}` {
		t.Fatalf("GET /scale = %s", body)
	}

	if code, _ := f.do(t, http.MethodDelete, "/scale", ""); code != http.StatusNoContent {
		t.Fatalf("reset = %d", code)
	}

	_, body = f.do(t, http.MethodGet, "/scale", "")
	if strings.TrimSpace(string(body)) != `{}` {
		t.Fatalf("GET /scale after reset = %s", body)
	}
}

func TestPresetExportImport(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.do(t, http.MethodPatch, "/settings", `{"cutoff":900}`)
	f.do(t, http.MethodPost, "/scale/B/toggle", "")

	code, exported := f.do(t, http.MethodGet, "/preset", "")
	if code != http.StatusOK {
		t.Fatalf("GET /preset = %d", code)
	}

	g := newFixture(t)
	if code, body := g.do(t, http.MethodPut, "/preset", string(exported)); code != http.StatusNoContent {
		t.Fatalf("PUT /preset = %d %s", code, body)
	}

	g.player.Do(func(s *synth.Synth) {
		if s.Settings().Cutoff != 900 || s.Scale()["B"] != synth.QuarterToneDown {
			t.Fatalf("imported settings = %+v scale = %v", s.Settings(), s.Scale())
		}
	})
}

func TestStoreRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	f.do(t, http.MethodPatch, "/settings", `{"volume":0.1}`)

	if code, body := f.do(t, http.MethodPost, "/store/"+store.DefaultKey+"/save", ""); code != http.StatusNoContent {
		t.Fatalf("save = %d %s", code, body)
	}

	_, body := f.do(t, http.MethodGet, "/store/", "")
	if strings.TrimSpace(string(body)) != `["`+store.DefaultKey+`"]` {
		t.Fatalf("keys = %s", body)
	}

	f.do(t, http.MethodPatch, "/settings", `{"volume":0.9}`)

	if code, body := f.do(t, http.MethodPost, "/store/"+store.DefaultKey+"/load", ""); code != http.StatusNoContent {
		t.Fatalf("load = %d %s", code, body)
	}

	f.player.Do(func(s *synth.Synth) {
		if s.Settings().Volume != 0.1 {
			t.Fatalf("Volume = %g after load, want 0.1", s.Settings().Volume)
		}
	})

	if code, _ := f.do(t, http.MethodDelete, "/store/"+store.DefaultKey, ""); code != http.StatusNoContent {
		t.Fatalf("delete = %d", code)
	}

	if code, _ := f.do(t, http.MethodDelete, "/store/"+store.DefaultKey, ""); code != http.StatusNotFound {
		t.Fatalf("second delete = %d, want 404", code)
	}
}

func TestPresetCatalogRoutes(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	_, body := f.do(t, http.MethodGet, "/presets", "")

	var got map[string][]string
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if len(got["voice"]) == 0 || len(got["style"]) == 0 {
		t.Fatalf("catalog = %v", got)
	}

	if code, _ := f.do(t, http.MethodPost, "/presets/style/oriental", ""); code != http.StatusNoContent {
		t.Fatalf("style = %d", code)
	}

	if code, _ := f.do(t, http.MethodPost, "/presets/voice/bass", ""); code != http.StatusNoContent {
		t.Fatalf("voice = %d", code)
	}

	f.player.Do(func(s *synth.Synth) {
		if s.Poly() || len(s.Scale()) != 2 {
			t.Fatalf("presets not applied: poly=%v scale=%v", s.Poly(), s.Scale())
		}
	})
}

func TestServeShutsDownOnCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("Listen() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() {
		done <- New(f.player, Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}).Serve(ctx, ln)
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
