package store

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	return s
}

func TestSaveLoadDelete(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	doc := []byte(`{"settings":{"volume":0.3}}`)

	if err := s.Save(DefaultKey, doc); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := s.Load(DefaultKey)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if string(got) != string(doc) {
		t.Fatalf("Load() = %s, want %s", got, doc)
	}

	if err := s.Delete(DefaultKey); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	if _, err := s.Load(DefaultKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load() after delete error = %v, want ErrNotFound", err)
	}

	if err := s.Delete(DefaultKey); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Delete() twice error = %v, want ErrNotFound", err)
	}
}

func TestSaveOverwrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, doc := range []string{`{"a":1}`, `{"b":2}`} {
		if err := s.Save("p", []byte(doc)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	got, _ := s.Load("p")
	if string(got) != `{"b":2}` {
		t.Fatalf("Load() = %s", got)
	}
}

func TestInvalidKeys(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, key := range []string{"", ".", "..", "a/b", `a\b`} {
		if err := s.Save(key, nil); !errors.Is(err, ErrInvalidKey) {
			t.Errorf("Save(%q) error = %v, want ErrInvalidKey", key, err)
		}
	}
}

func TestKeys(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	for _, key := range []string{"zeta", "alpha", DefaultKey} {
		if err := s.Save(key, []byte("{}")); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	keys, err := s.Keys()
	if err != nil {
		t.Fatalf("Keys() error = %v", err)
	}

	want := []string{"alpha", DefaultKey, "zeta"}
	if len(keys) != len(want) {
		t.Fatalf("Keys() = %v, want %v", keys, want)
	}

	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys() = %v, want %v", keys, want)
		}
	}
}

func TestWatch(t *testing.T) {
	t.Parallel()

	s := newTestStore(t)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	got := make(chan string, 8)
	done := make(chan error, 1)

	go func() {
		done <- s.Watch(ctx, DefaultKey, func(data []byte) {
			select {
			case got <- string(data):
			default:
			}
		})
	}()

	// Keep saving until the watcher has been set up and reports the write.
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case data := <-got:
			if data != `{"v":1}` {
				t.Fatalf("Watch() delivered %s", data)
			}

			cancel()

			if err := <-done; err != nil {
				t.Fatalf("Watch() error = %v", err)
			}

			return
		case <-ticker.C:
			if err := s.Save(DefaultKey, []byte(`{"v":1}`)); err != nil {
				t.Fatalf("Save() error = %v", err)
			}
		case <-ctx.Done():
			t.Fatal("no change delivered")
		}
	}
}
