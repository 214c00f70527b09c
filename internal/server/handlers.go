package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/go-chi/chi/v5"

	"github.com/cwbudde/algo-synth/internal/store"
	"github.com/cwbudde/algo-synth/synth"
)

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, synth.ErrInvalidSettings),
		errors.Is(err, synth.ErrMalformedDocument),
		errors.Is(err, store.ErrInvalidKey),
		errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, synth.ErrUnsupportedDocument):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, synth.ErrUnknownPreset),
		errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	}
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", "error", err)
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

var errBadRequest = errors.New("bad request")

func readBody(r *http.Request) ([]byte, error) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errBadRequest, err)
	}
	return data, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	var voices int
	s.player.Do(func(sy *synth.Synth) { voices = sy.Voices().ActiveVoices() })
	s.writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "voices": voices})
}

func (s *Server) handleGetSettings(w http.ResponseWriter, _ *http.Request) {
	var settings synth.Settings
	s.player.Do(func(sy *synth.Synth) { settings = sy.Settings() })
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePatchSettings(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	var settings synth.Settings
	err = s.player.DoErr(func(sy *synth.Synth) error {
		if err := sy.ApplySettingsJSON(data); err != nil {
			return err
		}
		settings = sy.Settings()
		return nil
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func noteKey(note string) string { return "http:" + note }

func (s *Server) handleNoteOn(w http.ResponseWriter, r *http.Request) {
	note := chi.URLParam(r, "note")
	freq, err := synth.NoteFrequency(note)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	s.player.Do(func(sy *synth.Synth) { sy.Keys().KeyDown(noteKey(note), freq, note) })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleNoteOff(w http.ResponseWriter, r *http.Request) {
	note := chi.URLParam(r, "note")
	s.player.Do(func(sy *synth.Synth) { sy.Keys().KeyUp(noteKey(note)) })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReleaseAll(w http.ResponseWriter, _ *http.Request) {
	s.player.Do(func(sy *synth.Synth) { sy.Keys().ReleaseAll() })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetScale(w http.ResponseWriter, _ *http.Request) {
	var scale synth.ScaleDetune
	s.player.Do(func(sy *synth.Synth) { scale = sy.Scale() })
	s.writeJSON(w, http.StatusOK, scale)
}

func (s *Server) handleToggleScale(w http.ResponseWriter, r *http.Request) {
	pc := chi.URLParam(r, "pc")
	if !slices.Contains(synth.PitchClasses(), pc) {
		s.writeError(w, fmt.Errorf("%w: unknown pitch class %q", errBadRequest, pc))
		return
	}
	var on bool
	s.player.Do(func(sy *synth.Synth) { on = sy.ToggleScaleNote(pc) })
	s.writeJSON(w, http.StatusOK, map[string]any{"pitchClass": pc, "detuned": on})
}

func (s *Server) handleResetScale(w http.ResponseWriter, _ *http.Request) {
	s.player.Do(func(sy *synth.Synth) { sy.ResetScale() })
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReverbTime(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Seconds float64 `json:"seconds"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, fmt.Errorf("%w: %w", errBadRequest, err))
		return
	}
	if err := s.player.DoErr(func(sy *synth.Synth) error { return sy.SetReverbTime(body.Seconds) }); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, _ *http.Request) {
	var data []byte
	err := s.player.DoErr(func(sy *synth.Synth) error {
		var err error
		data, err = sy.ExportJSON()
		return err
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+store.DefaultKey+`.json"`)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := readBody(r)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.player.DoErr(func(sy *synth.Synth) error { return sy.Import(data) }); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListPresets(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{
		"voice": synth.VoicePresets(),
		"style": synth.StylePresets(),
	})
}

func (s *Server) handleVoicePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.player.DoErr(func(sy *synth.Synth) error { return sy.ApplyVoicePreset(name) }); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStylePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := s.player.DoErr(func(sy *synth.Synth) error { return sy.ApplyStylePreset(name) }); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStoreKeys(w http.ResponseWriter, _ *http.Request) {
	keys, err := s.config.Store.Keys()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if keys == nil {
		keys = []string{}
	}
	s.writeJSON(w, http.StatusOK, keys)
}

func (s *Server) handleStoreSave(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	var data []byte
	err := s.player.DoErr(func(sy *synth.Synth) error {
		var err error
		data, err = sy.ExportJSON()
		return err
	})
	if err == nil {
		err = s.config.Store.Save(key, data)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStoreLoad(w http.ResponseWriter, r *http.Request) {
	data, err := s.config.Store.Load(chi.URLParam(r, "key"))
	if err == nil {
		err = s.player.DoErr(func(sy *synth.Synth) error { return sy.Import(data) })
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStoreDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.config.Store.Delete(chi.URLParam(r, "key")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
