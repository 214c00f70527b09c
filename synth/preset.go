package synth

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Masterminds/semver/v3"
)

// DocumentVersion is the preset format written by Export.
const DocumentVersion = "1.1.0"

// supportedDocuments accepts every document of the current major version.
var supportedDocuments = mustConstraint("^1")

func mustConstraint(c string) *semver.Constraints {
	out, err := semver.NewConstraint(c)
	if err != nil {
		panic("synth: " + err.Error())
	}
	return out
}

var (
	ErrMalformedDocument   = errors.New("synth: malformed preset document")
	ErrUnsupportedDocument = errors.New("synth: unsupported preset document version")
)

// Document is the persisted engine state.
type Document struct {
	Version  string      `json:"version,omitempty"`
	Settings Settings    `json:"settings"`
	Scale    ScaleDetune `json:"scale"`
}

// rawDocument keeps settings undecoded so they can be merged over the
// defaults, and so a bare settings object can be told apart.
type rawDocument struct {
	Version  string          `json:"version"`
	Settings json.RawMessage `json:"settings"`
	Scale    ScaleDetune     `json:"scale"`
}

// DecodeDocument parses a preset document. Both {"settings", "scale"} and
// a bare settings object are accepted; settings are merged over
// DefaultSettings. A document without a version is treated as legacy.
func DecodeDocument(data []byte) (Document, error) {
	if trimmed := bytes.TrimSpace(data); len(trimmed) == 0 || trimmed[0] != '{' {
		return Document{}, fmt.Errorf("%w: top level is not an object", ErrMalformedDocument)
	}
	var raw rawDocument
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}
	if err := checkVersion(raw.Version); err != nil {
		return Document{}, err
	}

	settingsData := []byte(raw.Settings)
	if len(raw.Settings) == 0 || string(raw.Settings) == "null" {
		settingsData = data
	}
	settings, err := DefaultSettings().Merge(settingsData)
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", ErrMalformedDocument, err)
	}

	return Document{Version: raw.Version, Settings: settings, Scale: raw.Scale.Clone()}, nil
}

func checkVersion(v string) error {
	if v == "" {
		return nil
	}
	ver, err := semver.NewVersion(v)
	if err != nil {
		return fmt.Errorf("%w: %q: %w", ErrUnsupportedDocument, v, err)
	}
	if !supportedDocuments.Check(ver) {
		return fmt.Errorf("%w: %s, want %s", ErrUnsupportedDocument, ver, supportedDocuments)
	}
	return nil
}

// MarshalIndent encodes d with a two-space indent.
func (d Document) MarshalIndent() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}
