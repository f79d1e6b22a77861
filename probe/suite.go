package probe

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration with YAML encoding in the time.ParseDuration
// string format ("2s", "500ms").
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("probe: invalid duration %q: %w", s, err)
	}
	*d = Duration(dur)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the value as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Step is one action within a scenario. A step optionally sends a text
// message, then optionally waits for a text message and compares it against
// Expect. Within bounds the wait; zero means the suite default.
type Step struct {
	Send   string   `yaml:"send,omitempty"`
	Expect string   `yaml:"expect,omitempty"`
	Within Duration `yaml:"within,omitempty"`
}

// Scenario is one scripted session against an endpoint. URL is either a
// complete ws:// or wss:// URL or a path resolved against the suite's
// base URL.
type Scenario struct {
	Name    string   `yaml:"name"`
	URL     string   `yaml:"url"`
	Timeout Duration `yaml:"timeout,omitempty"`
	Steps   []Step   `yaml:"steps"`
}

// Suite is a YAML-encoded collection of scenarios. Preflight, when set,
// names an HTTP endpoint that must answer 200 OK before any scenario runs.
//
// Relative scenario URLs resolve against BaseURL as plain ws:// (and the
// preflight as plain http://); suites targeting a TLS server must spell
// out full wss:// URLs per scenario.
type Suite struct {
	BaseURL   string     `yaml:"base_url,omitempty"`
	Preflight string     `yaml:"preflight,omitempty"`
	Scenarios []Scenario `yaml:"scenarios"`
}

// LoadSuite decodes a YAML suite document.
func LoadSuite(r io.Reader) (*Suite, error) {
	var suite Suite
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&suite); err != nil {
		return nil, fmt.Errorf("probe: decode suite: %w", err)
	}
	if len(suite.Scenarios) == 0 {
		return nil, fmt.Errorf("probe: suite has no scenarios")
	}
	for i, sc := range suite.Scenarios {
		if sc.Name == "" {
			return nil, fmt.Errorf("probe: scenario %d has no name", i)
		}
		if sc.URL == "" {
			return nil, fmt.Errorf("probe: scenario %q has no url", sc.Name)
		}
	}
	return &suite, nil
}

// LoadSuiteFile reads and decodes a YAML suite file.
func LoadSuiteFile(path string) (*Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("probe: open suite: %w", err)
	}
	defer f.Close()
	return LoadSuite(f)
}

// resolveWS resolves a scenario URL against the suite base. Complete ws://
// and wss:// URLs pass through unchanged; anything else is treated as a
// path under the base host.
func (s *Suite) resolveWS(raw string) string {
	if strings.HasPrefix(raw, "ws://") || strings.HasPrefix(raw, "wss://") {
		return raw
	}
	path := raw
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "ws://" + s.BaseURL + path
}

// resolveHTTP resolves the preflight URL against the suite base.
func (s *Suite) resolveHTTP(raw string) string {
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	path := raw
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "http://" + s.BaseURL + path
}
