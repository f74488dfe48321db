package exporters

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"
)

// Exporter types.
const (
	TypeSQS  = "sqs"
	TypeHTTP = "http"
)

// Result kinds an exporter can be limited to.
const (
	KindLearningPath = "learning_path"
	KindPaper        = "paper"
	KindMCQ          = "mcq"
	KindInterview    = "interview"
	KindConferences  = "conferences"
)

var knownKinds = []string{KindLearningPath, KindPaper, KindMCQ, KindInterview, KindConferences}

// Methods the request client can send an event with.
var httpMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete}

const defaultHTTPTimeoutSeconds = 5

// ExporterConfig is one entry of the exporters file. Kinds limits the exporter
// to those result kinds; empty means all.
type ExporterConfig struct {
	ID      string              `yaml:"id"`
	Type    string              `yaml:"type"`
	Enabled *bool               `yaml:"enabled"`
	Kinds   []string            `yaml:"kinds"`
	SQS     *SQSExporterConfig  `yaml:"sqs"`
	HTTP    *HTTPExporterConfig `yaml:"http"`
}

// SQSExporterConfig holds AWS SQS specific settings.
type SQSExporterConfig struct {
	QueueURL string `yaml:"uri"`
	Region   string `yaml:"region"`
}

// HTTPExporterConfig holds webhook settings.
type HTTPExporterConfig struct {
	URL            string            `yaml:"url"`
	Method         string            `yaml:"method"`
	Headers        map[string]string `yaml:"headers"`
	TimeoutSeconds int               `yaml:"timeout_seconds"`
}

// Configs is the ordered list of exporters declared in a file.
type Configs []ExporterConfig

// LoadConfigs reads exporter entries from a YAML file. JSON files parse as
// well since YAML is a superset. Unknown keys are rejected.
func LoadConfigs(path string) (Configs, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("exporters file path is empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read exporters file: %w", err)
	}
	return parseConfigs(raw)
}

func parseConfigs(raw []byte) (Configs, error) {
	var file struct {
		Exporters Configs `yaml:"exporters"`
	}
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode exporters file: %w", err)
	}
	if len(file.Exporters) == 0 {
		return nil, errors.New("exporters file declares no exporters")
	}

	seen := make(map[string]struct{}, len(file.Exporters))
	for i := range file.Exporters {
		cfg := &file.Exporters[i]
		cfg.normalize()
		if err := cfg.validate(); err != nil {
			return nil, fmt.Errorf("exporters[%d]: %w", i, err)
		}
		if _, dup := seen[cfg.ID]; dup {
			return nil, fmt.Errorf("exporters[%d]: duplicate id %q", i, cfg.ID)
		}
		seen[cfg.ID] = struct{}{}
	}
	return file.Exporters, nil
}

// Enabled returns the entries not switched off.
func (c Configs) Enabled() Configs {
	var out Configs
	for _, cfg := range c {
		if cfg.IsEnabled() {
			out = append(out, cfg)
		}
	}
	return out
}

// IsEnabled reports the enabled flag, which defaults to true.
func (cfg ExporterConfig) IsEnabled() bool {
	return cfg.Enabled == nil || *cfg.Enabled
}

// Accepts reports whether the exporter takes results of kind.
func (cfg ExporterConfig) Accepts(kind string) bool {
	return len(cfg.Kinds) == 0 || slices.Contains(cfg.Kinds, strings.ToLower(kind))
}

func (cfg *ExporterConfig) normalize() {
	cfg.ID = strings.TrimSpace(cfg.ID)
	cfg.Type = strings.ToLower(strings.TrimSpace(cfg.Type))

	var kinds []string
	for _, k := range cfg.Kinds {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" && !slices.Contains(kinds, k) {
			kinds = append(kinds, k)
		}
	}
	cfg.Kinds = kinds

	if s := cfg.SQS; s != nil {
		cfg.SQS = &SQSExporterConfig{
			QueueURL: strings.TrimSpace(s.QueueURL),
			Region:   strings.TrimSpace(s.Region),
		}
	}
	if h := cfg.HTTP; h != nil {
		out := &HTTPExporterConfig{
			URL:            strings.TrimSpace(h.URL),
			Method:         strings.ToUpper(strings.TrimSpace(h.Method)),
			TimeoutSeconds: h.TimeoutSeconds,
		}
		if out.Method == "" {
			out.Method = http.MethodPost
		}
		if out.TimeoutSeconds <= 0 {
			out.TimeoutSeconds = defaultHTTPTimeoutSeconds
		}
		for k, v := range h.Headers {
			k, v = strings.TrimSpace(k), strings.TrimSpace(v)
			if k == "" || v == "" {
				continue
			}
			if out.Headers == nil {
				out.Headers = make(map[string]string)
			}
			out.Headers[k] = v
		}
		cfg.HTTP = out
	}
}

func (cfg ExporterConfig) validate() error {
	if cfg.ID == "" {
		return errors.New("id is required")
	}
	for _, k := range cfg.Kinds {
		if !slices.Contains(knownKinds, k) {
			return fmt.Errorf("exporter %q: unknown kind %q (want one of %s)", cfg.ID, k, strings.Join(knownKinds, ", "))
		}
	}

	switch cfg.Type {
	case TypeSQS:
		switch {
		case cfg.SQS == nil:
			return fmt.Errorf("exporter %q: sqs block is required", cfg.ID)
		case cfg.SQS.QueueURL == "":
			return fmt.Errorf("exporter %q: sqs.uri is required", cfg.ID)
		case cfg.SQS.Region == "":
			return fmt.Errorf("exporter %q: sqs.region is required", cfg.ID)
		}
	case TypeHTTP:
		switch {
		case cfg.HTTP == nil:
			return fmt.Errorf("exporter %q: http block is required", cfg.ID)
		case cfg.HTTP.URL == "":
			return fmt.Errorf("exporter %q: http.url is required", cfg.ID)
		case !slices.Contains(httpMethods, cfg.HTTP.Method):
			return fmt.Errorf("exporter %q: http.method %s is not supported", cfg.ID, cfg.HTTP.Method)
		}
	case "":
		return fmt.Errorf("exporter %q: type is required", cfg.ID)
	default:
		return fmt.Errorf("exporter %q: unknown type %q", cfg.ID, cfg.Type)
	}
	return nil
}
