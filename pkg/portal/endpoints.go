package portal

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Endpoints locates the portal API and the AI backend. Paths are joined onto the
// matching base URL.
type Endpoints struct {
	APIBaseURL string `yaml:"api_base_url"`
	AIBaseURL  string `yaml:"ai_base_url"`

	Login        string `yaml:"login"`
	Register     string `yaml:"register"`
	LearningPath string `yaml:"learning_path"`
	MCQ          string `yaml:"mcq"`
	SaveMCQ      string `yaml:"save_mcq"`

	Paper       string `yaml:"paper"`
	Interview   string `yaml:"interview"`
	Conferences string `yaml:"conferences"`
}

// DefaultEndpoints returns the standard routes on the given base URLs.
func DefaultEndpoints(apiBaseURL, aiBaseURL string) Endpoints {
	return Endpoints{
		APIBaseURL:   apiBaseURL,
		AIBaseURL:    aiBaseURL,
		Login:        "/api/v1/users/login",
		Register:     "/api/v1/users",
		LearningPath: "/api/v1/ai/learningPath",
		MCQ:          "/api/v1/ai/fileToMcqGenerater",
		SaveMCQ:      "/api/v1/ai/saveMcqData",
		Paper:        "/generate-paper/",
		Interview:    "/generate-questions",
		Conferences:  "/scrape/easychair",
	}
}

// LoadEndpoints overlays the non-empty values of a YAML file onto base.
func LoadEndpoints(path string, base Endpoints) (Endpoints, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return base, errors.New("endpoints file path is empty")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("read endpoints file: %w", err)
	}

	var file Endpoints
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return base, fmt.Errorf("decode endpoints file: %w", err)
	}

	out := base
	overlay(&out.APIBaseURL, file.APIBaseURL)
	overlay(&out.AIBaseURL, file.AIBaseURL)
	overlay(&out.Login, file.Login)
	overlay(&out.Register, file.Register)
	overlay(&out.LearningPath, file.LearningPath)
	overlay(&out.MCQ, file.MCQ)
	overlay(&out.SaveMCQ, file.SaveMCQ)
	overlay(&out.Paper, file.Paper)
	overlay(&out.Interview, file.Interview)
	overlay(&out.Conferences, file.Conferences)
	return out, nil
}

func overlay(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (e Endpoints) api(path string) string { return joinURL(e.APIBaseURL, path) }
func (e Endpoints) ai(path string) string  { return joinURL(e.AIBaseURL, path) }

func joinURL(base, path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	base = strings.TrimRight(base, "/")
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return base + path
}
