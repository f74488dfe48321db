package portal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/samvad-hq/shiksha/internal/domain"
	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

// LearningPathRequest asks for a study roadmap.
type LearningPathRequest struct {
	Query string `json:"query" validate:"required"`
}

// LearningPath returns the roadmap as markdown.
func (s *Service) LearningPath(ctx context.Context, query string) (string, error) {
	req := LearningPathRequest{Query: strings.TrimSpace(query)}
	if err := s.check(req); err != nil {
		return "", err
	}
	var out struct {
		Response string `json:"response"`
	}
	if err := s.postJSON(ctx, "learning path", s.endpoints.api(s.endpoints.LearningPath), req, &out); err != nil {
		return "", err
	}
	return NormalizeMarkdown(out.Response), nil
}

var indentedBreak = regexp.MustCompile(`\n\s+`)

// NormalizeMarkdown drops indentation after line breaks and trims the result.
func NormalizeMarkdown(raw string) string {
	return strings.TrimSpace(indentedBreak.ReplaceAllString(raw, "\n"))
}

// MCQRequest uploads a document for question generation. Difficulty is matched
// case-insensitively.
type MCQRequest struct {
	Difficulty string    `json:"difficultyLevel" validate:"required,oneof=easy medium hard"`
	Count      int       `json:"noOfQuestions" validate:"min=1,max=50"`
	FileName   string    `json:"fileName" validate:"required"`
	File       io.Reader `json:"-" validate:"-"`
}

// GenerateMCQ uploads the document as multipart field `file`.
func (s *Service) GenerateMCQ(ctx context.Context, req MCQRequest) (domain.MCQSet, error) {
	req.Difficulty = strings.ToLower(strings.TrimSpace(req.Difficulty))
	if err := s.check(req); err != nil {
		return domain.MCQSet{}, err
	}
	if req.File == nil {
		return domain.MCQSet{}, &ValidationError{Fields: map[string]string{"file": "this field is required"}}
	}

	query := url.Values{}
	query.Set("difficultyLevel", req.Difficulty)
	query.Set("noOfQuestions", strconv.Itoa(req.Count))

	resp, err := s.client.Do(ctx, httpclient.Request{
		URL:    s.endpoints.api(s.endpoints.MCQ) + "?" + query.Encode(),
		Method: http.MethodPost,
		Body: httpclient.Form(nil, httpclient.FormFile{
			Field:  "file",
			Name:   req.FileName,
			Reader: req.File,
		}),
	})
	if err != nil {
		return domain.MCQSet{}, fmt.Errorf("mcq request: %w", err)
	}

	var out domain.MCQSet
	if err := s.expect("mcq", resp, &out); err != nil {
		return domain.MCQSet{}, err
	}
	return out, nil
}

// SaveMCQ stores a generated set and returns the stored copy.
func (s *Service) SaveMCQ(ctx context.Context, set domain.MCQSet) (domain.MCQSet, error) {
	if len(set.Questions) == 0 {
		return domain.MCQSet{}, &ValidationError{Fields: map[string]string{"questions": "this field is required"}}
	}
	var out domain.MCQSet
	if err := s.postJSON(ctx, "save mcq", s.endpoints.api(s.endpoints.SaveMCQ), set, &out); err != nil {
		return domain.MCQSet{}, err
	}
	return out, nil
}

// PaperRequest describes the paper to generate.
type PaperRequest struct {
	Topic       string `json:"topic" validate:"required,min=10"`
	PaperType   string `json:"paper_type" validate:"required"`
	PaperFormat string `json:"paper_format" validate:"required"`
}

type paperSections struct {
	Abstract     string `json:"abstract"`
	Introduction string `json:"introduction"`
	RelatedWork  string `json:"related_work"`
	Methodology  string `json:"methodology"`
	Results      string `json:"results"`
	Conclusion   string `json:"conclusion"`
	References   string `json:"references"`
}

// GeneratePaper returns the generated sections, titled with the topic. Sections
// the backend left empty carry a "<Section> not generated" placeholder.
func (s *Service) GeneratePaper(ctx context.Context, req PaperRequest) (domain.Paper, error) {
	req.Topic = strings.TrimSpace(req.Topic)
	if err := s.check(req); err != nil {
		return domain.Paper{}, err
	}

	var out struct {
		Paper  *paperSections `json:"paper"`
		Status string         `json:"status"`
	}
	if err := s.postJSON(ctx, "paper", s.endpoints.ai(s.endpoints.Paper), req, &out); err != nil {
		return domain.Paper{}, err
	}
	if out.Paper == nil {
		return domain.Paper{}, errors.New("paper: no paper data received")
	}

	p := out.Paper
	return domain.Paper{
		Title:        req.Topic,
		Abstract:     orPlaceholder(p.Abstract, "Abstract"),
		Introduction: orPlaceholder(p.Introduction, "Introduction"),
		RelatedWork:  orPlaceholder(p.RelatedWork, "Related work"),
		Methodology:  orPlaceholder(p.Methodology, "Methodology"),
		Results:      orPlaceholder(p.Results, "Results"),
		Conclusion:   orPlaceholder(p.Conclusion, "Conclusion"),
		References:   orPlaceholder(p.References, "References"),
	}, nil
}

func orPlaceholder(v, section string) string {
	if strings.TrimSpace(v) == "" {
		return section + " not generated"
	}
	return v
}

// InterviewRequest asks for interview questions for a role.
type InterviewRequest struct {
	JobTitle string `json:"job_title" validate:"required"`
}

// InterviewQuestions returns the generated questions.
func (s *Service) InterviewQuestions(ctx context.Context, jobTitle string) ([]string, error) {
	req := InterviewRequest{JobTitle: strings.TrimSpace(jobTitle)}
	if err := s.check(req); err != nil {
		return nil, err
	}
	var out struct {
		Questions []string `json:"questions"`
	}
	if err := s.postJSON(ctx, "interview questions", s.endpoints.ai(s.endpoints.Interview), req, &out); err != nil {
		return nil, err
	}
	return out.Questions, nil
}
