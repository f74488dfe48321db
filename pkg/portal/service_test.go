package portal

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/samvad-hq/shiksha/internal/credential"
	"github.com/samvad-hq/shiksha/internal/domain"
	"github.com/samvad-hq/shiksha/pkg/httpclient"
)

type recorded struct {
	method      string
	path        string
	query       map[string]string
	auth        string
	contentType string
	body        []byte
	fileName    string
	fileContent string
}

type fakeBackend struct {
	t      *testing.T
	mu     sync.Mutex
	last   recorded
	status int
	reply  string
	server *httptest.Server
}

func newFakeBackend(t *testing.T, status int, reply string) *fakeBackend {
	t.Helper()
	fb := &fakeBackend{t: t, status: status, reply: reply}
	fb.server = httptest.NewServer(http.HandlerFunc(fb.handle))
	t.Cleanup(fb.server.Close)
	return fb
}

func (f *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	rec := recorded{
		method:      r.Method,
		path:        r.URL.Path,
		query:       map[string]string{},
		auth:        r.Header.Get(httpclient.AuthHeader),
		contentType: r.Header.Get("Content-Type"),
	}
	for k := range r.URL.Query() {
		rec.query[k] = r.URL.Query().Get(k)
	}
	if strings.HasPrefix(rec.contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			f.t.Errorf("parse multipart: %v", err)
		} else if fh, _, err := r.FormFile("file"); err == nil {
			data, _ := io.ReadAll(fh)
			rec.fileContent = string(data)
			rec.fileName = r.MultipartForm.File["file"][0].Filename
			fh.Close()
		}
	} else {
		rec.body, _ = io.ReadAll(r.Body)
	}

	f.mu.Lock()
	f.last = rec
	status, reply := f.status, f.reply
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(reply))
}

func (f *fakeBackend) request() recorded {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeBackend) respond(status int, reply string) {
	f.mu.Lock()
	f.status, f.reply = status, reply
	f.mu.Unlock()
}

func newTestService(t *testing.T, fb *fakeBackend) (*Service, credential.Store) {
	t.Helper()
	store, err := credential.NewStore(credential.TypeMemory, "", credential.Options{})
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}
	client := httpclient.NewRestyClient(httpclient.Options{Timeout: 5 * time.Second, Credentials: store})
	endpoints := DefaultEndpoints(fb.server.URL, fb.server.URL+"/ai")
	return NewService(client, store, endpoints, nil), store
}

func TestLoginStoresTokenForLaterCalls(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"token":"tok-123"}`)
	svc, store := newTestService(t, fb)
	ctx := context.Background()

	token, err := svc.Login(ctx, Credentials{Email: " a@b.co ", Password: "pw"})
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if token != "tok-123" {
		t.Fatalf("expected token tok-123, got %q", token)
	}

	req := fb.request()
	if req.method != http.MethodPost || req.path != "/api/v1/users/login" {
		t.Fatalf("unexpected login call %s %s", req.method, req.path)
	}
	if req.auth != "" {
		t.Fatalf("expected empty auth header before login, got %q", req.auth)
	}
	var sent Credentials
	if err := json.Unmarshal(req.body, &sent); err != nil {
		t.Fatalf("decode login body: %v", err)
	}
	if sent.Email != "a@b.co" || sent.Password != "pw" {
		t.Fatalf("unexpected login body %+v", sent)
	}

	stored, _ := store.Token(ctx)
	if stored != "tok-123" {
		t.Fatalf("expected stored token, got %q", stored)
	}

	fb.respond(http.StatusOK, `{"questions":["q1"]}`)
	if _, err := svc.InterviewQuestions(ctx, "Go developer"); err != nil {
		t.Fatalf("InterviewQuestions() error = %v", err)
	}
	if got := fb.request().auth; got != "tok-123" {
		t.Fatalf("expected stored token on next call, got %q", got)
	}
}

func TestLoginRejectedMapsToNotAuthenticated(t *testing.T) {
	fb := newFakeBackend(t, http.StatusUnauthorized, `{"message":"Invalid credentials"}`)
	svc, store := newTestService(t, fb)

	_, err := svc.Login(context.Background(), Credentials{Email: "a@b.co", Password: "bad"})
	if !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
	var serr *StatusError
	if !errors.As(err, &serr) || serr.Message != "Invalid credentials" {
		t.Fatalf("expected status error with message, got %v", err)
	}
	if tok, _ := store.Token(context.Background()); tok != "" {
		t.Fatalf("expected nothing stored, got %q", tok)
	}
}

func TestLoginWithoutTokenFails(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`)
	svc, _ := newTestService(t, fb)

	if _, err := svc.Login(context.Background(), Credentials{Email: "a@b.co", Password: "pw"}); err == nil {
		t.Fatalf("expected error for missing token")
	}
}

func TestValidationRejectsBeforeSending(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`)
	svc, _ := newTestService(t, fb)

	err := svc.Register(context.Background(), Credentials{Email: "not-an-email"})
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Fields["email"] == "" || verr.Fields["password"] == "" {
		t.Fatalf("expected email and password failures, got %v", verr.Fields)
	}
	if fb.request().method != "" {
		t.Fatalf("expected no request to be sent")
	}
}

func TestRegisterExpectsCreated(t *testing.T) {
	fb := newFakeBackend(t, http.StatusCreated, `{"id":"u1"}`)
	svc, _ := newTestService(t, fb)

	if err := svc.Register(context.Background(), Credentials{Email: "a@b.co", Password: "pw"}); err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	if got := fb.request().path; got != "/api/v1/users" {
		t.Fatalf("unexpected register path %q", got)
	}

	fb.respond(http.StatusOK, `{}`)
	err := svc.Register(context.Background(), Credentials{Email: "a@b.co", Password: "pw"})
	var serr *StatusError
	if !errors.As(err, &serr) || serr.StatusCode != http.StatusOK {
		t.Fatalf("expected status error for 200, got %v", err)
	}
}

func TestLogoutClearsCredential(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"token":"tok"}`)
	svc, store := newTestService(t, fb)
	ctx := context.Background()

	if _, err := svc.Login(ctx, Credentials{Email: "a@b.co", Password: "pw"}); err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if err := svc.Logout(ctx); err != nil {
		t.Fatalf("Logout() error = %v", err)
	}
	if tok, _ := store.Token(ctx); tok != "" {
		t.Fatalf("expected credential cleared, got %q", tok)
	}
}

func TestLearningPathNormalizesMarkdown(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"response":"  # Plan\n    - step one\n\t- step two  "}`)
	svc, _ := newTestService(t, fb)

	got, err := svc.LearningPath(context.Background(), "learn go")
	if err != nil {
		t.Fatalf("LearningPath() error = %v", err)
	}
	if want := "# Plan\n- step one\n- step two"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
	if path := fb.request().path; path != "/api/v1/ai/learningPath" {
		t.Fatalf("unexpected path %q", path)
	}
}

func TestGenerateMCQUploadsFile(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"id":"m1","questions":[{"question":"Q?","options":["a","b"],"answer":"a"}]}`)
	svc, _ := newTestService(t, fb)

	set, err := svc.GenerateMCQ(context.Background(), MCQRequest{
		Difficulty: "Medium",
		Count:      5,
		FileName:   "notes.pdf",
		File:       strings.NewReader("pdf-bytes"),
	})
	if err != nil {
		t.Fatalf("GenerateMCQ() error = %v", err)
	}
	if len(set.Questions) != 1 || set.Questions[0].Answer != "a" {
		t.Fatalf("unexpected mcq set %+v", set)
	}

	req := fb.request()
	if req.path != "/api/v1/ai/fileToMcqGenerater" {
		t.Fatalf("unexpected path %q", req.path)
	}
	if req.query["difficultyLevel"] != "medium" || req.query["noOfQuestions"] != "5" {
		t.Fatalf("unexpected query %v", req.query)
	}
	if req.fileName != "notes.pdf" || req.fileContent != "pdf-bytes" {
		t.Fatalf("unexpected upload %q %q", req.fileName, req.fileContent)
	}
}

func TestGenerateMCQValidation(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`)
	svc, _ := newTestService(t, fb)

	cases := []struct {
		name  string
		req   MCQRequest
		field string
	}{
		{"difficulty", MCQRequest{Difficulty: "extreme", Count: 5, FileName: "a", File: strings.NewReader("x")}, "difficultyLevel"},
		{"count", MCQRequest{Difficulty: "easy", Count: 51, FileName: "a", File: strings.NewReader("x")}, "noOfQuestions"},
		{"file", MCQRequest{Difficulty: "easy", Count: 5, FileName: "a"}, "file"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GenerateMCQ(context.Background(), tc.req)
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Fields[tc.field] == "" {
				t.Fatalf("expected %s validation failure, got %v", tc.field, err)
			}
		})
	}
}

func TestSaveMCQPostsSet(t *testing.T) {
	fb := newFakeBackend(t, http.StatusCreated, `{"id":"m9","userId":7,"questions":[{"question":"Q?","options":["a","b"],"answer":"b"}],"createdAt":"2024-05-01"}`)
	svc, store := newTestService(t, fb)
	ctx := context.Background()
	if err := store.Save(ctx, "tok-9"); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	saved, err := svc.SaveMCQ(ctx, domain.MCQSet{
		Questions: []domain.Question{{Question: "Q?", Options: []string{"a", "b"}, Answer: "b"}},
	})
	if err != nil {
		t.Fatalf("SaveMCQ() error = %v", err)
	}
	if saved.ID != "m9" || saved.UserID != 7 || len(saved.Questions) != 1 {
		t.Fatalf("unexpected saved set %+v", saved)
	}

	req := fb.request()
	if req.method != http.MethodPost || req.path != "/api/v1/ai/saveMcqData" {
		t.Fatalf("unexpected call %s %s", req.method, req.path)
	}
	if req.auth != "tok-9" || !strings.HasPrefix(req.contentType, "application/json") {
		t.Fatalf("unexpected headers auth=%q type=%q", req.auth, req.contentType)
	}
	var sent domain.MCQSet
	if err := json.Unmarshal(req.body, &sent); err != nil {
		t.Fatalf("decode save body: %v", err)
	}
	if len(sent.Questions) != 1 || sent.Questions[0].Answer != "b" {
		t.Fatalf("unexpected save body %s", req.body)
	}
}

func TestSaveMCQErrors(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{}`)
	svc, _ := newTestService(t, fb)
	ctx := context.Background()

	_, err := svc.SaveMCQ(ctx, domain.MCQSet{})
	var verr *ValidationError
	if !errors.As(err, &verr) || verr.Fields["questions"] == "" {
		t.Fatalf("expected questions validation failure, got %v", err)
	}
	if fb.request().method != "" {
		t.Fatalf("empty set must not reach the backend")
	}

	fb.respond(http.StatusUnauthorized, `{"message":"expired"}`)
	set := domain.MCQSet{Questions: []domain.Question{{Question: "Q?"}}}
	if _, err := svc.SaveMCQ(ctx, set); !errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("expected ErrNotAuthenticated, got %v", err)
	}
}

func TestAIOperationsAcceptAny2xx(t *testing.T) {
	fb := newFakeBackend(t, http.StatusAccepted, `{"questions":["Why Go?"]}`)
	svc, _ := newTestService(t, fb)
	ctx := context.Background()

	qs, err := svc.InterviewQuestions(ctx, "Engineer")
	if err != nil || len(qs) != 1 {
		t.Fatalf("expected 202 to be accepted, got %v %v", qs, err)
	}

	fb.respond(http.StatusNonAuthoritativeInfo, `[]`)
	if _, err := svc.SearchConferences(ctx, ConferenceQuery{Domain: "ml", PaperType: "r", Format: "f"}); err != nil {
		t.Fatalf("expected 203 to be accepted, got %v", err)
	}

	fb.respond(http.StatusAccepted, `{"id":"m1","questions":[]}`)
	if _, err := svc.GenerateMCQ(ctx, MCQRequest{Difficulty: "easy", Count: 1, FileName: "a", File: strings.NewReader("x")}); err != nil {
		t.Fatalf("expected 202 to be accepted for mcq, got %v", err)
	}

	fb.respond(http.StatusMultipleChoices, `{}`)
	var serr *StatusError
	if _, err := svc.InterviewQuestions(ctx, "Engineer"); !errors.As(err, &serr) || serr.StatusCode != http.StatusMultipleChoices {
		t.Fatalf("expected 300 to be rejected, got %v", err)
	}
}

func TestGeneratePaperFillsPlaceholders(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"paper":{"abstract":"An abstract","results":""},"status":"success"}`)
	svc, _ := newTestService(t, fb)

	paper, err := svc.GeneratePaper(context.Background(), PaperRequest{
		Topic:       "  Graph neural networks  ",
		PaperType:   "research",
		PaperFormat: "IEEE",
	})
	if err != nil {
		t.Fatalf("GeneratePaper() error = %v", err)
	}
	if paper.Title != "Graph neural networks" {
		t.Fatalf("unexpected title %q", paper.Title)
	}
	if paper.Abstract != "An abstract" {
		t.Fatalf("unexpected abstract %q", paper.Abstract)
	}
	if paper.Results != "Results not generated" || paper.RelatedWork != "Related work not generated" {
		t.Fatalf("expected placeholders, got %q / %q", paper.Results, paper.RelatedWork)
	}

	req := fb.request()
	if req.path != "/ai/generate-paper/" {
		t.Fatalf("unexpected path %q", req.path)
	}
	var sent map[string]string
	if err := json.Unmarshal(req.body, &sent); err != nil {
		t.Fatalf("decode paper body: %v", err)
	}
	if sent["paper_type"] != "research" || sent["paper_format"] != "IEEE" {
		t.Fatalf("unexpected paper body %v", sent)
	}
}

func TestGeneratePaperErrors(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"status":"success"}`)
	svc, _ := newTestService(t, fb)
	ctx := context.Background()

	if _, err := svc.GeneratePaper(ctx, PaperRequest{Topic: "short", PaperType: "a", PaperFormat: "b"}); err == nil {
		t.Fatalf("expected validation error for short topic")
	}

	if _, err := svc.GeneratePaper(ctx, PaperRequest{Topic: "a long enough topic", PaperType: "a", PaperFormat: "b"}); err == nil {
		t.Fatalf("expected error for missing paper")
	}

	fb.respond(http.StatusInternalServerError, `{"detail":"model offline"}`)
	_, err := svc.GeneratePaper(ctx, PaperRequest{Topic: "a long enough topic", PaperType: "a", PaperFormat: "b"})
	var serr *StatusError
	if !errors.As(err, &serr) || serr.Message != "model offline" {
		t.Fatalf("expected detail message, got %v", err)
	}
}

func TestStatusErrorStructuredDetail(t *testing.T) {
	fb := newFakeBackend(t, http.StatusUnprocessableEntity, `{"detail":[{"loc":["body","job_title"]}]}`)
	svc, _ := newTestService(t, fb)

	_, err := svc.InterviewQuestions(context.Background(), "Engineer")
	var serr *StatusError
	if !errors.As(err, &serr) || !strings.Contains(serr.Message, "job_title") {
		t.Fatalf("expected raw detail in message, got %v", err)
	}
	if errors.Is(err, ErrNotAuthenticated) {
		t.Fatalf("422 must not match ErrNotAuthenticated")
	}
}

func TestInterviewQuestions(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `{"questions":["Tell me about Go","Explain channels"]}`)
	svc, _ := newTestService(t, fb)

	qs, err := svc.InterviewQuestions(context.Background(), "Backend engineer")
	if err != nil {
		t.Fatalf("InterviewQuestions() error = %v", err)
	}
	if len(qs) != 2 {
		t.Fatalf("expected 2 questions, got %v", qs)
	}
	req := fb.request()
	if req.path != "/ai/generate-questions" || !strings.Contains(string(req.body), `"job_title":"Backend engineer"`) {
		t.Fatalf("unexpected call %s %s", req.path, req.body)
	}
}

func TestSearchConferences(t *testing.T) {
	fb := newFakeBackend(t, http.StatusOK, `[{"acronym":"ICML","name":"Machine Learning","link":"https://easychair.org/cfp/ICML","location":"Vienna","submission_deadline":"Jan 10","start_date":"Jul 1","topics":["ml"]}]`)
	svc, _ := newTestService(t, fb)

	confs, err := svc.SearchConferences(context.Background(), ConferenceQuery{Domain: "ml", PaperType: "research", Format: "IEEE"})
	if err != nil {
		t.Fatalf("SearchConferences() error = %v", err)
	}
	if len(confs) != 1 || confs[0].Acronym != "ICML" || confs[0].Location != "Vienna" {
		t.Fatalf("unexpected conferences %+v", confs)
	}
	req := fb.request()
	if req.method != http.MethodGet || req.path != "/ai/scrape/easychair" {
		t.Fatalf("unexpected call %s %s", req.method, req.path)
	}
	if req.query["domain"] != "ml" || req.query["paper_type"] != "research" || req.query["format"] != "IEEE" {
		t.Fatalf("unexpected query %v", req.query)
	}
}

func TestLoadEndpointsOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "endpoints.yaml")
	content := "ai_base_url: https://ai.example.com/\npaper: /v2/paper\nsave_mcq: /api/v2/mcq/save\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write endpoints: %v", err)
	}

	base := DefaultEndpoints("http://api.local", "http://ai.local")
	got, err := LoadEndpoints(path, base)
	if err != nil {
		t.Fatalf("LoadEndpoints() error = %v", err)
	}
	if got.ai(got.Paper) != "https://ai.example.com/v2/paper" {
		t.Fatalf("unexpected paper url %q", got.ai(got.Paper))
	}
	if got.api(got.SaveMCQ) != "http://api.local/api/v2/mcq/save" {
		t.Fatalf("unexpected save mcq url %q", got.api(got.SaveMCQ))
	}
	if got.api(got.Login) != "http://api.local/api/v1/users/login" {
		t.Fatalf("expected login untouched, got %q", got.api(got.Login))
	}

	if _, err := LoadEndpoints(filepath.Join(t.TempDir(), "missing.yaml"), base); err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestNormalizeMarkdown(t *testing.T) {
	cases := map[string]string{
		"":                         "",
		"plain":                    "plain",
		"a\n   b\n\n   c":          "a\nb\nc",
		"\n\n  ## Title\n  text  ": "## Title\ntext",
	}
	for in, want := range cases {
		if got := NormalizeMarkdown(in); got != want {
			t.Fatalf("NormalizeMarkdown(%q) = %q, want %q", in, got, want)
		}
	}
}
