package generator

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"
	"unicode/utf8"

	"outreach/internal/config"
	"outreach/internal/domain"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// mockInvoker implements ModelInvoker.
type mockInvoker struct {
	lastInput *bedrockruntime.InvokeModelInput
	response  string
	err       error
}

func (m *mockInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	m.lastInput = params
	if m.err != nil {
		return nil, m.err
	}
	body, _ := json.Marshal(map[string]any{
		"output": map[string]any{
			"message": map[string]any{
				"content": []map[string]string{{"text": m.response}},
			},
		},
	})
	return &bedrockruntime.InvokeModelOutput{Body: body}, nil
}

func testSender() config.SenderConfig {
	return config.SenderConfig{
		Email:      "sender@example.com",
		Name:       "Test Sender",
		Title:      "Account Executive",
		Company:    "TestCo",
		CompanyURL: "https://testco.example",
		LinkedIn:   "https://linkedin.com/in/test-sender",
		Phone:      "(555) 555-0100",
	}
}

const longPost = "We just migrated our data platform to serverless and cut our costs in half"

func testProfile() *domain.Profile {
	return &domain.Profile{
		Name:        "Jane Doe",
		JobTitle:    "CTO at Acme",
		Company:     "Acme",
		RecentPosts: []string{longPost},
	}
}

func TestGenerate_ParsesSubjectAndBody(t *testing.T) {
	inv := &mockInvoker{response: "Subject: Serverless at Acme\n\n<p>Hi Jane,</p>\n<p>Great post.</p>"}
	g := New(Config{Invoker: inv, Sender: testSender(), Logger: testLogger()})

	email, err := g.Generate(context.Background(), testProfile(), domain.Contact{Email: "jane@acme.com"})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if email.Subject != "Serverless at Acme" {
		t.Errorf("subject: %q", email.Subject)
	}
	if !strings.Contains(email.Body, "<p>Hi Jane,</p>") {
		t.Errorf("body: %q", email.Body)
	}
	if email.Fallback {
		t.Error("model output must not be marked fallback")
	}
}

func TestGenerate_RequestShape(t *testing.T) {
	inv := &mockInvoker{response: "Subject: x\n\nbody"}
	g := New(Config{Invoker: inv, ModelID: "us.amazon.nova-pro-v1:0", Sender: testSender(), Logger: testLogger()})

	_, err := g.Generate(context.Background(), testProfile(), domain.Contact{})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}

	if got := *inv.lastInput.ModelId; got != "us.amazon.nova-pro-v1:0" {
		t.Errorf("model id: %q", got)
	}
	var req novaRequest
	if err := json.Unmarshal(inv.lastInput.Body, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if len(req.Messages) != 1 || req.Messages[0].Role != "user" {
		t.Fatalf("messages: %+v", req.Messages)
	}
	if req.InferenceConfig.MaxTokens != 400 || req.InferenceConfig.Temperature != 0.7 {
		t.Errorf("inference config: %+v", req.InferenceConfig)
	}
	prompt := req.Messages[0].Content[0].Text
	if !strings.Contains(prompt, "Jane Doe") || !strings.Contains(prompt, "Recent LinkedIn Posts:") {
		t.Errorf("prompt missing profile context:\n%s", prompt)
	}
}

func TestGenerate_ThrottlingClassified(t *testing.T) {
	inv := &mockInvoker{err: &smithy.GenericAPIError{Code: "ThrottlingException", Message: "slow down"}}
	g := New(Config{Invoker: inv, Sender: testSender(), Logger: testLogger()})

	_, err := g.Generate(context.Background(), testProfile(), domain.Contact{})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *domain.GenerationError, got %T: %v", err, err)
	}
	if genErr.Reason != domain.GenerationThrottled {
		t.Errorf("reason: %q", genErr.Reason)
	}
}

func TestGenerate_AccessDeniedClassified(t *testing.T) {
	inv := &mockInvoker{err: &smithy.GenericAPIError{Code: "AccessDeniedException", Message: "no model access"}}
	g := New(Config{Invoker: inv, Sender: testSender(), Logger: testLogger()})

	_, err := g.Generate(context.Background(), testProfile(), domain.Contact{})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *domain.GenerationError, got %T", err)
	}
	if genErr.Reason != domain.GenerationAccessDenied {
		t.Errorf("reason: %q", genErr.Reason)
	}
}

func TestGenerate_NoInvoker(t *testing.T) {
	g := New(Config{Sender: testSender(), Logger: testLogger()})
	_, err := g.Generate(context.Background(), testProfile(), domain.Contact{})
	var genErr *domain.GenerationError
	if !errors.As(err, &genErr) {
		t.Fatalf("expected *domain.GenerationError, got %T", err)
	}
}

func TestParseEmail(t *testing.T) {
	email, err := ParseEmail("Subject: Hello\n\n\n<p>Body</p>\n<p>More</p>")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if email.Subject != "Hello" {
		t.Errorf("subject: %q", email.Subject)
	}
	if email.Body != "<p>Body</p>\n<p>More</p>" {
		t.Errorf("body: %q", email.Body)
	}
}

func TestParseEmail_NoBody(t *testing.T) {
	if _, err := ParseEmail("Subject: only a subject"); err == nil {
		t.Fatal("expected error for missing body")
	}
}

func TestFallback_UsesProfileFields(t *testing.T) {
	g := New(Config{Sender: testSender(), Logger: testLogger()})
	email := g.Fallback(testProfile(), "Jane")

	if !email.Fallback {
		t.Fatal("fallback email must be marked")
	}
	if !strings.Contains(email.Body, "Hi Jane,") {
		t.Errorf("greeting missing: %q", email.Body)
	}
	if !strings.Contains(email.Body, "Acme") {
		t.Errorf("company missing: %q", email.Body)
	}
	if !strings.Contains(email.Body, string([]rune(longPost)[:50])) {
		t.Errorf("recent post reference missing: %q", email.Body)
	}
	if strings.Contains(email.Body, longPost) {
		t.Errorf("post not truncated to 50 runes: %q", email.Body)
	}
	if !strings.Contains(email.Body, "Test Sender") {
		t.Errorf("signature missing: %q", email.Body)
	}
}

func TestFallback_TruncatesPostOnRuneBoundary(t *testing.T) {
	g := New(Config{Sender: testSender(), Logger: testLogger()})
	profile := testProfile()
	profile.RecentPosts = []string{strings.Repeat("é", 60)}

	email := g.Fallback(profile, "Jane")
	if !utf8.ValidString(email.Body) {
		t.Fatalf("body contains invalid utf-8: %q", email.Body)
	}
	if !strings.Contains(email.Body, strings.Repeat("é", 50)) {
		t.Errorf("truncated post missing: %q", email.Body)
	}
	if strings.Contains(email.Body, strings.Repeat("é", 51)) {
		t.Error("post not truncated to 50 runes")
	}
}

func TestFormatProfile_ContactEnrichment(t *testing.T) {
	profile := &domain.Profile{Name: "Jane Doe", JobTitle: "CTO", Company: "Acme"}
	contact := domain.Contact{Industry: "FinTech", AWSUsage: "Confirmed - heavy EC2 usage"}

	info := FormatProfile(profile, contact)
	if !strings.Contains(info, "Industry: FinTech") {
		t.Errorf("industry missing:\n%s", info)
	}
	if !strings.Contains(info, "AWS Usage: Confirmed") {
		t.Errorf("aws usage missing:\n%s", info)
	}
}

func TestFormatProfile_ContactFallbackFields(t *testing.T) {
	info := FormatProfile(&domain.Profile{}, domain.Contact{
		FirstName: "Bob", LastName: "Smith", Title: "VP Eng", Company: "Initech",
	})
	if !strings.Contains(info, "Name: Bob Smith") {
		t.Errorf("contact name not used:\n%s", info)
	}
	if !strings.Contains(info, "Role: VP Eng at Initech") {
		t.Errorf("contact role not used:\n%s", info)
	}
}
