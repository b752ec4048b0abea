package generator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"outreach/internal/config"
	"outreach/internal/domain"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
)

const defaultModelID = "us.amazon.nova-pro-v1:0"

// ModelInvoker is the slice of the Bedrock runtime client the generator
// needs; satisfied by *bedrockruntime.Client.
type ModelInvoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Generator produces personalized outreach emails with Bedrock Nova Pro,
// with a deterministic template fallback for when the model is unreachable.
type Generator struct {
	invoker     ModelInvoker
	modelID     string
	maxTokens   int
	temperature float64
	sender      config.SenderConfig
	templates   config.Templates
	pick        func(n int) int
	logger      *slog.Logger
}

type Config struct {
	Invoker     ModelInvoker
	ModelID     string
	MaxTokens   int
	Temperature float64
	Sender      config.SenderConfig
	Templates   config.Templates
	Logger      *slog.Logger
}

func New(cfg Config) *Generator {
	if cfg.ModelID == "" {
		cfg.ModelID = defaultModelID
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 400
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	if len(cfg.Templates.Goals) == 0 {
		cfg.Templates = config.DefaultTemplates(cfg.Sender.Company)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Generator{
		invoker:     cfg.Invoker,
		modelID:     cfg.ModelID,
		maxTokens:   cfg.MaxTokens,
		temperature: cfg.Temperature,
		sender:      cfg.Sender,
		templates:   cfg.Templates,
		pick:        rand.IntN,
		logger:      cfg.Logger,
	}
}

type novaContent struct {
	Text string `json:"text"`
}

type novaMessage struct {
	Role    string        `json:"role"`
	Content []novaContent `json:"content"`
}

type novaInference struct {
	MaxTokens   int     `json:"maxTokens"`
	Temperature float64 `json:"temperature"`
}

type novaRequest struct {
	Messages        []novaMessage `json:"messages"`
	InferenceConfig novaInference `json:"inferenceConfig"`
}

type novaResponse struct {
	Output struct {
		Message struct {
			Content []novaContent `json:"content"`
		} `json:"message"`
	} `json:"output"`
}

// Generate invokes the model and parses the result into subject and body.
// Model failures are classified into *domain.GenerationError; callers that
// want to degrade and continue use Fallback next.
func (g *Generator) Generate(ctx context.Context, profile *domain.Profile, contact domain.Contact) (*domain.GeneratedEmail, error) {
	if g.invoker == nil {
		return nil, &domain.GenerationError{Reason: domain.GenerationModelError, Err: errors.New("no model client configured")}
	}

	firstName := firstNameFor(profile, contact)
	prompt := g.buildPrompt(FormatProfile(profile, contact), firstName)

	body, err := json.Marshal(novaRequest{
		Messages: []novaMessage{{
			Role:    "user",
			Content: []novaContent{{Text: prompt}},
		}},
		InferenceConfig: novaInference{MaxTokens: g.maxTokens, Temperature: g.temperature},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal model request: %w", err)
	}

	out, err := g.invoker.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(g.modelID),
		Body:        body,
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
	})
	if err != nil {
		return nil, classifyModelError(err)
	}

	var resp novaResponse
	if err := json.Unmarshal(out.Body, &resp); err != nil {
		return nil, &domain.GenerationError{Reason: domain.GenerationModelError, Err: fmt.Errorf("decode model response: %w", err)}
	}
	if len(resp.Output.Message.Content) == 0 {
		return nil, &domain.GenerationError{Reason: domain.GenerationModelError, Err: errors.New("empty model response")}
	}

	email, err := ParseEmail(resp.Output.Message.Content[0].Text)
	if err != nil {
		return nil, &domain.GenerationError{Reason: domain.GenerationModelError, Err: err}
	}
	g.logger.Info("generated email", "to", firstName, "subject", email.Subject, "model", g.modelID)
	return email, nil
}

func classifyModelError(err error) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "AccessDeniedException":
			return &domain.GenerationError{Reason: domain.GenerationAccessDenied, Err: err}
		case "ThrottlingException":
			return &domain.GenerationError{Reason: domain.GenerationThrottled, Err: err}
		}
	}
	return &domain.GenerationError{Reason: domain.GenerationModelError, Err: err}
}

// buildPrompt assembles the outreach prompt with a rotating goal and tone.
func (g *Generator) buildPrompt(profileInfo, firstName string) string {
	goal := g.templates.Goals[g.pick(len(g.templates.Goals))]
	tone := g.templates.Tones[g.pick(len(g.templates.Tones))]

	var b strings.Builder
	fmt.Fprintf(&b, "Write a personalized cold outreach email to %s based on their LinkedIn profile:\n\n", firstName)
	b.WriteString(profileInfo)
	b.WriteString("\n\nIMPORTANT REQUIREMENTS:\n")
	b.WriteString("1. If they have recent LinkedIn posts, reference their most recent post naturally in the email\n")
	b.WriteString("2. Connect their post content to their business/role\n")
	fmt.Fprintf(&b, "3. The goal is to %s\n", goal)
	fmt.Fprintf(&b, "4. Keep it under 150 words, %s tone\n", tone)
	b.WriteString("5. Use HTML format with <p> tags for paragraphs\n")
	b.WriteString("6. Include professional signature\n\n")
	b.WriteString("Format as:\nSubject: [compelling subject line - no HTML tags]\n\n")
	b.WriteString("[email body in HTML format with proper <p> tags]\n\n")
	b.WriteString("Thanks,\n\n")
	b.WriteString(g.signature())
	return b.String()
}

func (g *Generator) signature() string {
	lines := []string{g.sender.Name, g.sender.Title}
	if g.sender.Company != "" {
		lines = append(lines, g.sender.Company+": "+g.sender.CompanyURL)
	}
	if g.sender.LinkedIn != "" {
		lines = append(lines, "LinkedIn Profile: "+g.sender.LinkedIn)
	}
	if g.sender.Phone != "" {
		lines = append(lines, g.sender.Phone)
	}
	if g.sender.Address != "" {
		lines = append(lines, g.sender.Address)
	}
	var out []string
	for _, l := range lines {
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

// FormatProfile renders profile and contact-list context into the prompt's
// profile block.
func FormatProfile(profile *domain.Profile, contact domain.Contact) string {
	name := profile.Name
	if name == "" {
		name = contact.FullName()
	}
	title := profile.JobTitle
	if title == "" {
		title = contact.Title
	}
	company := profile.Company
	if company == "" {
		company = contact.Company
	}

	var lines []string
	lines = append(lines, "Name: "+name)
	lines = append(lines, fmt.Sprintf("Role: %s at %s", title, company))

	if profile.About != "" {
		lines = append(lines, "About: "+profile.About)
	}
	if len(profile.RecentPosts) > 0 {
		lines = append(lines, "Recent LinkedIn Posts:")
		for i, post := range profile.RecentPosts {
			lines = append(lines, fmt.Sprintf("Post %d: %s", i+1, post))
		}
	}
	if len(profile.Experiences) > 0 {
		lines = append(lines, "Recent Experience:")
		for _, exp := range profile.Experiences {
			if exp.Title != "" && exp.Institution != "" {
				lines = append(lines, fmt.Sprintf("- %s at %s", exp.Title, exp.Institution))
			}
		}
	}
	if contact.Industry != "" {
		lines = append(lines, "Industry: "+contact.Industry)
	}
	if strings.Contains(strings.ToLower(contact.AWSUsage), "confirmed") {
		lines = append(lines, "AWS Usage: "+contact.AWSUsage)
	}
	return strings.Join(lines, "\n")
}

// ParseEmail splits model output of the form "Subject: ...\n\n<body>" into
// its parts.
func ParseEmail(text string) (*domain.GeneratedEmail, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) == "" {
		return nil, errors.New("model returned no subject line")
	}

	subject := strings.TrimSpace(strings.TrimPrefix(lines[0], "Subject: "))

	bodyStart := 1
	for bodyStart < len(lines) && strings.TrimSpace(lines[bodyStart]) == "" {
		bodyStart++
	}
	if bodyStart >= len(lines) {
		return nil, errors.New("model returned no email body")
	}

	return &domain.GeneratedEmail{
		Subject: subject,
		Body:    strings.Join(lines[bodyStart:], "\n"),
	}, nil
}

func firstNameFor(profile *domain.Profile, contact domain.Contact) string {
	if n := profile.FirstName(); n != "" && !profile.Fallback {
		return n
	}
	if contact.FirstName != "" {
		return contact.FirstName
	}
	if n := profile.FirstName(); n != "" {
		return n
	}
	return domain.FirstNameFromEmail(contact.Email)
}
