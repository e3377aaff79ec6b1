package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/googleai"
)

// maxPromptInput caps the raw page or email text sent to the model.
const maxPromptInput = 20000

type LLMService struct {
	Client llms.Model
}

// NewLLMService creates the Gemini client. An empty apiKey yields a nil
// service; every method on a nil service returns ErrAIUnavailable.
func NewLLMService(ctx context.Context, apiKey, model string) (*LLMService, error) {
	if apiKey == "" {
		return nil, nil
	}
	llm, err := googleai.New(ctx,
		googleai.WithAPIKey(apiKey),
		googleai.WithDefaultModel(model),
	)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return &LLMService{Client: llm}, nil
}

func (s *LLMService) available() error {
	if s == nil || s.Client == nil {
		return ErrAIUnavailable
	}
	return nil
}

func (s *LLMService) generate(ctx context.Context, prompt string) (string, error) {
	if err := s.available(); err != nil {
		return "", err
	}
	resp, err := llms.GenerateFromSinglePrompt(ctx, s.Client, prompt, llms.WithTemperature(0))
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}
	return stripCodeFence(resp), nil
}

const jobExtractionPrompt = `
You are an expert Job Data Extraction Agent. Analyze the raw HTML/Text of a job posting and extract structured data.

### INSTRUCTIONS:
1. Ignore navigation menus, footers, "similar jobs" lists, and site advertisements.
2. Extract the fields below strictly.
3. Output valid JSON only. Do not wrap the output in markdown code blocks.

### OUTPUT SCHEMA:
{
    "company_name": "Name of the company",
    "role_title": "Job title",
    "location": "Job location or 'Remote'",
    "description": "A clean summary focused on responsibilities and requirements, without HTML tags",
    "tech_stack": ["technologies", "mentioned"],
    "salary_range": "The salary string if explicitly mentioned, otherwise null"
}

If a piece of information is missing, set the value to null. Do not guess.

### RAW CONTENT:
%s
`

// ExtractJobDetails turns a job posting into the JSON accepted by POST /jobs.
func (s *LLMService) ExtractJobDetails(ctx context.Context, rawHTML string) (json.RawMessage, error) {
	out, err := s.generate(ctx, fmt.Sprintf(jobExtractionPrompt, truncate(rawHTML, maxPromptInput)))
	if err != nil {
		return nil, err
	}
	if !json.Valid([]byte(out)) {
		return nil, fmt.Errorf("extract job details: model returned invalid JSON")
	}
	return json.RawMessage(out), nil
}

const emailStatusPrompt = `
You track job applications. Decide what the email below means for an application at %s.

Reply with JSON only: {"status": "...", "summary": "..."}
status must be one of INTERVIEW, OFFER, REJECTED, NO_CHANGE, UNKNOWN.
summary is one sentence.

### SUBJECT:
%s

### BODY:
%s
`

// EmailAnalysis is the model's reading of a recruiting email.
type EmailAnalysis struct {
	Status  string `json:"status"`
	Summary string `json:"summary"`
}

func (s *LLMService) AnalyzeEmailStatus(ctx context.Context, company, subject, body string) (EmailAnalysis, error) {
	var res EmailAnalysis
	out, err := s.generate(ctx, fmt.Sprintf(emailStatusPrompt, company, subject, truncate(body, maxPromptInput)))
	if err != nil {
		return res, err
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		return res, fmt.Errorf("parse email analysis %q: %w", out, err)
	}
	res.Status = strings.ToUpper(strings.TrimSpace(res.Status))
	return res, nil
}

const jobRolePrompt = `
An email arrived about one of these job applications:
%s
Which one is it about? Reply with the number only, or -1 if you cannot tell.

### SUBJECT:
%s

### BODY:
%s
`

// IdentifyJobRole returns the index into titles that the email refers to, or
// -1 when the model cannot tell.
func (s *LLMService) IdentifyJobRole(ctx context.Context, titles []string, subject, body string) (int, error) {
	var list strings.Builder
	for i, t := range titles {
		fmt.Fprintf(&list, "%d. %s\n", i, t)
	}
	out, err := s.generate(ctx, fmt.Sprintf(jobRolePrompt, list.String(), subject, truncate(body, maxPromptInput)))
	if err != nil {
		return -1, err
	}
	return parseRoleIndex(out, len(titles)), nil
}

func parseRoleIndex(out string, n int) int {
	idx, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil || idx < 0 || idx >= n {
		return -1
	}
	return idx
}

const templateDraftPrompt = `
Write a short, professional email reply template for a job seeker.
Situation: %s from %s for the %s role.
Tone: %s.
Use {{name}} where the recruiter's name goes.

Reply with JSON only: {"subject": "...", "body": "..."}
`

func (s *LLMService) DraftTemplate(ctx context.Context, req *dtos.TemplateDraftRequest) (*dtos.TemplateDraft, error) {
	tone := req.Tone
	if tone == "" {
		tone = "friendly"
	}
	situation := strings.ToLower(strings.ReplaceAll(req.Category, "_", " "))
	out, err := s.generate(ctx, fmt.Sprintf(templateDraftPrompt, situation, req.CompanyName, req.RoleTitle, tone))
	if err != nil {
		return nil, err
	}
	var draft dtos.TemplateDraft
	if err := json.Unmarshal([]byte(out), &draft); err != nil {
		return nil, fmt.Errorf("parse template draft: %w", err)
	}
	return &draft, nil
}

// stripCodeFence removes a ```json ... ``` wrapper the model sometimes adds
// despite being told not to.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "```"))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
