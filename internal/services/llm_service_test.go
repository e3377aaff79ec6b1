package services

import (
	"context"
	"testing"

	"github.com/justsurfingit/hireboard/internal/dtos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
)

type fakeModel struct {
	reply   string
	prompts []string
}

func (m *fakeModel) GenerateContent(_ context.Context, msgs []llms.MessageContent, _ ...llms.CallOption) (*llms.ContentResponse, error) {
	for _, msg := range msgs {
		for _, p := range msg.Parts {
			if t, ok := p.(llms.TextContent); ok {
				m.prompts = append(m.prompts, t.Text)
			}
		}
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *fakeModel) Call(_ context.Context, prompt string, _ ...llms.CallOption) (string, error) {
	m.prompts = append(m.prompts, prompt)
	return m.reply, nil
}

func TestNewLLMServiceWithoutKey(t *testing.T) {
	svc, err := NewLLMService(context.Background(), "", "gemini-2.5-flash")
	require.NoError(t, err)
	assert.Nil(t, svc)

	_, err = svc.ExtractJobDetails(context.Background(), "<html></html>")
	assert.ErrorIs(t, err, ErrAIUnavailable)
	_, err = svc.DraftTemplate(context.Background(), &dtos.TemplateDraftRequest{})
	assert.ErrorIs(t, err, ErrAIUnavailable)
}

func TestExtractJobDetailsStripsFence(t *testing.T) {
	model := &fakeModel{reply: "```json\n{\"company_name\":\"Stripe\"}\n```"}
	svc := &LLMService{Client: model}

	out, err := svc.ExtractJobDetails(context.Background(), "<h1>Backend Engineer</h1>")
	require.NoError(t, err)
	assert.JSONEq(t, `{"company_name":"Stripe"}`, string(out))
	require.Len(t, model.prompts, 1)
	assert.Contains(t, model.prompts[0], "<h1>Backend Engineer</h1>")
}

func TestExtractJobDetailsRejectsProse(t *testing.T) {
	svc := &LLMService{Client: &fakeModel{reply: "Sorry, I can't read that page."}}
	_, err := svc.ExtractJobDetails(context.Background(), "x")
	assert.Error(t, err)
}

func TestAnalyzeEmailStatus(t *testing.T) {
	svc := &LLMService{Client: &fakeModel{reply: `{"status":" interview ","summary":"Phone screen next week"}`}}

	res, err := svc.AnalyzeEmailStatus(context.Background(), "Stripe", "Next steps", "Let's talk")
	require.NoError(t, err)
	assert.Equal(t, "INTERVIEW", res.Status)
	assert.Equal(t, "Phone screen next week", res.Summary)
}

func TestIdentifyJobRole(t *testing.T) {
	model := &fakeModel{reply: "1\n"}
	svc := &LLMService{Client: model}

	idx, err := svc.IdentifyJobRole(context.Background(), []string{"Frontend Engineer", "Backend Engineer"}, "Backend role", "")
	require.NoError(t, err)
	assert.Equal(t, 1, idx)
	assert.Contains(t, model.prompts[0], "1. Backend Engineer")
}

func TestParseRoleIndex(t *testing.T) {
	assert.Equal(t, 0, parseRoleIndex("0", 2))
	assert.Equal(t, -1, parseRoleIndex("-1", 2))
	assert.Equal(t, -1, parseRoleIndex("2", 2))
	assert.Equal(t, -1, parseRoleIndex("the first one", 2))
}

func TestDraftTemplate(t *testing.T) {
	model := &fakeModel{reply: `{"subject":"Thanks!","body":"Hi {{name}}"}`}
	svc := &LLMService{Client: model}

	draft, err := svc.DraftTemplate(context.Background(), &dtos.TemplateDraftRequest{
		Category:    "INTERVIEW_INVITE",
		CompanyName: "Stripe",
		RoleTitle:   "Backend Engineer",
	})
	require.NoError(t, err)
	assert.Equal(t, "Thanks!", draft.Subject)
	assert.Contains(t, model.prompts[0], "interview invite from Stripe")
	assert.Contains(t, model.prompts[0], "Tone: friendly")
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripCodeFence("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("```\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, stripCodeFence("  {\"a\":1}\n"))
}
