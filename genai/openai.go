package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"replyloop/models"
)

const classifySystemPrompt = `You classify replies to cold outreach emails.
Answer with a single JSON object: {"intent": "<label>", "confidence": <0..1>}.
Valid labels: interested, question, not_interested, soft_decline,
internal_review, out_of_office, unsubscribe.
Use "unsubscribe" for any removal/opt-out request, "out_of_office" for
autoresponders, "soft_decline" for polite not-now answers and
"internal_review" when the prospect is checking with colleagues.`

const draftSystemPrompt = `You draft concise, professional replies for a B2B
outreach conversation. Match the prospect's tone, answer their points using
the provided knowledge snippets when available, and never invent product
facts. Answer with a single JSON object: {"subject": "...", "body": "..."}.`

const followUpSystemPrompt = `You draft short, polite follow-up emails for a
B2B outreach sequence. Reference the original message briefly, add one new
angle, and keep it under 120 words. Do not include an unsubscribe footer; it
is appended separately. Answer with a single JSON object:
{"subject": "...", "body": "..."}.`

const signalsSystemPrompt = `You extract voice-of-customer signals from a
prospect's reply. Answer with a JSON array (possibly empty) of objects
{"signal_type": "<pain_point|objection|feature_request|positive>",
"quote": "<short verbatim quote>"}.`

// OpenAIClient implements Service on the OpenAI chat completions API.
type OpenAIClient struct {
	client openai.Client
	model  openai.ChatModel
}

func NewOpenAIClient(apiKey, model string) (*OpenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}
	return &OpenAIClient{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModel(model),
	}, nil
}

func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: c.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(0.2),
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func (c *OpenAIClient) Classify(ctx context.Context, body, subject string) (*IntentResult, error) {
	userPrompt := fmt.Sprintf("Original subject: %s\n\nReply:\n%s", subject, body)
	content, err := c.complete(ctx, classifySystemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("classification call failed: %w", err)
	}

	var parsed struct {
		Intent     string  `json:"intent"`
		Confidence float64 `json:"confidence"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse classification %q: %w", content, err)
	}

	intent := models.Intent(parsed.Intent)
	switch intent {
	case models.IntentInterested, models.IntentQuestion, models.IntentNotInterested,
		models.IntentSoftDecline, models.IntentInternalReview,
		models.IntentOutOfOffice, models.IntentUnsubscribe:
	default:
		return nil, fmt.Errorf("classification returned unknown intent %q", parsed.Intent)
	}

	if parsed.Confidence < 0 {
		parsed.Confidence = 0
	}
	if parsed.Confidence > 1 {
		parsed.Confidence = 1
	}
	return &IntentResult{Intent: intent, Confidence: parsed.Confidence}, nil
}

func (c *OpenAIClient) DraftReply(ctx context.Context, req DraftRequest) (*Draft, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Prospect: %s %s (%s), product pitched: %s\n",
		req.Lead.FirstName, req.Lead.LastName, req.Lead.Company, req.Lead.Product)
	fmt.Fprintf(&sb, "Classified intent: %s\n\n", req.Intent)

	if len(req.History) > 0 {
		sb.WriteString("Conversation so far:\n")
		for _, turn := range req.History {
			fmt.Fprintf(&sb, "[%s] %s\n", turn.Role, turn.Body)
		}
		sb.WriteString("\n")
	}

	fmt.Fprintf(&sb, "Their latest message (subject %q):\n%s\n\n", req.OriginalSubject, req.OriginalBody)

	if len(req.KnowledgeHits) > 0 {
		sb.WriteString("Knowledge snippets:\n")
		for _, doc := range req.KnowledgeHits {
			fmt.Fprintf(&sb, "- %s: %s\n", doc.Title, doc.Content)
		}
	} else {
		sb.WriteString("No knowledge snippets matched.\n")
	}
	if req.NeedsResearch {
		sb.WriteString("The knowledge base does not cover their question; acknowledge it and promise a detailed answer rather than guessing.\n")
	}

	return c.draft(ctx, draftSystemPrompt, sb.String())
}

func (c *OpenAIClient) DraftFollowUp(ctx context.Context, req FollowUpRequest) (*Draft, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Prospect: %s %s (%s), product pitched: %s\n",
		req.Lead.FirstName, req.Lead.LastName, req.Lead.Company, req.Lead.Product)
	fmt.Fprintf(&sb, "Sequence step: %s\n\n", req.EmailType)
	fmt.Fprintf(&sb, "Original email (subject %q):\n%s\n", req.OriginalSubject, req.OriginalBody)

	return c.draft(ctx, followUpSystemPrompt, sb.String())
}

func (c *OpenAIClient) draft(ctx context.Context, systemPrompt, userPrompt string) (*Draft, error) {
	content, err := c.complete(ctx, systemPrompt, userPrompt)
	if err != nil {
		return nil, fmt.Errorf("draft call failed: %w", err)
	}

	var parsed struct {
		Subject string `json:"subject"`
		Body    string `json:"body"`
	}
	if err := json.Unmarshal([]byte(stripFences(content)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse draft %q: %w", content, err)
	}
	if parsed.Body == "" {
		return nil, fmt.Errorf("draft call returned empty body")
	}
	return &Draft{Subject: parsed.Subject, Body: parsed.Body}, nil
}

func (c *OpenAIClient) ExtractSignals(ctx context.Context, body string) ([]Signal, error) {
	content, err := c.complete(ctx, signalsSystemPrompt, body)
	if err != nil {
		return nil, fmt.Errorf("signal extraction call failed: %w", err)
	}

	var signals []Signal
	if err := json.Unmarshal([]byte(stripFences(content)), &signals); err != nil {
		return nil, fmt.Errorf("failed to parse signals %q: %w", content, err)
	}
	return signals, nil
}

// stripFences removes a markdown code fence around a JSON answer, which
// models emit despite instructions.
func stripFences(content string) string {
	trimmed := strings.TrimSpace(content)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	return strings.TrimSpace(trimmed)
}
