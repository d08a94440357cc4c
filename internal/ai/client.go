package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sashabaranov/go-openai"
)

type Client struct {
	client *openai.Client
	model  string
}

func New(apiKey, baseURL, model string) *Client {
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = baseURL

	return &Client{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

type Intent struct {
	Action       string            `json:"action"`
	Parameters   map[string]string `json:"parameters"`
	Confidence   float64           `json:"confidence"`
	NeedMoreInfo bool              `json:"need_more_info"`
	Reply        string            `json:"reply"`
	RawResponse  string            `json:"-"`
}

// Message is one turn of conversation context for the intent parser.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const systemPromptTemplate = `You are the intent parser of a household secretary bot. Convert the user's natural-language message into a structured intent.

Current time: %s

Available actions:
- create_memo, list_memo, update_memo, delete_memo
- create_todo, list_todo, update_todo, complete_todo, delete_todo
- create_reminder, list_reminder, cancel_reminder
- create_event, list_event, update_event, delete_event
- create_invite, list_invite, revoke_invite, join_family
- unknown: anything else (small talk, questions)

Parameters by action:
- id: item number (update/complete/delete/cancel/revoke operations)
- title: title (memo, todo, event)
- content: body text (memo)
- message: reminder text
- keyword: search keyword (list_memo only)
- remind_at: reminder time, format YYYY-MM-DD HH:MM
- recurrence: daily | weekly | monthly (recurring reminders only)
- recurrence_count: how many times to repeat
- recurrence_end_date: last date of the series, format YYYY-MM-DD
- due_date: todo deadline, format YYYY-MM-DD HH:MM
- priority: 0 (normal), 1 (high), 2 (urgent)
- start_time, end_time: event times, format YYYY-MM-DD HH:MM
- rrule: RFC 5545 RRULE for repeating events
- visibility: private | family
- code: invite code (join_family)

Rules:
1. Resolve relative times ("tomorrow", "in 3 hours", "next Monday") against the current time and output absolute YYYY-MM-DD HH:MM values.
2. "every day/week/month" on a reminder means a recurrence parameter, not an RRULE.
3. When the request lacks information needed to act (no time for a reminder, no id for a delete), set need_more_info = true and put the follow-up question in reply.
4. reply is always a short, friendly message for the user: the follow-up question, a confirmation of what is about to happen, or a conversational answer when action = unknown.`

func systemPrompt(now time.Time) string {
	return fmt.Sprintf(systemPromptTemplate, now.Format("2006-01-02 15:04 (Monday)"))
}

var intentSchema = json.RawMessage(`{
	"type": "object",
	"properties": {
		"action": {
			"type": "string",
			"enum": ["create_memo", "list_memo", "update_memo", "delete_memo", "create_todo", "list_todo", "update_todo", "complete_todo", "delete_todo", "create_reminder", "list_reminder", "cancel_reminder", "create_event", "list_event", "update_event", "delete_event", "create_invite", "list_invite", "revoke_invite", "join_family", "unknown"],
			"description": "The action to perform"
		},
		"parameters": {
			"type": "object",
			"additionalProperties": {
				"type": "string"
			},
			"description": "Parameters for the action"
		},
		"confidence": {
			"type": "number",
			"minimum": 0,
			"maximum": 1,
			"description": "Confidence score between 0 and 1"
		},
		"need_more_info": {
			"type": "boolean",
			"description": "Whether more information is needed before the action can run"
		},
		"reply": {
			"type": "string",
			"description": "Short message for the user: follow-up question, confirmation, or chat answer"
		}
	},
	"required": ["action", "confidence", "need_more_info"],
	"additionalProperties": false
}`)

// ParseIntentWithHistory parses the latest user message in the context of
// earlier turns.
func (c *Client) ParseIntentWithHistory(ctx context.Context, history []Message) (*Intent, error) {
	messages := []openai.ChatCompletionMessage{
		{
			Role:    openai.ChatMessageRoleSystem,
			Content: systemPrompt(time.Now()),
		},
	}
	for _, msg := range history {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:    c.model,
		Messages: messages,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "intent",
				Schema: intentSchema,
				Strict: true,
			},
		},
		Temperature: 0.1,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to call AI API: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from AI")
	}

	content := resp.Choices[0].Message.Content
	intent := &Intent{RawResponse: content}
	if err := json.Unmarshal([]byte(content), intent); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w", err)
	}
	return intent, nil
}

// GenerateResponse runs a free-form completion, used for small talk the
// intent parser leaves unanswered.
func (c *Client) GenerateResponse(ctx context.Context, systemMsg, userMsg string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemMsg,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: userMsg,
			},
		},
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response from AI")
	}
	return resp.Choices[0].Message.Content, nil
}
