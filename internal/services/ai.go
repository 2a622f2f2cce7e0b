package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/yukikurage/taskflow/internal/constants"
	"github.com/yukikurage/taskflow/internal/dto"
	"github.com/yukikurage/taskflow/internal/models"
	"github.com/yukikurage/taskflow/internal/stats"
	"github.com/yukikurage/taskflow/internal/validation"
)

type AIService struct {
	client *openai.Client
}

type suggestedTask struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
}

func NewAIService(apiKey string) *AIService {
	return &AIService{
		client: openai.NewClient(apiKey),
	}
}

// SuggestTasks extracts task drafts from free text using OpenAI GPT
func (s *AIService) SuggestTasks(ctx context.Context, text string, now time.Time) ([]dto.CreateTaskDTO, error) {
	if s.client == nil {
		return nil, fmt.Errorf("OpenAI client not initialized")
	}

	prompt := fmt.Sprintf(`You are a task extraction assistant. Extract concrete tasks from the text below.

Today: %s

Text:
%s

Return a JSON array of tasks in this shape:
[
  {
    "title": "short task title",
    "description": "optional details",
    "due_date": "YYYY-MM-DD",
    "priority": "Low | Medium | High",
    "category": "one of: %s"
  }
]

Rules:
- Return [] when the text contains no task
- Convert relative dates ("tomorrow", "next week") to concrete dates
- Use today's date when no due date is given
- Return JSON only, without any explanation`,
		now.Format(constants.DateLayout), text, strings.Join(models.Categories, ", "))

	resp, err := s.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: openai.GPT4o,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
			Temperature: 0.3,
		},
	)
	if err != nil {
		return nil, fmt.Errorf("OpenAI API error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no response from OpenAI")
	}

	return parseSuggestions(resp.Choices[0].Message.Content, now)
}

// parseSuggestions decodes the model output and keeps the drafts that pass
// task validation after normalization.
func parseSuggestions(content string, now time.Time) ([]dto.CreateTaskDTO, error) {
	content = strings.TrimSpace(content)
	content = strings.TrimPrefix(content, "```json")
	content = strings.TrimPrefix(content, "```")
	content = strings.TrimSuffix(content, "```")

	var raw []suggestedTask
	if err := json.Unmarshal([]byte(strings.TrimSpace(content)), &raw); err != nil {
		return nil, fmt.Errorf("failed to parse AI response: %w (response: %s)", err, content)
	}
	if len(raw) > constants.MaxAIGeneratedTasks {
		return nil, fmt.Errorf("AI generated too many tasks (max %d)", constants.MaxAIGeneratedTasks)
	}

	today := now.Format(constants.DateLayout)
	drafts := make([]dto.CreateTaskDTO, 0, len(raw))
	for _, r := range raw {
		draft := dto.CreateTaskDTO{
			Title:       strings.TrimSpace(r.Title),
			Description: strings.TrimSpace(r.Description),
			DueDate:     r.DueDate,
			Priority:    models.Priority(r.Priority),
			Category:    r.Category,
		}
		if !draft.Priority.Valid() {
			draft.Priority = models.PriorityMedium
		}
		if !models.IsKnownCategory(draft.Category) {
			draft.Category = ""
		}
		// Past or malformed dates fall back to today.
		if days, ok := stats.DaysUntil(draft.DueDate, now); !ok || days < 0 {
			draft.DueDate = today
		}
		if validation.Task(draft) != nil {
			continue
		}
		drafts = append(drafts, draft)
	}
	return drafts, nil
}
