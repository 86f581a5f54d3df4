package contextbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/curo/internal/interfaces"
	"github.com/ternarybob/curo/internal/models"
	"github.com/ternarybob/curo/internal/services/curation"
)

const systemPrompt = `You are a content curation assistant. Given a user's current
emotional state, today's calendar and a free-text note, derive what short-form
video content would suit them right now.

Respond with strict JSON only, no markdown fences:
{"tags": ["tag1", "tag2", ...], "description": "..."}

Rules:
- tags: 3 to 10 short topical search terms for a video platform, lowercase
- description: one paragraph synthesizing mood, schedule pressure and the note
  into what the user needs from content right now. Do not restate the inputs;
  describe the kind of content that fits them.`

// Service derives a ContextProfile (search tags plus a context description)
// from a context snapshot with one LLM reasoning call.
type Service struct {
	llmService interfaces.LLMService
	maxTags    int
	logger     arbor.ILogger
}

// NewService creates a new context builder service
func NewService(llmService interfaces.LLMService, maxTags int, logger arbor.ILogger) interfaces.ContextService {
	if maxTags <= 0 {
		maxTags = 10
	}
	return &Service{
		llmService: llmService,
		maxTags:    maxTags,
		logger:     logger,
	}
}

// BuildContext derives tags and a context description from the snapshot.
// A missing free-text note is invalid input. Chat failure or unparsable model
// output degrades to an empty profile with a nil error; callers treat empty
// tags as nothing to work with.
func (s *Service) BuildContext(ctx context.Context, snapshot *models.ContextSnapshot) (*models.ContextProfile, error) {
	if snapshot == nil || strings.TrimSpace(snapshot.FreeText) == "" {
		return nil, fmt.Errorf("%w: free text is required", curation.ErrInvalidInput)
	}

	messages := []interfaces.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: s.renderSnapshot(snapshot)},
	}

	response, err := s.llmService.Chat(ctx, messages)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Context reasoning call failed, degrading to empty profile")
		return &models.ContextProfile{}, nil
	}

	profile, err := s.parseProfile(response)
	if err != nil {
		s.logger.Warn().
			Err(err).
			Int("response_length", len(response)).
			Msg("Unparsable context profile, degrading to empty profile")
		return &models.ContextProfile{}, nil
	}

	s.logger.Info().
		Int("tag_count", len(profile.Tags)).
		Int("description_length", len(profile.Description)).
		Msg("Built context profile")

	return profile, nil
}

// renderSnapshot formats the snapshot signals into the user prompt. An empty
// emotion distribution is presented as unknown rather than omitted so the model
// stays neutral instead of guessing.
func (s *Service) renderSnapshot(snapshot *models.ContextSnapshot) string {
	var b strings.Builder

	if len(snapshot.Emotions) == 0 {
		b.WriteString("Emotional state: unknown (assume neutral)\n")
	} else {
		b.WriteString("Emotional state:\n")
		for emotion, score := range snapshot.Emotions {
			fmt.Fprintf(&b, "- %s: %.2f\n", emotion, score)
		}
		if snapshot.DominantEmotion != "" {
			fmt.Fprintf(&b, "Dominant emotion: %s\n", snapshot.DominantEmotion)
		}
	}

	if len(snapshot.CalendarEvents) == 0 {
		b.WriteString("\nToday's calendar: no events\n")
	} else {
		b.WriteString("\nToday's calendar:\n")
		for _, event := range snapshot.CalendarEvents {
			fmt.Fprintf(&b, "- %s (%s to %s, %d minutes)\n",
				event.Subject,
				event.Start.Format("15:04"),
				event.End.Format("15:04"),
				event.DurationMinutes)
		}
	}

	fmt.Fprintf(&b, "\nUser note: %s\n", snapshot.FreeText)

	return b.String()
}

// parseProfile extracts tags and description from the model response.
func (s *Service) parseProfile(response string) (*models.ContextProfile, error) {
	cleaned := cleanMarkdownFences(response)

	var parsed struct {
		Tags        []string `json:"tags"`
		Description string   `json:"description"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse profile JSON: %w", err)
	}

	return &models.ContextProfile{
		Tags:        s.normalizeTags(parsed.Tags),
		Description: strings.TrimSpace(parsed.Description),
	}, nil
}

// normalizeTags lowercases, trims, deduplicates and caps the tag list while
// preserving model order.
func (s *Service) normalizeTags(tags []string) []string {
	seen := make(map[string]bool, len(tags))
	normalized := make([]string, 0, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		normalized = append(normalized, tag)
		if len(normalized) >= s.maxTags {
			break
		}
	}

	return normalized
}

// cleanMarkdownFences removes markdown code fences from a model response
func cleanMarkdownFences(s string) string {
	s = strings.TrimSpace(s)

	// Match: ```json\n or ```\n at start, and ``` at end
	fencePattern := regexp.MustCompile(`(?s)^\s*` + "```" + `(?:json|JSON)?\s*\n?(.*?)\n?\s*` + "```" + `\s*$`)
	if matches := fencePattern.FindStringSubmatch(s); len(matches) > 1 {
		s = matches[1]
	}

	// Fallback: simple prefix/suffix trimming
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```JSON")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	return strings.TrimSpace(s)
}
