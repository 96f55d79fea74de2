package dailyprompt

import (
	"context"
	"fmt"
	"strings"

	"github.com/storyseed/core/internal/models"
	"github.com/storyseed/core/internal/modules/ai"
	"github.com/storyseed/core/internal/pkg/randx"
)

const (
	// FallbackPrompt is returned when the provider yields empty output.
	FallbackPrompt = "What detail about this element would you like to explore further?"

	historyTruncateLen   = 400
	composerTemperature  = 0.8
	composerMaxTokens    = 300
	maxHistoryPerElement = 3
)

// ErrProvider marks a text-generation transport or provider failure. Callers
// may retry; the scheduled path logs and moves on.
var ErrProvider = fmt.Errorf("generation provider failure")

// BookContext is the book information handed to the composer.
type BookContext struct {
	Title       string
	Description string
}

// Composer turns a selected element and category into prompt text via one
// generation call.
type Composer struct {
	gen  ai.TextGenerator
	rand randx.Source
}

// NewComposer creates a Composer. rand is only used when the caller passes
// multiple focus elements without pinning one; nil means the shared source.
func NewComposer(gen ai.TextGenerator, rand randx.Source) *Composer {
	if rand == nil {
		rand = randx.Default()
	}
	return &Composer{gen: gen, rand: rand}
}

// Compose builds the instruction payload and runs the generation call.
// focusElements must be non-empty. When more than one element is given and
// prefs is non-nil, one is chosen using the same type-preference table as the
// selector, falling back to a uniform draw.
func (c *Composer) Compose(
	ctx context.Context,
	book BookContext,
	category models.PromptType,
	focusElements []models.StoryElementModel,
	history map[string][]HistoryEntry,
	prefs *models.DailyPromptPreferenceModel,
) (string, error) {
	if len(focusElements) == 0 {
		return "", fmt.Errorf("compose: no focus elements")
	}

	elements := focusElements
	if len(elements) > 1 {
		elements = []models.StoryElementModel{c.pickFocus(focusElements, prefs)}
	}

	contextBlock := buildContextBlock(book, elements, history)
	userPrompt := instructionFor(category) + "\n\n## Story Context\n" + contextBlock

	text, err := c.gen.GenerateText(ctx, ai.GenerateRequest{
		System:      composerSystemPrompt,
		Prompt:      userPrompt,
		MaxTokens:   composerMaxTokens,
		Temperature: composerTemperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrProvider, err)
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackPrompt, nil
	}
	return text, nil
}

// pickFocus narrows multiple candidate elements to one, preferring types the
// user has not disabled.
func (c *Composer) pickFocus(elements []models.StoryElementModel, prefs *models.DailyPromptPreferenceModel) models.StoryElementModel {
	if prefs != nil {
		allowed := make([]models.StoryElementModel, 0, len(elements))
		for _, el := range elements {
			if elementTypeAllowed(prefs, el.ElementType) {
				allowed = append(allowed, el)
			}
		}
		if len(allowed) > 0 {
			return randx.Pick(c.rand, allowed)
		}
	}
	return randx.Pick(c.rand, elements)
}

// buildContextBlock renders the book, focus elements, and prior Q&A into the
// labeled context given to the generator.
func buildContextBlock(book BookContext, elements []models.StoryElementModel, history map[string][]HistoryEntry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "BOOK: %q\n", book.Title)
	if book.Description != "" {
		fmt.Fprintf(&b, "ABOUT THE BOOK: %s\n", book.Description)
	}

	for _, el := range elements {
		b.WriteString("\n")
		fmt.Fprintf(&b, "%s: %q\n", elementTypeLabel(el.ElementType), el.Name)
		if el.Description != "" {
			fmt.Fprintf(&b, "DESCRIPTION: %s\n", el.Description)
		}
		if el.Notes != "" {
			fmt.Fprintf(&b, "NOTES: %s\n", el.Notes)
		}

		entries := history[el.ID]
		if len(entries) > maxHistoryPerElement {
			entries = entries[:maxHistoryPerElement]
		}
		if len(entries) > 0 {
			b.WriteString("PREVIOUS QUESTIONS AND ANSWERS:\n")
			for _, h := range entries {
				fmt.Fprintf(&b, "Q: %s\n", h.PromptText)
				fmt.Fprintf(&b, "A: %s\n", truncateHistory(h.ResponseText))
			}
		}
	}

	return b.String()
}

// elementTypeLabel renders "plot_point" as "PLOT POINT".
func elementTypeLabel(t models.ElementType) string {
	return strings.ToUpper(strings.ReplaceAll(string(t), "_", " "))
}

func truncateHistory(text string) string {
	runes := []rune(text)
	if len(runes) <= historyTruncateLen {
		return text
	}
	return string(runes[:historyTruncateLen]) + "..."
}
