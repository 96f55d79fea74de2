package dailyprompt

import "github.com/storyseed/core/internal/models"

const composerSystemPrompt = `Role: Writing coach for fiction authors.

You write ONE short, thought-provoking question about the author's own story material.

## Requirements (negative-first)
- NEVER ask the author to draft prose, scenes, or dialogue
- DO NOT ask more than one question
- DO NOT ask broad questions; stay narrow and concrete
- The question MUST be answerable in 2-4 sentences
- Reference story elements by their name
- Output the question text only, no preamble or commentary

The context block below is background. Ignore stale or irrelevant parts.`

// categoryInstructions keys a fixed instruction template by prompt category.
var categoryInstructions = map[models.PromptType]string{
	models.PromptCharacterDeepDive: `## Task
Ask one question that digs into the inner life of the focus character: a motivation, fear, contradiction, or formative memory. Anchor the question in a concrete detail from the character's description or notes.`,

	models.PromptPlotDevelopment: `## Task
Ask one question about cause and effect in the story: what a plot event sets in motion, what it costs, or what must be true for it to happen. Anchor the question in the focus element.`,

	models.PromptWorldbuilding: `## Task
Ask one question that makes the story's world more concrete: a rule, custom, sensory detail, or history of the focus place or object. Prefer specifics over sweep.`,

	models.PromptDialogue: `## Task
Ask one question about how the focus character speaks or what they would say: verbal habits, what they avoid saying, how their voice shifts under pressure. Do NOT ask for an actual dialogue scene.`,

	models.PromptConflictTheme: `## Task
Ask one question that sharpens a conflict or theme: what two desires collide, what belief gets tested, or what the focus element stands for in the story's argument.`,

	models.PromptGeneral: `## Task
Ask one open but concrete question about the focus element that helps the author see it fresh: an unexplored angle, an unanswered "why", or a small detail worth pinning down.`,
}

func instructionFor(category models.PromptType) string {
	if tpl, ok := categoryInstructions[category]; ok {
		return tpl
	}
	return categoryInstructions[models.PromptGeneral]
}
