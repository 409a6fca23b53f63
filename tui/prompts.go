package main

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Prompt templates ship embedded; dropping a prompts.json into the config
// dir overrides individual templates without a rebuild. Templates use
// {KEY} placeholders ({PROJECT_NAME}, {PROJECT_PATH}, {FEEDBACK_LIST}).

//go:embed prompts.json
var embeddedPrompts []byte

func (b *localBackend) Prompt(name string, replacements map[string]string) (string, error) {
	templates := map[string]string{}
	if err := json.Unmarshal(embeddedPrompts, &templates); err != nil {
		return "", fmt.Errorf("parse embedded prompts: %w", err)
	}
	overridePath := filepath.Join(b.configDir, "prompts.json")
	if data, err := os.ReadFile(overridePath); err == nil {
		overrides := map[string]string{}
		if err := json.Unmarshal(data, &overrides); err != nil {
			return "", fmt.Errorf("parse %s: %w", overridePath, err)
		}
		for key, value := range overrides {
			templates[key] = value
		}
	}
	template, ok := templates[name]
	if !ok {
		return "", fmt.Errorf("%w: %q", errPromptNotFound, name)
	}
	return applyReplacements(template, replacements), nil
}

func applyReplacements(template string, replacements map[string]string) string {
	out := template
	for key, value := range replacements {
		out = strings.ReplaceAll(out, "{"+key+"}", value)
	}
	return out
}

// stagePrompt resolves the advancement prompt for a project's current
// status. The initialized stage intentionally yields empty text; that
// transition goes through the idea form, and callers decide by status.
func stagePrompt(b backend, p project) (string, error) {
	adv := advancementFor(p.Status)
	if adv == nil || adv.PromptName == "" {
		return "", nil
	}
	return b.Prompt(adv.PromptName, map[string]string{
		"PROJECT_NAME": p.Name,
		"PROJECT_PATH": p.Path,
	})
}

// filterByMinPriority keeps items at least as urgent as the threshold:
// priority N means "N and numerically below". Order is preserved.
func filterByMinPriority(items []feedbackItem, minPriority int) []feedbackItem {
	var out []feedbackItem
	for _, item := range items {
		if item.Priority <= minPriority {
			out = append(out, item)
		}
	}
	return out
}

// composeFeedbackList renders the numbered feedback block substituted into
// prompt templates. Ordering follows the input slice exactly; callers sort
// (ascending by priority) before composing.
func composeFeedbackList(items []feedbackItem) string {
	var sb strings.Builder
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. [%s] %s\n", i+1, priorityLabel(item.Priority), item.Text)
	}
	return strings.TrimRight(sb.String(), "\n")
}

// composeFeedbackPrompt builds the final text blob handed to the assistant:
// the named template with the project name and the rendered feedback list
// substituted in.
func composeFeedbackPrompt(b backend, templateName, projectName string, items []feedbackItem) (string, error) {
	return b.Prompt(templateName, map[string]string{
		"PROJECT_NAME":  projectName,
		"FEEDBACK_LIST": composeFeedbackList(items),
	})
}
