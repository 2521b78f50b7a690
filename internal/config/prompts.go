package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

// DefaultPromptsPath is where the prompt file lives relative to the working
// directory.
const DefaultPromptsPath = "configs/prompts.yaml"

// PromptPair holds a system and user prompt template.
type PromptPair struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// IntentPrompt is the instruction block appended to the system prompt for
// one intent. EmptyFallback, when set, is the exact answer given when every
// function the turn called came back empty.
type IntentPrompt struct {
	Instruction   string `yaml:"instruction"`
	EmptyFallback string `yaml:"empty_fallback"`
}

// IntentPrompts holds one block per intent.
type IntentPrompts struct {
	Navigation      IntentPrompt `yaml:"navigation"`
	InventoryAction IntentPrompt `yaml:"inventory_action"`
	ApplianceAction IntentPrompt `yaml:"appliance_action"`
	RecipeSearch    IntentPrompt `yaml:"recipe_search"`
	CookingControl  IntentPrompt `yaml:"cooking_control"`
	GeneralQuestion IntentPrompt `yaml:"general_question"`
}

// ContextPrompts are the templates used to serialize the voice context.
type ContextPrompts struct {
	Page  string `yaml:"page"`
	Guide string `yaml:"guide"`
}

// PhrasePrompts are fixed user-facing phrases.
type PhrasePrompts struct {
	EmptyAnswer string `yaml:"empty_answer"`
	Navigating  string `yaml:"navigating"`
}

// VoicePrompts holds the prompts of the voice pipeline.
type VoicePrompts struct {
	System     string         `yaml:"system"`
	Classifier PromptPair     `yaml:"classifier"`
	Intents    IntentPrompts  `yaml:"intents"`
	Context    ContextPrompts `yaml:"context"`
	Phrases    PhrasePrompts  `yaml:"phrases"`
}

// Prompts is the top-level prompt configuration loaded from YAML.
type Prompts struct {
	Voice VoicePrompts `yaml:"voice"`
}

// LoadPrompts reads and parses a YAML prompt configuration file.
func LoadPrompts(path string) (*Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompts file: %w", err)
	}

	var prompts Prompts
	if err := yaml.Unmarshal(data, &prompts); err != nil {
		return nil, fmt.Errorf("failed to parse prompts YAML: %w", err)
	}
	if err := prompts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid prompts file %s: %w", path, err)
	}

	return &prompts, nil
}

// Validate reports prompts the pipeline cannot run without.
func (p *Prompts) Validate() error {
	v := p.Voice
	var errs []error
	if strings.TrimSpace(v.System) == "" {
		errs = append(errs, errors.New("voice.system is empty"))
	}
	if strings.TrimSpace(v.Classifier.System) == "" {
		errs = append(errs, errors.New("voice.classifier.system is empty"))
	}
	if strings.TrimSpace(v.Phrases.EmptyAnswer) == "" {
		errs = append(errs, errors.New("voice.phrases.empty_answer is empty"))
	}
	for name, tmpl := range map[string]string{
		"voice.context.page":  v.Context.Page,
		"voice.context.guide": v.Context.Guide,
	} {
		if _, err := template.New(name).Parse(tmpl); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
	}
	return errors.Join(errs...)
}

// RenderPrompt executes Go template interpolation on a prompt string.
// The data map provides values for template placeholders like {{.Page}},
// {{.RecipeName}}, and {{.Step}}.
func RenderPrompt(tmpl string, data map[string]interface{}) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)
	if err != nil {
		return "", fmt.Errorf("failed to parse prompt template: %w", err)
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return strings.TrimSpace(buf.String()), nil
}
