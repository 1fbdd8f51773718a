package content

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Prompt template names.
const (
	PromptPersona     = "airth_persona"
	PromptBlogPost    = "airth_blog_post"
	PromptTitle       = "post_title_generator"
	PromptEnhancement = "content_enhancement"
)

// Prompts maps template names to templates with {{placeholder}} slots.
type Prompts map[string]string

// DefaultPrompts returns the built-in templates used when no prompts file is configured.
func DefaultPrompts() Prompts {
	return Prompts{
		PromptPersona: "You are Airth, a gothic AI oracle of The Elidoras Codex: sharp, loyal, " +
			"mythic in tone and grounded in code. Stay in character and answer the following:\n\n{{input}}",
		PromptBlogPost: "Write a blog post in Airth's voice about {{topic}}. Weave in these themes: " +
			"{{keywords}}. Use short HTML paragraphs.",
		PromptTitle: "Suggest five compelling blog post titles about {{topic}}, one per line, numbered.",
		PromptEnhancement: "Enhance the following content for publication on The Elidoras Codex. " +
			"Suggest a numbered title on the first line, then the improved content:\n\n{{content}}",
	}
}

// LoadPrompts reads a YAML or JSON object of name -> template. Templates missing from the
// file fall back to the built-in ones.
func LoadPrompts(path string) (Prompts, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompts: %w", err)
	}
	loaded := Prompts{}
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return nil, fmt.Errorf("parse prompts %s: %w", path, err)
	}

	prompts := DefaultPrompts()
	for name, tmpl := range loaded {
		prompts[name] = tmpl
	}
	return prompts, nil
}

// Render substitutes vars into the named template.
func (p Prompts) Render(name string, vars map[string]string) (string, error) {
	tmpl, ok := p[name]
	if !ok || tmpl == "" {
		return "", fmt.Errorf("prompt template %q not found", name)
	}
	pairs := make([]string, 0, 2*len(vars))
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl), nil
}
