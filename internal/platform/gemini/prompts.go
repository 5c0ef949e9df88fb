package gemini

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed prompts/*.tmpl
var promptFS embed.FS

// Prompt template names
const (
	promptNewWords      = "new_words.tmpl"
	promptWordOfTheDay  = "word_of_the_day.tmpl"
	promptQuote         = "quote.tmpl"
	promptQuizQuestion  = "quiz_question.tmpl"
	promptSynonymPair   = "synonym_pair.tmpl"
	promptLookupWord    = "lookup_word.tmpl"
	promptReverseLookup = "reverse_lookup.tmpl"
)

// promptData carries every value a template may reference.
type promptData struct {
	Count      int
	Word       string
	Definition string
}

var prompts = template.Must(template.New("prompts").Option("missingkey=error").ParseFS(promptFS, "prompts/*.tmpl"))

// renderPrompt executes the named template.
func renderPrompt(name string, data promptData) (string, error) {
	var buf bytes.Buffer
	if err := prompts.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("failed to execute prompt template %s: %w", name, err)
	}
	return buf.String(), nil
}
