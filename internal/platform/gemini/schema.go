package gemini

import "google.golang.org/genai"

// wordSchema describes a dictionary entry.
type wordSchema struct {
	Word          string   `json:"word"`
	Pronunciation string   `json:"pronunciation"`
	Definition    string   `json:"definition"`
	Example       string   `json:"example"`
	Synonyms      []string `json:"synonyms"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

type wordListSchema struct {
	Words []wordSchema `json:"words"`
}

type quizSchema struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

type synonymPairSchema struct {
	Word1       string `json:"word1"`
	Word2       string `json:"word2"`
	AreSynonyms *bool  `json:"areSynonyms"`
}

type quoteSchema struct {
	Quote  string `json:"quote"`
	Author string `json:"author"`
}

type reverseLookupSchema struct {
	Words []string `json:"words"`
}

func str(description string) *genai.Schema {
	return &genai.Schema{Type: genai.TypeString, Description: description}
}

func strList() *genai.Schema {
	return &genai.Schema{Type: genai.TypeArray, Items: &genai.Schema{Type: genai.TypeString}}
}

func wordResponseSchema() *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"word":          str(""),
			"pronunciation": str(""),
			"definition":    str(""),
			"example":       str(""),
			"synonyms":      strList(),
		},
	}
}

var (
	wordOfTheDayResponse = wordResponseSchema()
	lookupWordResponse   = wordResponseSchema()

	newWordsResponse = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"words": {
				Type: genai.TypeArray,
				Items: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"word":          str(""),
						"pronunciation": str(""),
						"definition":    str(""),
						"example":       str(""),
						"synonyms":      strList(),
						"difficulty": {
							Type: genai.TypeString,
							Enum: []string{"easy", "medium", "hard"},
						},
					},
					Required: []string{"word", "pronunciation", "definition", "example", "synonyms", "difficulty"},
				},
			},
		},
		Required: []string{"words"},
	}

	quizResponse = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"question":      str("The definition of the word, posed as a question."),
			"options":       strList(),
			"correctAnswer": str(""),
			"explanation":   str("A brief explanation for why the correct answer is correct."),
		},
	}

	synonymPairResponse = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"word1": str(""),
			"word2": str(""),
			"areSynonyms": {
				Type:        genai.TypeBoolean,
				Description: "True if the words are synonyms, false otherwise.",
			},
		},
	}

	quoteResponse = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"quote":  str(""),
			"author": str(""),
		},
	}

	reverseLookupResponse = &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"words": strList(),
		},
	}
)
