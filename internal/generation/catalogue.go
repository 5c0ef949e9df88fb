package generation

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/phrazzld/vocab-trainer/internal/domain"
	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var builtinCatalogue []byte

type synonymPairYAML struct {
	Word1       string `yaml:"word1"`
	Word2       string `yaml:"word2"`
	AreSynonyms bool   `yaml:"are_synonyms"`
}

type quoteYAML struct {
	Quote  string `yaml:"quote"`
	Author string `yaml:"author"`
}

type catalogueYAML struct {
	InitialWords  []domain.Word   `yaml:"initial_words"`
	Pool          []domain.Word   `yaml:"pool"`
	WordOfTheDay  domain.Word     `yaml:"word_of_the_day"`
	Dictionary    []domain.Word   `yaml:"dictionary"`
	SynonymPair   synonymPairYAML `yaml:"synonym_pair"`
	ReverseLookup []string        `yaml:"reverse_lookup"`
	Quote         quoteYAML       `yaml:"quote"`
}

// Catalogue is the built-in content: the starter vocabulary, an offline word
// supply and the fallback for every generated item.
type Catalogue struct {
	initialWords  []domain.Word
	pool          []domain.Word
	wordOfTheDay  domain.Word
	dictionary    []domain.Word
	synonymPair   domain.SynonymPair
	reverseLookup []string
	quote         domain.Quote

	mu   sync.Mutex
	next int
}

// LoadCatalogue parses the catalogue embedded in the binary.
func LoadCatalogue() (*Catalogue, error) {
	return ParseCatalogue(builtinCatalogue)
}

// MustLoadCatalogue is LoadCatalogue for callers that cannot recover.
func MustLoadCatalogue() *Catalogue {
	c, err := LoadCatalogue()
	if err != nil {
		panic(err)
	}
	return c
}

// ParseCatalogue decodes and validates a YAML catalogue.
func ParseCatalogue(data []byte) (*Catalogue, error) {
	var raw catalogueYAML
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: failed to decode catalogue: %v", ErrInvalidConfig, err)
	}

	c := &Catalogue{
		initialWords:  normalizeWords(raw.InitialWords),
		pool:          normalizeWords(raw.Pool),
		wordOfTheDay:  normalizeWord(raw.WordOfTheDay),
		dictionary:    normalizeWords(raw.Dictionary),
		synonymPair:   domain.SynonymPair(raw.SynonymPair),
		reverseLookup: raw.ReverseLookup,
		quote:         domain.Quote(raw.Quote),
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return c, nil
}

func normalizeWord(w domain.Word) domain.Word {
	w.Word = strings.TrimSpace(w.Word)
	if w.Synonyms == nil {
		w.Synonyms = []string{}
	}
	return w
}

func normalizeWords(words []domain.Word) []domain.Word {
	out := make([]domain.Word, len(words))
	for i, w := range words {
		out[i] = normalizeWord(w)
	}
	return out
}

func (c *Catalogue) validate() error {
	var errs []error
	if len(c.initialWords) == 0 {
		errs = append(errs, errors.New("catalogue has no initial words"))
	}
	state := domain.NewUserState()
	state.Words = append(append([]domain.Word{}, c.initialWords...), c.pool...)
	errs = append(errs, state.Validate())
	for _, w := range append([]domain.Word{c.wordOfTheDay}, c.dictionary...) {
		errs = append(errs, w.Validate())
	}
	errs = append(errs, c.synonymPair.Validate(), c.quote.Validate())
	if len(c.reverseLookup) == 0 {
		errs = append(errs, errors.New("catalogue has no reverse lookup fallback"))
	}
	return errors.Join(errs...)
}

// InitialState returns a fresh user state seeded with the starter vocabulary.
func (c *Catalogue) InitialState() domain.UserState {
	state := domain.NewUserState()
	state.Words = domain.CloneWords(c.initialWords)
	return state
}

// GenerateWords hands out count words from the offline pool, continuing where
// the previous call stopped and wrapping around at the end.
func (c *Catalogue) GenerateWords(ctx context.Context, count int) ([]domain.Word, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if count <= 0 {
		return nil, fmt.Errorf("%w: word count must be positive, got %d", domain.ErrValidation, count)
	}
	if len(c.pool) == 0 {
		return []domain.Word{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	n := min(count, len(c.pool))
	out := make([]domain.Word, 0, n)
	for range n {
		out = append(out, c.pool[c.next].Clone())
		c.next = (c.next + 1) % len(c.pool)
	}
	return out, nil
}

// Lookup finds word in the built-in content, ignoring case.
func (c *Catalogue) Lookup(word string) (domain.Word, bool) {
	word = strings.TrimSpace(word)
	for _, list := range [][]domain.Word{c.dictionary, c.initialWords, c.pool, {c.wordOfTheDay}} {
		for _, w := range list {
			if strings.EqualFold(w.Word, word) {
				return w.Clone(), true
			}
		}
	}
	return domain.Word{}, false
}

// Words returns every catalogue word usable as a quiz distractor.
func (c *Catalogue) Words() []domain.Word {
	out := domain.CloneWords(c.initialWords)
	return append(out, domain.CloneWords(c.pool)...)
}

// FallbackWordOfTheDay is served when no word can be generated.
func (c *Catalogue) FallbackWordOfTheDay() domain.Word {
	return c.wordOfTheDay.Clone()
}

// FallbackSynonymPair is served when no pair can be generated.
func (c *Catalogue) FallbackSynonymPair() domain.SynonymPair {
	return c.synonymPair
}

// FallbackReverseLookup is served when the generator cannot be reached.
func (c *Catalogue) FallbackReverseLookup() []string {
	return append([]string(nil), c.reverseLookup...)
}

// FallbackQuote is served when no quote can be generated.
func (c *Catalogue) FallbackQuote() domain.Quote {
	return c.quote
}
