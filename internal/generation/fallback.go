package generation

import (
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/phrazzld/vocab-trainer/internal/domain"
)

// quizOptions is the number of choices of a fallback question.
const quizOptions = 4

// FallbackExplanation is the explanation used when none was generated.
func FallbackExplanation(word domain.Word) string {
	return fmt.Sprintf(`The correct answer is "%s" as it means "%s".`, word.Word, word.Definition)
}

// FallbackQuestion builds a question for word from its own definition. The
// distractors are drawn from candidates in order, skipping duplicates and the
// word itself; the options are then shuffled.
func FallbackQuestion(word domain.Word, candidates []domain.Word) domain.QuizQuestion {
	options := []string{word.Word}
	seen := map[string]struct{}{strings.ToLower(word.Word): {}}
	for _, c := range candidates {
		if len(options) == quizOptions {
			break
		}
		key := strings.ToLower(strings.TrimSpace(c.Word))
		if key == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		options = append(options, c.Word)
	}
	rand.Shuffle(len(options), func(i, j int) { options[i], options[j] = options[j], options[i] })

	return domain.QuizQuestion{
		Word:          word.Word,
		Definition:    word.Definition,
		Options:       options,
		CorrectAnswer: word.Word,
		Explanation:   FallbackExplanation(word),
	}
}
