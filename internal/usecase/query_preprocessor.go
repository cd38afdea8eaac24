package usecase

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const maxQueryLength = 100

// QueryPreprocessor cleans free-text recipe searches before they go upstream
type QueryPreprocessor struct {
	logger *zap.Logger
}

var (
	// Matches amounts like "2 cups", "500g", "1.5 kg", "3 tbsp"
	amountPattern = regexp.MustCompile(`(?i)\b\d+(\.\d+)?\s*(cups?|tbsp|tsp|tablespoons?|teaspoons?|g|grams?|kg|ml|l|liters?|oz|ounces?|lbs?|pounds?)\b`)

	// Matches serving counts like "for 4", "serves 6", "4 servings"
	servingsPattern = regexp.MustCompile(`(?i)\bfor\s+\d+\b|\bserves\s+\d+\b|\b\d+\s*(servings?|people|persons?)\b`)

	// Punctuation that carries no meaning for the upstream search
	punctuationPattern = regexp.MustCompile(`[!?;:"()\[\]{}]+`)

	multiSpacePattern = regexp.MustCompile(`\s+`)
)

// queryNoiseWords narrow nothing down in a recipe catalog
var queryNoiseWords = map[string]bool{
	"recipe":    true,
	"recipes":   true,
	"easy":      true,
	"quick":     true,
	"simple":    true,
	"best":      true,
	"homemade":  true,
	"delicious": true,
	"tasty":     true,
	"authentic": true,
	"classic":   true,
	"how":       true,
	"to":        true,
	"make":      true,
}

// NewQueryPreprocessor creates a new query preprocessor
func NewQueryPreprocessor(log *zap.Logger) *QueryPreprocessor {
	if log == nil {
		log = zap.NewNop()
	}
	return &QueryPreprocessor{logger: log}
}

// Preprocess strips amounts, serving counts, noise words and stray
// punctuation, then collapses whitespace. If nothing meaningful is left the
// trimmed input is returned so "easy recipe" still searches for something.
func (p *QueryPreprocessor) Preprocess(query string) string {
	original := strings.TrimSpace(query)
	if original == "" {
		return ""
	}

	cleaned := amountPattern.ReplaceAllString(original, " ")
	cleaned = servingsPattern.ReplaceAllString(cleaned, " ")
	cleaned = punctuationPattern.ReplaceAllString(cleaned, " ")
	cleaned = removeNoiseWords(cleaned)
	cleaned = strings.Trim(multiSpacePattern.ReplaceAllString(cleaned, " "), " ,.-")

	if cleaned == "" {
		cleaned = multiSpacePattern.ReplaceAllString(original, " ")
	}
	cleaned = truncateAtWord(cleaned, maxQueryLength)

	if cleaned != original {
		p.logger.Debug("search query preprocessed", zap.String("input", original), zap.String("output", cleaned))
	}
	return cleaned
}

func removeNoiseWords(s string) string {
	words := strings.Fields(s)
	kept := words[:0]
	for _, word := range words {
		if !queryNoiseWords[strings.ToLower(strings.Trim(word, ",.-'"))] {
			kept = append(kept, word)
		}
	}
	return strings.Join(kept, " ")
}

// truncateAtWord cuts s to at most limit runes, preferring a word boundary
func truncateAtWord(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	cut := string([]rune(s)[:limit])
	if i := strings.LastIndex(cut, " "); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimSpace(cut)
}
