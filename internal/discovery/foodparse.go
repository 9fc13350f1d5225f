package discovery

import (
	"regexp"
	"strings"
)

// FoodExtractor turns a free-text journal note into candidate food phrases.
// It is a strategy interface so the phrase matcher below can be swapped for
// a real tokenizer without touching the aggregation or scoring pipeline.
type FoodExtractor interface {
	Extract(note string) []string
}

var (
	consumptionRe = regexp.MustCompile(`(?i)\b(?:ate|had|drank)\s+([a-zA-Z][a-zA-Z' -]{0,40})`)
	mealRe        = regexp.MustCompile(`(?i)\b([a-zA-Z][a-zA-Z' -]{0,40}?)\s+for\s+(?:breakfast|lunch|dinner)\b`)
)

// Leading filler stripped from candidate phrases.
var leadingStopWords = map[string]bool{
	"a": true, "an": true, "the": true, "some": true, "my": true,
	"more": true, "two": true, "three": true, "few": true, "lots": true,
	"of": true, "little": true, "bit": true,
	"ate": true, "had": true, "drank": true,
}

// Tokens that end a phrase; everything after them belongs to another clause.
var phraseBreakWords = map[string]bool{
	"and": true, "then": true, "but": true, "because": true, "before": true,
	"after": true, "while": true, "at": true, "in": true, "on": true,
	"around": true, "during": true, "this": true, "that": true, "today": true,
	"tonight": true, "yesterday": true, "morning": true, "evening": true,
	"afternoon": true, "with": true, "for": true, "again": true,
	"earlier": true, "later": true, "twice": true,
}

const (
	minFoodPhraseLen   = 2
	maxFoodPhraseLen   = 30
	maxFoodPhraseWords = 3
)

// PhraseFoodExtractor matches consumption phrases ("ate X", "had X",
// "drank X", "X for breakfast/lunch/dinner"). Best effort by design: false
// positives are tolerated because downstream statistics discard factors
// with no signal.
type PhraseFoodExtractor struct{}

func NewPhraseFoodExtractor() FoodExtractor {
	return PhraseFoodExtractor{}
}

func (PhraseFoodExtractor) Extract(note string) []string {
	if strings.TrimSpace(note) == "" {
		return nil
	}

	seen := map[string]bool{}
	var out []string

	collect := func(raw string) {
		phrase := cleanFoodPhrase(raw)
		if phrase == "" || seen[phrase] {
			return
		}
		seen[phrase] = true
		out = append(out, phrase)
	}

	for _, m := range consumptionRe.FindAllStringSubmatch(note, -1) {
		collect(m[1])
	}
	for _, m := range mealRe.FindAllStringSubmatch(note, -1) {
		collect(m[1])
	}
	return out
}

func cleanFoodPhrase(raw string) string {
	words := strings.Fields(strings.ToLower(raw))

	// Drop leading filler.
	for len(words) > 0 && leadingStopWords[words[0]] {
		words = words[1:]
	}

	var kept []string
	for _, w := range words {
		w = strings.Trim(w, "'-")
		if w == "" {
			continue
		}
		if phraseBreakWords[w] {
			break
		}
		kept = append(kept, w)
		if len(kept) == maxFoodPhraseWords {
			break
		}
	}

	phrase := strings.Join(kept, " ")
	if len(phrase) < minFoodPhraseLen || len(phrase) > maxFoodPhraseLen {
		return ""
	}
	return phrase
}
