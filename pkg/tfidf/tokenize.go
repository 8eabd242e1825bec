package tfidf

import (
	"strings"
	"unicode"

	"github.com/jdkato/prose/v2"
)

// Words splits text into word tokens with the prose tokenizer. Tagging,
// entity extraction and sentence segmentation are disabled.
func Words(text string) []string {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	doc, err := prose.NewDocument(text,
		prose.WithTagging(false),
		prose.WithExtraction(false),
		prose.WithSegmentation(false),
	)
	if err != nil {
		return strings.Fields(text)
	}
	tokens := make([]string, 0, len(doc.Tokens()))
	for _, tok := range doc.Tokens() {
		if t := strings.TrimSpace(tok.Text); t != "" {
			tokens = append(tokens, t)
		}
	}
	return tokens
}

// NGrams returns the character n-grams of text after dropping everything that
// is not a letter or number. Text shorter than n yields itself.
func NGrams(text string, n int) []string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			b.WriteRune(unicode.ToLower(r))
		}
	}
	runes := []rune(b.String())
	if len(runes) == 0 || n <= 0 {
		return nil
	}
	if len(runes) < n {
		return []string{string(runes)}
	}
	grams := make([]string, 0, len(runes)-n+1)
	for i := 0; i <= len(runes)-n; i++ {
		grams = append(grams, string(runes[i:i+n]))
	}
	return grams
}
