package normalize

import "strings"

// DefaultNgramSize is the character n-gram width used for search tokens.
const DefaultNgramSize = 2

// Tokenize lowercases and whitespace-splits text, dropping tokens shorter
// than two characters.
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	fields := strings.Fields(strings.ToLower(text))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		if len([]rune(f)) >= 2 {
			tokens = append(tokens, f)
		}
	}
	return tokens
}

// TokenNgrams derives the ordered sequence of character n-grams over the
// whitespace tokens of text. The sequence is not deduplicated; order is
// irrelevant to correctness downstream.
func TokenNgrams(text string, n int) []string {
	if n <= 0 {
		n = DefaultNgramSize
	}
	var ngrams []string
	for _, token := range Tokenize(text) {
		runes := []rune(token)
		for i := 0; i+n <= len(runes); i++ {
			ngrams = append(ngrams, string(runes[i:i+n]))
		}
	}
	return ngrams
}
