package normalize

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTokenizeDropsShortTokens(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"st25", "rice", "5kg"}, Tokenize("ST25 Rice 5kg a"))
	require.Empty(t, Tokenize(""))
	require.Empty(t, Tokenize("a b c"))
}

func TestTokenNgrams(t *testing.T) {
	t.Parallel()

	got := TokenNgrams("Fresh Milk", 2)
	require.Equal(t, []string{"fr", "re", "es", "sh", "mi", "il", "lk"}, got)
}

func TestTokenNgramsDefaultSize(t *testing.T) {
	t.Parallel()

	require.Equal(t, TokenNgrams("green tea", DefaultNgramSize), TokenNgrams("green tea", 0))
}

func TestTokenNgramsKeepsDuplicates(t *testing.T) {
	t.Parallel()

	got := TokenNgrams("papa", 2)
	require.Equal(t, []string{"pa", "ap", "pa"}, got)
}
