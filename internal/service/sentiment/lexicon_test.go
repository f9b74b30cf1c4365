package sentiment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLexiconModel_RejectsMalformedWord(t *testing.T) {
	_, err := ParseLexiconModel([]byte("en:\n  words:\n    good: [0.7]\n"))
	require.Error(t, err)
}

func TestLexiconModel_Score(t *testing.T) {
	m, err := ParseLexiconModel([]byte(`
en:
  negations: ["not", "n't"]
  intensifiers:
    very: 1.3
  words:
    good: [0.7, 0.6]
    bad: [-0.7, 0.67]
`))
	require.NoError(t, err)

	p, s, err := m.Score("good", "en-GB")
	require.NoError(t, err)
	assert.InDelta(t, 0.7, p, 1e-9)
	assert.InDelta(t, 0.6, s, 1e-9)

	p, _, err = m.Score("very good", "")
	require.NoError(t, err)
	assert.InDelta(t, 0.91, p, 1e-9)

	p, _, err = m.Score("isn't good", "en")
	require.NoError(t, err)
	assert.InDelta(t, -0.35, p, 1e-9)

	p, _, err = m.Score("good and bad", "en")
	require.NoError(t, err)
	assert.InDelta(t, 0, p, 1e-9)

	_, _, err = m.Score("bon", "fr")
	require.ErrorIs(t, err, ErrUnsupportedLanguage)
}
