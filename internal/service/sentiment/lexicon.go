package sentiment

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

//go:embed data/lexicon.yaml
var builtinLexiconYAML []byte

var ErrUnsupportedLanguage = errors.New("unsupported language")

// Model scores free text with a polarity in [-1,1] and a subjectivity in [0,1].
type Model interface {
	Score(text, language string) (polarity, subjectivity float64, err error)
}

type languageLexicon struct {
	Negations    []string             `yaml:"negations"`
	Intensifiers map[string]float64   `yaml:"intensifiers"`
	Words        map[string][]float64 `yaml:"words"`
}

type opinion struct {
	polarity     float64
	subjectivity float64
}

type lexicon struct {
	negations    map[string]struct{}
	intensifiers map[string]float64
	words        map[string]opinion
}

// negationWindow is how many tokens a negation stays in effect.
const negationWindow = 3

// LexiconModel is a statistical polarity/subjectivity scorer: opinion words
// carry averaged polarity and subjectivity values, adjusted by a preceding
// intensifier and flipped-and-halved by a preceding negation.
type LexiconModel struct {
	languages map[string]*lexicon
	fallback  string
}

// NewLexiconModel loads the embedded lexicons. Texts tagged with an empty
// language are scored with the English lexicon.
func NewLexiconModel() (*LexiconModel, error) {
	return ParseLexiconModel(builtinLexiconYAML)
}

func ParseLexiconModel(raw []byte) (*LexiconModel, error) {
	var file map[string]languageLexicon
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("yaml.Unmarshal: %w", err)
	}

	m := &LexiconModel{languages: make(map[string]*lexicon, len(file)), fallback: "en"}
	for lang, ll := range file {
		lex := &lexicon{
			negations:    make(map[string]struct{}, len(ll.Negations)),
			intensifiers: ll.Intensifiers,
			words:        make(map[string]opinion, len(ll.Words)),
		}
		for _, n := range ll.Negations {
			lex.negations[strings.ToLower(n)] = struct{}{}
		}
		for word, values := range ll.Words {
			if len(values) != 2 {
				return nil, fmt.Errorf("lexicon %s: word %q: want [polarity, subjectivity], got %v", lang, word, values)
			}
			lex.words[strings.ToLower(word)] = opinion{polarity: values[0], subjectivity: values[1]}
		}
		m.languages[strings.ToLower(lang)] = lex
	}

	return m, nil
}

func (m *LexiconModel) Score(text, language string) (float64, float64, error) {
	lang := primaryLanguage(language)
	if lang == "" {
		lang = m.fallback
	}

	lex, ok := m.languages[lang]
	if !ok {
		return 0, 0, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}

	var (
		assessments []opinion
		intensity   = 1.0
		negatedFor  = 0
	)

	for _, token := range tokenize(text) {
		if isNegation(lex, token) {
			negatedFor = negationWindow
			continue
		}
		if factor, ok := lex.intensifiers[token]; ok {
			intensity *= factor
			continue
		}

		op, ok := lex.words[token]
		if !ok {
			if negatedFor > 0 {
				negatedFor--
			}
			intensity = 1.0
			continue
		}

		p := clamp(op.polarity*intensity, -1, 1)
		s := clamp(op.subjectivity*intensity, 0, 1)
		if negatedFor > 0 {
			p *= -0.5
		}
		assessments = append(assessments, opinion{polarity: p, subjectivity: s})

		intensity = 1.0
		negatedFor = 0
	}

	if len(assessments) == 0 {
		return 0, 0, nil
	}

	var sumP, sumS float64
	for _, a := range assessments {
		sumP += a.polarity
		sumS += a.subjectivity
	}
	n := float64(len(assessments))

	return clamp(sumP/n, -1, 1), clamp(sumS/n, 0, 1), nil
}

func isNegation(lex *lexicon, token string) bool {
	if _, ok := lex.negations[token]; ok {
		return true
	}
	_, contracted := lex.negations["n't"]
	return contracted && strings.HasSuffix(token, "n't")
}

// tokenize lower-cases text and splits it into words, keeping inner apostrophes.
func tokenize(text string) []string {
	text = strings.ToLower(strings.ReplaceAll(text, "’", "'"))
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// primaryLanguage reduces a tag such as "en-GB" to "en".
func primaryLanguage(tag string) string {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_"); i >= 0 {
		tag = tag[:i]
	}
	return tag
}
