package sentiment

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/ougirez/restorank/internal/domain"
	"golang.org/x/text/cases"
	"gopkg.in/yaml.v3"
)

//go:embed data/keywords.yaml
var builtinKeywordsYAML []byte

type polarLists struct {
	Positive []string `yaml:"positive"`
	Negative []string `yaml:"negative"`
}

type keywordsFile struct {
	General polarLists            `yaml:"general"`
	Aspects map[string]polarLists `yaml:"aspects"`
}

var builtinKeywords keywordsFile

func init() {
	if err := yaml.Unmarshal(builtinKeywordsYAML, &builtinKeywords); err != nil {
		panic(fmt.Sprintf("sentiment: builtin keywords: %v", err))
	}
}

// phraseList is an append-only list de-duplicated by case-folded key.
type phraseList struct {
	fold  cases.Caser
	seen  map[string]struct{}
	items []string
}

func newPhraseList(fold cases.Caser, builtin []string) *phraseList {
	l := &phraseList{fold: fold, seen: make(map[string]struct{}, len(builtin))}
	for _, phrase := range builtin {
		l.add(phrase)
	}
	return l
}

func (l *phraseList) add(phrase string) {
	phrase = strings.TrimSpace(phrase)
	if phrase == "" {
		return
	}

	key := l.fold.String(phrase)
	if _, ok := l.seen[key]; ok {
		return
	}
	l.seen[key] = struct{}{}
	l.items = append(l.items, strings.ToLower(phrase))
}

// KeywordSet is the immutable lookup built from the builtin lists merged with
// custom keywords. It is never mutated after construction, so one set can be
// shared by every analysis in a batch.
type KeywordSet struct {
	general    polarLists
	aspects    map[string]polarLists
	categories []string
}

// NewKeywordSet merges custom keywords into the builtin lists. Customs are
// appended after the builtins, duplicates are dropped case-insensitively and
// categories outside the builtin four are accepted. Every active custom keyword
// also extends the general lists used by the fallback analyzer.
func NewKeywordSet(custom []*domain.CustomKeyword) *KeywordSet {
	fold := cases.Fold()

	generalPos := newPhraseList(fold, builtinKeywords.General.Positive)
	generalNeg := newPhraseList(fold, builtinKeywords.General.Negative)

	categories := append([]string(nil), domain.Aspects...)
	aspectPos := make(map[string]*phraseList, len(categories))
	aspectNeg := make(map[string]*phraseList, len(categories))
	for _, category := range categories {
		aspectPos[category] = newPhraseList(fold, builtinKeywords.Aspects[category].Positive)
		aspectNeg[category] = newPhraseList(fold, builtinKeywords.Aspects[category].Negative)
	}

	for _, kw := range custom {
		if kw == nil || !kw.IsActive {
			continue
		}

		category := strings.ToLower(strings.TrimSpace(kw.Category))
		if category != "" {
			if _, ok := aspectPos[category]; !ok {
				aspectPos[category] = newPhraseList(fold, nil)
				aspectNeg[category] = newPhraseList(fold, nil)
				categories = append(categories, category)
			}
		}

		switch strings.ToLower(strings.TrimSpace(kw.Sentiment)) {
		case domain.KeywordPositive:
			generalPos.add(kw.Keyword)
			if category != "" {
				aspectPos[category].add(kw.Keyword)
			}
		case domain.KeywordNegative:
			generalNeg.add(kw.Keyword)
			if category != "" {
				aspectNeg[category].add(kw.Keyword)
			}
		}
	}

	set := &KeywordSet{
		general:    polarLists{Positive: generalPos.items, Negative: generalNeg.items},
		aspects:    make(map[string]polarLists, len(categories)),
		categories: categories,
	}
	for _, category := range categories {
		set.aspects[category] = polarLists{
			Positive: aspectPos[category].items,
			Negative: aspectNeg[category].items,
		}
	}

	return set
}

// Categories lists the builtin aspects followed by custom ones in first-seen order.
func (k *KeywordSet) Categories() []string {
	return append([]string(nil), k.categories...)
}

// Aspects extracts per-category scores from text. A category without any hit
// is absent from the result; otherwise its score is (pos-neg)/(pos+neg)
// rounded to 2 decimals. Matching is plain substring search on the
// lower-cased text: no tokenisation, stemming or negation handling.
func (k *KeywordSet) Aspects(text string) map[string]float64 {
	res := make(map[string]float64)
	lower := strings.ToLower(text)

	for _, category := range k.categories {
		lists := k.aspects[category]
		pos := countHits(lower, lists.Positive)
		neg := countHits(lower, lists.Negative)
		if pos+neg == 0 {
			continue
		}
		res[category] = round(float64(pos-neg)/float64(pos+neg), 2)
	}

	return res
}

// generalHits counts how many general positive and negative phrases occur in text.
func (k *KeywordSet) generalHits(text string) (pos, neg int) {
	lower := strings.ToLower(text)
	return countHits(lower, k.general.Positive), countHits(lower, k.general.Negative)
}

func countHits(lowerText string, phrases []string) int {
	hits := 0
	for _, phrase := range phrases {
		if strings.Contains(lowerText, phrase) {
			hits++
		}
	}
	return hits
}
