// Package sentiment scores review text: polarity, subjectivity, a label,
// a confidence and per-aspect scores, and blends text with star ratings.
package sentiment

import (
	"context"
	"fmt"
	"math"
	"unicode"
	"unicode/utf8"

	"github.com/ougirez/restorank/internal/domain"
	"github.com/ougirez/restorank/internal/pkg/logger"
	"github.com/shopspring/decimal"
)

const minTextLength = 3

// Result is the outcome of analysing one text.
type Result struct {
	Polarity     float64               `json:"polarity"`
	Subjectivity float64               `json:"subjectivity"`
	Label        domain.SentimentLabel `json:"label"`
	Confidence   float64               `json:"confidence"`
	Aspects      map[string]float64    `json:"aspects"`
	// Fallback reports that the keyword heuristic produced the result.
	Fallback bool `json:"fallback"`
}

func neutralResult() Result {
	return Result{Label: domain.SentimentNeutral, Aspects: map[string]float64{}}
}

// Analyzer never fails: when the model is missing, errors or panics, the
// keyword heuristic answers instead.
type Analyzer struct {
	model    Model
	keywords *KeywordSet
}

// NewAnalyzer builds an analyzer. A nil model always uses the keyword heuristic;
// a nil keyword set means builtin keywords only.
func NewAnalyzer(model Model, keywords *KeywordSet) *Analyzer {
	if keywords == nil {
		keywords = NewKeywordSet(nil)
	}
	return &Analyzer{model: model, keywords: keywords}
}

// WithKeywords returns an analyzer sharing the model but using another keyword set.
func (a *Analyzer) WithKeywords(keywords *KeywordSet) *Analyzer {
	return NewAnalyzer(a.model, keywords)
}

func (a *Analyzer) Analyze(ctx context.Context, text, language string) Result {
	if countNonSpace(text) < minTextLength {
		return neutralResult()
	}

	if a.model != nil {
		polarity, subjectivity, err := a.score(text, language)
		if err == nil {
			return Result{
				Polarity:     round(polarity, 3),
				Subjectivity: round(subjectivity, 3),
				Label:        domain.LabelFor(polarity),
				Confidence:   round(0.5*subjectivity+0.5*math.Min(float64(utf8.RuneCountInString(text))/200, 1), 3),
				Aspects:      a.keywords.Aspects(text),
			}
		}
		logger.Debugf(ctx, "sentiment model failed, falling back to keywords: %s", err.Error())
	}

	return a.analyzeKeywords(text)
}

// score calls the model, turning a panic into an error.
func (a *Analyzer) score(text, language string) (polarity, subjectivity float64, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("model panic: %v", r)
		}
	}()
	return a.model.Score(text, language)
}

func (a *Analyzer) analyzeKeywords(text string) Result {
	pos, neg := a.keywords.generalHits(text)
	hits := pos + neg

	res := Result{Aspects: a.keywords.Aspects(text), Fallback: true}
	if hits == 0 {
		res.Label = domain.SentimentNeutral
		res.Subjectivity = 0.5
		res.Confidence = 0.3
		return res
	}

	polarity := clamp(float64(pos-neg)/float64(hits), -1, 1)
	res.Polarity = round(polarity, 3)
	res.Subjectivity = 0.7
	res.Label = domain.LabelFor(polarity)
	res.Confidence = math.Min(float64(hits)/5, 1)
	return res
}

func countNonSpace(text string) int {
	n := 0
	for _, r := range text {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func round(v float64, places int32) float64 {
	return decimal.NewFromFloat(v).Round(places).InexactFloat64()
}
