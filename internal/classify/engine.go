package classify

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	randomforest "github.com/malaschitz/randomForest"

	"conti/internal/core"
)

// Axis sample floors. Below these the axis stays untrained and Predict falls
// back to the sign heuristic, never to a low-quality forest.
const (
	minCategorySamples = 10
	minTypeSamples     = 5
	numTrees           = 100
)

// Suggestion is a classification proposal for one transaction. Confidence is
// the minimum across the two axes, so one weak axis drags the whole suggestion
// down rather than hiding behind the stronger one.
type Suggestion struct {
	Category           string
	CategoryConfidence float64
	Type               core.TxType
	TypeConfidence     float64
	Confidence         float64
}

// TrainStats reports what the last training run had to work with.
type TrainStats struct {
	CategorySamples int
	TypeSamples     int
	CategoryTrained bool
	TypeTrained     bool
}

// Model is the serializable training artifact. It carries the fitted
// vectorizers plus the feature matrices; the forests themselves are rebuilt
// from the matrices on load.
type Model struct {
	CategoryVec    *Vectorizer
	CategoryLabels []string
	CategoryX      [][]float64
	CategoryClass  []int

	TypeVec    *Vectorizer
	TypeLabels []string
	TypeX      [][]float64
	TypeClass  []int

	TrainedAt   time.Time
	SampleCount int
}

type forestAxis struct {
	vec    *Vectorizer
	labels []string
	forest *randomforest.Forest
}

// Engine answers classification queries against whatever model is currently
// loaded. Safe for concurrent Predict while a Train or LoadModel swaps the
// model underneath.
type Engine struct {
	mu       sync.RWMutex
	model    *Model
	category *forestAxis
	txType   *forestAxis
}

func NewEngine() *Engine { return &Engine{} }

// Train fits both axes from the reviewed corpus. Rows still carrying the
// Uncategorized placeholder never reach the category axis.
func (e *Engine) Train(ctx context.Context, corpus []core.Transaction) (TrainStats, error) {
	var stats TrainStats

	model := &Model{TrainedAt: time.Now().UTC(), SampleCount: len(corpus)}

	var catDocs, typeDocs []string
	var catLabels []string
	var typeLabels []core.TxType
	var typeAmounts []float64
	for _, t := range corpus {
		if strings.TrimSpace(t.Description) == "" {
			continue
		}
		if t.Category != "" && t.Category != core.Uncategorized {
			catDocs = append(catDocs, t.Description)
			catLabels = append(catLabels, t.Category)
		}
		if t.Type.IsValid() {
			typeDocs = append(typeDocs, t.Description)
			typeLabels = append(typeLabels, t.Type)
			typeAmounts = append(typeAmounts, t.SignedAmount())
		}
	}
	stats.CategorySamples = len(catDocs)
	stats.TypeSamples = len(typeDocs)

	if len(catDocs) > minCategorySamples {
		vec := NewVectorizer(defaultMaxFeatures)
		vec.Fit(catDocs)
		model.CategoryVec = vec
		model.CategoryLabels, model.CategoryClass = encodeLabels(catLabels)
		model.CategoryX = make([][]float64, len(catDocs))
		for i, doc := range catDocs {
			model.CategoryX[i] = vec.Transform(doc)
		}
		stats.CategoryTrained = true
	} else {
		slog.WarnContext(ctx, "Category axis below sample floor, staying untrained",
			"samples", len(catDocs), "floor", minCategorySamples)
	}

	if len(typeDocs) > minTypeSamples {
		vec := NewVectorizer(defaultMaxFeatures)
		vec.Fit(typeDocs)
		model.TypeVec = vec
		labels := make([]string, len(typeLabels))
		for i, tt := range typeLabels {
			labels[i] = string(tt)
		}
		model.TypeLabels, model.TypeClass = encodeLabels(labels)
		model.TypeX = make([][]float64, len(typeDocs))
		for i, doc := range typeDocs {
			model.TypeX[i] = append(vec.Transform(doc), typeAmounts[i])
		}
		stats.TypeTrained = true
	} else {
		slog.WarnContext(ctx, "Type axis below sample floor, staying untrained",
			"samples", len(typeDocs), "floor", minTypeSamples)
	}

	e.LoadModel(model)
	slog.InfoContext(ctx, "Classifier trained",
		"category_samples", stats.CategorySamples,
		"type_samples", stats.TypeSamples,
		"category_trained", stats.CategoryTrained,
		"type_trained", stats.TypeTrained)
	return stats, nil
}

// LoadModel swaps in a model and rebuilds the forests from its matrices.
func (e *Engine) LoadModel(m *Model) {
	var cat, typ *forestAxis
	if m != nil && m.CategoryVec != nil && len(m.CategoryX) > 0 {
		cat = &forestAxis{
			vec:    m.CategoryVec,
			labels: m.CategoryLabels,
			forest: buildForest(m.CategoryX, m.CategoryClass),
		}
	}
	if m != nil && m.TypeVec != nil && len(m.TypeX) > 0 {
		typ = &forestAxis{
			vec:    m.TypeVec,
			labels: m.TypeLabels,
			forest: buildForest(m.TypeX, m.TypeClass),
		}
	}

	e.mu.Lock()
	e.model = m
	e.category = cat
	e.txType = typ
	e.mu.Unlock()
}

// Model returns the current training artifact, nil when untrained.
func (e *Engine) Model() *Model {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.model
}

func (e *Engine) Trained() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.category != nil || e.txType != nil
}

// Predict classifies a single transaction. Either axis degrades independently:
// a missing or panicking category axis yields Uncategorized at zero confidence,
// a missing or panicking type axis falls back to the amount-sign heuristic.
func (e *Engine) Predict(t core.Transaction) Suggestion {
	e.mu.RLock()
	cat, typ := e.category, e.txType
	e.mu.RUnlock()

	s := Suggestion{Category: core.Uncategorized, Type: signHeuristic(t)}

	if cat != nil {
		if label, conf, ok := voteAxis(cat, cat.vec.Transform(t.Description)); ok {
			s.Category = label
			s.CategoryConfidence = conf
		}
	}
	if typ != nil {
		features := append(typ.vec.Transform(t.Description), t.SignedAmount())
		if label, conf, ok := voteAxis(typ, features); ok {
			s.Type = core.TxType(label)
			s.TypeConfidence = conf
		}
	}

	s.Confidence = s.CategoryConfidence
	if s.TypeConfidence < s.Confidence {
		s.Confidence = s.TypeConfidence
	}
	return s
}

func voteAxis(a *forestAxis, features []float64) (label string, confidence float64, ok bool) {
	defer func() {
		if recover() != nil {
			label, confidence, ok = "", 0, false
		}
	}()
	votes := a.forest.Vote(features)
	best := -1
	for i, v := range votes {
		if best < 0 || v > votes[best] {
			best = i
		}
	}
	if best < 0 || best >= len(a.labels) {
		return "", 0, false
	}
	return a.labels[best], votes[best], true
}

// signHeuristic is the no-model fallback: spend-shaped rows are expenses,
// everything else income.
func signHeuristic(t core.Transaction) core.TxType {
	if t.SignedAmount() < 0 {
		return core.Expense
	}
	return core.Income
}

func buildForest(x [][]float64, class []int) *randomforest.Forest {
	forest := &randomforest.Forest{
		Data: randomforest.ForestData{X: x, Class: class},
	}
	forest.Train(numTrees)
	return forest
}

// encodeLabels maps string labels to dense class indices, returning the
// index-to-label table alongside the encoded classes.
func encodeLabels(labels []string) ([]string, []int) {
	index := make(map[string]int)
	var table []string
	classes := make([]int, len(labels))
	for i, l := range labels {
		idx, ok := index[l]
		if !ok {
			idx = len(table)
			index[l] = idx
			table = append(table, l)
		}
		classes[i] = idx
	}
	return table, classes
}
