package classify

import (
	"math"
	"sort"
	"strings"
	"unicode"
)

const defaultMaxFeatures = 500

// stopwords are tokens too common in bank descriptors to carry signal.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "inc": {}, "llc": {}, "com": {},
	"www": {}, "card": {}, "debit": {}, "credit": {}, "purchase": {},
	"payment": {}, "pos": {}, "ach": {}, "web": {}, "id": {},
}

// Vectorizer maps free-text descriptions to fixed-width TF-IDF vectors. All
// fields are exported so a fitted vectorizer survives a gob round trip.
type Vectorizer struct {
	Vocabulary  map[string]int
	IDF         []float64
	MaxFeatures int
}

func NewVectorizer(maxFeatures int) *Vectorizer {
	if maxFeatures <= 0 {
		maxFeatures = defaultMaxFeatures
	}
	return &Vectorizer{MaxFeatures: maxFeatures}
}

// Fit builds the vocabulary from the training corpus, keeping the most frequent
// terms up to MaxFeatures, and computes smoothed inverse document frequencies.
func (v *Vectorizer) Fit(docs []string) {
	docFreq := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, tok := range tokenize(doc) {
			if _, dup := seen[tok]; dup {
				continue
			}
			seen[tok] = struct{}{}
			docFreq[tok]++
		}
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}

	v.Vocabulary = make(map[string]int, len(terms))
	v.IDF = make([]float64, len(terms))
	n := float64(len(docs))
	for i, term := range terms {
		v.Vocabulary[term] = i
		v.IDF[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}
}

// Transform produces the L2-normalized TF-IDF vector for a single document.
// Terms outside the fitted vocabulary are ignored.
func (v *Vectorizer) Transform(doc string) []float64 {
	vec := make([]float64, len(v.IDF))
	for _, tok := range tokenize(doc) {
		if idx, ok := v.Vocabulary[tok]; ok {
			vec[idx] += v.IDF[idx]
		}
	}
	var norm float64
	for _, x := range vec {
		norm += x * x
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range vec {
			vec[i] /= norm
		}
	}
	return vec
}

func (v *Vectorizer) Width() int { return len(v.IDF) }

func tokenize(s string) []string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	toks := make([]string, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 {
			continue
		}
		if _, skip := stopwords[f]; skip {
			continue
		}
		toks = append(toks, f)
	}
	return toks
}
