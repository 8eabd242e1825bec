package tfidf

import (
	"math"

	"gonum.org/v1/gonum/floats"
)

// Vectorizer represents a TF-IDF vectorizer over pre-tokenized documents
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
}

// NewVectorizer creates a new Vectorizer
func NewVectorizer() *Vectorizer {
	return &Vectorizer{
		vocabulary: make(map[string]int),
	}
}

// Fit fits the vectorizer to the input documents
func (v *Vectorizer) Fit(docs [][]string) {
	docCount := len(docs)
	termDocCount := make(map[string]int)

	for _, terms := range docs {
		seen := make(map[string]bool, len(terms))
		for _, term := range terms {
			if _, exists := v.vocabulary[term]; !exists {
				v.vocabulary[term] = len(v.vocabulary)
			}
			if !seen[term] {
				termDocCount[term]++
				seen[term] = true
			}
		}
	}

	// Smoothed IDF keeps terms present in every document above zero
	v.idf = make([]float64, len(v.vocabulary))
	for term, count := range termDocCount {
		v.idf[v.vocabulary[term]] = math.Log(float64(1+docCount)/float64(1+count)) + 1
	}
}

// Transform transforms the input documents to TF-IDF vectors. Terms outside
// the fitted vocabulary are ignored.
func (v *Vectorizer) Transform(docs [][]string) [][]float64 {
	tfIdfVectors := make([][]float64, len(docs))

	for i, terms := range docs {
		tfIdf := make([]float64, len(v.vocabulary))
		for _, term := range terms {
			if j, ok := v.vocabulary[term]; ok {
				tfIdf[j]++
			}
		}
		for j := range tfIdf {
			tfIdf[j] *= v.idf[j]
		}
		tfIdfVectors[i] = tfIdf
	}

	return tfIdfVectors
}

// FitTransform fits the vectorizer to the input documents and then transforms them
func (v *Vectorizer) FitTransform(docs [][]string) [][]float64 {
	v.Fit(docs)
	return v.Transform(docs)
}

// VocabularySize returns the number of distinct terms seen by Fit
func (v *Vectorizer) VocabularySize() int {
	return len(v.vocabulary)
}

// Cosine returns the cosine similarity of two equal-length vectors, or 0 when
// either vector is all zeros
func Cosine(a, b []float64) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	normA := floats.Norm(a, 2)
	normB := floats.Norm(b, 2)
	if normA == 0 || normB == 0 {
		return 0
	}
	return floats.Dot(a, b) / (normA * normB)
}
