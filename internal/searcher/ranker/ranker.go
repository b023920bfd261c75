// Package ranker provides the BM25-style term scoring primitives and the
// final top-k ordering used by the execution engine.
package ranker

import (
	"math"
	"sort"
)

const (
	k1 = 1.2
	b  = 0.75
)

// ScoredDoc is one ranked result.
type ScoredDoc struct {
	DocID string  `json:"doc_id"`
	Score float64 `json:"score"`
}

// TermScore computes the BM25 score of one term occurrence in one field of
// one document.
func TermScore(termFreq float64, docLength, avgLength float64, totalDocs, docFreq int64) float64 {
	return computeIDF(totalDocs, docFreq) * computeTFNorm(termFreq, docLength, avgLength)
}

// Top converts a docID-to-score map into a sorted, rounded, limited result
// list. Ties break on docID for determinism.
func Top(scores map[string]float64, limit int) []ScoredDoc {
	result := make([]ScoredDoc, 0, len(scores))
	for docID, score := range scores {
		result = append(result, ScoredDoc{
			DocID: docID,
			Score: math.Round(score*10000) / 10000,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Score != result[j].Score {
			return result[i].Score > result[j].Score
		}
		return result[i].DocID < result[j].DocID
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq float64, docLength float64, avgLength float64) float64 {
	if avgLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}
