// Package index implements an in-memory inverted index over multiple text
// fields, with per-field postings, per-field document lengths, and numeric
// doc values used by boost functions.
package index

import (
	"sort"
	"sync"

	"github.com/bestmax/bestmax/internal/schema"
	"github.com/bestmax/bestmax/pkg/errors"
)

// MemoryIndex is a thread-safe multi-field inverted index.
type MemoryIndex struct {
	mu sync.RWMutex
	// field -> term -> docID -> posting
	postings map[string]map[string]map[string]*Posting
	// field -> docID -> token count
	docLengths map[string]map[string]int
	// docID -> value name -> value
	docValues map[string]map[string]float64
	docIDs    map[string]struct{}
	sch       *schema.Schema
}

// NewMemoryIndex creates an empty index whose fields are analyzed per the
// given schema.
func NewMemoryIndex(sch *schema.Schema) *MemoryIndex {
	return &MemoryIndex{
		postings:   make(map[string]map[string]map[string]*Posting),
		docLengths: make(map[string]map[string]int),
		docValues:  make(map[string]map[string]float64),
		docIDs:     make(map[string]struct{}),
		sch:        sch,
	}
}

// AddDocument analyzes and indexes the given field texts for docID. Fields
// not present in the schema are ignored. values holds numeric doc values
// (e.g. popularity) referenced by boost functions. Re-adding a docID
// replaces nothing and returns ErrDocumentExists.
func (m *MemoryIndex) AddDocument(docID string, fields map[string]string, values map[string]float64) error {
	if docID == "" {
		return errors.Preconditionf("docID must not be empty")
	}

	type fieldTokens struct {
		field  string
		tokens []string
	}
	analyzed := make([]fieldTokens, 0, len(fields))
	for field, text := range fields {
		analyzer := m.sch.Analyzer(field)
		if analyzer == nil {
			continue
		}
		analyzed = append(analyzed, fieldTokens{field: field, tokens: analyzer.Analyze(text)})
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.docIDs[docID]; exists {
		return errors.Newf(errors.ErrDocumentExists, 409, "document %s already indexed", docID)
	}
	m.docIDs[docID] = struct{}{}

	for _, ft := range analyzed {
		terms, ok := m.postings[ft.field]
		if !ok {
			terms = make(map[string]map[string]*Posting)
			m.postings[ft.field] = terms
		}
		for pos, token := range ft.tokens {
			docs, ok := terms[token]
			if !ok {
				docs = make(map[string]*Posting)
				terms[token] = docs
			}
			p, ok := docs[docID]
			if !ok {
				p = &Posting{DocID: docID, Positions: make([]int, 0, 4)}
				docs[docID] = p
			}
			p.Frequency++
			p.Positions = append(p.Positions, pos)
		}
		lengths, ok := m.docLengths[ft.field]
		if !ok {
			lengths = make(map[string]int)
			m.docLengths[ft.field] = lengths
		}
		lengths[docID] = len(ft.tokens)
	}

	if len(values) > 0 {
		vals := make(map[string]float64, len(values))
		for name, v := range values {
			vals[name] = v
		}
		m.docValues[docID] = vals
	}
	return nil
}

// Postings returns the posting list for term in field, sorted by docID, or
// nil if the term does not occur there.
func (m *MemoryIndex) Postings(field, term string) PostingList {
	m.mu.RLock()
	defer m.mu.RUnlock()
	docs, ok := m.postings[field][term]
	if !ok {
		return nil
	}
	result := make(PostingList, 0, len(docs))
	for _, p := range docs {
		result = append(result, *p)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].DocID < result[j].DocID
	})
	return result
}

// DocIDs returns all indexed document ids in sorted order.
func (m *MemoryIndex) DocIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]string, 0, len(m.docIDs))
	for id := range m.docIDs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// DocCount returns the number of indexed documents.
func (m *MemoryIndex) DocCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.docIDs)
}

// FieldLength returns the analyzed token count of field in docID.
func (m *MemoryIndex) FieldLength(field, docID string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.docLengths[field][docID]
}

// Stats returns scoring statistics for the given field.
func (m *MemoryIndex) Stats(field string) FieldStats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	lengths := m.docLengths[field]
	stats := FieldStats{TotalDocs: int64(len(m.docIDs))}
	if len(lengths) == 0 {
		return stats
	}
	var total int64
	for _, l := range lengths {
		total += int64(l)
	}
	stats.AvgLength = float64(total) / float64(len(lengths))
	return stats
}

// DocValue returns the numeric doc value stored under name for docID.
func (m *MemoryIndex) DocValue(docID, name string) (float64, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.docValues[docID][name]
	return v, ok
}

// FieldTerms returns all distinct terms indexed in field, sorted. Used to
// populate field-term caches from live index contents.
func (m *MemoryIndex) FieldTerms(field string) []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	terms := make([]string, 0, len(m.postings[field]))
	for term := range m.postings[field] {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	return terms
}

// Reset drops all indexed data.
func (m *MemoryIndex) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.postings = make(map[string]map[string]map[string]*Posting)
	m.docLengths = make(map[string]map[string]int)
	m.docValues = make(map[string]map[string]float64)
	m.docIDs = make(map[string]struct{})
}
