package index

// Posting records the occurrences of one term in one field of one document.
type Posting struct {
	DocID     string `json:"doc_id"`
	Frequency int    `json:"frequency"`
	Positions []int  `json:"positions"`
}

// PostingList is a list of postings for one (field, term) pair, sorted by
// document id.
type PostingList []Posting

// FieldStats summarises one field for scoring purposes.
type FieldStats struct {
	TotalDocs int64
	AvgLength float64
}
