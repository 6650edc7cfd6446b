package vocab

// Entry is a word and the number of times it was seen in the corpus
type Entry struct {
	Word  string `csv:"word"`
	Count int    `csv:"count"`
}

// SortPopularity implements sort.Interface to sort entries by descending count.
// Equal counts fall back to ascending byte order of the word so selection is
// reproducible across runs.
type SortPopularity []Entry

// Len implements sort.Interface
func (b SortPopularity) Len() int { return len(b) }

// Less implements sort.Interface
func (b SortPopularity) Less(i, j int) bool {
	if b[i].Count == b[j].Count {
		return b[i].Word < b[j].Word
	}
	return b[i].Count > b[j].Count
}

// Swap implements sort.Interface
func (b SortPopularity) Swap(i, j int) {
	b[i], b[j] = b[j], b[i]
}
