package vocab

import (
	"bufio"
	"io"
	"sort"
	"strings"

	"github.com/gocarina/gocsv"
)

// maxLineSize bounds a single corpus line; some UN corpus lines are very long
const maxLineSize = 16 * 1024 * 1024

// Counts maps a word to the number of times it occurred
type Counts map[string]int

// Hit increments the count for word by count, inserting it if needed
func (cs Counts) Hit(word string, count int) {
	cs[word] += count
}

// Add merges counts with other
func (cs Counts) Add(other Counts) {
	for w, c := range other {
		cs[w] += c
	}
}

// AddLines counts every whitespace separated token of every line in r.
// It returns the number of bytes consumed.
func (cs Counts) AddLines(r io.Reader) (int64, error) {
	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 64*1024), maxLineSize)

	var n int64
	for s.Scan() {
		line := s.Text()
		n += int64(len(line)) + 1
		for _, w := range strings.Fields(line) {
			cs[w]++
		}
	}
	return n, s.Err()
}

// Total returns the total number of tokens counted
func (cs Counts) Total() int {
	var total int
	for _, c := range cs {
		total += c
	}
	return total
}

// Sorted returns the entries from most to least frequent, see SortPopularity
func (cs Counts) Sorted() []Entry {
	entries := make([]Entry, 0, len(cs))
	for w, c := range cs {
		entries = append(entries, Entry{Word: w, Count: c})
	}
	sort.Sort(SortPopularity(entries))
	return entries
}

// WriteCSV writes a word,count report, most frequent first
func (cs Counts) WriteCSV(w io.Writer) error {
	entries := cs.Sorted()
	return gocsv.Marshal(&entries, w)
}
