package pipeline

import (
	"math/rand"

	"github.com/montanaflynn/stats"
)

// reservoirSize bounds the lengths kept for percentiles. Below it percentiles are exact.
const reservoirSize = 1 << 16

// LengthSummary describes the distribution of sequence lengths
type LengthSummary struct {
	Mean float64
	P50  float64
	P95  float64
	Max  float64
}

// lengths tracks the exact mean and max of a stream, and a uniform sample of it
type lengths struct {
	n      int
	sum    float64
	max    float64
	sample []float64
	rng    *rand.Rand
}

func (l *lengths) observe(x float64) {
	l.n++
	l.sum += x
	if x > l.max {
		l.max = x
	}

	if len(l.sample) < reservoirSize {
		l.sample = append(l.sample, x)
		return
	}
	if l.rng == nil {
		l.rng = rand.New(rand.NewSource(1))
	}
	if i := l.rng.Intn(l.n); i < reservoirSize {
		l.sample[i] = x
	}
}

func (l *lengths) summary() (LengthSummary, error) {
	s := LengthSummary{
		Mean: l.sum / float64(l.n),
		Max:  l.max,
	}
	var err error
	if s.P50, err = stats.Median(l.sample); err != nil {
		return s, err
	}
	if s.P95, err = stats.Percentile(l.sample, 95); err != nil {
		return s, err
	}
	return s, nil
}

// LengthStats accumulates input and target sequence lengths in bounded memory.
// Mean and max are exact, percentiles come from a reservoir sample on long streams.
type LengthStats struct {
	inputs  lengths
	targets lengths
}

// Observe records the lengths of s
func (l *LengthStats) Observe(s Sample) {
	l.inputs.observe(float64(len(s.Inputs)))
	l.targets.observe(float64(len(s.Targets)))
}

// Count returns the number of samples observed
func (l *LengthStats) Count() int {
	return l.inputs.n
}

// Summary returns the input and target summaries, zero valued if nothing was observed
func (l *LengthStats) Summary() (LengthSummary, LengthSummary, error) {
	if l.Count() == 0 {
		return LengthSummary{}, LengthSummary{}, nil
	}
	in, err := l.inputs.summary()
	if err != nil {
		return LengthSummary{}, LengthSummary{}, err
	}
	out, err := l.targets.summary()
	if err != nil {
		return LengthSummary{}, LengthSummary{}, err
	}
	return in, out, nil
}
