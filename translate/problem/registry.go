package problem

import (
	"io"
	"sort"
	"sync"

	"github.com/kiteco/enzh-datagen/kite-golib/errors"
	yaml "gopkg.in/yaml.v2"
)

// ErrUnknownProblem is returned (wrapped) by Lookup for unregistered names
var ErrUnknownProblem = errors.New("unknown problem")

// Registry maps problem names to problems
type Registry struct {
	m        sync.RWMutex
	problems map[string]*Problem
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{problems: make(map[string]*Problem)}
}

// Register validates and adds p, names must be unique
func (r *Registry) Register(p *Problem) error {
	if err := p.Validate(); err != nil {
		return err
	}

	r.m.Lock()
	defer r.m.Unlock()
	if _, ok := r.problems[p.Name]; ok {
		return errors.Errorf("problem %s is already registered", p.Name)
	}
	r.problems[p.Name] = p
	return nil
}

// Lookup returns the problem registered under name
func (r *Registry) Lookup(name string) (*Problem, error) {
	r.m.RLock()
	defer r.m.RUnlock()
	p, ok := r.problems[name]
	if !ok {
		return nil, errors.Wrapf(ErrUnknownProblem, "%s", name)
	}
	return p, nil
}

// Names returns the registered names in sorted order
func (r *Registry) Names() []string {
	r.m.RLock()
	defer r.m.RUnlock()
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type configProblem struct {
	Problem `yaml:",inline"`

	// Extends names a registered problem whose fields are used where this one leaves them unset
	Extends string `yaml:"extends"`
}

type config struct {
	Problems []configProblem `yaml:"problems"`
}

// LoadConfig registers the problems listed in a yaml document of the form
//
//   problems:
//     - name: my_problem
//       extends: translate_enzh_wmt8k
//       approx_vocab_size: 4096
//
// and returns their names
func (r *Registry) LoadConfig(rd io.Reader) ([]string, error) {
	var c config
	if err := yaml.NewDecoder(rd).Decode(&c); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "error decoding problem config")
	}

	var names []string
	for _, cp := range c.Problems {
		p := cp.Problem
		if cp.Extends != "" {
			base, err := r.Lookup(cp.Extends)
			if err != nil {
				return names, errors.Wrapf(err, "%s extends", p.Name)
			}
			p = merge(*base, p)
		}
		if err := r.Register(&p); err != nil {
			return names, err
		}
		names = append(names, p.Name)
	}
	return names, nil
}

// merge returns base with every field set in override replacing it
func merge(base, override Problem) Problem {
	p := base
	p.Name = override.Name
	if override.ApproxVocabSize != 0 {
		p.ApproxVocabSize = override.ApproxVocabSize
	}
	if override.SourceVocabName != "" {
		p.SourceVocabName = override.SourceVocabName
	}
	if override.TargetVocabName != "" {
		p.TargetVocabName = override.TargetVocabName
	}
	if override.FilenamePrefix != "" {
		p.FilenamePrefix = override.FilenamePrefix
	}
	if override.Train != nil {
		p.Train = override.Train
	}
	if override.Optional != nil {
		p.Optional = override.Optional
	}
	if override.Dev != nil {
		p.Dev = override.Dev
	}
	if override.VocabByteBudget != 0 {
		p.VocabByteBudget = override.VocabByteBudget
	}
	if override.Encoder.UnknownToken != "" {
		p.Encoder.UnknownToken = override.Encoder.UnknownToken
	}
	if override.Encoder.Normalize {
		p.Encoder.Normalize = true
	}
	if override.Encoder.CacheSize != 0 {
		p.Encoder.CacheSize = override.Encoder.CacheSize
	}
	return p
}

// Default holds the builtin problems
var Default = NewRegistry()

// Register adds p to the default registry
func Register(p *Problem) error {
	return Default.Register(p)
}

// Lookup finds a problem in the default registry
func Lookup(name string) (*Problem, error) {
	return Default.Lookup(name)
}

// Names lists the default registry
func Names() []string {
	return Default.Names()
}

// LoadConfig registers the problems of a yaml config in the default registry
func LoadConfig(r io.Reader) ([]string, error) {
	return Default.LoadConfig(r)
}
