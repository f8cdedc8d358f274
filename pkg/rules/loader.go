package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/gitrdm/sift/pkg/triplet"
)

// Problem is a loaded workspace: a seeded structure, the vocabulary that
// names its nodes, the rule set, and run limits.
type Problem struct {
	Vocab      *Vocab
	Structure  *triplet.Structure
	Rules      []*Rule
	Iterations int
	Workers    int
}

// problemFile is the YAML shape. Facts and patterns are 3-element lists of
// names; a leading '?' marks a pattern variable.
type problemFile struct {
	Facts [][]string `yaml:"facts"`
	Rules []ruleFile `yaml:"rules"`
	Limit struct {
		Iterations int `yaml:"iterations"`
		Workers    int `yaml:"workers"`
	} `yaml:"limits"`
}

type ruleFile struct {
	Name   string       `yaml:"name"`
	Must   [][]string   `yaml:"must"`
	NoMap  [][][]string `yaml:"nomap"`
	Try    [][]string   `yaml:"try"`
	Insert [][]string   `yaml:"insert"`
	Remove [][]string   `yaml:"remove"`
	Equal  [][]string   `yaml:"equal"`
}

// LoadProblem reads and parses a problem file.
func LoadProblem(path string) (*Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("rules: reading problem: %w", err)
	}
	p, err := ParseProblem(data)
	if err != nil {
		return nil, fmt.Errorf("rules: %s: %w", path, err)
	}
	return p, nil
}

// ParseProblem parses a YAML problem document and seeds a fresh structure.
func ParseProblem(data []byte) (*Problem, error) {
	var file problemFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parsing problem: %w", err)
	}

	p := &Problem{
		Vocab:      NewVocab(),
		Structure:  triplet.New(),
		Iterations: file.Limit.Iterations,
		Workers:    file.Limit.Workers,
	}

	for i, row := range file.Facts {
		f, err := parseFact(p.Vocab, row)
		if err != nil {
			return nil, fmt.Errorf("fact %d: %w", i+1, err)
		}
		if p.Structure.IsTrue(f) {
			return nil, fmt.Errorf("fact %d: duplicate %s", i+1, p.Vocab.FormatFact(f))
		}
		p.Structure.AddFact(f)
	}

	for i, rf := range file.Rules {
		r, err := parseRule(p.Vocab, rf)
		if err != nil {
			return nil, fmt.Errorf("rule %d (%q): %w", i+1, rf.Name, err)
		}
		p.Rules = append(p.Rules, r)
	}

	return p, nil
}

// parseFact resolves a 3-name row into a ground fact.
func parseFact(vocab *Vocab, row []string) (triplet.Triplet, error) {
	if len(row) != 3 {
		return triplet.Triplet{}, fmt.Errorf("want 3 positions, got %d", len(row))
	}
	var out [3]triplet.Node
	for i, name := range row {
		if strings.HasPrefix(name, "?") {
			return triplet.Triplet{}, fmt.Errorf("variable %q in a ground fact", name)
		}
		if name == "" {
			return triplet.Triplet{}, fmt.Errorf("empty name at position %d", i)
		}
		out[i] = vocab.Node(name)
	}
	return triplet.T(out[0], out[1], out[2]), nil
}

// parseRule converts the YAML rule shape. Ground pattern names are interned
// through the shared vocabulary so they line up with the seeded facts.
func parseRule(vocab *Vocab, rf ruleFile) (*Rule, error) {
	if rf.Name == "" {
		return nil, fmt.Errorf("rule needs a name")
	}
	r := &Rule{Name: rf.Name}

	var err error
	if r.Must, err = parsePatterns(vocab, rf.Must); err != nil {
		return nil, fmt.Errorf("must: %w", err)
	}
	for k, group := range rf.NoMap {
		pats, err := parsePatterns(vocab, group)
		if err != nil {
			return nil, fmt.Errorf("nomap group %d: %w", k+1, err)
		}
		r.NoMap = append(r.NoMap, pats)
	}
	if r.Try, err = parsePatterns(vocab, rf.Try); err != nil {
		return nil, fmt.Errorf("try: %w", err)
	}
	if r.Insert, err = parsePatterns(vocab, rf.Insert); err != nil {
		return nil, fmt.Errorf("insert: %w", err)
	}
	if r.Remove, err = parsePatterns(vocab, rf.Remove); err != nil {
		return nil, fmt.Errorf("remove: %w", err)
	}

	for _, pair := range rf.Equal {
		if len(pair) != 2 {
			return nil, fmt.Errorf("equal entry wants 2 variables, got %d", len(pair))
		}
		x, y := strings.TrimPrefix(pair[0], "?"), strings.TrimPrefix(pair[1], "?")
		r.Equal = append(r.Equal, [2]string{x, y})
	}

	return r, r.Validate()
}

// parsePatterns converts rows of names into patterns. Variable atoms keep
// their name without the '?' prefix.
func parsePatterns(vocab *Vocab, rows [][]string) ([]Pattern, error) {
	var out []Pattern
	for i, row := range rows {
		if len(row) != 3 {
			return nil, fmt.Errorf("pattern %d: want 3 positions, got %d", i+1, len(row))
		}
		var atoms [3]Atom
		for j, name := range row {
			if name == "" {
				return nil, fmt.Errorf("pattern %d: empty name at position %d", i+1, j)
			}
			if strings.HasPrefix(name, "?") {
				atoms[j] = V(strings.TrimPrefix(name, "?"))
			} else {
				atoms[j] = N(vocab.Node(name))
			}
		}
		out = append(out, P(atoms[0], atoms[1], atoms[2]))
	}
	return out, nil
}
