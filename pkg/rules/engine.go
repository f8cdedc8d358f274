package rules

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gitrdm/sift/internal/parallel"
	"github.com/gitrdm/sift/pkg/triplet"
)

// Delta is the structure edit produced by one rule firing: facts to remove
// and facts to insert, already fully ground.
type Delta struct {
	Insert []triplet.Triplet
	Remove []triplet.Triplet
}

// Empty reports whether the delta carries no edits.
func (d Delta) Empty() bool {
	return len(d.Insert) == 0 && len(d.Remove) == 0
}

// Delta substitutes a binding into the rule's action templates. Remove
// templates must resolve fully from the binding (Validate guarantees their
// variables are matchable). Insert variables not bound by the match are
// minted as fresh nodes from the vocabulary, one per variable per firing.
func (r *Rule) Delta(b Binding, vocab *Vocab) (Delta, error) {
	var d Delta
	for _, p := range r.Remove {
		f, err := p.resolve(b, nil)
		if err != nil {
			return Delta{}, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		d.Remove = append(d.Remove, f)
	}

	minted := map[string]triplet.Node{}
	fresh := func(name string) triplet.Node {
		if n, ok := minted[name]; ok {
			return n
		}
		n := vocab.Fresh(name)
		minted[name] = n
		return n
	}
	for _, p := range r.Insert {
		f, err := p.resolve(b, fresh)
		if err != nil {
			return Delta{}, fmt.Errorf("rule %q: %w", r.Name, err)
		}
		d.Insert = append(d.Insert, f)
	}
	return d, nil
}

// Apply edits the structure: removes first, then inserts. Removes of absent
// facts and inserts of present facts are skipped, so overlapping firings
// stay idempotent even though the core store is strict. Returns the number
// of facts actually changed.
//
// Apply must only run once every solver over st has been consumed or
// discarded.
func (d Delta) Apply(st *triplet.Structure) int {
	changed := 0
	for _, f := range d.Remove {
		if st.IsTrue(f) {
			st.RemoveFact(f)
			changed++
		}
	}
	for _, f := range d.Insert {
		if !st.IsTrue(f) {
			st.AddFact(f)
			changed++
		}
	}
	return changed
}

// Firing pairs a rule with one of its match bindings.
type Firing struct {
	Rule    *Rule
	Binding Binding
}

// Engine iterates match-and-apply over a rule set until fixed point or until
// its iteration budget runs out. Matching within one iteration runs against
// an immutable structure snapshot — concurrently when a worker pool is
// configured — and all deltas are applied serially afterwards, preserving
// the single-owner mutation discipline.
type Engine struct {
	st    *triplet.Structure
	vocab *Vocab
	rules []*Rule
	log   *zap.Logger

	// MaxIterations bounds Run; rules that keep minting fresh nodes never
	// reach a fixed point on their own. Defaults to 100.
	MaxIterations int

	// Workers sets the matcher pool size; 0 matches serially.
	Workers int
}

// NewEngine creates an engine over a structure and rule set. A nil logger
// disables logging.
func NewEngine(st *triplet.Structure, vocab *Vocab, rs []*Rule, log *zap.Logger) (*Engine, error) {
	if log == nil {
		log = zap.NewNop()
	}
	for _, r := range rs {
		if err := r.Validate(); err != nil {
			return nil, err
		}
	}
	return &Engine{
		st:            st,
		vocab:         vocab,
		rules:         rs,
		log:           log,
		MaxIterations: 100,
	}, nil
}

// Structure returns the engine's workspace.
func (e *Engine) Structure() *triplet.Structure {
	return e.st
}

// MatchAll matches every rule against the current structure. With a pool
// configured the rules are matched concurrently; the structure is read-only
// for the whole phase. Firings are returned in rule order regardless of
// completion order.
func (e *Engine) MatchAll(ctx context.Context) ([]Firing, error) {
	perRule := make([][]Binding, len(e.rules))

	if e.Workers > 1 && len(e.rules) > 1 {
		pool := parallel.NewWorkerPool(e.Workers)
		defer pool.Shutdown()

		var wg sync.WaitGroup
		for i, r := range e.rules {
			i, r := i, r
			wg.Add(1)
			err := pool.Submit(ctx, func() {
				defer wg.Done()
				perRule[i] = Match(e.st, r)
			})
			if err != nil {
				wg.Done()
				wg.Wait()
				return nil, err
			}
		}
		wg.Wait()
	} else {
		for i, r := range e.rules {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			perRule[i] = Match(e.st, r)
		}
	}

	var out []Firing
	for i, r := range e.rules {
		for _, b := range perRule[i] {
			out = append(out, Firing{Rule: r, Binding: b})
		}
	}
	return out, nil
}

// Step runs one match-then-apply iteration and returns the number of facts
// changed.
func (e *Engine) Step(ctx context.Context) (int, error) {
	firings, err := e.MatchAll(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, f := range firings {
		delta, err := f.Rule.Delta(f.Binding, e.vocab)
		if err != nil {
			return changed, err
		}
		if delta.Empty() {
			continue
		}
		n := delta.Apply(e.st)
		if n > 0 {
			e.log.Debug("rule fired",
				zap.String("rule", f.Rule.Name),
				zap.Int("changed", n))
		}
		changed += n
	}
	return changed, nil
}

// Run iterates Step until a fixed point (an iteration that changes nothing)
// or until MaxIterations. It returns the number of iterations that changed
// the structure.
func (e *Engine) Run(ctx context.Context) (int, error) {
	budget := e.MaxIterations
	if budget <= 0 {
		budget = 100
	}
	for i := 0; i < budget; i++ {
		changed, err := e.Step(ctx)
		if err != nil {
			return i, err
		}
		e.log.Info("iteration complete",
			zap.Int("iteration", i+1),
			zap.Int("changed", changed),
			zap.Int("facts", e.st.Len()))
		if changed == 0 {
			return i, nil
		}
	}
	e.log.Warn("iteration budget exhausted", zap.Int("budget", budget))
	return budget, nil
}
