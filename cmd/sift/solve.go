package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/gitrdm/sift/pkg/rules"
)

var solveWhere []string

var solveCmd = &cobra.Command{
	Use:   "solve <problem.yaml>",
	Short: "Enumerate the bindings of an ad-hoc pattern over a problem's facts",
	Long: `solve loads a problem file for its facts only and enumerates every
binding of the patterns given with --where. A pattern is three comma-separated
names; a leading '?' marks a variable, and variables are pairwise distinct.`,
	Args: cobra.ExactArgs(1),
	RunE: solveQuery,
}

func init() {
	solveCmd.Flags().StringArrayVar(&solveWhere, "where", nil,
		"pattern \"a,b,c\" (repeatable)")
	_ = solveCmd.MarkFlagRequired("where")
}

func solveQuery(cmd *cobra.Command, args []string) error {
	p, err := rules.LoadProblem(args[0])
	if err != nil {
		return err
	}

	var pats []rules.Pattern
	for _, raw := range solveWhere {
		pat, err := parsePatternArg(p.Vocab, raw)
		if err != nil {
			return fmt.Errorf("--where %q: %w", raw, err)
		}
		pats = append(pats, pat)
	}

	query := &rules.Rule{Name: "solve", Must: pats}
	bindings := rules.Match(p.Structure, query)
	if len(bindings) == 0 {
		fmt.Fprintln(os.Stdout, "no bindings")
		return nil
	}
	for _, b := range bindings {
		var parts []string
		for _, name := range b.Vars() {
			parts = append(parts, fmt.Sprintf("%s=%s", name, p.Vocab.Name(b[name])))
		}
		fmt.Fprintln(os.Stdout, strings.Join(parts, " "))
	}
	return nil
}

// parsePatternArg converts "a,b,c" into a pattern against the problem's
// vocabulary.
func parsePatternArg(vocab *rules.Vocab, raw string) (rules.Pattern, error) {
	parts := strings.Split(raw, ",")
	if len(parts) != 3 {
		return rules.Pattern{}, fmt.Errorf("want 3 comma-separated positions, got %d", len(parts))
	}
	var atoms [3]rules.Atom
	for i, part := range parts {
		name := strings.TrimSpace(part)
		if name == "" {
			return rules.Pattern{}, fmt.Errorf("empty position %d", i+1)
		}
		if strings.HasPrefix(name, "?") {
			atoms[i] = rules.V(strings.TrimPrefix(name, "?"))
		} else {
			atoms[i] = rules.N(vocab.Node(name))
		}
	}
	return rules.P(atoms[0], atoms[1], atoms[2]), nil
}
