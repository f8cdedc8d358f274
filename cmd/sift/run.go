package main

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gitrdm/sift/pkg/rules"
)

var runWorkers int

var runCmd = &cobra.Command{
	Use:   "run <problem.yaml>...",
	Short: "Run problem files to fixed point and print the resulting facts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runProblems,
}

func init() {
	runCmd.Flags().IntVar(&runWorkers, "workers", 0,
		"matcher pool size per problem (0 = serial matching)")
}

// runProblems executes each problem file; independent files run
// concurrently, each against its own structure.
func runProblems(cmd *cobra.Command, args []string) error {
	reports := make([]string, len(args))

	g, ctx := errgroup.WithContext(cmd.Context())
	var mu sync.Mutex
	for i, path := range args {
		i, path := i, path
		g.Go(func() error {
			report, err := runProblem(ctx, path)
			if err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			mu.Lock()
			reports[i] = report
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, report := range reports {
		fmt.Fprint(os.Stdout, report)
	}
	return nil
}

// runProblem loads one file, runs its engine, and renders the final facts.
func runProblem(ctx context.Context, path string) (string, error) {
	p, err := rules.LoadProblem(path)
	if err != nil {
		return "", err
	}

	eng, err := rules.NewEngine(p.Structure, p.Vocab, p.Rules, logger.With(zap.String("problem", path)))
	if err != nil {
		return "", err
	}
	if p.Iterations > 0 {
		eng.MaxIterations = p.Iterations
	}
	eng.Workers = runWorkers
	if p.Workers > 0 {
		eng.Workers = p.Workers
	}

	iterations, err := eng.Run(ctx)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "== %s: %d iterations, %d facts\n", path, iterations, p.Structure.Len())
	lines := make([]string, 0, p.Structure.Len())
	for _, f := range p.Structure.Facts() {
		lines = append(lines, p.Vocab.FormatFact(f))
	}
	sort.Strings(lines)
	for _, line := range lines {
		fmt.Fprintf(&b, "  %s\n", line)
	}
	return b.String(), nil
}
