package main

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/linalg/internal/gemm"
	"github.com/samcharles93/linalg/internal/reference"
	"github.com/samcharles93/linalg/pkg/einsum"
	"github.com/samcharles93/linalg/pkg/tensor"
)

func benchCmd() *cli.Command {
	var (
		warmupRuns int64
		benchRuns  int64
		verify     bool
	)

	return &cli.Command{
		Name:      "bench",
		Usage:     "Time repeated evaluations of an einsum expression",
		ArgsUsage: "EXPR",
		Flags: commonFlags(append(operandFlags(),
			&cli.Int64Flag{
				Name:        "warmup",
				Usage:       "number of warmup runs",
				Value:       1,
				Destination: &warmupRuns,
			},
			&cli.Int64Flag{
				Name:        "runs",
				Usage:       "number of timed runs",
				Value:       5,
				Destination: &benchRuns,
			},
			&cli.BoolFlag{
				Name:        "verify",
				Usage:       "check the result against the unblocked evaluator",
				Destination: &verify,
			},
		)...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, log, err := setup(cmd)
			if err != nil {
				return err
			}
			expr := cmd.Args().First()
			if expr == "" {
				return cli.Exit("error: expression argument is required", 1)
			}
			if benchRuns < 1 {
				return cli.Exit("error: --runs must be at least 1", 1)
			}
			operands, err := loadOperands(expr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			cfg := engineConfig(log)
			plan, err := einsum.NewPlan(cfg, expr, shapesOf(operands)...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			result := tensor.New(plan.OutputShape()...)

			fmt.Println("=== linalg bench ===")
			fmt.Printf("Expression:  %s\n", expr)
			for i, t := range operands {
				fmt.Printf("Operand %d:   %s\n", i, tensor.FormatShape(t.Shape))
			}
			fmt.Printf("Kernel:      %s\n", gemm.KernelName())
			fmt.Printf("Parallelism: %d\n", cfg.Parallelism)
			fmt.Printf("CPUs:        %d\n", runtime.NumCPU())
			fmt.Printf("GOMAXPROCS:  %d\n", runtime.GOMAXPROCS(0))
			fmt.Printf("Flops:       %.6g per run\n", plan.Flops())
			fmt.Println()

			for i := range int(warmupRuns) {
				log.Info("warmup run", "run", i+1)
				if err := plan.InvokeInto(result, 1, 0, operands...); err != nil {
					return cli.Exit(fmt.Sprintf("error: warmup run %d: %v", i+1, err), 1)
				}
			}

			durations := make([]time.Duration, 0, benchRuns)
			for i := range int(benchRuns) {
				if err := ctx.Err(); err != nil {
					return err
				}
				log.Debug("benchmark run", "run", i+1)
				start := time.Now()
				if err := plan.InvokeInto(result, 1, 0, operands...); err != nil {
					return cli.Exit(fmt.Sprintf("error: benchmark run %d: %v", i+1, err), 1)
				}
				durations = append(durations, time.Since(start))
			}

			fmt.Println("=== Results ===")
			fmt.Printf("%-6s %12s %10s\n", "Run", "Duration", "GFLOP/s")
			var total time.Duration
			best := durations[0]
			for i, d := range durations {
				fmt.Printf("%-6d %12s %10.2f\n", i+1, d.Round(time.Microsecond), gflops(plan.Flops(), d))
				total += d
				best = min(best, d)
			}
			avg := total / time.Duration(len(durations))
			fmt.Printf("\n%-6s %12s %10.2f\n", "Avg", avg.Round(time.Microsecond), gflops(plan.Flops(), avg))
			fmt.Printf("%-6s %12s %10.2f\n", "Best", best.Round(time.Microsecond), gflops(plan.Flops(), best))

			if verify {
				want := reference.Einsum(expr, operands...)
				fmt.Printf("\nMax abs diff vs reference: %.3g (max|v| %.3g)\n",
					reference.MaxAbsDiff(want, result), reference.MaxAbs(want))
			}

			var mem runtime.MemStats
			runtime.ReadMemStats(&mem)
			fmt.Printf("\nMemory: %.1f MB alloc, %.1f MB sys\n",
				float64(mem.Alloc)/(1024*1024),
				float64(mem.Sys)/(1024*1024))
			return nil
		},
	}
}

// gflops counts one multiply and one add per planned multiply.
func gflops(flops float64, d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return 2 * flops / d.Seconds() / 1e9
}

func shapesOf(ts []*tensor.Tensor) [][]int {
	out := make([][]int, len(ts))
	for i, t := range ts {
		out[i] = t.Shape
	}
	return out
}
