package main

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/linalg/internal/gemm"
	"github.com/samcharles93/linalg/internal/safetensors"
	"github.com/samcharles93/linalg/pkg/einsum"
	"github.com/samcharles93/linalg/pkg/tensor"
)

func contractCmd() *cli.Command {
	var (
		outputPath string
		printAll   bool
	)

	return &cli.Command{
		Name:      "contract",
		Usage:     "Evaluate an einsum expression",
		ArgsUsage: "EXPR",
		Flags: commonFlags(append(operandFlags(),
			&cli.StringFlag{
				Name:        "output",
				Aliases:     []string{"o"},
				Usage:       "write the result to a .safetensors file",
				Destination: &outputPath,
			},
			&cli.BoolFlag{
				Name:        "print",
				Usage:       "print every element of the result",
				Destination: &printAll,
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
			operands, err := loadOperands(expr)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}

			engine := einsum.New(engineConfig(log))
			start := time.Now()
			result, err := engine.ContractContext(ctx, expr, operands...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			elapsed := time.Since(start)
			log.Info("contraction finished", "expression", expr, "duration", elapsed, "kernel", gemm.KernelName())

			fmt.Printf("%s\n%s\nduration=%s\n", expr, summary(result), elapsed.Round(time.Microsecond))
			if printAll {
				printTensor(result)
			}
			if outputPath != "" {
				meta := map[string]string{"expression": expr}
				if err := safetensors.Write(outputPath, map[string]*tensor.Tensor{"result": result}, meta); err != nil {
					return cli.Exit(fmt.Sprintf("error: write %s: %v", outputPath, err), 1)
				}
				log.Info("result written", "path", outputPath)
			}
			return nil
		},
	}
}

func printTensor(t *tensor.Tensor) {
	if t.Rank() == 0 {
		fmt.Printf("%.12g\n", t.At())
		return
	}
	idx := make([]int, t.Rank())
	for i, v := range t.Values() {
		rem := i
		for ax := t.Rank() - 1; ax >= 0; ax-- {
			idx[ax] = rem % t.Shape[ax]
			rem /= t.Shape[ax]
		}
		fmt.Printf("%v\t%.12g\n", idx, v)
	}
}
