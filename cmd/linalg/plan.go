package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/samcharles93/linalg/pkg/einsum"
	"github.com/samcharles93/linalg/pkg/tensor"
)

func planCmd() *cli.Command {
	return &cli.Command{
		Name:      "plan",
		Usage:     "Show the greedy contraction order for an expression",
		ArgsUsage: "EXPR",
		Flags:     commonFlags(operandFlags()...),
		Action: func(ctx context.Context, cmd *cli.Command) error {
			_, log, err := setup(cmd)
			if err != nil {
				return err
			}
			expr := cmd.Args().First()
			if expr == "" {
				return cli.Exit("error: expression argument is required", 1)
			}
			var dims [][]int
			if inputPath != "" {
				operands, err := loadOperands(expr)
				if err != nil {
					return cli.Exit(fmt.Sprintf("error: %v", err), 1)
				}
				for _, t := range operands {
					dims = append(dims, t.Shape)
				}
			} else {
				for _, s := range shapes {
					shape, err := tensor.ParseShape(s)
					if err != nil {
						return cli.Exit(fmt.Sprintf("error: %v", err), 1)
					}
					dims = append(dims, shape)
				}
			}

			plan, err := einsum.NewPlan(engineConfig(log), expr, dims...)
			if err != nil {
				return cli.Exit(fmt.Sprintf("error: %v", err), 1)
			}
			fmt.Println(plan)
			fmt.Printf("  output: %s\n  flops:  %.6g\n", tensor.FormatShape(plan.OutputShape()), plan.Flops())
			return nil
		},
	}
}
