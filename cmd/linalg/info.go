package main

import (
	"context"
	"fmt"
	"runtime"

	"github.com/urfave/cli/v3"
	"golang.org/x/sys/cpu"

	"github.com/samcharles93/linalg/internal/gemm"
	"github.com/samcharles93/linalg/internal/parallel"
)

func infoCmd() *cli.Command {
	return &cli.Command{
		Name:  "info",
		Usage: "Print CPU features and engine settings",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			fmt.Printf("arch:             %s/%s\n", runtime.GOOS, runtime.GOARCH)
			fmt.Printf("kernel:           %s\n", gemm.KernelName())
			fmt.Printf("hardware threads: %d\n", parallel.HardwareThreads())
			fmt.Printf("default degree:   %d\n", parallel.DefaultDegree())
			for _, f := range cpuFeatures() {
				fmt.Printf("%-17s %v\n", f.name+":", f.on)
			}
			return nil
		},
	}
}

type feature struct {
	name string
	on   bool
}

func cpuFeatures() []feature {
	switch runtime.GOARCH {
	case "amd64", "386":
		return []feature{
			{"avx", cpu.X86.HasAVX},
			{"avx2", cpu.X86.HasAVX2},
			{"fma", cpu.X86.HasFMA},
			{"avx512f", cpu.X86.HasAVX512F},
		}
	case "arm64":
		return []feature{
			{"asimd", cpu.ARM64.HasASIMD},
			{"fphp", cpu.ARM64.HasFPHP},
			{"sve", cpu.ARM64.HasSVE},
		}
	default:
		return nil
	}
}
