package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"pinky/internal/hostrun"
)

func newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <source.pinky>",
		Short: "Compile and run a Pinky source file under the reference host shim",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			wasmBytes, _, err := compileFile(args[0])
			if err != nil {
				return err
			}

			log.Debug("instantiating module under wazero")
			output, err := hostrun.Run(context.Background(), wasmBytes)
			if err != nil {
				return err
			}
			for _, s := range output {
				fmt.Print(s)
			}
			return nil
		},
	}
	return cmd
}
