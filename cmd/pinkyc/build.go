package main

import (
	"os"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "build <source.pinky>",
		Short: "Compile a Pinky source file to a .wasm module",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			src := args[0]
			wasmBytes, _, err := compileFile(src)
			if err != nil {
				return err
			}

			dest := out
			if dest == "" {
				dest = strings.TrimSuffix(src, ".pinky") + ".wasm"
			}
			if err := os.WriteFile(dest, wasmBytes, 0o644); err != nil {
				return errors.Wrapf(err, "write %s", dest)
			}
			log.Infof("wrote %s (%d bytes)", dest, len(wasmBytes))
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "", "output .wasm path (default: <source>.wasm)")
	return cmd
}
