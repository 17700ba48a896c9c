package main

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const scaffoldSource = `println "hello from pinky"

x := 1
while x <= 3 do
  println x
  x := x + 1
end
`

func newInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Scaffold a starter main.pinky in dir (default: current directory)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return errors.Wrapf(err, "create %s", dir)
			}
			path := filepath.Join(dir, "main.pinky")
			if _, err := os.Stat(path); err == nil {
				return errors.Errorf("%s already exists", path)
			}
			if err := os.WriteFile(path, []byte(scaffoldSource), 0o644); err != nil {
				return errors.Wrapf(err, "write %s", path)
			}
			log.Infof("wrote %s", path)
			return nil
		},
	}
	return cmd
}
