// Command pinkyc compiles Pinky source into WebAssembly modules.
//
// Grounded on the teacher's cmd/vox/main.go command set
// (init/build/run), rebuilt on github.com/spf13/cobra per
// SPEC_FULL.md's ambient-stack decision rather than the teacher's
// hand-rolled os.Args switch.
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
