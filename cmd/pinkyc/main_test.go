package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, contents string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	return path
}

func TestBuildWritesWasmFile(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "hello.pinky", `println "hi"`)

	cmd := newBuildCmd()
	cmd.SetArgs([]string{src})
	require.NoError(t, cmd.Execute())

	out := filepath.Join(dir, "hello.wasm")
	bytes, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}, bytes[:8])
}

func TestBuildRespectsOutFlag(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "hello.pinky", `println "hi"`)
	dest := filepath.Join(dir, "custom.wasm")

	cmd := newBuildCmd()
	cmd.SetArgs([]string{src, "--out", dest})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(dest)
	require.NoError(t, err)
}

func TestBuildFailsOnParseError(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "bad.pinky", `if then end`)

	cmd := newBuildCmd()
	cmd.SetArgs([]string{src})
	require.Error(t, cmd.Execute())
}

func TestBuildFailsOnCompileError(t *testing.T) {
	dir := t.TempDir()
	src := writeTemp(t, dir, "bad.pinky", `print x`)

	cmd := newBuildCmd()
	cmd.SetArgs([]string{src})
	require.Error(t, cmd.Execute())
}

func TestInitScaffoldsMainPinky(t *testing.T) {
	dir := t.TempDir()

	cmd := newInitCmd()
	cmd.SetArgs([]string{dir})
	require.NoError(t, cmd.Execute())

	_, err := os.Stat(filepath.Join(dir, "main.pinky"))
	require.NoError(t, err)
}

func TestInitRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "main.pinky", "println 1")

	cmd := newInitCmd()
	cmd.SetArgs([]string{dir})
	require.Error(t, cmd.Execute())
}

func TestRootHasBuildRunInitSubcommands(t *testing.T) {
	root := newRootCmd()
	names := map[string]bool{}
	for _, c := range root.Commands() {
		names[c.Name()] = true
	}
	require.True(t, names["build"])
	require.True(t, names["run"])
	require.True(t, names["init"])
}
