package hostrun

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pinky/internal/codegen"
	"pinky/internal/parser"
	"pinky/internal/source"
)

func runSource(t *testing.T, src string) string {
	t.Helper()
	file := source.NewFile("test.pinky", src)
	prog, diags := parser.Parse(file)
	require.True(t, diags.Empty())
	wasmBytes, _, cerr := codegen.Compile(file, prog)
	require.Nil(t, cerr)
	out, err := Run(context.Background(), wasmBytes)
	require.NoError(t, err)
	return strings.Join(out, "")
}

// spec.md §8 "Concrete scenarios" table.
func TestConcreteScenarios(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"println string literal", `println "hello"`, "hello\n"},
		{"variable plus number", "x := 5\nprintln x + 10", "15\n"},
		{"string plus number concatenates", `println "a" + 1`, "a1\n"},
		{"if true branch", `if 1 < 2 then println "y" else println "n" end`, "y\n"},
		{"while loop", "i := 1\nwhile i <= 3 do\n  print i\n  i := i + 1\nend", "123"},
		{"function call", "func sq(x) ret x * x end\nprintln sq(4)", "16\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			require.Equal(t, c.want, runSource(t, c.src))
		})
	}
}

func TestAndOrShortCircuitEvaluatesRightOnlyWhenNeeded(t *testing.T) {
	// side-effecting right operand via a function call with a println;
	// only x's value should print, since `false and <right>` never
	// evaluates the right operand, so "evaluated" never appears.
	src := "func sideEffect() println \"evaluated\" ret true end\n" +
		"x := false and sideEffect()\n" +
		"println x"
	require.Equal(t, "false\n", runSource(t, src))
}

func TestForLoopDescendingStep(t *testing.T) {
	require.Equal(t, "321", runSource(t, "for i := 3, 1, -1 do print i end"))
}

func TestForLoopZeroIterationsWhenDescendingWithoutExplicitStep(t *testing.T) {
	require.Equal(t, "", runSource(t, "for i := 3, 1 do print i end"))
}

func TestModFlooredSemantics(t *testing.T) {
	require.Equal(t, "2", runSource(t, "println -1 % 3"))
}

// spec.md §4.E/§8: while and for both abort with `unreachable` once a
// loop runs MaxIterations times without exiting on its own.
func TestWhileLoopTrapsAfterMaxIterations(t *testing.T) {
	file := source.NewFile("test.pinky", "while true do end")
	prog, diags := parser.Parse(file)
	require.True(t, diags.Empty())
	wasmBytes, _, cerr := codegen.Compile(file, prog)
	require.Nil(t, cerr)

	_, err := Run(context.Background(), wasmBytes)
	require.Error(t, err)
}

func TestForLoopTrapsAfterMaxIterations(t *testing.T) {
	file := source.NewFile("test.pinky", "for i := 1, 999999999 do end")
	prog, diags := parser.Parse(file)
	require.True(t, diags.Empty())
	wasmBytes, _, cerr := codegen.Compile(file, prog)
	require.Nil(t, cerr)

	_, err := Run(context.Background(), wasmBytes)
	require.Error(t, err)
}

func TestFunctionFallthroughPrintsNil(t *testing.T) {
	require.Equal(t, "nil\n", runSource(t, "func f() end\nprintln f()"))
}

func TestUnaryTildeIsLogicalNotOnTruthiness(t *testing.T) {
	require.Equal(t, "true\n", runSource(t, `println ~nil`))
	require.Equal(t, "false\n", runSource(t, `println ~"anything"`))
}

func TestConcatStringifiesNonStringOperands(t *testing.T) {
	require.Equal(t, "count: 3\n", runSource(t, `println "count: " + 3`))
	require.Equal(t, "3 items\n", runSource(t, `println 3 + " items"`))
	require.Equal(t, "ok: true\n", runSource(t, `println "ok: " + true`))
	require.Equal(t, "value: nil\n", runSource(t, `println "value: " + nil`))
}

func TestIsStringBuiltinReturnsBooleanNotDoubleBoxed(t *testing.T) {
	require.Equal(t, "true\n", runSource(t, `println is_string("hi")`))
	require.Equal(t, "false\n", runSource(t, `println is_string(5)`))
}
