// Command simplexdemo builds a small LP in memory and solves it with the
// revised simplex engine, printing the chosen algorithm, status, and
// solution. It takes no file input (MPS/LP-format readers are out of
// scope); the problem is the textbook
//
//	maximize  3x + 2y
//	subject to x + y  <= 4
//	           x + 3y <= 6
//	           x, y   >= 0
//
// expressed in the engine's minimize-form convention (costs negated).
package main

import (
	"context"
	"fmt"
	"os"

	"simplexcore/ekk"
	"simplexcore/iface"
	"simplexcore/lp"
)

func buildModel() (*lp.LP, error) {
	const numRow, numCol = 2, 2
	m := lp.New(numRow, numCol)
	m.Sense = lp.Minimize
	m.ColCost = []float64{-3, -2}
	m.ColLower = []float64{0, 0}
	m.ColUpper = []float64{lp.Infinity, lp.Infinity}
	m.RowLower = []float64{-lp.Infinity, -lp.Infinity}
	m.RowUpper = []float64{4, 6}
	m.ColNames = []string{"x", "y"}
	m.RowNames = []string{"c1", "c2"}

	// A = [[1,1],[1,3]], column-major CSC.
	m.Matrix.Start = []int{0, 2, 4}
	m.Matrix.Index = []int{0, 1, 0, 1}
	m.Matrix.Value = []float64{1, 1, 1, 3}

	if err := m.Matrix.Assess(); err != nil {
		return nil, err
	}
	if err := m.DimensionsOk(); err != nil {
		return nil, err
	}
	return m, nil
}

func main() {
	model, err := buildModel()
	if err != nil {
		fmt.Fprintln(os.Stderr, "build model:", err)
		os.Exit(1)
	}

	opts := ekk.DefaultOptions()
	engine := ekk.New(opts, nil)
	if err := engine.PassLP(model); err != nil {
		fmt.Fprintln(os.Stderr, "pass lp:", err)
		os.Exit(1)
	}
	engine.SetLogicalBasis()

	ifc := iface.New(engine)
	if err := ifc.HandleInfCost(); err != nil {
		fmt.Fprintln(os.Stderr, "handle inf cost:", err)
		os.Exit(1)
	}

	if err := engine.Solve(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "solve:", err)
		os.Exit(1)
	}

	if err := ifc.RestoreInfCost(); err != nil {
		fmt.Fprintln(os.Stderr, "restore inf cost:", err)
		os.Exit(1)
	}

	info := engine.GetSolutionParams()
	sol := engine.GetSolution()
	fmt.Printf("status: %s\n", info.ModelStatus)
	fmt.Printf("objective: %.6f\n", info.ObjectiveValue)
	for j, name := range model.ColNames {
		fmt.Printf("%s = %.6f\n", name, sol.ColValue[j])
	}
}
