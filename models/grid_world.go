package models

import (
	"fmt"
	"io"
	"strings"

	"github.com/logrusorgru/aurora"
)

// Location is a (row, column) cell of the toroidal grid.
type Location struct {
	Row int `yaml:"row"`
	Col int `yaml:"col"`
}

func (loc Location) String() string {
	return fmt.Sprintf("(%d,%d)", loc.Row, loc.Col)
}

// Environment is the toroidal grid the agents move on. The grid is a display view of who
// occupies which cell; the agents' own locations are authoritative, and the game keeps the
// two consistent by pairing each Remove with a Place.
type Environment struct {
	rows, cols int
	grid       [][]*Agent
}

// NewEnvironment returns an empty grid of the given size.
func NewEnvironment(rows, cols int) (*Environment, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("grid size %dx%d: %w", rows, cols, ErrConfiguration)
	}

	grid := make([][]*Agent, rows)
	for row := range grid {
		grid[row] = make([]*Agent, cols)
	}
	return &Environment{
		rows: rows,
		cols: cols,
		grid: grid,
	}, nil
}

// Size returns the grid dimensions.
func (env *Environment) Size() (rows, cols int) {
	return env.rows, env.cols
}

// Contains reports whether @loc lies within the grid without wrapping.
func (env *Environment) Contains(loc Location) bool {
	return loc.Row >= 0 && loc.Row < env.rows && loc.Col >= 0 && loc.Col < env.cols
}

// Place puts @ag in the cell at @loc, overwriting whatever was there.
func (env *Environment) Place(ag *Agent, loc Location) {
	loc = env.ToToroidal(loc, Displacement{})
	env.grid[loc.Row][loc.Col] = ag
}

// Remove empties the cell at @loc.
func (env *Environment) Remove(loc Location) {
	loc = env.ToToroidal(loc, Displacement{})
	env.grid[loc.Row][loc.Col] = nil
}

// Occupant returns the agent recorded at @loc, or nil for an empty cell.
func (env *Environment) Occupant(loc Location) *Agent {
	loc = env.ToToroidal(loc, Displacement{})
	return env.grid[loc.Row][loc.Col]
}

// ToToroidal applies @d to @loc, wrapping both axes so the result is always on the grid.
func (env *Environment) ToToroidal(loc Location, d Displacement) Location {
	return Location{
		Row: mod(loc.Row+d.DRow, env.rows),
		Col: mod(loc.Col+d.DCol, env.cols),
	}
}

// mod is modulo with a non-negative result, unlike Go's remainder operator.
func mod(a, n int) int {
	return ((a % n) + n) % n
}

// ValueGrid holds a state value per grid cell, indexed [row][col].
type ValueGrid [][]float64

// NewValueGrid returns an all-zero value grid.
func NewValueGrid(rows, cols int) ValueGrid {
	values := make(ValueGrid, rows)
	for row := range values {
		values[row] = make([]float64, cols)
	}
	return values
}

// At returns the value stored for @loc.
func (vg ValueGrid) At(loc Location) float64 {
	return vg[loc.Row][loc.Col]
}

// Show the environment, one bracketed row per line, for visual reference.
// The predator is printed in red and the prey in green when @colors is set.
func ShowGrid(w io.Writer, env *Environment, colors bool) {
	au := aurora.NewAurora(colors)
	fmt.Fprintln(w, "==========")
	for _, row := range env.grid {
		cells := make([]string, len(row))
		for col, ag := range row {
			switch {
			case ag == nil:
				cells[col] = Empty.Symbol()
			case ag.Kind() == PredatorKind:
				cells[col] = au.Red(ag.String()).String()
			default:
				cells[col] = au.Green(ag.String()).String()
			}
		}
		fmt.Fprintf(w, "[%s]\n", strings.Join(cells, "|"))
	}
	fmt.Fprintln(w, "==========")
}

// Prints the value of every cell. Non-zero values are highlighted when @colors is set.
func ShowValues(w io.Writer, values ValueGrid, colors bool) {
	au := aurora.NewAurora(colors)
	fmt.Fprintln(w, "Values:")
	for _, row := range values {
		for _, val := range row {
			cell := fmt.Sprintf("%6.2f ", val)
			if val != 0 {
				fmt.Fprint(w, au.Blue(cell))
			} else {
				fmt.Fprint(w, cell)
			}
		}
		fmt.Fprintln(w)
	}
}
