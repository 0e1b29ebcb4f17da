package reinforcement

import (
	"fmt"
	"io"

	"pursuit/models"
)

// Verbosity levels for ConsoleRenderer.
const (
	SILENT     = 0
	ON_CAPTURE = 1
	EVERY_TURN = 2
)

// ConsoleRenderer returns a TurnFunc printing the grid to @w. At EVERY_TURN the grid and
// both agents' states are printed after each turn; at ON_CAPTURE only the final grid and
// the capture line. SILENT returns nil, which games treat as no hook.
func ConsoleRenderer(w io.Writer, verbosity int, colors bool) TurnFunc {
	if verbosity <= SILENT {
		return nil
	}

	return func(g *Game) {
		caught := g.State() == Caught
		if verbosity >= EVERY_TURN || caught {
			models.ShowGrid(w, g.Environment(), colors)
		}
		if verbosity >= EVERY_TURN {
			fmt.Fprintln(w, "States:")
			fmt.Fprintln(w, g.Predator().State())
			fmt.Fprintln(w, g.Prey().State())
		}
		if caught {
			fmt.Fprintf(w, "Caught prey in %d rounds!\n==========\n", g.Steps())
		}
	}
}
