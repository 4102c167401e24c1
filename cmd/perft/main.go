// Command perft counts leaf nodes of the legal move tree, for checking the
// rules oracle against published perft tables.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"hpchess/oracle"
)

func main() {
	fen := flag.String("fen", oracle.StartFEN, "position to count from")
	depth := flag.Int("depth", 4, "deepest ply to count")
	divide := flag.Bool("divide", false, "split the deepest count by root move")
	flag.Parse()

	board, err := oracle.FromFEN(*fen)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := run(os.Stdout, board, *depth, *divide); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
}

// run prints one line per depth up to depth, then the divide table when asked.
func run(w io.Writer, board *oracle.Board, depth int, divide bool) error {
	if depth <= 0 {
		return fmt.Errorf("depth must be positive, got %d", depth)
	}
	for d := 1; d <= depth; d++ {
		start := time.Now()
		nodes := oracle.Perft(board, d)
		fmt.Fprintf(w, "depth %d nodes %d time %v\n", d, nodes, time.Since(start).Round(time.Microsecond))
	}
	if !divide {
		return nil
	}

	div := oracle.PerftDivide(board, depth)
	moves := maps.Keys(div)
	slices.Sort(moves)
	var sum uint64
	for _, m := range moves {
		fmt.Fprintf(w, "%s %d\n", m, div[m])
		sum += div[m]
	}
	fmt.Fprintf(w, "moves %d nodes %d\n", len(moves), sum)
	return nil
}
