package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"hpchess/config"
	"hpchess/engine"
	"hpchess/game"
	"hpchess/oracle"
)

func main() {
	configPath := flag.String("config", "", "JSON config file")
	fen := flag.String("fen", oracle.StartFEN, "starting position")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	log, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	sess, err := game.NewSession(
		game.WithLogger(log),
		game.WithDifficulty(engine.Difficulty(cfg.Difficulty)),
		game.WithEngineColor(cfg.EngineSide()),
		game.WithRandomMoveChance(cfg.RandomMoveChance),
		game.WithRand(rand.New(rand.NewSource(time.Now().UnixNano()))),
		game.WithFEN(*fen),
	)
	if err != nil {
		log.Fatal("cannot start game", zap.Error(err))
	}
	consoleLoop(os.Stdin, os.Stdout, sess)
}

func consoleLoop(in io.Reader, out io.Writer, sess *game.Session) {
	scanner := bufio.NewScanner(in)
	for scanner.Scan() {
		line := scanner.Text()
		tokens := strings.Fields(line)
		if len(tokens) == 0 {
			continue
		}
		switch strings.ToLower(tokens[0]) {
		case "quit":
			return
		case "isready":
			fmt.Fprintln(out, "readyok")
		case "new":
			var err error
			if len(tokens) > 1 {
				err = sess.NewGameFromFEN(strings.Join(tokens[1:], " "))
			} else {
				err = sess.NewGame()
			}
			if err != nil {
				fmt.Fprintln(out, "info string Invalid position:", err)
				continue
			}
			printStatus(out, sess.Status())
		case "move":
			if len(tokens) < 2 {
				fmt.Fprintln(out, "info string Malformed move command")
				continue
			}
			req, err := oracle.ParseMove(tokens[1])
			if err != nil {
				fmt.Fprintln(out, "info string", err)
				continue
			}
			outcome, err := sess.SubmitMove(req.From, req.To, req.Promotion)
			if err != nil {
				fmt.Fprintln(out, "info string", err)
				continue
			}
			printOutcome(out, outcome, sess.Status())
		case "go":
			outcome, err := sess.EngineMove(context.Background())
			if err != nil {
				fmt.Fprintln(out, "info string", err)
				continue
			}
			fmt.Fprintln(out, "bestmove", outcome.Move)
			printOutcome(out, outcome, sess.Status())
		case "undo":
			if err := sess.Undo(); err != nil {
				fmt.Fprintln(out, "info string", err)
				continue
			}
			printStatus(out, sess.Status())
		case "difficulty":
			if len(tokens) < 2 {
				fmt.Fprintln(out, "info string difficulty", int(sess.Difficulty()))
				continue
			}
			d, err := engine.ParseDifficulty(strings.ToLower(tokens[1]))
			if err != nil {
				fmt.Fprintln(out, "info string", err)
				continue
			}
			if err := sess.SetDifficulty(d); err != nil {
				fmt.Fprintln(out, "info string", err)
				continue
			}
			fmt.Fprintln(out, "info string difficulty", sess.Difficulty())
		case "status":
			printStatus(out, sess.Status())
		case "hp":
			if len(tokens) < 2 {
				fmt.Fprintln(out, "info string Malformed hp command")
				continue
			}
			sq, err := oracle.ParseSquare(tokens[1])
			if err != nil {
				fmt.Fprintln(out, "info string", err)
				continue
			}
			fmt.Fprintf(out, "hp %s %d\n", sq, sess.HP(sq))
		case "fen":
			fmt.Fprintln(out, sess.Status().FEN)
		case "board":
			printBoard(out, sess.Status())
		default:
			fmt.Fprintln(out, "info string Unknown command:", line)
		}
	}
}

func printOutcome(out io.Writer, o game.Outcome, st game.Status) {
	if o.Pending != nil {
		fmt.Fprintf(out, "info string %s hits %s on %s, hp left %d\n", o.Move, o.Pending.Kind, o.Pending.Target, st.HPAt(o.Pending.Target))
	}
	printStatus(out, st)
}

func printStatus(out io.Writer, st game.Status) {
	fmt.Fprintln(out, "info string", st.Description)
}

// printBoard draws the position rank 8 first, with the hit points of every
// piece in a second grid.
func printBoard(out io.Writer, st game.Status) {
	placement := strings.Fields(st.FEN)[0]
	for i, row := range strings.Split(placement, "/") {
		rank := 8 - i
		var pieces, hp strings.Builder
		file := 0
		for _, ch := range row {
			if ch >= '1' && ch <= '8' {
				for n := 0; n < int(ch-'0'); n++ {
					pieces.WriteString(" .")
					hp.WriteString(" .")
					file++
				}
				continue
			}
			pieces.WriteString(" " + string(ch))
			hp.WriteString(" " + strconv.Itoa(st.HPAt(oracle.SquareAt(file, rank-1))))
			file++
		}
		fmt.Fprintf(out, "%d%s   %s\n", rank, pieces.String(), hp.String())
	}
	fmt.Fprintln(out, "  a b c d e f g h    a b c d e f g h")
}
