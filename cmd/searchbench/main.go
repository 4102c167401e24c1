package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"runtime"
	"runtime/pprof"
	"time"

	"hpchess/engine"
	"hpchess/oracle"
)

func main() {
	depthFlag := flag.Int("depth", engine.Hard.Depth(), "search depth in plies")
	repeatFlag := flag.Int("repeat", 1, "number of searches to run")
	fenFlag := flag.String("fen", oracle.StartFEN, "FEN to search")
	seedFlag := flag.Int64("seed", 1, "random source seed")
	randomFlag := flag.Float64("random", 0, "random move chance for depth 1")
	cpuProfile := flag.String("cpuprofile", "", "write CPU profile to file")
	memProfile := flag.String("memprofile", "", "write memory profile (heap) to file")
	flag.Parse()

	if *depthFlag <= 0 {
		log.Fatalf("depth must be positive, got %d", *depthFlag)
	}

	if *cpuProfile != "" {
		cpuFile, err := os.Create(*cpuProfile)
		if err != nil {
			log.Fatalf("could not create CPU profile: %v", err)
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			log.Fatalf("could not start CPU profile: %v", err)
		}
		defer func() {
			pprof.StopCPUProfile()
			cpuFile.Close()
		}()
	}

	board, err := oracle.FromFEN(*fenFlag)
	if err != nil {
		log.Fatalf("bad fen: %v", err)
	}
	searcher := engine.NewSearcher(rand.New(rand.NewSource(*seedFlag)))
	searcher.RandomMoveChance = *randomFlag

	fmt.Printf("searchbench: fen=%q depth=%d repeat=%d\n", *fenFlag, *depthFlag, *repeatFlag)

	var totalNodes int
	startAll := time.Now()
	for i := 0; i < *repeatFlag; i++ {
		iterStart := time.Now()
		best, ok := searcher.FindBestMove(board, *depthFlag)
		iterElapsed := time.Since(iterStart)
		totalNodes += searcher.Nodes
		if !ok {
			fmt.Printf("iteration %d: no legal move\n", i+1)
			continue
		}
		fmt.Printf("iteration %d: bestmove %s nodes=%d time=%v\n", i+1, best, searcher.Nodes, iterElapsed)
	}
	totalElapsed := time.Since(startAll)
	fmt.Printf("total time: %v nodes: %d nps: %.0f\n", totalElapsed, totalNodes, float64(totalNodes)/totalElapsed.Seconds())

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			log.Fatalf("could not create memory profile: %v", err)
		}
		defer f.Close()

		runtime.GC()
		if err := pprof.WriteHeapProfile(f); err != nil {
			log.Fatalf("could not write memory profile: %v", err)
		}
	}
}
