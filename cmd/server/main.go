package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"hpchess/config"
	"hpchess/engine"
	"hpchess/server"
	"hpchess/service"
)

func main() {
	configPath := flag.String("config", "", "JSON config file")
	addr := flag.String("addr", "", "listen address (overrides config)")
	dev := flag.Bool("dev", false, "development logging")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *dev {
		cfg.Development = true
	}

	log, err := cfg.NewLogger()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	defer log.Sync()

	games := service.NewManager(service.Defaults{
		Difficulty:       engine.Difficulty(cfg.Difficulty),
		EngineColor:      cfg.EngineSide(),
		RandomMoveChance: cfg.RandomMoveChance,
	}, log)
	srv := server.New(games, cfg, log)

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Info("shutting down")
		if err := srv.Shutdown(); err != nil {
			log.Error("shutdown", zap.Error(err))
		}
	}()

	if err := srv.Listen(); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}
