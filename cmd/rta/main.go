package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"richtext/internal/app"
	"richtext/internal/config"
)

func main() {
	configPath := flag.String("config", "rta.toml", "path to the TOML configuration file")
	dumpConfig := flag.Bool("dump-config", false, "print the effective configuration and exit")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "rta: %v\n", err)
		os.Exit(2)
	}
	if *dumpConfig {
		out, err := cfg.Encode()
		if err != nil {
			fmt.Fprintf(os.Stderr, "rta: %v\n", err)
			os.Exit(1)
		}
		os.Stdout.Write(out)
		return
	}

	log, err := cfg.Logger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "rta: %v\n", err)
		os.Exit(2)
	}
	defer log.Sync()

	application, err := app.New(cfg, log)
	if err != nil {
		log.Fatal("start failed", zap.Error(err))
	}
	if err := application.Run(); err != nil {
		log.Error("run failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "rta failed: %v\n", err)
		os.Exit(1)
	}
}
