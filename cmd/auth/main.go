package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/aussiebroadwan/gatekeep/internal/auth/app"
)

func main() {
	version := flag.Bool("version", false, "print the build version and exit")
	checkConfig := flag.Bool("check-config", false, "validate configuration from the environment and exit")
	flag.Parse()

	if *version {
		fmt.Println(app.BuildVersion)
		return
	}

	cfg := app.LoadConfig()
	if *checkConfig {
		if err := cfg.Validate(); err != nil {
			log.Fatalf("invalid configuration: %v", err)
		}
		fmt.Fprintf(os.Stdout, "ok: store=%s sessions=%s ratelimit=%s\n", cfg.StoreDriver, cfg.SessionBackend, cfg.RateLimitBackend)
		return
	}

	application, err := app.New(cfg)
	if err != nil {
		log.Fatalf("failed to initialize gatekeep: %v", err)
	}

	if err := application.Run(); err != nil {
		log.Fatalf("gatekeep exited: %v", err)
	}
}
