package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/techsynergy/campus-backend/internal/config"
	"github.com/techsynergy/campus-backend/internal/logger"
)

func main() {
	var dir string
	flag.StringVar(&dir, "path", "migrations", "Path to migration files")
	flag.Usage = usage
	flag.Parse()

	cfg := config.Load()
	log := logger.Setup(cfg.LogLevel, cfg.LogFormat)

	args := flag.Args()
	if len(args) < 1 {
		usage()
		os.Exit(2)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is not set")
	}

	m, err := migrate.New("file://"+dir, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Str("path", dir).Msg("Migration failed to initialize")
	}
	defer m.Close()

	switch cmd := args[0]; cmd {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	case "steps", "force":
		if len(args) < 2 {
			log.Fatal().Str("command", cmd).Msg("Missing numeric argument")
		}
		n, convErr := strconv.Atoi(args[1])
		if convErr != nil {
			log.Fatal().Err(convErr).Str("command", cmd).Msg("Invalid numeric argument")
		}
		if cmd == "steps" {
			err = m.Steps(n)
		} else {
			err = m.Force(n)
		}
	case "version":
		version, dirty, vErr := m.Version()
		if vErr != nil && !errors.Is(vErr, migrate.ErrNilVersion) {
			log.Fatal().Err(vErr).Msg("Version failed")
		}
		fmt.Printf("Version: %d, Dirty: %t\n", version, dirty)
		return
	default:
		usage()
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal().Err(err).Str("command", args[0]).Msg("Migration failed")
	}

	version, dirty, _ := m.Version()
	log.Info().Str("command", args[0]).Uint("version", version).Bool("dirty", dirty).Msg("Migration complete")
}

func usage() {
	fmt.Println("Usage: migrate [flags] <command>")
	fmt.Println("Commands: up, down, steps <n>, version, force <version>")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
