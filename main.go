package main

import (
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var (
	configPath = flag.String("config", "config.ini", "path to the key=value config file")
	port       = flag.Int("port", 0, "port number, overrides the config file when set")
	debug      = flag.Bool("debug", false, "enable debug logging")
)

func newLogger() zerolog.Logger {
	level := zerolog.InfoLevel
	if *debug {
		level = zerolog.DebugLevel
	}
	out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	return zerolog.New(out).Level(level).With().Timestamp().Logger()
}

func main() {
	flag.Parse()
	log := newLogger()

	cfg, err := LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("config")
	}
	if *port != 0 {
		cfg.Port = *port
		if err := cfg.Validate(); err != nil {
			log.Fatal().Err(err).Msg("config")
		}
	}

	log.Info().
		Int("port", cfg.Port).
		Str("root", cfg.Root).
		Str("defaultPage", cfg.DefaultPage).
		Int("maxThreads", cfg.MaxThreads).
		Bool("chunked", cfg.Chunked).
		Msg("web server starting")

	srv := NewServer(cfg, log)
	if err := srv.ListenAndServe(); err != nil {
		srv.Close()
		log.Fatal().Err(err).Msg("server exception")
	}
}
