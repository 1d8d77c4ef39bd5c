package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"ganjhub/internal/archive"
	"ganjhub/internal/importer"
	"ganjhub/pkg/database"
	"ganjhub/pkg/utils"
)

func main() {
	var (
		fullIDs    = flag.String("full", "", "comma-separated poet ids to import with full verse text")
		previewIDs = flag.String("preview", "", "comma-separated poet ids to import at preview depth")
		delay      = flag.Duration("delay", 300*time.Millisecond, "delay between remote archive calls")
		batch      = flag.Int("batch", 50, "poem rows per upsert transaction")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	full, err := parseIDs(*fullIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -full list")
	}
	preview, err := parseIDs(*previewIDs)
	if err != nil {
		log.Fatal().Err(err).Msg("bad -preview list")
	}
	if len(full) == 0 && len(preview) == 0 {
		log.Fatal().Msg("nothing to import: pass -full and/or -preview poet ids")
	}

	cfg := utils.LoadServerConfig()
	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pipeline := importer.New(archive.NewClient(cfg.ArchiveBaseURL), db, importer.Config{
		FullPoetIDs:    full,
		PreviewPoetIDs: preview,
		BatchSize:      *batch,
		Delay:          *delay,
	}, log)

	sum, err := pipeline.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).
			Int("poets", sum.Poets).Int("categories", sum.Categories).Int("poems", sum.Poems).
			Msg("import aborted")
	}

	log.Info().
		Int("poets", sum.Poets).
		Int("categories", sum.Categories).
		Int("poems", sum.Poems).
		Int("errors", sum.Errors).
		Msg("import finished")
}

func parseIDs(s string) ([]int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, nil
}
