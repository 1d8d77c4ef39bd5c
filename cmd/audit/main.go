package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ganjhub/internal/archive"
	"ganjhub/internal/store"
	"ganjhub/pkg/database"
	"ganjhub/pkg/utils"
)

// audit compares the local mirror against the remote archive: per mirrored
// poet, local category counts vs the remote category tree. Read-only.
func main() {
	var timeout = flag.Duration("timeout", 5*time.Minute, "overall audit timeout")
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	cfg := utils.LoadServerConfig()
	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	repo := store.NewRepo(db, log)
	client := archive.NewClient(cfg.ArchiveBaseURL)

	poets, err := repo.ListPoets(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("list local poets failed")
	}

	totalPoems := 0
	for _, poet := range poets {
		id := poet.ID
		_, cats, poems, err := repo.Counts(ctx, &id)
		if err != nil {
			log.Error().Err(err).Int("poet_id", id).Msg("local counts failed")
			continue
		}
		totalPoems += poems

		remoteCats := -1
		if detail, err := client.Poet(ctx, id); err == nil {
			remoteCats = 0
			for _, c := range detail.Categories {
				remoteCats += 1 + len(c.Children)
			}
		} else {
			log.Warn().Err(err).Int("poet_id", id).Msg("remote poet fetch failed")
		}

		log.Info().
			Int("poet_id", id).
			Str("name", poet.Name).
			Int("local_categories", cats).
			Int("remote_categories", remoteCats).
			Int("local_poems", poems).
			Msg("poet audited")
	}

	poetsN, catsN, poemsN, err := repo.Counts(ctx, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("total counts failed")
	}
	log.Info().
		Int("poets", poetsN).
		Int("categories", catsN).
		Int("poems", poemsN).
		Msg("audit finished")
}
