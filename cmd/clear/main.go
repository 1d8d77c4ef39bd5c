package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/rs/zerolog"

	"ganjhub/pkg/database"
)

// clear wipes the mirrored archive tables (poets, categories, poems).
// Destructive; refuses to run without -yes. Contact messages are kept unless
// -contact is also set.
func main() {
	var (
		yes         = flag.Bool("yes", false, "confirm deletion")
		withContact = flag.Bool("contact", false, "also delete contact messages")
	)
	flag.Parse()

	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		With().Timestamp().Logger()

	if !*yes {
		log.Fatal().Msg("refusing to clear without -yes")
	}

	db := database.MustOpen(database.DefaultConfig())
	defer db.Close()

	if err := database.Migrate(db); err != nil {
		log.Fatal().Err(err).Msg("db migrate failed")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Reverse foreign-key order.
	tables := []string{"poems", "categories", "poets"}
	if *withContact {
		tables = append(tables, "contact_messages")
	}

	for _, table := range tables {
		res, err := db.ExecContext(ctx, "DELETE FROM "+table)
		if err != nil {
			log.Fatal().Err(err).Str("table", table).Msg("delete failed")
		}
		n, _ := res.RowsAffected()
		log.Info().Str("table", table).Int64("rows_deleted", n).Msg("table cleared")
	}

	log.Info().Msg("clear finished")
}
