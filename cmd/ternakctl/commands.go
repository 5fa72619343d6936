package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/ternak-go-api/internal/config"
	"github.com/noah-isme/ternak-go-api/internal/database"
	"github.com/noah-isme/ternak-go-api/internal/repository"
	"github.com/noah-isme/ternak-go-api/internal/service"
)

type runOptions struct {
	databaseURL string
	verbose     bool
}

func (o runOptions) logger() zerolog.Logger {
	if !o.verbose {
		return zerolog.Nop()
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()
}

func (o runOptions) open() (*gorm.DB, error) {
	dsn := o.databaseURL
	if dsn == "" {
		cfg, err := config.LoadWithoutSecrets()
		if err != nil {
			return nil, err
		}
		dsn = cfg.DatabaseURL
	}

	db, err := database.Connect(dsn)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return db, nil
}

func runMigrate(_ context.Context, opts runOptions, out io.Writer) error {
	if _, err := opts.open(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(out, "schema up to date")
	return err
}

func runBirthdays(ctx context.Context, opts runOptions, out io.Writer) error {
	db, err := opts.open()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	// The cache is left alone: birthdays only add activities, which are never cached.
	recorder := service.NewLifecycleRecorder(
		repository.NewActivityRepository(db),
		repository.NewAnimalRepository(db),
		nil,
		nil,
		opts.logger(),
	)

	created, err := recorder.GenerateBirthdayActivities(ctx)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "created %d birthday activities\n", created)
	return err
}

func runNextID(ctx context.Context, opts runOptions, category string, out io.Writer) error {
	db, err := opts.open()
	if err != nil {
		return err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	generator := service.NewInternalIDGenerator(repository.NewAnimalRepository(db), opts.logger())
	id, err := generator.Generate(ctx, category, time.Now().UTC())
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(out, id)
	return err
}
