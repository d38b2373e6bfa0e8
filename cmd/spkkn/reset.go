package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ittaigolde/spkkn-words/internal/config"
	"github.com/ittaigolde/spkkn-words/internal/domain"
	"github.com/ittaigolde/spkkn-words/internal/infra/database"
	"github.com/ittaigolde/spkkn-words/internal/infra/repository"
)

type resetFlags struct {
	yes          bool
	skipSnapshot bool
	seedFile     string
}

// snapshotFile is the archive written before a factory reset.
type snapshotFile struct {
	TakenAt      time.Time                  `json:"takenAt"`
	Words        []domain.WordState         `json:"words"`
	Transactions []domain.TransactionRecord `json:"transactions"`
}

func resetRun(cmd *cobra.Command, flags resetFlags) {
	commonRun()

	if !flags.yes {
		slog.Error("factory reset deletes all words and transactions; re-run with --yes to confirm")
		os.Exit(1)
	}

	conf, err := config.Load(globalFlags.configFile)
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	db, err := openDatabase(conf.Server)
	if err != nil {
		slog.Error("failed to open database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("failed to migrate database", slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx := cmd.Context()
	repo := repository.NewWordRepository(db)

	if !flags.skipSnapshot {
		words, transactions, err := repo.Snapshot(ctx)
		if err != nil {
			slog.Error("snapshot failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		path := fmt.Sprintf("spkkn-snapshot-%s.json", time.Now().Format("20060102-150405"))
		if err := writeSnapshot(path, words, transactions); err != nil {
			slog.Error("failed to write snapshot", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("snapshot written",
			slog.String("path", path),
			slog.Int("words", len(words)),
			slog.Int("transactions", len(transactions)),
		)
	}

	if err := repo.FactoryReset(ctx); err != nil {
		slog.Error("factory reset failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("registry cleared")

	if flags.seedFile != "" {
		words, err := readWordList(flags.seedFile)
		if err != nil {
			slog.Error("failed to read word list", slog.String("error", err.Error()))
			os.Exit(1)
		}
		inserted, err := repo.Seed(ctx, words, time.Now())
		if err != nil {
			slog.Error("reseeding failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
		slog.Info("reseeding complete", slog.Int64("inserted", inserted))
	}
}

func writeSnapshot(path string, words []domain.WordState, transactions []domain.TransactionRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	return encoder.Encode(snapshotFile{
		TakenAt:      time.Now(),
		Words:        words,
		Transactions: transactions,
	})
}

func resetCommand() *cobra.Command {
	var flags resetFlags
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Snapshot and clear the registry, optionally reseeding it",
		Run: func(cmd *cobra.Command, _ []string) {
			resetRun(cmd, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.yes, "yes", false, "confirm the destructive reset")
	cmd.Flags().BoolVar(&flags.skipSnapshot, "skip-snapshot", false, "do not write a snapshot before clearing")
	cmd.Flags().StringVar(&flags.seedFile, "seed-file", "", "word list to reseed after clearing")
	return cmd
}
