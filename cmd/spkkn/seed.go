package main

import (
	"bufio"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ittaigolde/spkkn-words/internal/config"
	"github.com/ittaigolde/spkkn-words/internal/infra/database"
	"github.com/ittaigolde/spkkn-words/internal/infra/repository"
)

func seedRun(cmd *cobra.Command, _ []string, file string) {
	commonRun()

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

	words, err := readWordList(file)
	if err != nil {
		slog.Error("failed to read word list", slog.String("error", err.Error()))
		os.Exit(1)
	}

	repo := repository.NewWordRepository(db)
	inserted, err := repo.Seed(cmd.Context(), words, time.Now())
	if err != nil {
		slog.Error("seeding failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seeding complete",
		slog.Int("read", len(words)),
		slog.Int64("inserted", inserted),
	)
}

// readWordList reads one word per line. Blank lines and '#' comments are
// skipped; normalization and dedup happen at the registry.
func readWordList(path string) ([]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var words []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || line[0] == '#' {
			continue
		}
		words = append(words, line)
	}
	return words, scanner.Err()
}

func seedCommand() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Import a word list into the registry at the base price",
		Run: func(cmd *cobra.Command, args []string) {
			seedRun(cmd, args, file)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "path to word list, one word per line")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}
