// Package main loads the genre reference data into the catalog database.
// Genres have no write surface over HTTP, so a fresh deployment runs this
// once against a JSON file of titles:
//
//	go run ./cmd/seed -file genres.json
//
// The file is a flat JSON array of genre titles, e.g. ["Action","Drama"].
// Titles already present are skipped, so the command is safe to re-run.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/sakif/media-catalog/internal/model"
	"github.com/sakif/media-catalog/internal/repository/mongodb"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	file := flag.String("file", "genres.json", "path to a JSON array of genre titles")
	flag.Parse()

	mongoURI := os.Getenv("MONGO_URI")
	if mongoURI == "" {
		mongoURI = "mongodb://localhost:27017"
	}
	dbName := os.Getenv("DB_NAME")
	if dbName == "" {
		dbName = "media-catalog"
	}

	titles, err := readTitles(*file)
	if err != nil {
		logger.Error("reading genre file", slog.String("file", *file), slog.String("error", err.Error()))
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := mongodb.New(ctx, mongoURI, dbName)
	if err != nil {
		logger.Error("opening database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer db.Close(context.Background())

	existing, err := db.ListGenres(ctx)
	if err != nil {
		logger.Error("listing genres", slog.String("error", err.Error()))
		os.Exit(1)
	}
	seen := make(map[string]bool, len(existing))
	for _, g := range existing {
		seen[strings.ToLower(g.Title)] = true
	}

	created := 0
	for _, title := range titles {
		if seen[strings.ToLower(title)] {
			logger.Info("genre already present, skipping", slog.String("title", title))
			continue
		}
		genre := &model.Genre{Title: title}
		if err := db.CreateGenre(ctx, genre); err != nil {
			logger.Error("creating genre", slog.String("title", title), slog.String("error", err.Error()))
			os.Exit(1)
		}
		logger.Info("genre created", slog.String("title", title), slog.String("id", genre.ID))
		created++
	}

	logger.Info("seed complete", slog.Int("created", created), slog.Int("skipped", len(titles)-created))
}

func readTitles(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	titles := make([]string, 0, len(raw))
	for _, t := range raw {
		t = strings.TrimSpace(t)
		if t != "" {
			titles = append(titles, t)
		}
	}
	return titles, nil
}
