package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"lesson-progress-engine/internal/infra/file"
	pgstore "lesson-progress-engine/internal/infra/postgres"
	redisstore "lesson-progress-engine/internal/infra/redis"
)

// NewSeedCmd loads a lesson JSON file into Postgres.
func NewSeedCmd(configPath *string) *cobra.Command {
	var contentPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load lesson content from a JSON file into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSeed(cmd.Context(), *configPath, contentPath)
		},
	}
	cmd.Flags().StringVar(&contentPath, "file", "content/lessons.json", "lesson JSON file to import")
	return cmd
}

func runSeed(ctx context.Context, configPath, contentPath string) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	lessons, err := file.NewLessonLoader(contentPath).LoadLessons(ctx)
	if err != nil {
		return err
	}
	// refuse content that could not start a quiz
	for _, lesson := range lessons {
		if err := lesson.Validate(); err != nil {
			return fmt.Errorf("seed %s: %w", contentPath, err)
		}
	}

	db, err := openBun(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := applyMigrations(ctx, db, log); err != nil {
		return err
	}
	if err := pgstore.NewLessonWriter(db).Upsert(ctx, lessons); err != nil {
		return err
	}

	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer client.Close()
		if err := redisstore.NewLessonRepository(client, nil, 0).Invalidate(ctx); err != nil {
			log.Warn("lesson cache invalidation failed", "error", err)
		}
	}
	log.Info("lessons seeded", "count", len(lessons), "file", contentPath)
	return nil
}
