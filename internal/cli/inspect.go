package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// NewLessonsCmd lists the lesson catalog from the configured source.
func NewLessonsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "lessons",
		Short: "List available lessons",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), *configPath, func(ctx context.Context, d *deps) error {
				lessons, err := d.service.Lessons(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tQUESTIONS\tDONE")
				profile := d.service.Profile(ctx)
				for _, l := range lessons {
					done := ""
					if profile.HasCompleted(l.ID) {
						done = "yes"
					}
					fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", l.ID, l.Title, len(l.Quiz), done)
				}
				return tw.Flush()
			})
		},
	}
}

// NewProfileCmd prints the stored learner profile as JSON.
func NewProfileCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show streak, XP and badges",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withDeps(cmd.Context(), *configPath, func(ctx context.Context, d *deps) error {
				return printProfile(ctx, cmd.OutOrStdout(), d)
			})
		},
	}
}

func printProfile(ctx context.Context, w io.Writer, d *deps) error {
	record := d.service.Profile(ctx).Record()
	out := struct {
		Profile      any    `json:"profile"`
		StreakStatus string `json:"streakStatus"`
	}{Profile: record, StreakStatus: string(d.service.StreakStatus(ctx))}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func withDeps(ctx context.Context, configPath string, fn func(context.Context, *deps) error) error {
	cfg, log, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	defer log.Sync()

	d, err := buildDeps(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer d.Close()
	return fn(ctx, d)
}
