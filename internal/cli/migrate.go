package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"timeline-service/internal/timeline"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func connect(ctx context.Context, app *App) (*pgxpool.Pool, error) {
	if strings.TrimSpace(app.DatabaseURL) == "" {
		return nil, errors.New("missing --database-url (or DATABASE_URL)")
	}
	return pgxpool.New(ctx, app.DatabaseURL)
}

func newMigrateCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the timeline tables if they do not exist",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer pool.Close()

			if err := timeline.AutoMigrate(ctx, pool); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, map[string]any{"migrated": true})
		},
	}
}

func newRelayoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "relayout <channel-id>",
		Short: "Recompute a channel's offsets and its timeline length from the stored order",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			pool, err := connect(ctx, app)
			if err != nil {
				return writeErr(cmd, err)
			}
			defer pool.Close()

			layout, err := relayout(ctx, timeline.NewPostgresStore(pool), args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, layout)
		},
	}
}

func relayout(ctx context.Context, store timeline.Store, channelID string) (*timeline.ChannelLayout, error) {
	id, err := uuid.Parse(strings.TrimSpace(channelID))
	if err != nil {
		return nil, fmt.Errorf("invalid channel id %q", channelID)
	}
	channelID = id.String()

	blocks, err := store.ListBlocks(ctx, channelID)
	if err != nil {
		return nil, err
	}
	order := make([]string, 0, len(blocks))
	for _, b := range blocks {
		order = append(order, b.ID)
	}
	return store.RecomputeOffsets(ctx, channelID, order)
}
