package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"timeline-service/internal/timeline"

	"github.com/spf13/cobra"
)

type layoutInput struct {
	Blocks []struct {
		ID       string  `json:"id"`
		Duration float64 `json:"duration"`
	} `json:"blocks"`
}

type labelledPlacement struct {
	timeline.Placement
	OffsetLabel string `json:"offsetLabel"`
}

func newLayoutCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "layout [file]",
		Short: "Compute back-to-back offsets for blocks read from a JSON file or stdin",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var r io.Reader = cmd.InOrStdin()
			if len(args) == 1 && args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return writeErr(cmd, err)
				}
				defer f.Close()
				r = f
			}

			var in layoutInput
			if err := json.NewDecoder(r).Decode(&in); err != nil {
				return writeErr(cmd, fmt.Errorf("decode blocks: %w", err))
			}

			order := make([]string, 0, len(in.Blocks))
			durations := make(map[string]float64, len(in.Blocks))
			for _, b := range in.Blocks {
				if b.ID == "" {
					return writeErr(cmd, errors.New("every block needs an id"))
				}
				order = append(order, b.ID)
				// A repeated id is reported as a duplicate by LayoutBlocks.
				if _, ok := durations[b.ID]; !ok {
					durations[b.ID] = b.Duration
				}
			}

			placements, total, err := timeline.LayoutBlocks(order, durations)
			if err != nil {
				return writeErr(cmd, err)
			}

			out := make([]labelledPlacement, 0, len(placements))
			for _, p := range placements {
				out = append(out, labelledPlacement{Placement: p, OffsetLabel: timeline.FormatClock(p.Offset)})
			}
			return writeOut(cmd, app, map[string]any{
				"blocks":        out,
				"totalDuration": total,
				"totalLabel":    timeline.FormatClock(total),
			})
		},
	}
	return cmd
}
