package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"timeline-service/internal/timeline"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()
	t.Setenv("DATABASE_URL", "")
	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func TestLayoutCmd(t *testing.T) {
	t.Run("stdin", func(t *testing.T) {
		out, _, err := run(t, `{"blocks":[{"id":"C","duration":20},{"id":"A","duration":10},{"id":"B","duration":5}]}`, "layout")
		require.NoError(t, err)

		var got struct {
			Blocks []struct {
				BlockID     string  `json:"blockId"`
				Position    int     `json:"position"`
				Offset      float64 `json:"offset"`
				OffsetLabel string  `json:"offsetLabel"`
			} `json:"blocks"`
			TotalDuration float64 `json:"totalDuration"`
			TotalLabel    string  `json:"totalLabel"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got.Blocks, 3)
		assert.Equal(t, "A", got.Blocks[1].BlockID)
		assert.Equal(t, 20.0, got.Blocks[1].Offset)
		assert.Equal(t, 30.0, got.Blocks[2].Offset)
		assert.Equal(t, "00:00:30", got.Blocks[2].OffsetLabel)
		assert.Equal(t, 35.0, got.TotalDuration)
		assert.Equal(t, "00:00:35", got.TotalLabel)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "blocks.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"blocks":[{"id":"x","duration":3600}]}`), 0o644))
		out, _, err := run(t, "", "layout", path)
		require.NoError(t, err)
		assert.Contains(t, out, `"totalLabel":"01:00:00"`)
	})

	t.Run("duplicate block", func(t *testing.T) {
		_, errOut, err := run(t, `{"blocks":[{"id":"A","duration":1},{"id":"A","duration":2}]}`, "layout")
		assert.ErrorIs(t, err, timeline.ErrDuplicateBlock)
		assert.NotEmpty(t, errOut)
	})

	t.Run("negative duration", func(t *testing.T) {
		_, _, err := run(t, `{"blocks":[{"id":"A","duration":-1}]}`, "layout")
		assert.ErrorIs(t, err, timeline.ErrInvalidDuration)
	})

	t.Run("bad json", func(t *testing.T) {
		_, _, err := run(t, `[`, "layout")
		assert.Error(t, err)
	})
}

func TestMigrateCmd_RequiresDatabaseURL(t *testing.T) {
	_, errOut, err := run(t, "", "migrate")
	assert.Error(t, err)
	assert.Contains(t, errOut, "database-url")
}

// stubStore answers the two calls relayout makes.
type stubStore struct {
	timeline.Store
	blocks []timeline.Block
	order  []string
}

func (s *stubStore) ListBlocks(ctx context.Context, channelID string) ([]timeline.Block, error) {
	return s.blocks, nil
}

func (s *stubStore) RecomputeOffsets(ctx context.Context, channelID string, order []string) (*timeline.ChannelLayout, error) {
	s.order = order
	return &timeline.ChannelLayout{ChannelID: channelID}, nil
}

func TestRelayout(t *testing.T) {
	const channel = "6f1c2b1e-0000-4000-8000-0000000000c1"
	store := &stubStore{blocks: []timeline.Block{{ID: "b"}, {ID: "a"}}}

	layout, err := relayout(context.Background(), store, strings.ToUpper(channel))
	require.NoError(t, err)
	assert.Equal(t, channel, layout.ChannelID)
	assert.Equal(t, []string{"b", "a"}, store.order)

	_, err = relayout(context.Background(), store, "main")
	assert.Error(t, err)
}
