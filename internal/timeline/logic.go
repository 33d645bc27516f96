package timeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// canonicalID returns id in the form Postgres hands back for uuid columns.
func canonicalID(id string) (string, bool) {
	u, err := uuid.Parse(strings.TrimSpace(id))
	if err != nil {
		return "", false
	}
	return u.String(), true
}

func canonicalIDs(ids []string) ([]string, error) {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		c, ok := canonicalID(id)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrInvalidReference, id)
		}
		out = append(out, c)
	}
	return out, nil
}

func reorderBlocks(ctx context.Context, store Store, rdb *redis.Client, channelID string, order []string) (*ChannelLayout, error) {
	channelID, ok := canonicalID(channelID)
	if !ok {
		return nil, notFound("channel")
	}
	ids, err := canonicalIDs(order)
	if err != nil {
		return nil, err
	}

	layout, err := store.RecomputeOffsets(ctx, channelID, ids)
	if err != nil {
		return nil, err
	}
	publishLayout(ctx, rdb, eventChannelReordered, layout, nil)
	return layout, nil
}

func totalDurationOf(ctx context.Context, store Store, blockIDs []string) (float64, error) {
	ids, err := canonicalIDs(blockIDs)
	if err != nil {
		return 0, err
	}
	return store.TotalDuration(ctx, ids)
}

func listBlocks(ctx context.Context, store Store, channelID string) ([]Block, error) {
	channelID, ok := canonicalID(channelID)
	if !ok {
		return nil, notFound("channel")
	}
	blocks, err := store.ListBlocks(ctx, channelID)
	if err != nil {
		return nil, err
	}
	for i := range blocks {
		blocks[i].DurationLabel = FormatClock(blocks[i].Duration)
	}
	return blocks, nil
}

func addBlock(ctx context.Context, store Store, rdb *redis.Client, channelID string, nb NewBlock) (*Block, *ChannelLayout, error) {
	channelID, ok := canonicalID(channelID)
	if !ok {
		return nil, nil, notFound("channel")
	}
	nb.Name = strings.TrimSpace(nb.Name)
	if len(nb.Name) > 300 {
		return nil, nil, badRequest("name is too long")
	}
	if !validDuration(nb.Duration) {
		return nil, nil, ErrInvalidDuration
	}
	nb.ResourceID = trimOptional(nb.ResourceID)
	nb.SceneID = trimOptional(nb.SceneID)

	b, layout, err := store.AddBlock(ctx, channelID, nb)
	if err != nil {
		return nil, nil, err
	}
	b.DurationLabel = FormatClock(b.Duration)
	publishLayout(ctx, rdb, eventBlockAdded, layout, map[string]any{"block": b})
	return b, layout, nil
}

func deleteBlock(ctx context.Context, store Store, rdb *redis.Client, channelID, blockID string) (*ChannelLayout, error) {
	channelID, ok := canonicalID(channelID)
	if !ok {
		return nil, notFound("channel")
	}
	blockID, ok = canonicalID(blockID)
	if !ok {
		return nil, notFound("block")
	}

	layout, err := store.DeleteBlock(ctx, channelID, blockID)
	if err != nil {
		return nil, err
	}
	publishLayout(ctx, rdb, eventBlockDeleted, layout, map[string]any{"blockId": blockID})
	return layout, nil
}

func setBlockDuration(ctx context.Context, store Store, rdb *redis.Client, blockID string, seconds float64) (*ChannelLayout, error) {
	blockID, ok := canonicalID(blockID)
	if !ok {
		return nil, notFound("block")
	}
	if !validDuration(seconds) {
		return nil, ErrInvalidDuration
	}

	layout, err := store.SetBlockDuration(ctx, blockID, seconds)
	if err != nil {
		return nil, err
	}
	publishLayout(ctx, rdb, eventBlockDurationChanged, layout, map[string]any{
		"blockId":       blockID,
		"duration":      seconds,
		"durationLabel": FormatClock(seconds),
	})
	return layout, nil
}

func purgeBlocks(ctx context.Context, store Store, rdb *redis.Client, ref BlockRef, id string) ([]ChannelLayout, error) {
	layouts, err := store.PurgeBlocks(ctx, ref, id)
	if err != nil {
		return nil, err
	}
	key := "resourceId"
	if ref == RefScene {
		key = "sceneId"
	}
	for i := range layouts {
		publishLayout(ctx, rdb, eventBlockDeleted, &layouts[i], map[string]any{key: id})
	}
	return layouts, nil
}

func createTimeline(ctx context.Context, store Store, rdb *redis.Client, campaignID, name string) (*Timeline, error) {
	name = strings.TrimSpace(name)
	if name == "" || len(name) > 200 {
		return nil, badRequest("name must be between 1 and 200 characters")
	}
	tl, err := store.CreateTimeline(ctx, strings.TrimSpace(campaignID), name)
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, rdb, eventTimelineCreated, map[string]any{
		"timelineId": tl.ID,
		"timeline":   tl,
	})
	return tl, nil
}

func loadTimeline(ctx context.Context, store Store, id string) (*Timeline, error) {
	id, ok := canonicalID(id)
	if !ok {
		return nil, notFound("timeline")
	}
	return store.LoadTimeline(ctx, id)
}

func deleteTimeline(ctx context.Context, store Store, rdb *redis.Client, id string) error {
	id, ok := canonicalID(id)
	if !ok {
		return notFound("timeline")
	}
	if err := store.DeleteTimeline(ctx, id); err != nil {
		return err
	}
	publishEvent(ctx, rdb, eventTimelineDeleted, map[string]any{"timelineId": id})
	return nil
}

func createChannel(ctx context.Context, store Store, rdb *redis.Client, timelineID, name string) (*Channel, error) {
	timelineID, ok := canonicalID(timelineID)
	if !ok {
		return nil, notFound("timeline")
	}
	name = strings.TrimSpace(name)
	if len(name) > 200 {
		return nil, badRequest("name is too long")
	}
	ch, err := store.CreateChannel(ctx, timelineID, name)
	if err != nil {
		return nil, err
	}
	publishEvent(ctx, rdb, eventChannelCreated, map[string]any{
		"timelineId": timelineID,
		"channel":    ch,
	})
	return ch, nil
}

func storyline(ctx context.Context, store Store, timelineID string, width float64) (*Storyline, error) {
	tl, err := loadTimeline(ctx, store, timelineID)
	if err != nil {
		return nil, err
	}
	blocks, err := store.TimelineBlocks(ctx, tl.ID)
	if err != nil {
		return nil, err
	}
	sl := LayoutStoryline(tl, blocks, width)
	return &sl, nil
}

func trimOptional(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
