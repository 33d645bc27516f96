package timeline

import (
	"context"
	"encoding/json"
	"log"

	"github.com/redis/go-redis/v9"
)

// BroadcastChannel is the Redis pub/sub channel shared by every service of
// the platform.
const BroadcastChannel = "broadcast"

type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func publishEvent(ctx context.Context, rdb *redis.Client, eventType string, payload any) {
	if rdb == nil {
		return
	}
	data, err := json.Marshal(map[string]any{
		"type":    eventType,
		"payload": payload,
	})
	if err != nil {
		log.Printf("timeline-service: marshal event %s: %v", eventType, err)
		return
	}
	if err := rdb.Publish(ctx, BroadcastChannel, string(data)).Err(); err != nil {
		log.Printf("timeline-service: publish event %s: %v", eventType, err)
	}
}

// publishLayout announces a channel re-layout and the timeline length that
// followed from it.
func publishLayout(ctx context.Context, rdb *redis.Client, eventType string, layout *ChannelLayout, extra map[string]any) {
	if layout == nil {
		return
	}
	payload := map[string]any{
		"timelineId":    layout.TimelineID,
		"channelId":     layout.ChannelID,
		"blocks":        layout.Blocks,
		"totalDuration": layout.TotalDuration,
	}
	for k, v := range extra {
		payload[k] = v
	}
	publishEvent(ctx, rdb, eventType, payload)

	if layout.Timeline != nil {
		publishEvent(ctx, rdb, eventTimelineDuration, layout.Timeline)
	}
}

// Subscriber reacts to platform events that invalidate blocks owned by this
// service.
type Subscriber struct {
	store Store
	rdb   *redis.Client
}

func NewSubscriber(store Store, rdb *redis.Client) *Subscriber {
	return &Subscriber{store: store, rdb: rdb}
}

// Run consumes the broadcast channel until ctx is cancelled.
func (s *Subscriber) Run(ctx context.Context) {
	sub := s.rdb.Subscribe(ctx, BroadcastChannel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			s.handle(ctx, []byte(msg.Payload))
		}
	}
}

func (s *Subscriber) handle(ctx context.Context, data []byte) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return
	}

	var ref BlockRef
	var body struct {
		ResourceID string `json:"resourceId"`
		SceneID    string `json:"sceneId"`
	}
	switch env.Type {
	case eventResourceRemoved:
		ref = RefResource
	case eventSceneRemoved:
		ref = RefScene
	default:
		return
	}
	if err := json.Unmarshal(env.Payload, &body); err != nil {
		log.Printf("timeline-service: decode %s: %v", env.Type, err)
		return
	}
	id := body.ResourceID
	if ref == RefScene {
		id = body.SceneID
	}
	if id == "" {
		return
	}

	if _, err := purgeBlocks(ctx, s.store, s.rdb, ref, id); err != nil {
		log.Printf("timeline-service: purge blocks for %s %s: %v", env.Type, id, err)
	}
}
