package timeline

import (
	"time"
)

// Timeline groups the channels of one campaign timeline. Channels play in
// parallel, so TotalDuration is the length of the longest channel.
type Timeline struct {
	ID            string    `json:"id"`
	CampaignID    string    `json:"campaignId"`
	Name          string    `json:"name"`
	TotalDuration float64   `json:"totalDuration"`
	CreatedAt     time.Time `json:"createdAt"`
	Channels      []Channel `json:"channels,omitempty"`
}

// Channel is an ordered sequence of blocks within a timeline.
type Channel struct {
	ID            string    `json:"id"`
	TimelineID    string    `json:"timelineId"`
	Name          string    `json:"name"`
	TotalDuration float64   `json:"totalDuration"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Block is a playable segment on a channel. Blocks are ordered by Position
// (0-based) and laid back to back: Offset is the sum of the durations of
// every block before it.
type Block struct {
	ID         string    `json:"id"`
	ChannelID  string    `json:"channelId"`
	Position   int       `json:"position"`
	Duration   float64   `json:"duration"`
	Offset     float64   `json:"offset"`
	BlockCode  int       `json:"blockCode"`
	Name       string    `json:"name"`
	ResourceID *string   `json:"resourceId,omitempty"`
	SceneID    *string   `json:"sceneId,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`

	DurationLabel string `json:"durationLabel,omitempty"` // HH:MM:SS
}

// NewBlock describes a block to append to a channel.
type NewBlock struct {
	BlockCode  int
	Name       string
	Duration   float64
	ResourceID *string
	SceneID    *string
}

// TimelineDuration is the result of recalculating a timeline's length.
type TimelineDuration struct {
	TimelineID    string  `json:"timelineId"`
	TotalDuration float64 `json:"totalDuration"`
}

// Placement is where a block lands after recalculation.
type Placement struct {
	BlockID  string  `json:"blockId"`
	Position int     `json:"position"`
	Offset   float64 `json:"offset"`
	Duration float64 `json:"duration"`
}

// ChannelLayout is the outcome of a recalculation for one channel.
type ChannelLayout struct {
	ChannelID     string            `json:"channelId"`
	TimelineID    string            `json:"timelineId"`
	Blocks        []Placement       `json:"blocks"`
	TotalDuration float64           `json:"totalDuration"`
	Timeline      *TimelineDuration `json:"timeline,omitempty"`
}

const (
	eventBlockAdded           = "block.added"
	eventBlockDeleted         = "block.deleted"
	eventBlockDurationChanged = "block.duration_changed"
	eventChannelReordered     = "channel.reordered"
	eventTimelineDuration     = "timeline.duration_changed"
	eventTimelineCreated      = "timeline.created"
	eventTimelineDeleted      = "timeline.deleted"
	eventChannelCreated       = "channel.created"

	eventResourceRemoved = "resource.removed"
	eventSceneRemoved    = "scene.removed"
)
