package timeline

// storylineGutter is the horizontal space the storyline keeps free next to
// the channel bodies.
const storylineGutter = 25

type StorylineBlock struct {
	BlockID string  `json:"blockId"`
	Name    string  `json:"name"`
	Left    float64 `json:"left"`
	Width   float64 `json:"width"`
}

type StorylineChannel struct {
	ChannelID string           `json:"channelId"`
	Name      string           `json:"name"`
	Blocks    []StorylineBlock `json:"blocks"`
}

type Storyline struct {
	TimelineID    string             `json:"timelineId"`
	Width         float64            `json:"width"`
	PixelsPerSec  float64            `json:"pixelsPerSecond"`
	TotalDuration float64            `json:"totalDuration"`
	Channels      []StorylineChannel `json:"channels"`
}

// LayoutStoryline maps every block of tl onto a strip of containerWidth
// pixels. blocks holds each channel's blocks in position order, keyed by
// channel id. All channels share one scale so equal times line up.
func LayoutStoryline(tl *Timeline, blocks map[string][]Block, containerWidth float64) Storyline {
	usable := containerWidth - storylineGutter
	if usable < 0 {
		usable = 0
	}

	var scale float64
	if tl.TotalDuration > 0 {
		scale = usable / tl.TotalDuration
	}

	sl := Storyline{
		TimelineID:    tl.ID,
		Width:         usable,
		PixelsPerSec:  scale,
		TotalDuration: tl.TotalDuration,
		Channels:      make([]StorylineChannel, 0, len(tl.Channels)),
	}
	for _, ch := range tl.Channels {
		sc := StorylineChannel{
			ChannelID: ch.ID,
			Name:      ch.Name,
			Blocks:    make([]StorylineBlock, 0, len(blocks[ch.ID])),
		}
		for _, b := range blocks[ch.ID] {
			sc.Blocks = append(sc.Blocks, StorylineBlock{
				BlockID: b.ID,
				Name:    b.Name,
				Left:    b.Offset * scale,
				Width:   b.Duration * scale,
			})
		}
		sl.Channels = append(sl.Channels, sc)
	}
	return sl
}
