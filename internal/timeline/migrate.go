package timeline

import (
	"context"
	"log"
)

func AutoMigrate(ctx context.Context, db DB) error {
	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS timelines (
          id             uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          campaign_id    TEXT NOT NULL DEFAULT '',
          name           TEXT NOT NULL,
          total_duration DOUBLE PRECISION NOT NULL DEFAULT 0,
          created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("migrate timeline-service: timelines: %v", err)
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS channels (
          id          uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          timeline_id uuid NOT NULL REFERENCES timelines(id) ON DELETE CASCADE,
          name        TEXT NOT NULL DEFAULT '',
          created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
      )
    `); err != nil {
		log.Printf("migrate timeline-service: channels: %v", err)
		return err
	}

	// Positions are permuted in place during a reorder, so uniqueness is
	// only checked at commit.
	if _, err := db.Exec(ctx, `
      CREATE TABLE IF NOT EXISTS channel_blocks (
          id               uuid PRIMARY KEY DEFAULT gen_random_uuid(),
          channel_id       uuid NOT NULL REFERENCES channels(id) ON DELETE CASCADE,
          position         INT NOT NULL,
          duration_seconds DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (duration_seconds >= 0),
          offset_seconds   DOUBLE PRECISION NOT NULL DEFAULT 0,
          block_code       INT NOT NULL DEFAULT 0,
          name             TEXT NOT NULL DEFAULT '',
          resource_id      TEXT,
          scene_id         TEXT,
          created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
          CONSTRAINT channel_blocks_position_key
              UNIQUE (channel_id, position) DEFERRABLE INITIALLY DEFERRED
      )
    `); err != nil {
		log.Printf("migrate timeline-service: channel_blocks: %v", err)
		return err
	}

	if _, err := db.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_channel_blocks_resource
      ON channel_blocks(resource_id) WHERE resource_id IS NOT NULL
    `); err != nil {
		return err
	}
	if _, err := db.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_channel_blocks_scene
      ON channel_blocks(scene_id) WHERE scene_id IS NOT NULL
    `); err != nil {
		return err
	}
	if _, err := db.Exec(ctx, `
      CREATE INDEX IF NOT EXISTS idx_channels_timeline
      ON channels(timeline_id)
    `); err != nil {
		return err
	}

	return nil
}
