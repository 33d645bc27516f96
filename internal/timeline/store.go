package timeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the part of *pgxpool.Pool the store needs. pgxmock pools satisfy it
// too.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Store interface {
	CreateTimeline(ctx context.Context, campaignID, name string) (*Timeline, error)
	LoadTimeline(ctx context.Context, id string) (*Timeline, error)
	DeleteTimeline(ctx context.Context, id string) error
	CreateChannel(ctx context.Context, timelineID, name string) (*Channel, error)
	// TimelineBlocks returns every block of the timeline keyed by channel id,
	// each slice in position order.
	TimelineBlocks(ctx context.Context, timelineID string) (map[string][]Block, error)

	ListBlocks(ctx context.Context, channelID string) ([]Block, error)
	AddBlock(ctx context.Context, channelID string, nb NewBlock) (*Block, *ChannelLayout, error)
	DeleteBlock(ctx context.Context, channelID, blockID string) (*ChannelLayout, error)
	// RecomputeOffsets rewrites offsets and positions of the channel's blocks
	// so they follow order. Nothing is written when it fails.
	RecomputeOffsets(ctx context.Context, channelID string, order []string) (*ChannelLayout, error)
	SetBlockDuration(ctx context.Context, blockID string, seconds float64) (*ChannelLayout, error)
	TotalDuration(ctx context.Context, blockIDs []string) (float64, error)
	// PurgeBlocks deletes blocks embedding the given resource or scene and
	// re-lays every channel that lost a block.
	PurgeBlocks(ctx context.Context, ref BlockRef, id string) ([]ChannelLayout, error)
}

// BlockRef names the column a purge matches on.
type BlockRef string

const (
	RefResource BlockRef = "resource_id"
	RefScene    BlockRef = "scene_id"
)

type PostgresStore struct {
	db DB
}

func NewPostgresStore(db DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const blockColumns = `id, channel_id, position, duration_seconds, offset_seconds,
       block_code, name, resource_id, scene_id, created_at`

func scanBlock(row pgx.Row) (Block, error) {
	var b Block
	err := row.Scan(
		&b.ID, &b.ChannelID, &b.Position, &b.Duration, &b.Offset,
		&b.BlockCode, &b.Name, &b.ResourceID, &b.SceneID, &b.CreatedAt,
	)
	return b, err
}

func (s *PostgresStore) CreateTimeline(ctx context.Context, campaignID, name string) (*Timeline, error) {
	tl := Timeline{ID: uuid.NewString(), CampaignID: campaignID, Name: name}
	err := s.db.QueryRow(ctx, `
        INSERT INTO timelines (id, campaign_id, name)
        VALUES ($1, $2, $3)
        RETURNING total_duration, created_at
    `, tl.ID, tl.CampaignID, tl.Name).Scan(&tl.TotalDuration, &tl.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &tl, nil
}

func (s *PostgresStore) LoadTimeline(ctx context.Context, id string) (*Timeline, error) {
	var tl Timeline
	err := s.db.QueryRow(ctx, `
        SELECT id, campaign_id, name, total_duration, created_at
        FROM timelines WHERE id = $1
    `, id).Scan(&tl.ID, &tl.CampaignID, &tl.Name, &tl.TotalDuration, &tl.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(ctx, `
        SELECT c.id, c.timeline_id, c.name,
               COALESCE(SUM(b.duration_seconds), 0) AS total,
               c.created_at
        FROM channels c
        LEFT JOIN channel_blocks b ON b.channel_id = c.id
        WHERE c.timeline_id = $1
        GROUP BY c.id
        ORDER BY c.created_at, c.id
    `, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tl.Channels = make([]Channel, 0)
	for rows.Next() {
		var ch Channel
		if err := rows.Scan(&ch.ID, &ch.TimelineID, &ch.Name, &ch.TotalDuration, &ch.CreatedAt); err != nil {
			return nil, err
		}
		tl.Channels = append(tl.Channels, ch)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &tl, nil
}

func (s *PostgresStore) DeleteTimeline(ctx context.Context, id string) error {
	res, err := s.db.Exec(ctx, `DELETE FROM timelines WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if res.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) CreateChannel(ctx context.Context, timelineID, name string) (*Channel, error) {
	ch := Channel{ID: uuid.NewString(), TimelineID: timelineID, Name: name}
	err := s.db.QueryRow(ctx, `
        INSERT INTO channels (id, timeline_id, name)
        SELECT $1, t.id, $3 FROM timelines t WHERE t.id = $2
        RETURNING created_at
    `, ch.ID, ch.TimelineID, ch.Name).Scan(&ch.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *PostgresStore) TimelineBlocks(ctx context.Context, timelineID string) (map[string][]Block, error) {
	rows, err := s.db.Query(ctx, `
        SELECT b.id, b.channel_id, b.position, b.duration_seconds, b.offset_seconds,
               b.block_code, b.name, b.resource_id, b.scene_id, b.created_at
        FROM channel_blocks b
        JOIN channels c ON c.id = b.channel_id
        WHERE c.timeline_id = $1
        ORDER BY b.channel_id, b.position
    `, timelineID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]Block)
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		out[b.ChannelID] = append(out[b.ChannelID], b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *PostgresStore) ListBlocks(ctx context.Context, channelID string) ([]Block, error) {
	var exists bool
	if err := s.db.QueryRow(ctx, `
        SELECT EXISTS(SELECT 1 FROM channels WHERE id = $1)
    `, channelID).Scan(&exists); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	rows, err := s.db.Query(ctx, `
        SELECT `+blockColumns+`
        FROM channel_blocks
        WHERE channel_id = $1
        ORDER BY position
    `, channelID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	blocks := make([]Block, 0)
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, err
		}
		blocks = append(blocks, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return blocks, nil
}

func (s *PostgresStore) AddBlock(ctx context.Context, channelID string, nb NewBlock) (*Block, *ChannelLayout, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := lockChannel(ctx, tx, channelID); err != nil {
		return nil, nil, err
	}

	// A new block starts where the channel currently ends.
	var nextPos int
	var channelTotal float64
	if err := tx.QueryRow(ctx, `
        SELECT COALESCE(MAX(position) + 1, 0), COALESCE(SUM(duration_seconds), 0)
        FROM channel_blocks
        WHERE channel_id = $1
    `, channelID).Scan(&nextPos, &channelTotal); err != nil {
		return nil, nil, err
	}

	b, err := scanBlock(tx.QueryRow(ctx, `
        INSERT INTO channel_blocks (
            id, channel_id, position, duration_seconds, offset_seconds,
            block_code, name, resource_id, scene_id
        )
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING `+blockColumns,
		uuid.NewString(), channelID, nextPos, nb.Duration, channelTotal,
		nb.BlockCode, nb.Name, nb.ResourceID, nb.SceneID,
	))
	if err != nil {
		return nil, nil, err
	}

	layout, err := layoutChannel(ctx, tx, channelID, nil)
	if err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return &b, layout, nil
}

func (s *PostgresStore) DeleteBlock(ctx context.Context, channelID, blockID string) (*ChannelLayout, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := lockChannel(ctx, tx, channelID); err != nil {
		return nil, err
	}

	res, err := tx.Exec(ctx, `
        DELETE FROM channel_blocks
        WHERE id = $1 AND channel_id = $2
    `, blockID, channelID)
	if err != nil {
		return nil, err
	}
	if res.RowsAffected() == 0 {
		return nil, ErrNotFound
	}

	layout, err := layoutChannel(ctx, tx, channelID, nil)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *PostgresStore) RecomputeOffsets(ctx context.Context, channelID string, order []string) (*ChannelLayout, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	if _, err := lockChannel(ctx, tx, channelID); err != nil {
		return nil, err
	}
	if order == nil {
		order = []string{}
	}
	layout, err := layoutChannel(ctx, tx, channelID, order)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *PostgresStore) SetBlockDuration(ctx context.Context, blockID string, seconds float64) (*ChannelLayout, error) {
	if !validDuration(seconds) {
		return nil, ErrInvalidDuration
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var channelID string
	err = tx.QueryRow(ctx, `
        SELECT channel_id FROM channel_blocks WHERE id = $1
    `, blockID).Scan(&channelID)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, err := lockChannel(ctx, tx, channelID); err != nil {
		return nil, err
	}
	if _, err := tx.Exec(ctx, `
        UPDATE channel_blocks SET duration_seconds = $2 WHERE id = $1
    `, blockID, seconds); err != nil {
		return nil, err
	}

	layout, err := layoutChannel(ctx, tx, channelID, nil)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return layout, nil
}

func (s *PostgresStore) TotalDuration(ctx context.Context, blockIDs []string) (float64, error) {
	if len(blockIDs) == 0 {
		return 0, nil
	}
	if id, dup := duplicateID(blockIDs); dup {
		return 0, fmt.Errorf("%w: %s", ErrDuplicateBlock, id)
	}
	rows, err := s.db.Query(ctx, `
        SELECT id, duration_seconds
        FROM channel_blocks
        WHERE id = ANY($1::uuid[])
    `, blockIDs)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	durations := make(map[string]float64, len(blockIDs))
	for rows.Next() {
		var id string
		var d float64
		if err := rows.Scan(&id, &d); err != nil {
			return 0, err
		}
		durations[id] = d
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}
	return TotalDuration(blockIDs, durations)
}

func (s *PostgresStore) PurgeBlocks(ctx context.Context, ref BlockRef, id string) ([]ChannelLayout, error) {
	if ref != RefResource && ref != RefScene {
		return nil, fmt.Errorf("purge blocks: unknown reference %q", ref)
	}

	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Channels are locked before their blocks, like every other mutation.
	// Ordering by timeline then channel keeps concurrent purges from
	// taking timeline locks in opposite orders.
	rows, err := tx.Query(ctx, `
        SELECT DISTINCT c.timeline_id, b.channel_id
        FROM channel_blocks b
        JOIN channels c ON c.id = b.channel_id
        WHERE b.`+string(ref)+` = $1
        ORDER BY c.timeline_id, b.channel_id
    `, id)
	if err != nil {
		return nil, err
	}
	var channels []string
	for rows.Next() {
		var timelineID, ch string
		if err := rows.Scan(&timelineID, &ch); err != nil {
			rows.Close()
			return nil, err
		}
		channels = append(channels, ch)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(channels) == 0 {
		return []ChannelLayout{}, nil
	}

	locked := channels[:0]
	for _, ch := range channels {
		_, err := lockChannel(ctx, tx, ch)
		if errors.Is(err, ErrNotFound) {
			// Deleted meanwhile, its blocks went with it.
			continue
		}
		if err != nil {
			return nil, err
		}
		locked = append(locked, ch)
	}
	channels = locked

	// Only channels locked above are touched; they are the ones re-laid.
	if _, err := tx.Exec(ctx, `
        DELETE FROM channel_blocks
        WHERE `+string(ref)+` = $1 AND channel_id = ANY($2::uuid[])
    `, id, channels); err != nil {
		return nil, err
	}

	layouts := make([]ChannelLayout, 0, len(channels))
	for _, ch := range channels {
		layout, err := layoutChannel(ctx, tx, ch, nil)
		if err != nil {
			return nil, err
		}
		layouts = append(layouts, *layout)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return layouts, nil
}

// lockChannel locks the channel row and its timeline row and returns the
// timeline id. The timeline lock serialises mutations of sibling channels,
// so the total recalculated later in the transaction sees every committed
// channel. Callers take it before reading any block.
func lockChannel(ctx context.Context, q querier, channelID string) (string, error) {
	var timelineID string
	err := q.QueryRow(ctx, `
        SELECT c.timeline_id
        FROM channels c
        JOIN timelines t ON t.id = c.timeline_id
        WHERE c.id = $1
        FOR UPDATE OF c, t
    `, channelID).Scan(&timelineID)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	return timelineID, err
}

// layoutChannel lays the channel's blocks out in order (the stored order
// when order is nil), persists offsets and positions and recalculates the
// timeline total. The caller holds the channel lock.
func layoutChannel(ctx context.Context, q querier, channelID string, order []string) (*ChannelLayout, error) {
	rows, err := q.Query(ctx, `
        SELECT id, duration_seconds
        FROM channel_blocks
        WHERE channel_id = $1
        ORDER BY position
        FOR UPDATE
    `, channelID)
	if err != nil {
		return nil, err
	}
	durations := make(map[string]float64)
	var stored []string
	for rows.Next() {
		var id string
		var d float64
		if err := rows.Scan(&id, &d); err != nil {
			rows.Close()
			return nil, err
		}
		durations[id] = d
		stored = append(stored, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if order == nil {
		order = stored
	}
	placements, total, err := LayoutBlocks(order, durations)
	if err != nil {
		return nil, err
	}
	if len(placements) != len(durations) {
		return nil, fmt.Errorf("%w: got %d of %d blocks", ErrIncompleteOrder, len(placements), len(durations))
	}

	for _, p := range placements {
		if _, err := q.Exec(ctx, `
            UPDATE channel_blocks
            SET position = $2, offset_seconds = $3
            WHERE id = $1
        `, p.BlockID, p.Position, p.Offset); err != nil {
			return nil, err
		}
	}

	var td TimelineDuration
	err = q.QueryRow(ctx, `
        UPDATE timelines t
        SET total_duration = COALESCE((
            SELECT MAX(s.total) FROM (
                SELECT SUM(b.duration_seconds) AS total
                FROM channels c
                JOIN channel_blocks b ON b.channel_id = c.id
                WHERE c.timeline_id = t.id
                GROUP BY c.id
            ) s
        ), 0)
        WHERE t.id = (SELECT timeline_id FROM channels WHERE id = $1)
        RETURNING t.id, t.total_duration
    `, channelID).Scan(&td.TimelineID, &td.TotalDuration)
	if err != nil {
		return nil, err
	}

	return &ChannelLayout{
		ChannelID:     channelID,
		TimelineID:    td.TimelineID,
		Blocks:        placements,
		TotalDuration: total,
		Timeline:      &td,
	}, nil
}
