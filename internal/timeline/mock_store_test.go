package timeline

import (
	"context"

	"github.com/stretchr/testify/mock"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) CreateTimeline(ctx context.Context, campaignID, name string) (*Timeline, error) {
	args := m.Called(ctx, campaignID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Timeline), args.Error(1)
}

func (m *MockStore) LoadTimeline(ctx context.Context, id string) (*Timeline, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Timeline), args.Error(1)
}

func (m *MockStore) DeleteTimeline(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockStore) CreateChannel(ctx context.Context, timelineID, name string) (*Channel, error) {
	args := m.Called(ctx, timelineID, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Channel), args.Error(1)
}

func (m *MockStore) TimelineBlocks(ctx context.Context, timelineID string) (map[string][]Block, error) {
	args := m.Called(ctx, timelineID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string][]Block), args.Error(1)
}

func (m *MockStore) ListBlocks(ctx context.Context, channelID string) ([]Block, error) {
	args := m.Called(ctx, channelID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Block), args.Error(1)
}

func (m *MockStore) AddBlock(ctx context.Context, channelID string, nb NewBlock) (*Block, *ChannelLayout, error) {
	args := m.Called(ctx, channelID, nb)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*Block), args.Get(1).(*ChannelLayout), args.Error(2)
}

func (m *MockStore) DeleteBlock(ctx context.Context, channelID, blockID string) (*ChannelLayout, error) {
	args := m.Called(ctx, channelID, blockID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChannelLayout), args.Error(1)
}

func (m *MockStore) RecomputeOffsets(ctx context.Context, channelID string, order []string) (*ChannelLayout, error) {
	args := m.Called(ctx, channelID, order)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChannelLayout), args.Error(1)
}

func (m *MockStore) SetBlockDuration(ctx context.Context, blockID string, seconds float64) (*ChannelLayout, error) {
	args := m.Called(ctx, blockID, seconds)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ChannelLayout), args.Error(1)
}

func (m *MockStore) TotalDuration(ctx context.Context, blockIDs []string) (float64, error) {
	args := m.Called(ctx, blockIDs)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockStore) PurgeBlocks(ctx context.Context, ref BlockRef, id string) ([]ChannelLayout, error) {
	args := m.Called(ctx, ref, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]ChannelLayout), args.Error(1)
}
