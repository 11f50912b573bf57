package schema

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	metadata "google.golang.org/grpc/metadata"
)

func TestFrameMetaRoundTrip(t *testing.T) {
	want := FrameMeta{
		Name:      "HIKROBOT-IMG-4_5.jpg",
		Timestamp: time.Date(2023, time.November, 29, 10, 0, 1, 0, time.UTC),
		DeviceID:  "00D12345678",
	}

	out := NewFrameContext(context.Background(), want)
	md, ok := metadata.FromOutgoingContext(out)
	require.True(t, ok)

	got, err := FrameMetaFromContext(metadata.NewIncomingContext(context.Background(), md))
	require.NoError(t, err)
	assert.Equal(t, want.Name, got.Name)
	assert.Equal(t, want.DeviceID, got.DeviceID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}

func TestFrameMetaMissing(t *testing.T) {
	_, err := FrameMetaFromContext(context.Background())
	assert.ErrorIs(t, err, ErrMissingMetadata)

	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs(mdTimestamp, "2023-11-29T10:00:01Z"))
	_, err = FrameMetaFromContext(ctx)
	assert.ErrorIs(t, err, ErrMissingMetadata)

	ctx = metadata.NewIncomingContext(context.Background(), metadata.Pairs(mdFrameName, "a.jpg", mdTimestamp, "yesterday"))
	_, err = FrameMetaFromContext(ctx)
	assert.ErrorIs(t, err, ErrMissingMetadata)
}

func TestLiveFrameStruct(t *testing.T) {
	want := LiveFrame{
		URL:       "http://localhost:8000/image/HIKROBOT-IMG-0_1.jpg",
		Timestamp: time.Date(2023, time.November, 29, 10, 0, 1, 0, time.UTC),
		ID:        "cam0.HIKROBOT-IMG-0_1.jpg",
	}

	s, err := want.Struct()
	require.NoError(t, err)

	got, err := LiveFrameFromStruct(s)
	require.NoError(t, err)
	assert.Equal(t, want.URL, got.URL)
	assert.Equal(t, want.ID, got.ID)
	assert.True(t, want.Timestamp.Equal(got.Timestamp))
}
