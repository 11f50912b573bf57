// Package schema holds the gRPC contract between cameras and the collector.
// Messages are protobuf well-known types; per-frame attributes ride in
// metadata so the payload stays a plain byte string.
package schema

import (
	"context"
	"errors"
	"fmt"
	"time"

	metadata "google.golang.org/grpc/metadata"
	structpb "google.golang.org/protobuf/types/known/structpb"
)

const (
	mdFrameName = "x-frame-name"
	mdTimestamp = "x-frame-timestamp"
	mdDeviceID  = "x-device-id"
)

var ErrMissingMetadata = errors.New("missing frame metadata")

type FrameMeta struct {
	Name      string
	Timestamp time.Time
	DeviceID  string
}

func NewFrameContext(ctx context.Context, meta FrameMeta) context.Context {
	return metadata.AppendToOutgoingContext(ctx,
		mdFrameName, meta.Name,
		mdTimestamp, meta.Timestamp.Format(time.RFC3339Nano),
		mdDeviceID, meta.DeviceID,
	)
}

func FrameMetaFromContext(ctx context.Context) (FrameMeta, error) {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return FrameMeta{}, ErrMissingMetadata
	}

	first := func(key string) string {
		if v := md.Get(key); len(v) > 0 {
			return v[0]
		}
		return ""
	}

	meta := FrameMeta{
		Name:     first(mdFrameName),
		DeviceID: first(mdDeviceID),
	}
	if meta.Name == "" {
		return meta, fmt.Errorf("%w: %s", ErrMissingMetadata, mdFrameName)
	}

	ts, err := time.Parse(time.RFC3339Nano, first(mdTimestamp))
	if err != nil {
		return meta, fmt.Errorf("%w: %s: %v", ErrMissingMetadata, mdTimestamp, err)
	}
	meta.Timestamp = ts

	return meta, nil
}

// LiveFrame announces a stored frame on the live stream.
type LiveFrame struct {
	URL       string
	Timestamp time.Time
	ID        string
}

func (f LiveFrame) Struct() (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		"url":       f.URL,
		"timestamp": f.Timestamp.Format(time.RFC3339Nano),
		"id":        f.ID,
	})
}

func LiveFrameFromStruct(s *structpb.Struct) (LiveFrame, error) {
	fields := s.GetFields()
	f := LiveFrame{
		URL: fields["url"].GetStringValue(),
		ID:  fields["id"].GetStringValue(),
	}
	ts, err := time.Parse(time.RFC3339Nano, fields["timestamp"].GetStringValue())
	if err != nil {
		return f, fmt.Errorf("live frame timestamp: %w", err)
	}
	f.Timestamp = ts
	return f, nil
}
