package camera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	imaging "github.com/mpoegel/hikgrab/pkg/imaging"
	schema "github.com/mpoegel/hikgrab/pkg/schema"
	grpc "google.golang.org/grpc"
	insecure "google.golang.org/grpc/credentials/insecure"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	DefaultDestination = "file://."

	// MaxFrameMessageSize bounds one encoded frame on the wire.
	MaxFrameMessageSize = 64 << 20
)

// ImageSaver persists one encoded frame under name.
type ImageSaver interface {
	Save(name string, jpeg []byte, ts time.Time) error
	Close()
}

// NewImageSaver picks a saver from a destination such as file:///data,
// tcp://collector:9000 or unix:///tmp/hikgrab.collector.
func NewImageSaver(ctx context.Context, deviceID, destination string) (ImageSaver, error) {
	splitKey := "://"
	splitIndex := strings.Index(destination, splitKey)
	if splitIndex == -1 {
		return nil, fmt.Errorf("invalid destination: %s", destination)
	}
	saveType := destination[:splitIndex]
	saveDest := destination[splitIndex+len(splitKey):]

	switch saveType {
	case "file":
		if saveDest == "" {
			saveDest = "."
		}
		return &FileImageSaver{Dir: saveDest}, nil
	case "tcp":
		fallthrough
	case "unix":
		return &RemoteImageSaver{Network: saveType, Address: saveDest, Ctx: ctx, DeviceID: deviceID}, nil
	default:
		return nil, errors.New("invalid destination types")
	}
}

type FileImageSaver struct {
	Dir string
}

func (s *FileImageSaver) Save(name string, jpeg []byte, ts time.Time) error {
	return imaging.WriteFile(s.Dir, name, jpeg)
}

func (s *FileImageSaver) Close() {}

// RemoteImageSaver ships frames to a collector over gRPC.
type RemoteImageSaver struct {
	Network  string
	Address  string
	Ctx      context.Context
	DeviceID string
	// DialOptions are appended to the default insecure transport.
	DialOptions []grpc.DialOption

	mu     sync.Mutex
	conn   *grpc.ClientConn
	client schema.FrameServiceClient
}

func (s *RemoteImageSaver) Save(name string, jpeg []byte, ts time.Time) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(s.Ctx, 1*time.Second)
	defer cancel()
	ctx = schema.NewFrameContext(ctx, schema.FrameMeta{Name: name, Timestamp: ts, DeviceID: s.DeviceID})

	if _, err := client.StoreFrame(ctx, wrapperspb.Bytes(jpeg)); err != nil {
		return err
	}

	slog.Debug("image stored remotely", "file", name, "addr", s.Address)
	return nil
}

func (s *RemoteImageSaver) getClient() (schema.FrameServiceClient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client != nil {
		return s.client, nil
	}

	opts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.MaxCallSendMsgSize(MaxFrameMessageSize)),
	}, s.DialOptions...)

	conn, err := grpc.NewClient(s.getTarget(), opts...)
	if err != nil {
		return nil, err
	}
	s.conn = conn
	s.client = schema.NewFrameServiceClient(conn)

	return s.client, nil
}

func (s *RemoteImageSaver) getTarget() string {
	if s.Network == "unix" {
		return fmt.Sprintf("unix://%s", s.Address)
	}
	return s.Address
}

func (s *RemoteImageSaver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.client = nil
	}
}
