package collect

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	imaging "github.com/mpoegel/hikgrab/pkg/imaging"
	metrics "github.com/mpoegel/hikgrab/pkg/metrics"
	schema "github.com/mpoegel/hikgrab/pkg/schema"
	grpc "google.golang.org/grpc"
	codes "google.golang.org/grpc/codes"
	status "google.golang.org/grpc/status"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

const maxFrameMessageSize = 64 << 20

// FrameServer stores frames sent by remote cameras and announces them on
// the live stream.
type FrameServer struct {
	schema.UnimplementedFrameServiceServer

	opt Options

	fullAddr string
	network  string
	addr     string

	ln         net.Listener
	grpcServer *grpc.Server
	liveBroker *Broker[*StoredFrame]
}

type StoredFrame struct {
	URL       string
	Timestamp time.Time
	ID        string
}

func NewFrameServer(opt Options) (*FrameServer, error) {
	s := &FrameServer{
		opt:        opt,
		fullAddr:   opt.Addr,
		liveBroker: NewBroker[*StoredFrame](),
	}

	splitKey := "://"
	splitIndex := strings.Index(opt.Addr, splitKey)
	if splitIndex == -1 {
		return nil, errors.New("invalid server address")
	}
	s.network = opt.Addr[:splitIndex]
	s.addr = opt.Addr[splitIndex+len(splitKey):]

	s.grpcServer = grpc.NewServer(grpc.MaxRecvMsgSize(maxFrameMessageSize))
	schema.RegisterFrameServiceServer(s.grpcServer, s)

	return s, nil
}

func (s *FrameServer) Start(ctx context.Context) error {
	lnConfig := net.ListenConfig{}

	if s.network == "unix" {
		// stale socket from a previous run
		if err := os.Remove(s.addr); err != nil && !errors.Is(err, os.ErrNotExist) {
			return err
		}
	}

	ln, err := lnConfig.Listen(ctx, s.network, s.addr)
	if err != nil {
		return err
	}
	slog.Info("listening", "addr", s.fullAddr)

	return s.Serve(ln)
}

// Serve blocks serving gRPC on ln until Stop.
func (s *FrameServer) Serve(ln net.Listener) error {
	s.ln = ln
	go s.liveBroker.Start()
	return s.grpcServer.Serve(ln)
}

func (s *FrameServer) Stop() {
	s.liveBroker.Stop()
	s.grpcServer.Stop()
}

func (s *FrameServer) StoreFrame(ctx context.Context, req *wrapperspb.BytesValue) (*emptypb.Empty, error) {
	meta, err := schema.FrameMetaFromContext(ctx)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	slog.Info("got store frame request", "file", meta.Name, "device", meta.DeviceID, "timestamp", meta.Timestamp)

	if err := validName(meta.Name); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	device, err := deviceDir(meta.DeviceID)
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	if len(req.GetValue()) == 0 {
		return nil, status.Error(codes.InvalidArgument, "empty frame")
	}

	// cameras all count from 0, so each device gets its own directory
	dir := filepath.Join(s.opt.ImgDir, device)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		slog.Warn("could not create device directory", "dir", dir, "err", err)
		return nil, status.Error(codes.Internal, "could not save frame")
	}
	if err := imaging.WriteFile(dir, meta.Name, req.GetValue()); err != nil {
		slog.Warn("could not save frame", "file", meta.Name, "device", device, "err", err)
		return nil, status.Error(codes.Internal, "could not save frame")
	}
	metrics.FramesStored.Inc()

	frame := &StoredFrame{
		URL:       fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.opt.ProxyAddr, "/"), url.PathEscape(device), meta.Name),
		Timestamp: meta.Timestamp,
		ID:        fmt.Sprintf("%s.%s", meta.DeviceID, meta.Name),
	}
	s.liveBroker.Broadcast(frame)
	slog.Debug("frame broadcasted", "id", frame.ID)

	return &emptypb.Empty{}, nil
}

const unknownDevice = "unknown"

// deviceDir names the directory holding one device's frames.
func deviceDir(deviceID string) (string, error) {
	if deviceID == "" {
		return unknownDevice, nil
	}
	if deviceID == "." || deviceID == ".." || filepath.Base(deviceID) != deviceID || strings.ContainsAny(deviceID, `/\`) {
		return "", fmt.Errorf("invalid device id %q", deviceID)
	}
	return deviceID, nil
}

func validName(name string) error {
	if name == "" || name == "." || name == ".." || filepath.Base(name) != name || strings.ContainsAny(name, `/\`) {
		return fmt.Errorf("invalid frame name %q", name)
	}
	if !strings.EqualFold(filepath.Ext(name), ".jpg") {
		return fmt.Errorf("frame name %q is not a .jpg", name)
	}
	return nil
}

func (s *FrameServer) LiveStream(req *emptypb.Empty, stream schema.FrameService_LiveStreamServer) error {
	c := s.liveBroker.Subscribe()
	if c == nil {
		return status.Error(codes.Unavailable, "subscription unavailable")
	}
	defer s.liveBroker.Unsubscribe(c)

	for {
		select {
		case <-stream.Context().Done():
			return nil
		case frame, ok := <-c:
			if !ok || frame == nil {
				return nil
			}
			msg, err := schema.LiveFrame{URL: frame.URL, Timestamp: frame.Timestamp, ID: frame.ID}.Struct()
			if err != nil {
				return err
			}
			if err := stream.Send(msg); err != nil {
				return nil
			}
			slog.Debug("live stream updated", "id", frame.ID)
		}
	}
}
