package camera

import (
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"google.golang.org/protobuf/proto"
	structpb "google.golang.org/protobuf/types/known/structpb"
)

const DefaultNATSSubject = "hikgrab.frames"

// NATSNotifier publishes a protobuf Struct per saved frame.
type NATSNotifier struct {
	nc      *nats.Conn
	subject string
}

func NewNATSNotifier(url, subject string) (*NATSNotifier, error) {
	nc, err := nats.Connect(url, nats.Name("hikgrab"))
	if err != nil {
		return nil, err
	}
	slog.Info("connected to nats", "url", url, "subject", subject)
	return &NATSNotifier{nc: nc, subject: subject}, nil
}

func (n *NATSNotifier) Notify(ev FrameEvent) error {
	data, err := encodeFrameEvent(ev)
	if err != nil {
		return err
	}
	return n.nc.Publish(n.subject, data)
}

func (n *NATSNotifier) Close() {
	if n.nc != nil {
		if err := n.nc.Drain(); err != nil {
			slog.Warn("failed to drain nats connection", "err", err)
		}
	}
}

func encodeFrameEvent(ev FrameEvent) ([]byte, error) {
	s, err := structpb.NewStruct(map[string]interface{}{
		"file":      ev.File,
		"index":     float64(ev.Index),
		"frame":     float64(ev.Frame),
		"timestamp": ev.Timestamp.Format(time.RFC3339),
		"width":     float64(ev.Width),
		"height":    float64(ev.Height),
		"device":    ev.DeviceID,
	})
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}
