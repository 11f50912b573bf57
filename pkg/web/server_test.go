package web

import (
	"bufio"
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	collect "github.com/mpoegel/hikgrab/pkg/collect"
	schema "github.com/mpoegel/hikgrab/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	grpc "google.golang.org/grpc"
	insecure "google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/test/bufconn"
	wrapperspb "google.golang.org/protobuf/types/known/wrapperspb"
)

func TestHandleIndex(t *testing.T) {
	s, err := NewServer(Options{ImgDir: t.TempDir()})
	require.NoError(t, err)
	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `"/feed/0"`)

	resp, err = http.Get(ts.URL + "/?feed=7")
	require.NoError(t, err)
	body, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Contains(t, string(body), `"/feed/7"`)
}

func TestWriteEvent(t *testing.T) {
	s, err := NewServer(Options{})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	s.writeEvent(rec, "problem", "error", "line1\nline2")
	assert.Equal(t, "event: problem\ndata: <div class=\"problem\">line1\ndata: line2</div>\n\n", rec.Body.String())
	assert.True(t, rec.Flushed)
}

func TestImageURL(t *testing.T) {
	s := &Server{}
	assert.Equal(t, "http://host/image/a.jpg", s.imageURL("http://host/image/a.jpg"))

	s.opt.ImagePrefix = "http://host/image/"
	assert.Equal(t, "/image/a.jpg", s.imageURL("http://host/image/a.jpg"))
}

func TestHandleFeed(t *testing.T) {
	frames, err := collect.NewFrameServer(collect.Options{
		Addr:      "tcp://bufnet",
		ImgDir:    t.TempDir(),
		ProxyAddr: "http://localhost:8000/image",
	})
	require.NoError(t, err)
	lis := bufconn.Listen(1 << 20)
	go frames.Serve(lis)
	defer frames.Stop()

	dialer := grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
		return lis.DialContext(ctx)
	})

	s, err := NewServer(Options{CollectionAddr: "passthrough:///bufnet", ImagePrefix: "http://localhost:8000/image"})
	require.NoError(t, err)
	s.dialOpts = []grpc.DialOption{dialer}
	ts := httptest.NewServer(s.httpServer.Handler)
	defer ts.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/feed/0", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("content-type"))

	lines := make(chan string, 64)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
		close(lines)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet", grpc.WithTransportCredentials(insecure.NewCredentials()), dialer)
	require.NoError(t, err)
	defer conn.Close()
	client := schema.NewFrameServiceClient(conn)

	store := func() {
		storeCtx := schema.NewFrameContext(context.Background(), schema.FrameMeta{
			Name:      "HIKROBOT-IMG-0_1.jpg",
			Timestamp: time.Date(2023, time.November, 29, 10, 0, 1, 0, time.UTC),
			DeviceID:  "cam0",
		})
		_, err := client.StoreFrame(storeCtx, wrapperspb.Bytes([]byte("jpeg bytes")))
		require.NoError(t, err)
	}

	// the feed subscribes asynchronously, so keep storing until one arrives
	deadline := time.After(5 * time.Second)
	store()
	var data string
	for data == "" {
		select {
		case line, ok := <-lines:
			require.True(t, ok, "feed closed early")
			if line == "event: feed" {
				data = <-lines
			}
		case <-time.After(100 * time.Millisecond):
			store()
		case <-deadline:
			t.Fatal("no frame on the feed")
		}
	}

	assert.True(t, strings.HasPrefix(data, "data: <figure>"), data)
	assert.Contains(t, data, `src="/image/cam0/HIKROBOT-IMG-0_1.jpg"`)
	assert.Contains(t, data, "cam0.HIKROBOT-IMG-0_1.jpg captured 2023-11-29 10:00:01")
}
