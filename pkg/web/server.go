package web

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	schema "github.com/mpoegel/hikgrab/pkg/schema"
	grpc "google.golang.org/grpc"
	insecure "google.golang.org/grpc/credentials/insecure"
	emptypb "google.golang.org/protobuf/types/known/emptypb"
)

//go:embed views/*.html
var views embed.FS

type Server struct {
	opt        Options
	httpServer *http.Server
	plate      *template.Template

	// extra options for the collector connection
	dialOpts []grpc.DialOption
}

type IndexView struct {
	FeedID string
}

type FeedView struct {
	URL       string
	Timestamp time.Time
	ID        string
}

func NewServer(opt Options) (*Server, error) {
	plate, err := loadTemplates()
	if err != nil {
		return nil, err
	}

	r := mux.NewRouter()
	s := &Server{
		opt:   opt,
		plate: plate,
		httpServer: &http.Server{
			Addr:        opt.Addr,
			ReadTimeout: 5 * time.Second,
			Handler:     r,
		},
	}

	r.HandleFunc("/", s.HandleIndex).Methods(http.MethodGet)
	r.HandleFunc("/feed/{feedID}", s.HandleFeed).Methods(http.MethodGet)
	r.PathPrefix("/image/").Handler(http.StripPrefix("/image", http.FileServer(http.Dir(opt.ImgDir)))).Methods(http.MethodGet)

	return s, nil
}

func (s *Server) Start() error {
	slog.Info("starting server", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Stop() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Second)
	defer cancel()
	s.httpServer.Shutdown(ctx)
}

func (s *Server) HandleIndex(w http.ResponseWriter, r *http.Request) {
	view := IndexView{FeedID: r.URL.Query().Get("feed")}
	if view.FeedID == "" {
		view.FeedID = "0"
	}
	if err := s.plate.ExecuteTemplate(w, "IndexView", view); err != nil {
		slog.Error("failed to execute index template", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

func (s *Server) HandleFeed(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("content-type", "text/event-stream")
	w.Header().Set("cache-control", "no-cache")
	w.Header().Set("connection", "keep-alive")
	flusher.Flush()

	feedID := mux.Vars(r)["feedID"]
	slog.Info("got request for feed", "feedID", feedID)

	opts := append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, s.dialOpts...)
	conn, err := grpc.NewClient(s.opt.CollectionAddr, opts...)
	if err != nil {
		s.writeEvent(w, "problem", "error", err.Error())
		return
	}
	defer conn.Close()

	client := schema.NewFrameServiceClient(conn)
	stream, err := client.LiveStream(r.Context(), &emptypb.Empty{})
	if err != nil {
		s.writeEvent(w, "problem", "error", err.Error())
		return
	}

	for {
		msg, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			s.writeEvent(w, "problem", "error", "feed ended")
			return
		} else if err != nil {
			if r.Context().Err() == nil {
				s.writeEvent(w, "problem", "error", err.Error())
			}
			return
		}

		frame, err := schema.LiveFrameFromStruct(msg)
		if err != nil {
			slog.Warn("bad live frame", "err", err)
			continue
		}
		s.writeEvent(w, "feed", "feed", FeedView{
			URL:       s.imageURL(frame.URL),
			Timestamp: frame.Timestamp,
			ID:        frame.ID,
		})
		flusher.Flush()
	}
}

// imageURL points frames announced under ImagePrefix at this server's /image/.
func (s *Server) imageURL(url string) string {
	if s.opt.ImagePrefix == "" {
		return url
	}
	return strings.Replace(url, strings.TrimSuffix(s.opt.ImagePrefix, "/"), "/image", 1)
}

// writeEvent renders one server-sent event. Every line of the rendered
// template gets its own data field.
func (s *Server) writeEvent(w io.Writer, event, name string, data any) {
	var buf bytes.Buffer
	if err := s.plate.ExecuteTemplate(&buf, name, data); err != nil {
		slog.Error("failed to execute template", "template", name, "err", err)
		return
	}
	fmt.Fprintf(w, "event: %s\n", event)
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		fmt.Fprintf(w, "data: %s\n", line)
	}
	fmt.Fprint(w, "\n")
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

func loadTemplates() (*template.Template, error) {
	return template.New("").ParseFS(views, "views/*.html")
}
