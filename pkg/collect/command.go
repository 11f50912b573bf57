package collect

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net"
	"strings"

	metrics "github.com/mpoegel/hikgrab/pkg/metrics"
	grpc "google.golang.org/grpc"
)

type Options struct {
	Addr        string
	ImgDir      string
	ProxyAddr   string
	MetricsAddr string
}

func Run(ctx context.Context, args []string) error {

	fs := flag.NewFlagSet("collect", flag.ExitOnError)
	opt := Options{}
	fs.StringVar(&opt.Addr, "l", "unix:///tmp/hikgrab.collector", "listen address")
	fs.StringVar(&opt.ImgDir, "d", ".", "directory in which to store frames")
	fs.StringVar(&opt.ProxyAddr, "proxy", "http://localhost:8000/image", "proxy that serves frames; using localhost will start a local proxy")
	fs.StringVar(&opt.MetricsAddr, "metrics", "", "serve prometheus metrics on this address")

	if err := fs.Parse(args); err != nil {
		return err
	}

	subCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var proxyServer *ProxyServer
	if strings.HasPrefix(opt.ProxyAddr, "http://localhost") {
		proxyServer = NewProxyServer(opt)
		go func() {
			if err := proxyServer.Start(); err != nil && !errors.Is(err, net.ErrClosed) {
				slog.Error("failed to start proxy server", "err", err)
				cancel()
			}
		}()
	}

	if opt.MetricsAddr != "" {
		go func() {
			if err := metrics.Serve(subCtx, opt.MetricsAddr); err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	server, err := NewFrameServer(opt)
	if err != nil {
		return err
	}

	go func() {
		<-subCtx.Done()
		server.Stop()
		if proxyServer != nil {
			proxyServer.Stop()
		}
	}()

	if err := server.Start(subCtx); err != nil && !errors.Is(err, grpc.ErrServerStopped) && !errors.Is(err, net.ErrClosed) {
		return err
	}
	return nil
}
