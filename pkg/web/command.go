package web

import (
	"context"
	"flag"
)

type Options struct {
	Addr           string
	ImgDir         string
	CollectionAddr string
	ImagePrefix    string
}

func Run(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("web", flag.ExitOnError)
	opt := Options{}

	fs.StringVar(&opt.Addr, "l", ":8080", "listen address")
	fs.StringVar(&opt.ImgDir, "d", ".", "directory served under /image/")
	fs.StringVar(&opt.CollectionAddr, "collection", "unix:///tmp/hikgrab.collector", "address of the collector")
	fs.StringVar(&opt.ImagePrefix, "image-prefix", "", "serve frame urls starting with this prefix from -d instead")

	if err := fs.Parse(args); err != nil {
		return err
	}

	server, err := NewServer(opt)
	if err != nil {
		return err
	}

	go func() {
		<-ctx.Done()
		server.Stop()
	}()

	return server.Start()
}
