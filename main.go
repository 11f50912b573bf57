package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	camera "github.com/mpoegel/hikgrab/pkg/camera"
	cleanup "github.com/mpoegel/hikgrab/pkg/cleanup"
	collect "github.com/mpoegel/hikgrab/pkg/collect"
	web "github.com/mpoegel/hikgrab/pkg/web"
)

func init() {
	slog.SetLogLoggerLevel(slog.LevelDebug)
}

func main() {
	quiet := flag.Bool("q", false, "log at info level")
	flag.Parse()
	args := flag.Args()

	if *quiet {
		slog.SetLogLoggerLevel(slog.LevelInfo)
	}

	if len(args) < 1 {
		fmt.Println("missing command: [camera, devices, cleanup, collect, web]")
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		slog.Info("stopping")
		cancel()
	}()

	var err error
	switch args[0] {
	case "camera":
		err = camera.Run(ctx, args[1:])
	case "devices":
		err = camera.RunDevices(ctx, args[1:])
	case "cleanup":
		err = cleanup.Run(ctx, args[1:])
	case "collect":
		err = collect.Run(ctx, args[1:])
	case "web":
		err = web.Run(ctx, args[1:])
	default:
		err = fmt.Errorf("unknown command: %s", args[0])
	}

	if err != nil {
		slog.Error("command failed", "err", err)
		os.Exit(1)
	}
}
