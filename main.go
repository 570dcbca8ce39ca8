package main

import (
	"analytics-go/src"
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	args := src.ParseArgs()

	if args.Version {
		log.Println(src.VersionLong())
		return
	} else if args.Help {
		flag.CommandLine.Usage()
		return
	}

	err := args.Validate()
	if err != nil {
		flag.CommandLine.Usage()
		log.Fatalln(err)
	}

	cfg, err := src.LoadConfig(args.ConfigPath)
	if err != nil {
		log.Fatalln(err)
	}
	cfg.Apply(args)

	// 初始化
	app, err := src.NewApp(args, cfg)
	if err != nil {
		log.Fatalln("app create error", err)
	}

	err = app.Open()
	if err != nil {
		log.Fatalln(err)
	}

	// 等待中断信号或流结束
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err = app.Run(ctx)

	app.Close()

	if err != nil {
		log.Println("app run error", err)
		os.Exit(1)
	}
}
