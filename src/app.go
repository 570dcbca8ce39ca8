package src

import (
	"context"
	"fmt"
	"log"
	"time"

	"analytics-go/src/packages/analytics"
	"analytics-go/src/packages/broker"
	"analytics-go/src/packages/event"
	"analytics-go/src/packages/gstreamer"

	"golang.org/x/sync/errgroup"
)

const statsInterval = 10 * time.Second

type App struct {
	Args   Args
	Config Config

	allocator *event.BudgetAllocator
	lifecycle *event.Lifecycle

	broker *broker.Broker
	source analytics.Source
	gst    gstreamer.Gstreamer
}

func NewApp(args Args, cfg Config) (*App, error) {
	kind, err := broker.ParseAdaptorKind(args.ProtoLib)
	if err != nil {
		return nil, err
	}

	conn, err := broker.ParseConnStr(cfg.Broker.ConnStr)
	if err != nil {
		return nil, err
	}

	adaptorConfig := broker.AdaptorConfig{}
	if args.CfgFile != "" {
		adaptorConfig, err = broker.LoadAdaptorConfig(args.CfgFile)
		if err != nil {
			return nil, err
		}
	}

	topic, err := broker.ResolveTopic(args.Topic, conn, adaptorConfig)
	if err != nil {
		return nil, err
	}

	adaptor, err := broker.NewAdaptor(kind, conn, topic, adaptorConfig)
	if err != nil {
		return nil, err
	}

	return newApp(args, cfg, adaptor, topic)
}

func newApp(args Args, cfg Config, adaptor broker.Adaptor, topic string) (*App, error) {
	var trackerProps []gstreamer.Property
	if cfg.TrackerConfigFile != "" {
		props, err := gstreamer.LoadTrackerProperties(cfg.TrackerConfigFile)
		if err != nil {
			return nil, err
		}
		trackerProps = props
	}

	graph, err := gstreamer.NewAnalyticsPipeline(gstreamer.AnalyticsOptions{
		InputFile:           args.InputFile,
		MuxerWidth:          cfg.Muxer.Width,
		MuxerHeight:         cfg.Muxer.Height,
		InferConfigFile:     cfg.InferConfigFile,
		AnalyticsConfigFile: cfg.AnalyticsConfigFile,
		TrackerProperties:   trackerProps,
		NoDisplay:           args.NoDisplay,
	})
	if err != nil {
		return nil, err
	}

	allocator := event.NewBudgetAllocator(cfg.Event.BudgetBytes)
	lifecycle := event.NewLifecycle(allocator)

	a := &App{
		Args:   args,
		Config: cfg,

		allocator: allocator,
		lifecycle: lifecycle,

		broker: broker.NewBroker(
			lifecycle,
			adaptor,
			topic,
			broker.ParseSchema(args.SchemaType),
			cfg.Broker.QueueSize,
		),
		source: analytics.NewSource(cfg.SocketPath, analytics.NewProbe(lifecycle, cfg.SensorID)),
		gst:    gstreamer.NewGstreamer(graph, cfg.SocketPath),
	}

	// records are owned by the broker once the frame leaves the probe
	a.source.OnFrame = func(f *analytics.FrameMeta) {
		a.broker.Consume(f.Detach()...)
	}

	return a, nil
}

func (a *App) Open() error {
	log.Println("app open", VersionShort(), "topic", a.broker.Topic())

	err := a.broker.Open()
	if err != nil {
		return fmt.Errorf("app open broker: %w", err)
	}

	err = a.source.Open()
	if err != nil {
		a.broker.Close()
		return fmt.Errorf("app open analytics source: %w", err)
	}

	log.Println("app pipeline", a.gst.CommandLine())

	err = a.gst.Open()
	if err != nil {
		a.source.Close()
		a.broker.Close()
		return fmt.Errorf("app open pipeline: %w", err)
	}

	return nil
}

// Run blocks until ctx is done or the pipeline ends
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()

		select {
		case <-a.gst.Done():
			err := a.gst.Err()
			if err != nil {
				return fmt.Errorf("app pipeline exit: %w", err)
			}
			log.Println("app pipeline end of stream")
			return nil
		case <-ctx.Done():
			return nil
		}
	})

	g.Go(func() error {
		t := time.NewTicker(statsInterval)
		defer t.Stop()

		for {
			select {
			case <-ctx.Done():
				return nil
			case <-t.C:
				a.logStats()
			}
		}
	})

	return g.Wait()
}

func (a *App) logStats() {
	s := a.broker.Stats()
	log.Println(
		"app stats published", s.Published,
		"failed", s.Failed,
		"dropped", s.Dropped,
		"event bytes", a.allocator.InUse(),
		"of", a.allocator.Limit(),
	)
}

func (a *App) Close() {
	// pipeline first so no frame arrives at a closed broker
	a.gst.Close()
	a.source.Close()
	a.broker.Close()

	a.logStats()
}
