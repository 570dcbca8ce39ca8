package gstreamer

import (
	"fmt"
	"runtime"
)

const (
	MuxerOutputWidth     uint = 1920
	MuxerOutputHeight    uint = 1080
	MuxerBatchSize       uint = 1
	MuxerBatchedPushUsec uint = 40000
)

const AnalyticsElementName = "analytics"

type AnalyticsOptions struct {
	InputFile string

	MuxerWidth  uint
	MuxerHeight uint

	InferConfigFile     string
	AnalyticsConfigFile string

	// set on the tracker as is, see LoadTrackerProperties
	TrackerProperties []Property

	NoDisplay bool

	// defaults to runtime.GOARCH
	Arch string
}

// NewAnalyticsPipeline builds
//
//	filesrc ! h264parse ! nvv4l2decoder ! nvstreammux ! nvinfer ! nvtracker
//	! nvdsanalytics ! nvvideoconvert ! nvdsosd ! tee
//
// with one tee branch for the event path and one for rendering
func NewAnalyticsPipeline(o AnalyticsOptions) (*Graph, error) {
	if o.InputFile == "" {
		return nil, fmt.Errorf("gstreamer input file required")
	}
	if o.MuxerWidth == 0 {
		o.MuxerWidth = MuxerOutputWidth
	}
	if o.MuxerHeight == 0 {
		o.MuxerHeight = MuxerOutputHeight
	}
	if o.Arch == "" {
		o.Arch = runtime.GOARCH
	}

	g := NewGraph()

	add := func(factory string, name string) *Element {
		e, err := g.Add(factory, name)
		if err != nil {
			// names below are fixed and unique
			panic(err)
		}
		return e
	}

	add("filesrc", "file-source").Set("location", o.InputFile)
	add("h264parse", "h264-parser")
	add("nvv4l2decoder", "nvv4l2-decoder")
	add("nvstreammux", "stream-muxer").
		Set("width", o.MuxerWidth).
		Set("height", o.MuxerHeight).
		Set("batch-size", MuxerBatchSize).
		Set("batched-push-timeout", MuxerBatchedPushUsec)

	pgie := add("nvinfer", "primary-inference")
	if o.InferConfigFile != "" {
		pgie.Set("config-file-path", o.InferConfigFile)
	}

	tracker := add("nvtracker", "tracker")
	for _, p := range o.TrackerProperties {
		tracker.Set(p.Name, p.Value)
	}

	analytics := add("nvdsanalytics", AnalyticsElementName)
	if o.AnalyticsConfigFile != "" {
		analytics.Set("config-file", o.AnalyticsConfigFile)
	}

	add("nvvideoconvert", "convertor")
	add("nvdsosd", "onscreendisplay")
	add("tee", "nvsink-tee")
	add("queue", "nvtee-que1")
	add("queue", "nvtee-que2")
	add("fakesink", "event-sink").Set("sync", false).Set("async", false)

	render := []string{"nvtee-que2"}
	if o.NoDisplay {
		add("fakesink", "fakesink")
		render = append(render, "fakesink")
	} else {
		if o.Arch == "arm64" {
			add("nvegltransform", "nvegl-transform")
			render = append(render, "nvegl-transform")
		}
		add("nveglglessink", "nvvideo-renderer")
		render = append(render, "nvvideo-renderer")
	}

	links := []func() error{
		func() error { return g.LinkMany("file-source", "h264-parser", "nvv4l2-decoder") },
		func() error { return g.LinkPads("nvv4l2-decoder", "src", "stream-muxer", "sink_0") },
		func() error {
			return g.LinkMany(
				"stream-muxer", "primary-inference", "tracker", AnalyticsElementName,
				"convertor", "onscreendisplay", "nvsink-tee",
			)
		},
		func() error { return g.LinkPads("nvsink-tee", "src_%u", "nvtee-que1", "sink") },
		func() error { return g.LinkPads("nvsink-tee", "src_%u", "nvtee-que2", "sink") },
		func() error { return g.LinkMany("nvtee-que1", "event-sink") },
		func() error { return g.LinkMany(render...) },
	}
	for _, l := range links {
		err := l()
		if err != nil {
			return nil, err
		}
	}

	return g, nil
}
