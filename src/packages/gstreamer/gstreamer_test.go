package gstreamer

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"analytics-go/src/libs/exec"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph(t *testing.T) {
	t.Run("should render graph right", func(t *testing.T) {
		g := NewGraph()

		src, err := g.Add("videotestsrc", "src")
		require.NoError(t, err)
		src.Set("num-buffers", 10).Set("is-live", true)

		_, err = g.Add("tee", "t")
		require.NoError(t, err)
		_, err = g.Add("fakesink", "sink")
		require.NoError(t, err)

		require.NoError(t, g.LinkMany("src", "t"))
		require.NoError(t, g.LinkPads("t", "src_%u", "sink", "sink"))

		assert.Equal(t,
			"videotestsrc name=src num-buffers=10 is-live=true tee name=t fakesink name=sink src. ! t. t. ! sink.sink",
			g.String(),
		)
	})

	t.Run("should overwrite property", func(t *testing.T) {
		g := NewGraph()
		e, err := g.Add("queue", "q")
		require.NoError(t, err)

		e.Set("leaky", 1).Set("leaky", 2)
		v, ok := e.Get("leaky")
		assert.True(t, ok)
		assert.Equal(t, "2", v)
		assert.Len(t, e.Properties(), 1)
	})

	t.Run("should refuse bad elements", func(t *testing.T) {
		g := NewGraph()
		_, err := g.Add("queue", "q")
		require.NoError(t, err)

		_, err = g.Add("queue", "q")
		assert.Error(t, err)
		_, err = g.Add("", "x")
		assert.Error(t, err)
		assert.Error(t, g.LinkMany("q", "missing"))
	})
}

func TestNewAnalyticsPipeline(t *testing.T) {
	t.Run("should build display pipeline right", func(t *testing.T) {
		g, err := NewAnalyticsPipeline(AnalyticsOptions{
			InputFile:           "/data/sample_720p.h264",
			InferConfigFile:     "dstest4_pgie_config.txt",
			AnalyticsConfigFile: "config_nvdsanalytics.txt",
			TrackerProperties: []Property{
				{Name: "tracker-width", Value: "640"},
				{Name: "ll-lib-file", Value: "/opt/libnvds_nvmultiobjecttracker.so"},
			},
			Arch: "arm64",
		})
		require.NoError(t, err)

		line := g.String()
		assert.Contains(t, line, "filesrc name=file-source location=/data/sample_720p.h264")
		assert.Contains(t, line, "nvstreammux name=stream-muxer width=1920 height=1080 batch-size=1 batched-push-timeout=40000")
		assert.Contains(t, line, "nvinfer name=primary-inference config-file-path=dstest4_pgie_config.txt")
		assert.Contains(t, line, "nvtracker name=tracker tracker-width=640 ll-lib-file=/opt/libnvds_nvmultiobjecttracker.so")
		assert.Contains(t, line, "nvdsanalytics name=analytics config-file=config_nvdsanalytics.txt")
		assert.Contains(t, line, "nvv4l2-decoder.src ! stream-muxer.sink_0")
		assert.Contains(t, line, "tracker. ! analytics.")
		assert.Contains(t, line, "nvtee-que2. ! nvegl-transform.")
		assert.Contains(t, line, "nvegl-transform. ! nvvideo-renderer.")
		assert.Nil(t, g.Element("fakesink"))
	})

	t.Run("should build headless pipeline right", func(t *testing.T) {
		g, err := NewAnalyticsPipeline(AnalyticsOptions{
			InputFile: "a.h264",
			NoDisplay: true,
			Arch:      "amd64",
		})
		require.NoError(t, err)

		assert.NotNil(t, g.Element("fakesink"))
		assert.Nil(t, g.Element("nvvideo-renderer"))
		assert.Nil(t, g.Element("nvegl-transform"))
		assert.Contains(t, g.String(), "nvtee-que2. ! fakesink.")
	})

	t.Run("should require input file", func(t *testing.T) {
		_, err := NewAnalyticsPipeline(AnalyticsOptions{})
		assert.Error(t, err)
	})
}

func TestLoadTrackerProperties(t *testing.T) {
	dir := t.TempDir()

	t.Run("should load tracker section right", func(t *testing.T) {
		path := filepath.Join(dir, "tracker.txt")
		err := os.WriteFile(path, []byte(`[tracker]
tracker-width=640
tracker-height=384
gpu-id=0
ll-lib-file=/opt/nvidia/deepstream/lib/libnvds_nvmultiobjecttracker.so
ll-config-file=config_tracker_NvDCF_perf.yml
enable-batch-process=1
enable-past-frame=1
display-tracking-id=1
`), 0644)
		require.NoError(t, err)

		props, err := LoadTrackerProperties(path)
		require.NoError(t, err)

		assert.Equal(t, []Property{
			{Name: "tracker-width", Value: "640"},
			{Name: "tracker-height", Value: "384"},
			{Name: "gpu_id", Value: "0"},
			{Name: "ll-lib-file", Value: "/opt/nvidia/deepstream/lib/libnvds_nvmultiobjecttracker.so"},
			{Name: "ll-config-file", Value: "config_tracker_NvDCF_perf.yml"},
			{Name: "enable_batch_process", Value: "1"},
			{Name: "enable_past_frame", Value: "1"},
		}, props)
	})

	t.Run("should refuse bad integer", func(t *testing.T) {
		path := filepath.Join(dir, "bad.txt")
		err := os.WriteFile(path, []byte("[tracker]\ntracker-width=wide\n"), 0644)
		require.NoError(t, err)

		_, err = LoadTrackerProperties(path)
		assert.Error(t, err)
	})

	t.Run("should refuse missing section", func(t *testing.T) {
		path := filepath.Join(dir, "empty.txt")
		err := os.WriteFile(path, []byte("[other]\nkey=1\n"), 0644)
		require.NoError(t, err)

		_, err = LoadTrackerProperties(path)
		assert.Error(t, err)
	})
}

func TestGstreamerCommandLine(t *testing.T) {
	g, err := NewAnalyticsPipeline(AnalyticsOptions{InputFile: "a.h264", NoDisplay: true})
	require.NoError(t, err)

	gs := NewGstreamer(g, "/tmp/analytics.sock")
	cl := gs.CommandLine()

	assert.Equal(t, "gst-launch-1.0", cl[0])
	assert.Equal(t, "-e", cl[1])
	assert.True(t, strings.HasPrefix(strings.Join(cl[2:], " "), "filesrc name=file-source"))
}

func TestGstreamerSocketEnv(t *testing.T) {
	gs := Gstreamer{
		socketPath: "/tmp/analytics.sock",
		ex:         exec.NewExec("sh", "-c", `test "$NVDS_ANALYTICS_SOCKET" = "/tmp/analytics.sock"`),
	}

	require.NoError(t, gs.Open())

	select {
	case <-gs.Done():
		assert.NoError(t, gs.Err())
	case <-time.After(time.Second):
		t.Fatal("process not exited")
	}

	gs.Close()
}
