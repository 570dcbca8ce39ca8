package gstreamer

import (
	"analytics-go/src/libs/exec"
)

const launchBin = "gst-launch-1.0"

// the probe shim on the analytics element writes frame metadata to this socket
const AnalyticsSocketEnv = "NVDS_ANALYTICS_SOCKET"

type Gstreamer struct {
	socketPath string

	ex exec.Exec
}

func NewGstreamer(g *Graph, socketPath string) Gstreamer {
	// -e sends eos on interrupt so sinks can finish
	args := append([]string{"-e"}, g.Args()...)

	return Gstreamer{
		socketPath: socketPath,
		ex:         exec.NewExec(launchBin, args...),
	}
}

func (g *Gstreamer) Open() error {
	g.ex.SetEnv(AnalyticsSocketEnv + "=" + g.socketPath)
	return g.ex.Start()
}

func (g *Gstreamer) Close() {
	select {
	case <-g.Done():
		// already ended
		return
	default:
	}

	g.ex.Stop()
}

// Done is closed at end of stream or when the pipeline fails
func (g *Gstreamer) Done() <-chan struct{} {
	return g.ex.Done()
}

func (g *Gstreamer) Err() error {
	return g.ex.Err()
}

func (g *Gstreamer) CommandLine() []string {
	return append([]string{g.ex.Path()}, g.ex.Args()...)
}
