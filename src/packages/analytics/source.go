package analytics

import (
	"log"

	"analytics-go/src/libs/socket"
)

type SourceOnFrame func(f *FrameMeta)

// Source receives frame analytics from the pipeline probe shim
type Source struct {
	socket socket.Socket

	probe Probe

	OnFrame SourceOnFrame
}

func NewSource(socketPath string, probe Probe) Source {
	return Source{
		socket: socket.NewSocket(socketPath),
		probe:  probe,
	}
}

func (s *Source) SocketPath() string {
	return s.socket.Path()
}

func (s *Source) Open() error {
	s.socket.OnData = func(header socket.SocketHeader, body []byte) {
		f, err := ParseFrameMeta(header, body)
		if err != nil {
			log.Println("analytics parse frame error", err)
			return
		}

		s.probe.Process(f)

		if s.OnFrame != nil {
			s.OnFrame(f)
		}
	}

	return s.socket.Open()
}

func (s *Source) Close() {
	s.socket.Close()
}
