package socket

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"
)

type SocketOnData func(header SocketHeader, body []byte)

// Socket is a unix socket server reading framed messages.
//
// One peer is served at a time, a new peer is accepted when the previous one
// goes away.
type Socket struct {
	path string

	wg sync.WaitGroup

	listener     net.Listener
	connection   net.Conn
	connectionMu sync.Mutex

	closed bool

	OnData SocketOnData
}

func NewSocket(path string) Socket {
	return Socket{path: path}
}

func (s *Socket) Path() string {
	return s.path
}

func (s *Socket) openListener() error {
	if s.listener != nil {
		return fmt.Errorf("socket listener exists")
	}

	// delete stale socket file
	os.Remove(s.path)

	l, err := net.Listen("unix", s.path)
	if err != nil {
		return err
	}
	s.listener = l

	return nil
}

func (s *Socket) accept() {
	defer s.wg.Done()

	for {
		c, err := s.listener.Accept()
		if err != nil {
			if !errors.Is(err, net.ErrClosed) {
				log.Println("socket accept error", err)
			}
			return
		}

		s.connectionMu.Lock()
		if s.closed {
			s.connectionMu.Unlock()
			c.Close()
			return
		}
		s.connection = c
		s.connectionMu.Unlock()

		s.handle(c)

		s.connectionMu.Lock()
		s.connection = nil
		s.connectionMu.Unlock()
		c.Close()
	}
}

func (s *Socket) handle(c net.Conn) {
	// header buffer
	hb := make([]byte, SocketHeaderLength)

	for {
		_, err := io.ReadFull(c, hb)
		if err != nil {
			if err != io.EOF && !errors.Is(err, net.ErrClosed) {
				log.Println("socket read header error", err)
			}
			return
		}

		header, err := ParseSocketHeader(hb)
		if err != nil {
			log.Println("socket parse header error", err)
			return
		}

		var body []byte
		if header.Size > 0 {
			body = make([]byte, header.Size)
			_, err = io.ReadFull(c, body)
			if err != nil {
				log.Println("socket read body error", err)
				return
			}
		}

		if s.OnData != nil {
			s.OnData(header, body)
		}
	}
}

func (s *Socket) Open() error {
	err := s.openListener()
	if err != nil {
		return err
	}

	s.wg.Add(1)
	go s.accept()

	return nil
}

func (s *Socket) Close() {
	s.connectionMu.Lock()
	s.closed = true
	if s.connection != nil {
		s.connection.Close()
	}
	s.connectionMu.Unlock()

	if s.listener != nil {
		s.listener.Close()
	}

	s.wg.Wait()

	s.listener = nil
	os.Remove(s.path)
}

// Client writes framed messages to a Socket
type Client struct {
	connection net.Conn
	mu         sync.Mutex
}

func Dial(path string, timeout time.Duration) (*Client, error) {
	c, err := net.DialTimeout("unix", path, timeout)
	if err != nil {
		return nil, err
	}

	return &Client{connection: c}, nil
}

func (c *Client) Send(header SocketHeader, body []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	header.Size = uint32(len(body))

	_, err := c.connection.Write(header.ToBytes())
	if err != nil {
		return err
	}

	if len(body) == 0 {
		return nil
	}

	_, err = c.connection.Write(body)
	return err
}

func (c *Client) Close() error {
	return c.connection.Close()
}
