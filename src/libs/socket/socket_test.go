package socket

import (
	"encoding/binary"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testMessage struct {
	header SocketHeader
	body   []byte
}

func useTestHeader(size uint32) []byte {
	hb := []byte{
		0x12, 0x34, 0x56, 0x78, // id
		0x12, 0x34, 0x56, 0x78, // size
		0x12, 0x34, 0x56, 0x78, 0x12, 0x34, 0x56, 0x78, // timestamp
		0x02, 0x00, 0x00, 0x00, // reserved 0
		0x05, 0x00, 0x00, 0x00, // reserved 1
		0x00, 0x00, 0x00, 0x00, // reserved 2
		0x00, 0x00, 0x00, 0x00, // reserved 3
		0x00, 0x00, 0x00, 0x00, // reserved 4
		0x00, 0x00, 0x00, 0x00, // reserved 5
		0x00, 0x00, 0x00, 0x00, // reserved 6
		0x00, 0x00, 0x00, 0x00, // reserved 7
	}

	binary.LittleEndian.PutUint32(hb[4:], size)

	return hb
}

func TestParseSocketHeader(t *testing.T) {
	t.Run("should parse header right", func(t *testing.T) {
		h, err := ParseSocketHeader(useTestHeader(14))
		require.NoError(t, err)

		assert.Equal(t, uint32(0x78563412), h.ID)
		assert.Equal(t, uint32(14), h.Size)
		assert.Equal(t, uint64(0x7856341278563412), h.Timestamp)
		assert.Equal(t, uint32(2), h.Reserved[0])
		assert.Equal(t, uint32(5), h.Reserved[1])

		assert.Equal(t, useTestHeader(14), h.ToBytes())
	})

	t.Run("should refuse short header", func(t *testing.T) {
		_, err := ParseSocketHeader(make([]byte, 10))
		assert.Error(t, err)
	})

	t.Run("should refuse oversized body", func(t *testing.T) {
		_, err := ParseSocketHeader(useTestHeader(SocketMaxBodySize + 1))
		assert.Error(t, err)
	})
}

func TestSocket(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.sock")

	s := NewSocket(path)

	messages := make(chan testMessage, 10)
	s.OnData = func(header SocketHeader, body []byte) {
		messages <- testMessage{header: header, body: body}
	}

	err := s.Open()
	require.NoError(t, err)
	defer s.Close()

	receive := func(t *testing.T) testMessage {
		select {
		case m := <-messages:
			return m
		case <-time.After(time.Second):
			t.Fatal("timeout")
		}
		return testMessage{}
	}

	t.Run("should receive no body data right", func(t *testing.T) {
		client, err := Dial(path, time.Second)
		require.NoError(t, err)
		defer client.Close()

		err = client.Send(SocketHeader{ID: 7}, nil)
		require.NoError(t, err)

		m := receive(t)
		assert.Equal(t, uint32(7), m.header.ID)
		assert.Equal(t, uint32(0), m.header.Size)
		assert.Nil(t, m.body)
	})

	t.Run("should accept next client and body right", func(t *testing.T) {
		client, err := Dial(path, time.Second)
		require.NoError(t, err)
		defer client.Close()

		body := []byte("Hello, Socket!")
		err = client.Send(SocketHeader{ID: 8, Reserved: [8]uint32{3}}, body)
		require.NoError(t, err)

		m := receive(t)
		assert.Equal(t, uint32(8), m.header.ID)
		assert.Equal(t, uint32(3), m.header.Reserved[0])
		assert.Equal(t, body, m.body)
	})
}
