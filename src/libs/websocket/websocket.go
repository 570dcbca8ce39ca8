package websocket

import (
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

type WebSocketOnMessage func(messageType int, message []byte)

// WebSocket is a client connection that publishes text frames.
//
// Frames read from the peer are handed to OnMessage, pings are answered by
// gorilla's default handler while reading.
type WebSocket struct {
	url    string
	header http.Header

	wg sync.WaitGroup

	connection   *websocket.Conn
	connectionMu sync.RWMutex
	writeMu      sync.Mutex

	OnMessage WebSocketOnMessage
	OnClose   func()
}

func NewWebSocket(url string, header http.Header) WebSocket {
	if header == nil {
		header = http.Header{}
	}
	return WebSocket{url: url, header: header}
}

func (ws *WebSocket) openConnection() error {
	ws.connectionMu.Lock()
	defer ws.connectionMu.Unlock()

	if ws.connection != nil {
		return fmt.Errorf("websocket connection exists")
	}

	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	c, _, err := dialer.Dial(ws.url, ws.header)
	if err != nil {
		return err
	}

	ws.connection = c

	return nil
}

func (ws *WebSocket) closeConnection() error {
	ws.connectionMu.Lock()
	defer ws.connectionMu.Unlock()

	if ws.connection == nil {
		return fmt.Errorf("websocket null connection")
	}

	err := ws.connection.Close()
	ws.connection = nil

	return err
}

func (ws *WebSocket) handle(c *websocket.Conn) {
	defer ws.wg.Done()

	for {
		t, msg, err := c.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				log.Println("websocket read error", err)
			}
			if ws.OnClose != nil {
				ws.OnClose()
			}
			return
		}

		if ws.OnMessage != nil {
			ws.OnMessage(t, msg)
		}
	}
}

func (ws *WebSocket) Open() error {
	err := ws.openConnection()
	if err != nil {
		return err
	}

	ws.connectionMu.RLock()
	c := ws.connection
	ws.connectionMu.RUnlock()

	ws.wg.Add(1)
	go ws.handle(c)

	return nil
}

func (ws *WebSocket) Close() {
	ws.connectionMu.RLock()
	c := ws.connection
	ws.connectionMu.RUnlock()

	if c != nil {
		ws.writeMu.Lock()
		c.WriteControl(
			websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second),
		)
		ws.writeMu.Unlock()
	}

	ws.closeConnection()
	ws.wg.Wait()
}

func (ws *WebSocket) SendText(b []byte) error {
	ws.connectionMu.RLock()
	defer ws.connectionMu.RUnlock()

	if ws.connection == nil {
		return fmt.Errorf("websocket connection is null")
	}

	ws.writeMu.Lock()
	defer ws.writeMu.Unlock()

	ws.connection.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return ws.connection.WriteMessage(websocket.TextMessage, b)
}
