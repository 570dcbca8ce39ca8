package broker

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"analytics-go/src/libs/websocket"
	"analytics-go/src/packages/mqtt"

	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/sasl"
	"github.com/segmentio/kafka-go/sasl/plain"
	"gopkg.in/ini.v1"
)

var ErrUnsupportedAdaptor = errors.New("broker unsupported adaptor")

// Adaptor is the transport used to hand payloads to the message broker
type Adaptor interface {
	Open() error
	Close()
	Publish(topic string, payload []byte) error
}

type AdaptorKind string

const (
	AdaptorMqtt      AdaptorKind = "mqtt"
	AdaptorWebSocket AdaptorKind = "websocket"
	AdaptorKafka     AdaptorKind = "kafka"
)

// ParseAdaptorKind maps a proto-lib value, a name or an adaptor library path
// like libnvds_mqtt_proto.so, to an adaptor kind
func ParseAdaptorKind(protoLib string) (AdaptorKind, error) {
	name := strings.ToLower(protoLib)
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}

	switch {
	case strings.Contains(name, "kafka"):
		return AdaptorKafka, nil
	case strings.Contains(name, "mqtt"):
		return AdaptorMqtt, nil
	case strings.Contains(name, "websocket"), name == "ws", strings.Contains(name, "_ws_"):
		return AdaptorWebSocket, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnsupportedAdaptor, protoLib)
	}
}

// ConnStr is the broker connection string, host;port[;topic]
type ConnStr struct {
	Host  string
	Port  int
	Topic string
}

func ParseConnStr(s string) (ConnStr, error) {
	parts := strings.Split(strings.TrimSpace(s), ";")
	if len(parts) < 2 || len(parts) > 3 {
		return ConnStr{}, fmt.Errorf("broker conn str must be host;port[;topic] %q", s)
	}

	host := strings.TrimSpace(parts[0])
	if host == "" {
		return ConnStr{}, fmt.Errorf("broker conn str empty host %q", s)
	}

	port, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || port <= 0 || port > 65535 {
		return ConnStr{}, fmt.Errorf("broker conn str bad port %q", s)
	}

	c := ConnStr{Host: host, Port: port}
	if len(parts) == 3 {
		c.Topic = strings.TrimSpace(parts[2])
	}

	return c, nil
}

func (c ConnStr) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// AdaptorConfig is the [message-broker] section of the adaptor config file
type AdaptorConfig struct {
	Username string
	Password string
	ClientID string
	Topic    string
	TLS      bool
}

func LoadAdaptorConfig(path string) (AdaptorConfig, error) {
	f, err := ini.Load(path)
	if err != nil {
		return AdaptorConfig{}, fmt.Errorf("broker load adaptor config: %w", err)
	}

	s := f.Section("message-broker")

	tls, err := s.Key("tls").Bool()
	if err != nil && s.HasKey("tls") {
		return AdaptorConfig{}, fmt.Errorf("broker adaptor config tls: %w", err)
	}

	return AdaptorConfig{
		Username: s.Key("username").String(),
		Password: s.Key("password").String(),
		ClientID: s.Key("client-id").String(),
		Topic:    s.Key("topic").String(),
		TLS:      tls,
	}, nil
}

// ResolveTopic picks the topic, flag first, then conn str, then adaptor config
func ResolveTopic(flagTopic string, conn ConnStr, cfg AdaptorConfig) (string, error) {
	for _, t := range []string{flagTopic, conn.Topic, cfg.Topic} {
		if t != "" {
			return t, nil
		}
	}
	return "", fmt.Errorf("broker topic not set")
}

type mqttAdaptor struct {
	m mqtt.Mqtt
}

func (a *mqttAdaptor) Open() error {
	return a.m.Open()
}

func (a *mqttAdaptor) Close() {
	a.m.Close()
}

func (a *mqttAdaptor) Publish(topic string, payload []byte) error {
	if !a.m.IsConnected() {
		return fmt.Errorf("broker mqtt not connected")
	}
	return a.m.Publish(topic, payload)
}

type wsAdaptor struct {
	ws websocket.WebSocket
}

func (a *wsAdaptor) Open() error {
	return a.ws.Open()
}

func (a *wsAdaptor) Close() {
	a.ws.Close()
}

// the topic is part of the websocket url
func (a *wsAdaptor) Publish(topic string, payload []byte) error {
	return a.ws.SendText(payload)
}

const kafkaTimeout = 5 * time.Second

type kafkaAdaptor struct {
	w      *kafka.Writer
	dialer *kafka.Dialer
}

// Open dials the broker once, the writer itself connects lazily
func (a *kafkaAdaptor) Open() error {
	ctx, cancel := context.WithTimeout(context.Background(), kafkaTimeout)
	defer cancel()

	conn, err := a.dialer.DialContext(ctx, "tcp", a.w.Addr.String())
	if err != nil {
		return fmt.Errorf("broker kafka dial %s: %w", a.w.Addr, err)
	}
	return conn.Close()
}

func (a *kafkaAdaptor) Close() {
	err := a.w.Close()
	if err != nil {
		log.Println("broker kafka close error", err)
	}
}

func (a *kafkaAdaptor) Publish(topic string, payload []byte) error {
	ctx, cancel := context.WithTimeout(context.Background(), kafkaTimeout)
	defer cancel()

	return a.w.WriteMessages(ctx, kafka.Message{Topic: topic, Value: payload})
}

func newKafkaAdaptor(conn ConnStr, cfg AdaptorConfig) *kafkaAdaptor {
	var mechanism sasl.Mechanism
	if cfg.Username != "" {
		mechanism = plain.Mechanism{Username: cfg.Username, Password: cfg.Password}
	}

	var tlsConfig *tls.Config
	if cfg.TLS {
		tlsConfig = &tls.Config{ServerName: conn.Host}
	}

	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "analytics-go"
	}

	return &kafkaAdaptor{
		w: &kafka.Writer{
			Addr:         kafka.TCP(conn.Address()),
			Balancer:     &kafka.LeastBytes{},
			RequiredAcks: kafka.RequireOne,
			BatchTimeout: 10 * time.Millisecond,
			Transport: &kafka.Transport{
				ClientID: clientID,
				SASL:     mechanism,
				TLS:      tlsConfig,
			},
		},
		dialer: &kafka.Dialer{
			ClientID:      clientID,
			Timeout:       kafkaTimeout,
			SASLMechanism: mechanism,
			TLS:           tlsConfig,
		},
	}
}

func NewAdaptor(kind AdaptorKind, conn ConnStr, topic string, cfg AdaptorConfig) (Adaptor, error) {
	switch kind {
	case AdaptorMqtt:
		scheme := "tcp"
		if cfg.TLS {
			scheme = "ssl"
		}

		clientID := cfg.ClientID
		if clientID == "" {
			clientID = "analytics-go"
		}

		return &mqttAdaptor{m: mqtt.NewMqtt(mqtt.MqttOptions{
			Broker:      fmt.Sprintf("%s://%s", scheme, conn.Address()),
			ClientID:    clientID,
			Username:    cfg.Username,
			Password:    cfg.Password,
			StatusTopic: topic + "/status",
			QoS:         1,
		})}, nil
	case AdaptorWebSocket:
		scheme := "ws"
		if cfg.TLS {
			scheme = "wss"
		}

		u := url.URL{Scheme: scheme, Host: conn.Address(), Path: "/" + topic}

		h := http.Header{}
		if cfg.Username != "" {
			auth := base64.StdEncoding.EncodeToString([]byte(cfg.Username + ":" + cfg.Password))
			h.Set("Authorization", "Basic "+auth)
		}

		return &wsAdaptor{ws: websocket.NewWebSocket(u.String(), h)}, nil
	case AdaptorKafka:
		return newKafkaAdaptor(conn, cfg), nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupportedAdaptor, kind)
	}
}
