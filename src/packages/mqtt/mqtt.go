package mqtt

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

type MqttOptions struct {
	// tcp://host:port or ssl://host:port
	Broker   string
	ClientID string
	Username string
	Password string

	// status messages go to <StatusTopic>, empty disables them
	StatusTopic string

	QoS byte
}

type Mqtt struct {
	options MqttOptions

	client mqtt.Client
}

func NewMqtt(options MqttOptions) Mqtt {
	o := mqtt.NewClientOptions()

	o.AddBroker(options.Broker)
	o.SetClientID(options.ClientID)
	if options.Username != "" {
		o.SetUsername(options.Username)
	}
	if options.Password != "" {
		o.SetPassword(options.Password)
	}
	o.SetAutoReconnect(true)
	o.SetConnectRetry(true)
	o.SetConnectRetryInterval(2 * time.Second)
	o.SetMaxReconnectInterval(30 * time.Second)

	// set callback
	o.OnConnect = func(client mqtt.Client) {
		log.Println("mqtt connected", options.Broker)
	}
	o.OnConnectionLost = func(client mqtt.Client, err error) {
		log.Println("mqtt connections lost", err)
	}

	return Mqtt{
		options: options,
		client:  mqtt.NewClient(o),
	}
}

func (c *Mqtt) openClient() error {
	token := c.client.Connect()
	if !token.WaitTimeout(5 * time.Second) {
		return fmt.Errorf("mqtt connect timeout %s", c.options.Broker)
	}
	return token.Error()
}

func (c *Mqtt) closeClient() {
	c.client.Disconnect(250)
}

type MqttMessageStatus struct {
	Time   int64 `json:"time"`
	Status bool  `json:"status"`
}

func (c *Mqtt) publishStatus(status bool) error {
	if c.options.StatusTopic == "" {
		return nil
	}

	j, err := json.Marshal(MqttMessageStatus{
		Status: status,
		Time:   time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	return c.Publish(c.options.StatusTopic, j)
}

func (c *Mqtt) Open() error {
	err := c.openClient()
	if err != nil {
		return err
	}

	err = c.publishStatus(true)
	if err != nil {
		c.closeClient()
		return err
	}

	return nil
}

func (c *Mqtt) Close() {
	// send offline
	err := c.publishStatus(false)
	if err != nil {
		log.Println("mqtt publish status error", err)
	}

	c.closeClient()
}

func (c *Mqtt) Publish(topic string, payload []byte) error {
	token := c.client.Publish(topic, c.options.QoS, false, payload)
	if !token.WaitTimeout(2 * time.Second) {
		return fmt.Errorf("mqtt publish timeout %s", topic)
	}
	return token.Error()
}

func (c *Mqtt) IsConnected() bool {
	return c.client.IsConnected()
}
