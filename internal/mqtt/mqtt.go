package mqtt

import (
	"errors"
	"fmt"
	"time"

	pahomqtt "github.com/eclipse/paho.mqtt.golang"
)

// Timeout bounds connecting and publishing.
const Timeout = 5 * time.Second

// Options describes the broker and topic a notice goes to.
type Options struct {
	Broker   string
	ClientID string
	Topic    string
	Username string
	Password string
	QoS      byte
	Retain   bool
}

// Publish connects to the broker, publishes payload to the topic and
// disconnects. Each call uses a fresh connection.
func Publish(o Options, payload []byte) error {
	if o.Broker == "" || o.Topic == "" {
		return errors.New("mqtt: broker and topic are required")
	}
	opts := pahomqtt.NewClientOptions().
		AddBroker(o.Broker).
		SetClientID(o.ClientID).
		SetConnectTimeout(Timeout).
		SetAutoReconnect(false)

	if o.Username != "" {
		opts.SetUsername(o.Username)
	}
	if o.Password != "" {
		opts.SetPassword(o.Password)
	}

	client := pahomqtt.NewClient(opts)
	tok := client.Connect()
	if !tok.WaitTimeout(Timeout) {
		return fmt.Errorf("mqtt: connect timeout")
	}
	if tok.Error() != nil {
		return fmt.Errorf("mqtt: connect: %w", tok.Error())
	}
	defer client.Disconnect(250)

	pub := client.Publish(o.Topic, o.QoS, o.Retain, payload)
	if !pub.WaitTimeout(Timeout) {
		return fmt.Errorf("mqtt: publish timeout")
	}
	if pub.Error() != nil {
		return fmt.Errorf("mqtt: publish: %w", pub.Error())
	}
	return nil
}
