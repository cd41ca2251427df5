package mqtt

import (
	"context"
	"net/url"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/eclipse/paho.golang/autopaho"
	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"
)

const connectionTimeoutSeconds = 5
const publishTimeoutSeconds = 4

type Publisher interface {
	Publish(topic string, payload []byte) error
}

type MqttClient struct {
	config autopaho.ClientConfig
	conn   *autopaho.ConnectionManager
	logger *log.Logger
}

// Publish sends a retained QoS 1 message, so new subscribers get the last
// state straight away.
func (mc *MqttClient) Publish(topic string, payload []byte) (err error) {
	if mc.conn == nil {
		return errors.New("mqtt client not connected")
	}

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeoutSeconds*time.Second)
	defer cancel()

	_, err = mc.conn.Publish(ctx, &paho.Publish{
		Topic:   topic,
		QoS:     1,
		Retain:  true,
		Payload: payload,
	})
	if err != nil {
		err = errors.Wrapf(err, "failed to publish to %s", topic)
	}
	return
}

func (mc *MqttClient) onConnUp(cm *autopaho.ConnectionManager, connAck *paho.Connack) {
	mc.logger.Info("Connected to MQTT broker")
}

func (mc *MqttClient) onConnError(err error) {
	mc.logger.Error("Received Mqtt connection error", "err", err)
}

func (mc *MqttClient) onSrvDisconnect(d *paho.Disconnect) {
	mc.logger.Info("Disconnected from MQTT broker")
}

// Connect keeps reconnecting in the background until ctx is done; it only
// waits for the first connection up to connectionTimeoutSeconds.
func (mc *MqttClient) Connect(ctx context.Context) (err error) {
	mc.logger.Debug("NewConnection")
	mc.conn, err = autopaho.NewConnection(ctx, mc.config)
	if err != nil {
		return errors.Wrap(err, "failed to create mqtt connection")
	}

	awaitCtx, cancel := context.WithTimeout(ctx, connectionTimeoutSeconds*time.Second)
	defer cancel()

	mc.logger.Debug("AwaitConnection")
	err = mc.conn.AwaitConnection(awaitCtx)
	mc.logger.Debug("AwaitConnection done", "err", err)
	if err != nil {
		err = errors.Wrap(err, "mqtt broker not reachable")
	}

	return
}

func (mc *MqttClient) Disconnect(ctx context.Context) error {
	if mc.conn == nil {
		return nil
	}
	return mc.conn.Disconnect(ctx)
}

func NewMqttClient(broker string, clientId string) (mc *MqttClient, err error) {
	addr, err := url.Parse(broker)
	if err != nil {
		err = errors.Wrapf(err, "failed to parse mqtt broker url %s", broker)
		return
	}

	mc = &MqttClient{
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "MqttClient 🐰",
			Level:  log.GetLevel(),
		}),
	}

	mc.config = autopaho.ClientConfig{
		ServerUrls:            []*url.URL{addr},
		KeepAlive:             20,
		SessionExpiryInterval: 60,
		OnConnectionUp:        mc.onConnUp,
		OnConnectError:        mc.onConnError,
		ClientConfig: paho.ClientConfig{
			ClientID:           clientId,
			OnClientError:      mc.onConnError,
			OnServerDisconnect: mc.onSrvDisconnect,
		},
	}

	return
}
