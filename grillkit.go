package grillkit

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	dnslog "github.com/brutella/dnssd/log"
	"github.com/brutella/hap"
	hklog "github.com/brutella/hap/log"
	"github.com/pkg/errors"

	"github.com/hubertat/grillkit/igrill"
	"github.com/hubertat/grillkit/mqtt"
)

const defaultHomeKitDirectory = "./homekit"
const homeKitPinLength = 8
const mqttDisconnectTimeout = 2 * time.Second

// GrillKit is built from the config file.
type GrillKit struct {
	Name string

	ServerAddress       string
	Port                int
	PollInterval        time.Duration
	RequestTimeout      time.Duration
	LowBatteryThreshold float64

	HkPin       string
	HkDirectory string
	HkAddress   string
	Debug       bool

	MqttBroker string
	MqttTopic  string

	client      *igrill.Client
	poller      *igrill.Poller
	thermometer *Thermometer
	mqttClient  *mqtt.MqttClient
	logger      *log.Logger
}

func (gk *GrillKit) Validate() error {
	if len(gk.ServerAddress) == 0 {
		return errors.New("ServerAddress is not set")
	}
	if gk.Port < 1 || gk.Port > 65535 {
		return errors.Errorf("Port %d is out of range", gk.Port)
	}
	if gk.PollInterval < 0 {
		return errors.Errorf("PollInterval %s is negative", gk.PollInterval)
	}
	if gk.RequestTimeout < 0 {
		return errors.Errorf("RequestTimeout %s is negative", gk.RequestTimeout)
	}
	if len(gk.HkPin) > 0 && len(gk.HkPin) != homeKitPinLength {
		return errors.Errorf("HkPin must have %d digits", homeKitPinLength)
	}

	return nil
}

func (gk *GrillKit) HomeKitEnabled() bool {
	return len(gk.HkPin) == homeKitPinLength
}

// Init builds the client, the poller and the accessory, and registers the
// accessory as poller listener.
func (gk *GrillKit) Init(firmwareVersion string) (err error) {
	gk.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          "grillkit",
		Level:           log.GetLevel(),
		ReportTimestamp: true,
	})

	err = gk.Validate()
	if err != nil {
		return errors.Wrap(err, "invalid config")
	}

	if gk.PollInterval == 0 {
		gk.PollInterval = igrill.DefaultPollInterval
	}

	gk.client, err = igrill.NewClient(gk.ServerAddress, gk.Port, gk.RequestTimeout)
	if err != nil {
		return errors.Wrap(err, "failed to create iGrill client")
	}
	gk.poller = igrill.NewPoller(gk.client)

	gk.thermometer = &Thermometer{
		Name:                gk.Name,
		LowBatteryThreshold: gk.LowBatteryThreshold,
	}
	err = gk.thermometer.Init(gk.poller, firmwareVersion)
	if err != nil {
		return errors.Wrap(err, "failed to init thermometer")
	}
	gk.poller.Subscribe(gk.thermometer.Update)

	gk.logger.Info("iGrill configured", "url", gk.client.ReadingsUrl(), "interval", gk.PollInterval)
	return nil
}

func (gk *GrillKit) Thermometer() *Thermometer {
	return gk.thermometer
}

func (gk *GrillKit) Poller() *igrill.Poller {
	return gk.poller
}

// StartPolling blocks until ctx is done.
func (gk *GrillKit) StartPolling(ctx context.Context) {
	gk.poller.Run(ctx, gk.PollInterval)
}

func (gk *GrillKit) InitMqtt(ctx context.Context) (err error) {
	if len(gk.MqttBroker) == 0 {
		err = errors.New("mqtt broker not set")
		return
	}

	clientId := gk.Name
	if len(clientId) == 0 {
		clientId = "grillkit"
	}

	mc, err := mqtt.NewMqttClient(gk.MqttBroker, clientId)
	if err != nil {
		err = errors.Wrap(err, "failed to create mqtt client")
		return
	}
	gk.mqttClient = mc

	err = mc.Connect(ctx)
	if err != nil {
		// autopaho keeps retrying, publishing starts once it is up
		gk.logger.Warn("mqtt not connected yet", "err", err)
	}

	publisher := NewStatePublisher(mc, gk.MqttTopic, gk.thermometer.LowBatteryThreshold)
	gk.poller.Subscribe(publisher.Update)
	gk.logger.Info("mirroring iGrill state to mqtt", "broker", gk.MqttBroker, "topic", publisher.Topic())

	return nil
}

func (gk *GrillKit) Close() (err error) {
	if gk.mqttClient != nil {
		ctx, cancel := context.WithTimeout(context.Background(), mqttDisconnectTimeout)
		defer cancel()
		err = gk.mqttClient.Disconnect(ctx)
	}

	return
}

func (gk *GrillKit) PrintStatus(writer io.Writer) {
	st := gk.poller.Current()

	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "=== iGrill status ===")
	fmt.Fprintf(writer, "| server: %s\n", gk.client.ReadingsUrl())
	fmt.Fprintf(writer, "| status: %s\n", st.Status)
	fmt.Fprintf(writer, "| battery: %.0f%%\n", st.Readings.Battery)
	for probe := 0; probe < igrill.ProbeCount; probe++ {
		temp, err := st.Temperature(probe)
		if err != nil {
			fmt.Fprintf(writer, "| probe %d: n/a\n", probe+1)
			continue
		}
		fmt.Fprintf(writer, "| probe %d: %.1f°C (active: %v)\n", probe+1, temp, st.Active(probe))
	}
	fmt.Fprintln(writer, "---------------------")
	fmt.Fprintln(writer)
}

// StartHomeKit serves the thermometer until ctx is done or SIGINT/SIGTERM.
func (gk *GrillKit) StartHomeKit(ctx context.Context) error {
	store := hap.NewFsStore(defaultHomeKitDirectory)
	if len(gk.HkDirectory) > 0 {
		store = hap.NewFsStore(gk.HkDirectory)
	}

	hkServer, err := hap.NewServer(store, gk.thermometer.GetHk())
	if err != nil {
		return errors.Wrap(err, "failed to create HomeKit server")
	}
	hkServer.Pin = gk.HkPin
	if len(gk.HkAddress) > 0 {
		hkServer.Addr = gk.HkAddress
	}

	if gk.Debug {
		hklog.Debug.Enable()
		dnslog.Debug.Enable()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		select {
		case <-c:
		case <-ctx.Done():
		}
		// Stop delivering signals.
		signal.Stop(c)
		// Cancel the context to stop the server.
		cancel()
	}()

	return hkServer.ListenAndServe(ctx)
}
