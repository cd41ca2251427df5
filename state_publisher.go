package grillkit

import (
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/grillkit/igrill"
	"github.com/hubertat/grillkit/mqtt"
)

const defaultMqttTopic = "grillkit"

type ProbePayload struct {
	Active     bool     `json:"active"`
	Celsius    float64  `json:"celsius"`
	Fahrenheit *float64 `json:"fahrenheit"`
}

type StatePayload struct {
	Status     string         `json:"status"`
	Battery    float64        `json:"battery"`
	LowBattery bool           `json:"low_battery"`
	Probes     []ProbePayload `json:"probes"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

func NewStatePayload(st igrill.State, lowBatteryThreshold float64) StatePayload {
	payload := StatePayload{
		Status:     st.Status.String(),
		Battery:    st.Readings.Battery,
		LowBattery: st.LowBattery(lowBatteryThreshold),
		UpdatedAt:  st.UpdatedAt,
	}

	for ix, temp := range st.Readings.Temps {
		probe := ProbePayload{
			Active:  st.Active(ix),
			Celsius: st.ProbeCelsius(ix),
		}
		if temp.Present {
			fahrenheit := temp.Fahrenheit
			probe.Fahrenheit = &fahrenheit
		}
		payload.Probes = append(payload.Probes, probe)
	}

	return payload
}

// StatePublisher mirrors every poll result to {topic}/state.
type StatePublisher struct {
	publisher           mqtt.Publisher
	topic               string
	lowBatteryThreshold float64
	logger              *log.Logger
}

func NewStatePublisher(publisher mqtt.Publisher, topicRoot string, lowBatteryThreshold float64) *StatePublisher {
	topicRoot = strings.Trim(topicRoot, "/")
	if len(topicRoot) == 0 {
		topicRoot = defaultMqttTopic
	}

	return &StatePublisher{
		publisher:           publisher,
		topic:               topicRoot + "/state",
		lowBatteryThreshold: lowBatteryThreshold,
		logger: log.NewWithOptions(os.Stderr, log.Options{
			Prefix: "StatePublisher",
			Level:  log.GetLevel(),
		}),
	}
}

func (sp *StatePublisher) Topic() string {
	return sp.topic
}

func (sp *StatePublisher) Publish(st igrill.State) error {
	payload, err := json.Marshal(NewStatePayload(st, sp.lowBatteryThreshold))
	if err != nil {
		return errors.Wrap(err, "failed to marshal state payload")
	}

	return sp.publisher.Publish(sp.topic, payload)
}

// Update is registered as poller listener; failures are only logged.
func (sp *StatePublisher) Update(st igrill.State) {
	err := sp.Publish(st)
	if err != nil {
		sp.logger.Warn("failed to publish iGrill state", "topic", sp.topic, "err", err)
	}
}
