package igrill

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// ProbeCount is the number of probe channels on the device.
const ProbeCount = 4

// ProbeTemp holds one probe slot. A zero value is an absent (unplugged) probe.
type ProbeTemp struct {
	Fahrenheit float64
	Present    bool
}

func Fahrenheit(f float64) ProbeTemp {
	return ProbeTemp{Fahrenheit: f, Present: true}
}

func Absent() ProbeTemp {
	return ProbeTemp{}
}

// Celsius converts the reading; absent probes convert as 0°F.
func (pt ProbeTemp) Celsius() float64 {
	if !pt.Present {
		return FahrenheitToCelsius(0)
	}
	return FahrenheitToCelsius(pt.Fahrenheit)
}

func (pt ProbeTemp) String() string {
	if !pt.Present {
		return "absent"
	}
	return fmt.Sprintf("%.1f°F", pt.Fahrenheit)
}

// UnmarshalJSON accepts a number, false or null.
func (pt *ProbeTemp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch string(data) {
	case "false", "null":
		*pt = Absent()
		return nil
	case "true":
		return errors.New("probe temperature cannot be true")
	}

	var f float64
	err := json.Unmarshal(data, &f)
	if err != nil {
		return errors.Wrapf(err, "failed to decode probe temperature %s", string(data))
	}
	*pt = Fahrenheit(f)
	return nil
}

func (pt ProbeTemp) MarshalJSON() ([]byte, error) {
	if !pt.Present {
		return []byte("false"), nil
	}
	return json.Marshal(pt.Fahrenheit)
}

// Readings is the body of GET /readings.
type Readings struct {
	Battery float64
	Temps   [ProbeCount]ProbeTemp
}

type wireReadings struct {
	Battery *float64    `json:"battery"`
	Temps   []ProbeTemp `json:"temps"`
}

// UnmarshalJSON rejects a body without battery or temps, so a server
// answering 200 with an empty document is not taken for a good reading.
func (r *Readings) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return errors.New("readings body is null")
	}

	wire := wireReadings{}
	err := json.Unmarshal(data, &wire)
	if err != nil {
		return err
	}
	if wire.Battery == nil {
		return errors.New("readings body has no battery level")
	}
	if wire.Temps == nil {
		return errors.New("readings body has no temps")
	}

	r.Battery = *wire.Battery
	r.Temps = [ProbeCount]ProbeTemp{}
	for ix := 0; ix < ProbeCount && ix < len(wire.Temps); ix++ {
		r.Temps[ix] = wire.Temps[ix]
	}
	return nil
}

func (r Readings) MarshalJSON() ([]byte, error) {
	battery := r.Battery
	return json.Marshal(wireReadings{
		Battery: &battery,
		Temps:   r.Temps[:],
	})
}

// WithoutTemps keeps the battery level and marks every probe absent.
func (r Readings) WithoutTemps() Readings {
	return Readings{Battery: r.Battery}
}

func (r Readings) String() string {
	temps := make([]string, 0, ProbeCount)
	for _, t := range r.Temps {
		temps = append(temps, t.String())
	}
	return fmt.Sprintf("battery=%.0f%% temps=[%s]", r.Battery, strings.Join(temps, ", "))
}
