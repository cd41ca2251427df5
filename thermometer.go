package grillkit

import (
	"fmt"
	"hash/fnv"
	"os"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/service"
	"github.com/charmbracelet/log"
	"github.com/pkg/errors"

	"github.com/hubertat/grillkit/igrill"
)

const defaultThermometerName = "Weber-iGrill-V3"
const thermometerManufacturer = "Weber"
const thermometerModel = "iGrill-V2"
const defaultLowBatteryThreshold = 20.0

// Accessory is what the HomeKit server needs from a thing it exposes.
type Accessory interface {
	GetHk() *accessory.A
	GetServices() []*service.S
}

// StateSource is satisfied by *igrill.Poller.
type StateSource interface {
	Current() igrill.State
}

// Thermometer exposes the iGrill as one accessory with a temperature sensor
// service per probe.
type Thermometer struct {
	Name                string
	SerialNumber        string
	LowBatteryThreshold float64

	source StateSource
	probes []*Probe
	hkA    *accessory.A
	logger *log.Logger
}

func (th *Thermometer) GetUniqueId() uint64 {
	hash := fnv.New64()
	hash.Write([]byte("Thermometer_" + th.Name))
	return hash.Sum64()
}

func (th *Thermometer) Init(source StateSource, firmwareVersion string) error {
	if source == nil {
		return errors.New("Init failed, thermometer has no state source")
	}
	th.source = source

	if len(th.Name) == 0 {
		th.Name = defaultThermometerName
	}
	if th.LowBatteryThreshold <= 0 {
		th.LowBatteryThreshold = defaultLowBatteryThreshold
	}
	if len(th.SerialNumber) == 0 {
		th.SerialNumber = fmt.Sprintf("igrill:%016x", th.GetUniqueId())
	}

	th.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: "Thermometer 🌡️",
		Level:  log.GetLevel(),
	})

	info := accessory.Info{
		Name:         th.Name,
		SerialNumber: th.SerialNumber,
		Manufacturer: thermometerManufacturer,
		Model:        thermometerModel,
		Firmware:     firmwareVersion,
	}
	// standalone accessory, hap gives it aid 1
	th.hkA = accessory.New(info, accessory.TypeSensor)

	th.probes = make([]*Probe, 0, igrill.ProbeCount)
	for ix := 0; ix < igrill.ProbeCount; ix++ {
		probe := newProbe(ix, th.source.Current)
		th.probes = append(th.probes, probe)
		th.hkA.AddS(probe.GetService())
	}

	th.Update(th.source.Current())
	return nil
}

// Update is registered as poller listener.
func (th *Thermometer) Update(st igrill.State) {
	for _, probe := range th.probes {
		probe.update(st, th.LowBatteryThreshold)
		th.logger.Debug("probe updated", "probe", probe.Name(), "active", st.Active(probe.Index), "celsius", st.ProbeCelsius(probe.Index))
	}

	switch st.Status {
	case igrill.StatusServerUnreachable:
		th.logger.Debug("iGrill server seems to be down, all probes inactive")
	case igrill.StatusProbeUnavailable:
		th.logger.Debug("iGrill probe is not connected to server, all probes inactive")
	}
}

func (th *Thermometer) GetHk() *accessory.A {
	return th.hkA
}

// GetServices returns the information service followed by the probes.
func (th *Thermometer) GetServices() []*service.S {
	if th.hkA == nil {
		return nil
	}

	services := []*service.S{th.hkA.Info.S}
	for _, probe := range th.probes {
		services = append(services, probe.GetService())
	}
	return services
}

func (th *Thermometer) Probes() []*Probe {
	return th.probes
}

// CurrentTemperature is what a controller reading probe gets.
func (th *Thermometer) CurrentTemperature(probe int) (float64, error) {
	return th.source.Current().Temperature(probe)
}

func (th *Thermometer) Active(probe int) bool {
	return th.source.Current().Active(probe)
}
