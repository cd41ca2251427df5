package igrill

import (
	"time"

	"github.com/pkg/errors"
)

type DeviceStatus int

const (
	StatusNormal DeviceStatus = iota
	StatusServerUnreachable
	StatusProbeUnavailable
)

func (ds DeviceStatus) String() string {
	switch ds {
	case StatusNormal:
		return "normal"
	case StatusServerUnreachable:
		return "server_unreachable"
	case StatusProbeUnavailable:
		return "probe_unavailable"
	default:
		return "unknown"
	}
}

func (ds DeviceStatus) IsNormal() bool {
	return ds == StatusNormal
}

var (
	ErrServerUnreachable    = errors.New("igrill server unreachable")
	ErrProbeUnavailable     = errors.New("igrill probe unavailable")
	ErrCommunicationFailure = errors.New("communication failure")
)

// StatusFromError maps a poll outcome onto a device status.
func StatusFromError(err error) DeviceStatus {
	switch {
	case err == nil:
		return StatusNormal
	case errors.Is(err, ErrServerUnreachable):
		return StatusServerUnreachable
	default:
		return StatusProbeUnavailable
	}
}

// State is the result of one completed poll. It is never modified after
// being stored by the Poller.
type State struct {
	Status    DeviceStatus
	Readings  Readings
	UpdatedAt time.Time
}

func NewState(readings Readings, err error) State {
	st := State{
		Status:    StatusFromError(err),
		Readings:  readings,
		UpdatedAt: time.Now(),
	}
	if !st.Status.IsNormal() {
		st.Readings = readings.WithoutTemps()
	}
	return st
}

func checkProbe(probe int) error {
	if probe < 0 || probe >= ProbeCount {
		return errors.Errorf("probe index %d out of range (0-%d)", probe, ProbeCount-1)
	}
	return nil
}

func (st State) Active(probe int) bool {
	if checkProbe(probe) != nil {
		return false
	}
	return st.Status.IsNormal() && st.Readings.Temps[probe].Present
}

// ProbeCelsius ignores the device status.
func (st State) ProbeCelsius(probe int) float64 {
	if checkProbe(probe) != nil {
		return FahrenheitToCelsius(0)
	}
	return st.Readings.Temps[probe].Celsius()
}

// Temperature fails with ErrCommunicationFailure unless the status is normal.
// Both failure statuses give the same error.
func (st State) Temperature(probe int) (float64, error) {
	err := checkProbe(probe)
	if err != nil {
		return 0, err
	}
	if !st.Status.IsNormal() {
		return 0, errors.Wrapf(ErrCommunicationFailure, "probe %d, device status %s", probe+1, st.Status)
	}
	return st.ProbeCelsius(probe), nil
}

func (st State) LowBattery(threshold float64) bool {
	return st.Status.IsNormal() && st.Readings.Battery < threshold
}
