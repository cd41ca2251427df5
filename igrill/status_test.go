package igrill

import (
	"testing"

	"github.com/pkg/errors"
)

func grillReadings() Readings {
	return Readings{
		Battery: 80,
		Temps:   [ProbeCount]ProbeTemp{Fahrenheit(70), Absent(), Fahrenheit(32), Fahrenheit(212)},
	}
}

func TestStatusFromError(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want DeviceStatus
	}{
		{"no error", nil, StatusNormal},
		{"refused", errors.Wrap(ErrServerUnreachable, "dial tcp"), StatusServerUnreachable},
		{"not found", errors.Wrap(ErrProbeUnavailable, "404"), StatusProbeUnavailable},
		{"anything else", errors.New("boom"), StatusProbeUnavailable},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got := StatusFromError(c.err)
			if got != c.want {
				t.Errorf("got %s, want %s", got, c.want)
			}
		})
	}
}

func TestNormalState(t *testing.T) {
	st := NewState(grillReadings(), nil)

	if st.Status != StatusNormal {
		t.Fatalf("got status %s, want normal", st.Status)
	}

	wantActive := []bool{true, false, true, true}
	wantTemp := []float64{190.0 / 9, FahrenheitToCelsius(0), 0, 100}

	for probe := 0; probe < ProbeCount; probe++ {
		assertBools(t, st.Active(probe), wantActive[probe])

		temp, err := st.Temperature(probe)
		if err != nil {
			t.Errorf("probe %d: unexpected error %v", probe, err)
		}
		assertFloats(t, temp, wantTemp[probe])
	}
}

func TestFailedStates(t *testing.T) {
	for _, cause := range []error{ErrServerUnreachable, ErrProbeUnavailable} {
		t.Run(cause.Error(), func(t *testing.T) {
			st := NewState(grillReadings(), cause)

			for probe := 0; probe < ProbeCount; probe++ {
				assertBools(t, st.Active(probe), false)
				if st.Readings.Temps[probe].Present {
					t.Errorf("probe %d reading should be cleared", probe)
				}

				_, err := st.Temperature(probe)
				if !errors.Is(err, ErrCommunicationFailure) {
					t.Errorf("probe %d: got %v, want communication failure", probe, err)
				}
			}
			assertFloats(t, st.Readings.Battery, 80)
		})
	}
}

func TestProbeIndexOutOfRange(t *testing.T) {
	st := NewState(grillReadings(), nil)

	for _, probe := range []int{-1, ProbeCount} {
		assertBools(t, st.Active(probe), false)
		_, err := st.Temperature(probe)
		if err == nil {
			t.Errorf("probe %d: expected error", probe)
		}
	}
}

func TestLowBattery(t *testing.T) {
	st := NewState(Readings{Battery: 15}, nil)
	assertBools(t, st.LowBattery(20), true)
	assertBools(t, st.LowBattery(10), false)

	st = NewState(Readings{Battery: 15}, ErrProbeUnavailable)
	assertBools(t, st.LowBattery(20), false)
}
