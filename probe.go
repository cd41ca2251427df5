package grillkit

import (
	"fmt"
	"net/http"

	"github.com/brutella/hap"
	"github.com/brutella/hap/characteristic"
	"github.com/brutella/hap/service"

	"github.com/hubertat/grillkit/igrill"
)

const probeMinimumTemperature = -50.0
const probeMaximumTemperature = 300.0
const probeTemperatureStep = 0.1

// Probe is one temperature sensor service of the thermometer.
type Probe struct {
	Index int

	hkService     *service.TemperatureSensor
	hkName        *characteristic.Name
	hkActive      *characteristic.StatusActive
	hkStatusFault *characteristic.StatusFault
	hkLowBattery  *characteristic.StatusLowBattery
}

func (pr *Probe) Name() string {
	return fmt.Sprintf("Probe-%d", pr.Index+1)
}

func newProbe(index int, current func() igrill.State) *Probe {
	pr := &Probe{Index: index}

	pr.hkService = service.NewTemperatureSensor()
	pr.hkService.CurrentTemperature.SetMinValue(probeMinimumTemperature)
	pr.hkService.CurrentTemperature.SetMaxValue(probeMaximumTemperature)
	pr.hkService.CurrentTemperature.SetStepValue(probeTemperatureStep)

	pr.hkName = characteristic.NewName()
	pr.hkName.SetValue(pr.Name())
	pr.hkService.AddC(pr.hkName.C)

	pr.hkActive = characteristic.NewStatusActive()
	pr.hkActive.SetValue(false)
	pr.hkService.AddC(pr.hkActive.C)

	pr.hkStatusFault = characteristic.NewStatusFault()
	pr.hkStatusFault.SetValue(characteristic.StatusFaultNoFault)
	pr.hkService.AddC(pr.hkStatusFault.C)

	pr.hkLowBattery = characteristic.NewStatusLowBattery()
	pr.hkLowBattery.SetValue(characteristic.StatusLowBatteryBatteryLevelNormal)
	pr.hkService.AddC(pr.hkLowBattery.C)

	// controller reads are answered from the last poll only
	pr.hkService.CurrentTemperature.ValueRequestFunc = func(*http.Request) (interface{}, int) {
		temp, err := current().Temperature(pr.Index)
		if err != nil {
			return nil, hap.JsonStatusServiceCommunicationFailure
		}
		return temp, 0
	}
	pr.hkActive.ValueRequestFunc = func(*http.Request) (interface{}, int) {
		return current().Active(pr.Index), 0
	}

	return pr
}

// update pushes the derived state of st to the characteristics.
func (pr *Probe) update(st igrill.State, lowBatteryThreshold float64) {
	pr.hkActive.SetValue(st.Active(pr.Index))
	pr.hkService.CurrentTemperature.SetValue(st.ProbeCelsius(pr.Index))

	if st.Status.IsNormal() {
		pr.hkStatusFault.SetValue(characteristic.StatusFaultNoFault)
	} else {
		pr.hkStatusFault.SetValue(characteristic.StatusFaultGeneralFault)
	}

	if st.LowBattery(lowBatteryThreshold) {
		pr.hkLowBattery.SetValue(characteristic.StatusLowBatteryBatteryLevelLow)
	} else {
		pr.hkLowBattery.SetValue(characteristic.StatusLowBatteryBatteryLevelNormal)
	}
}

func (pr *Probe) GetService() *service.S {
	return pr.hkService.S
}
