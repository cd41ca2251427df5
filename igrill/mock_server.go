package igrill

import (
	"encoding/json"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/pkg/errors"
)

const mockHttpTimeout = 3 * time.Second

// MockServer imitates the iGrill server. With ProbeOff set it answers 404 on
// /readings, the same way the real server does when the iGrill is off.
type MockServer struct {
	HttpAddr string

	mu       sync.Mutex
	readings Readings
	probeOff bool
	requests int

	server *http.Server
}

func NewMockServer(readings Readings) *MockServer {
	return &MockServer{readings: readings}
}

func (ms *MockServer) Handler() http.Handler {
	router := httprouter.New()
	router.GET("/readings", ms.handleReadings)
	router.PUT("/probes/:probe/temp/:fahrenheit", ms.handleSetProbe)
	router.DELETE("/probes/:probe", ms.handleUnplugProbe)
	router.PUT("/battery/:level", ms.handleSetBattery)
	router.PUT("/power/:state", ms.handlePower)

	return router
}

func (ms *MockServer) ListenAndServe() error {
	ms.server = &http.Server{
		Addr:              ms.HttpAddr,
		Handler:           ms.Handler(),
		ReadTimeout:       mockHttpTimeout,
		ReadHeaderTimeout: mockHttpTimeout,
		WriteTimeout:      mockHttpTimeout,
		IdleTimeout:       2 * mockHttpTimeout,
	}

	return ms.server.ListenAndServe()
}

func (ms *MockServer) Close() error {
	if ms.server == nil {
		return nil
	}
	return ms.server.Close()
}

func (ms *MockServer) SetReadings(readings Readings) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.readings = readings
}

func (ms *MockServer) SetProbe(probe int, temp ProbeTemp) error {
	err := checkProbe(probe)
	if err != nil {
		return err
	}

	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.readings.Temps[probe] = temp
	return nil
}

func (ms *MockServer) SetProbeOff(off bool) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.probeOff = off
}

func (ms *MockServer) Requests() int {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	return ms.requests
}

func (ms *MockServer) handleReadings(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ms.mu.Lock()
	ms.requests++
	readings := ms.readings
	off := ms.probeOff
	ms.mu.Unlock()

	if off {
		http.Error(w, "igrill not connected", http.StatusNotFound)
		return
	}

	body, err := json.Marshal(readings)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// probes are numbered from 1 in the url, like on the device
func parseProbeParam(p httprouter.Params) (int, error) {
	probeNo, err := strconv.Atoi(p.ByName("probe"))
	if err != nil {
		return 0, errors.Wrap(err, "probe must be a number")
	}
	return probeNo - 1, checkProbe(probeNo - 1)
}

func (ms *MockServer) handleSetProbe(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	probe, err := parseProbeParam(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	fahrenheit, err := strconv.ParseFloat(p.ByName("fahrenheit"), 64)
	if err != nil {
		http.Error(w, "temperature must be a number", http.StatusBadRequest)
		return
	}

	ms.SetProbe(probe, Fahrenheit(fahrenheit))
	w.WriteHeader(http.StatusNoContent)
}

func (ms *MockServer) handleUnplugProbe(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	probe, err := parseProbeParam(p)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ms.SetProbe(probe, Absent())
	w.WriteHeader(http.StatusNoContent)
}

func (ms *MockServer) handleSetBattery(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	level, err := strconv.ParseFloat(p.ByName("level"), 64)
	if err != nil || level < 0 || level > 100 {
		http.Error(w, "battery level must be 0-100", http.StatusBadRequest)
		return
	}

	ms.mu.Lock()
	ms.readings.Battery = level
	ms.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (ms *MockServer) handlePower(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	switch p.ByName("state") {
	case "on":
		ms.SetProbeOff(false)
	case "off":
		ms.SetProbeOff(true)
	default:
		http.Error(w, "power state must be on or off", http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
