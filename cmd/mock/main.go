package main

import (
	"context"
	"net"
	"os"
	"strconv"
	"time"

	"github.com/charmbracelet/log"

	"github.com/hubertat/grillkit"
	"github.com/hubertat/grillkit/igrill"
)

var (
	Version string
	Build   string
)

const mockAddr = "127.0.0.1"
const mockPort = 8765

func main() {
	log.SetLevel(log.DebugLevel)
	log.Info("grillkit started")
	log.Info("mock instance for testing purposes, serves a fake iGrill on localhost")

	mock := igrill.NewMockServer(igrill.Readings{
		Battery: 87,
		Temps:   [igrill.ProbeCount]igrill.ProbeTemp{igrill.Fahrenheit(72), igrill.Absent(), igrill.Fahrenheit(165), igrill.Absent()},
	})
	mock.HttpAddr = net.JoinHostPort(mockAddr, strconv.Itoa(mockPort))
	go func() {
		log.Error("mock iGrill server stopped", "err", mock.ListenAndServe())
	}()
	defer mock.Close()
	log.Info("change readings with: curl -X PUT http://127.0.0.1:8765/probes/2/temp/180, curl -X PUT http://127.0.0.1:8765/power/off")

	gk := &grillkit.GrillKit{
		Name:          "fake iGrill",
		ServerAddress: mockAddr,
		Port:          mockPort,
		PollInterval:  2 * time.Second,
		HkPin:         "88008800",
		HkDirectory:   "./mock_homekit",
	}

	err := gk.Init("mock: " + Version)
	if err != nil {
		log.Fatal("failed to init grillkit", "err", err)
	}
	defer gk.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go gk.StartPolling(ctx)

	time.Sleep(gk.PollInterval)
	gk.PrintStatus(os.Stdout)

	log.Info("starting mock with HomeKit service")
	err = gk.StartHomeKit(ctx)
	if err != nil {
		log.Error("HomeKit server stopped", "err", err)
	}
}
