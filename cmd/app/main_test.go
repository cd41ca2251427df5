package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/hubertat/grillkit/igrill"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.json")
	err := os.WriteFile(path, []byte(content), 0o600)
	if err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoadConfig(t *testing.T) {
	path := writeConfig(t, `{
	"Name": "backyard grill",
	"ServerAddress": "192.168.1.20",
	"Port": 8000,
	"RequestTimeout": "3s",
	"HkPin": 12344321
}`)
	t.Setenv("GRILLKIT_PORT", "9001")

	gk, err := loadConfig(path)
	if err != nil {
		t.Fatalf("got error from loadConfig: %v", err)
	}

	if gk.Name != "backyard grill" || gk.ServerAddress != "192.168.1.20" {
		t.Errorf("got name %q address %q", gk.Name, gk.ServerAddress)
	}
	if gk.Port != 9001 {
		t.Errorf("got port %d, want env override 9001", gk.Port)
	}
	if gk.RequestTimeout != 3*time.Second {
		t.Errorf("got request timeout %s, want 3s", gk.RequestTimeout)
	}
	if gk.HkPin != "12344321" {
		t.Errorf("got HkPin %q, want 12344321", gk.HkPin)
	}
	if gk.PollInterval != igrill.DefaultPollInterval {
		t.Errorf("got poll interval %s, want default %s", gk.PollInterval, igrill.DefaultPollInterval)
	}
	if gk.MqttTopic != "grillkit" {
		t.Errorf("got mqtt topic %q, want grillkit", gk.MqttTopic)
	}
	if gk.LowBatteryThreshold != 20 {
		t.Errorf("got low battery threshold %f, want 20", gk.LowBatteryThreshold)
	}
	if err := gk.Validate(); err != nil {
		t.Errorf("loaded config should be valid: %v", err)
	}
}

func TestLoadConfigFromEnvOnly(t *testing.T) {
	t.Setenv("GRILLKIT_SERVERADDRESS", "igrill.local")
	t.Setenv("GRILLKIT_PORT", "8000")

	gk, err := loadConfig(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatalf("got error from loadConfig: %v", err)
	}

	if gk.ServerAddress != "igrill.local" || gk.Port != 8000 {
		t.Errorf("got address %q port %d from env", gk.ServerAddress, gk.Port)
	}
	if len(gk.HkPin) != 0 {
		t.Errorf("got HkPin %q, want empty", gk.HkPin)
	}
}
