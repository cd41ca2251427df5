package grillkit

import (
	"encoding/json"
	"testing"

	"github.com/pkg/errors"

	"github.com/hubertat/grillkit/igrill"
)

type recordingPublisher struct {
	topics   []string
	payloads [][]byte
	err      error
}

func (rp *recordingPublisher) Publish(topic string, payload []byte) error {
	rp.topics = append(rp.topics, topic)
	rp.payloads = append(rp.payloads, payload)
	return rp.err
}

func TestNewStatePayload(t *testing.T) {
	payload := NewStatePayload(igrill.NewState(grillReadings(), nil), 20)

	if payload.Status != "normal" {
		t.Errorf("got status %s, want normal", payload.Status)
	}
	assertFloats(t, payload.Battery, 80)
	assertBools(t, payload.LowBattery, false)

	if len(payload.Probes) != igrill.ProbeCount {
		t.Fatalf("got %d probes, want %d", len(payload.Probes), igrill.ProbeCount)
	}
	assertBools(t, payload.Probes[0].Active, true)
	assertFloats(t, payload.Probes[0].Celsius, 190.0/9)
	assertFloats(t, *payload.Probes[0].Fahrenheit, 70)

	assertBools(t, payload.Probes[1].Active, false)
	if payload.Probes[1].Fahrenheit != nil {
		t.Error("absent probe should have no fahrenheit value")
	}
}

func TestStatePublisher(t *testing.T) {
	rec := &recordingPublisher{}
	sp := NewStatePublisher(rec, "/garden/grill/", 20)

	if sp.Topic() != "garden/grill/state" {
		t.Errorf("got topic %s, want garden/grill/state", sp.Topic())
	}

	err := sp.Publish(igrill.NewState(grillReadings(), igrill.ErrServerUnreachable))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rec.payloads) != 1 {
		t.Fatalf("got %d messages, want 1", len(rec.payloads))
	}

	var got StatePayload
	err = json.Unmarshal(rec.payloads[0], &got)
	if err != nil {
		t.Fatalf("payload is not json: %v", err)
	}
	if got.Status != "server_unreachable" {
		t.Errorf("got status %s, want server_unreachable", got.Status)
	}
	for ix, probe := range got.Probes {
		assertBools(t, probe.Active, false)
		if probe.Fahrenheit != nil {
			t.Errorf("probe %d reading should be cleared", ix)
		}
	}

	if NewStatePublisher(rec, "", 20).Topic() != "grillkit/state" {
		t.Error("empty topic root should fall back to grillkit")
	}
}

func TestStatePublisherUpdateSwallowsErrors(t *testing.T) {
	rec := &recordingPublisher{err: errors.New("broker gone")}
	sp := NewStatePublisher(rec, "grill", 20)

	sp.Update(igrill.NewState(grillReadings(), nil))

	if len(rec.payloads) != 1 {
		t.Errorf("got %d publish attempts, want 1", len(rec.payloads))
	}
}
