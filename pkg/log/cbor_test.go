package log

import (
	"testing"
	"time"

	"github.com/fxamacker/cbor/v2"
)

func TestEventCBORRoundTrip(t *testing.T) {
	ts := time.Date(2026, 3, 1, 12, 30, 0, 123456789, time.UTC)
	d := 15 * time.Millisecond
	code := -222
	addr := 5

	events := []Event{
		{
			Timestamp: ts, ConnectionID: "c1", Direction: DirectionOut,
			Layer: LayerTransport, Category: CategoryMessage, Medium: "tcp",
			Resource: "TCPIP::10.0.0.2::5025::SOCKET",
			Frame:    &FrameEvent{Size: 6, Data: []byte("*IDN?\n")},
		},
		{
			Timestamp: ts, ConnectionID: "c1", Direction: DirectionIn,
			Layer: LayerCommand, Category: CategoryMessage, Instrument: "agilent_e8247c",
			Command: &CommandEvent{Name: "FREQQ", Text: "FREQ?", Reply: "+1.0E+09", Duration: &d},
		},
		{
			Timestamp: ts, ConnectionID: "c2", Layer: LayerTransport, Category: CategoryControl,
			Medium: "gpib", Control: &ControlEvent{Directive: "++addr 5", Address: &addr},
		},
		{
			Timestamp: ts, ConnectionID: "c2", Layer: LayerTransport, Category: CategoryState,
			StateChange: &StateChangeEvent{Entity: StateEntityTransport, OldState: "CLOSED", NewState: "OPEN"},
		},
		{
			Timestamp: ts, ConnectionID: "c3", Layer: LayerDriver, Category: CategoryError,
			Error: &ErrorEventData{Layer: LayerDriver, Message: "Data out of range", Kind: "PROTOCOL", Code: &code, Context: "SYST:ERR?"},
		},
	}

	for _, want := range events {
		data, err := EncodeEvent(want)
		if err != nil {
			t.Fatalf("EncodeEvent failed: %v", err)
		}
		got, err := DecodeEvent(data)
		if err != nil {
			t.Fatalf("DecodeEvent failed: %v", err)
		}

		if !got.Timestamp.Equal(want.Timestamp) {
			t.Errorf("Timestamp: got %v, want %v", got.Timestamp, want.Timestamp)
		}
		if got.ConnectionID != want.ConnectionID || got.Direction != want.Direction ||
			got.Layer != want.Layer || got.Category != want.Category {
			t.Errorf("header mismatch: got %+v, want %+v", got, want)
		}
		if got.Medium != want.Medium || got.Resource != want.Resource || got.Instrument != want.Instrument {
			t.Errorf("identity mismatch: got %q/%q/%q", got.Medium, got.Resource, got.Instrument)
		}

		switch {
		case want.Frame != nil:
			if got.Frame == nil || string(got.Frame.Data) != string(want.Frame.Data) || got.Frame.Size != want.Frame.Size {
				t.Errorf("Frame: got %+v", got.Frame)
			}
		case want.Command != nil:
			if got.Command == nil || got.Command.Reply != want.Command.Reply || got.Command.Duration == nil || *got.Command.Duration != d {
				t.Errorf("Command: got %+v", got.Command)
			}
		case want.Control != nil:
			if got.Control == nil || got.Control.Directive != "++addr 5" || got.Control.Address == nil || *got.Control.Address != 5 {
				t.Errorf("Control: got %+v", got.Control)
			}
		case want.StateChange != nil:
			if got.StateChange == nil || got.StateChange.NewState != "OPEN" {
				t.Errorf("StateChange: got %+v", got.StateChange)
			}
		case want.Error != nil:
			if got.Error == nil || got.Error.Code == nil || *got.Error.Code != -222 || got.Error.Kind != "PROTOCOL" {
				t.Errorf("Error: got %+v", got.Error)
			}
		}
	}
}

func TestEventCBORUsesIntegerKeys(t *testing.T) {
	data, err := EncodeEvent(Event{ConnectionID: "x", Medium: "serial"})
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}

	var raw map[any]any
	if err := cbor.Unmarshal(data, &raw); err != nil {
		t.Fatalf("decode raw: %v", err)
	}
	for k := range raw {
		if _, ok := k.(uint64); !ok {
			t.Errorf("key %v (%T) is not an unsigned integer", k, k)
		}
	}
	if raw[uint64(6)] != "serial" {
		t.Errorf("key 6 = %v, want serial", raw[uint64(6)])
	}
}
