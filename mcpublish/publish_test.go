package mcpublish

import (
	"encoding/json"
	"testing"

	"melsec/mc"
)

func TestPublish_NotStartedIsNoop(t *testing.T) {
	p := New(Config{Name: "test", Broker: "localhost", Port: 1883, RootTopic: "plc"})
	addr := mc.DeviceAddress{Prefix: "D", Number: 100, Type: mc.Word}
	if err := p.Publish(addr, mc.NewUInt16Value(42)); err != nil {
		t.Errorf("Publish on an unstarted publisher should be a no-op, got %v", err)
	}
	if p.IsRunning() {
		t.Error("IsRunning should be false before Start")
	}
}

func TestValueMessage_MarshalsGoValue(t *testing.T) {
	msg := ValueMessage{
		Device: "D100",
		Value:  mc.NewInt32Value(-500).GoValue(),
		Type:   mc.Int32.String(),
	}
	out, err := json.Marshal(msg)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(out, &decoded); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if decoded["device"] != "D100" {
		t.Errorf("device = %v, want D100", decoded["device"])
	}
	if decoded["type"] != "Int32" {
		t.Errorf("type = %v, want Int32", decoded["type"])
	}
}
