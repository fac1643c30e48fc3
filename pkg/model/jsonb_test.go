package model

import (
	"encoding/json"
	"testing"
)

func TestJSONBValueAndScan(t *testing.T) {
	original := JSONB{"order_id": "ord_123", "amount": 2}

	value, err := original.Value()
	if err != nil {
		t.Fatalf("Value() error: %v", err)
	}

	data, ok := value.([]byte)
	if !ok {
		t.Fatalf("expected []byte value, got %T", value)
	}

	var decoded map[string]interface{}
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal value error: %v", err)
	}

	if decoded["order_id"] != "ord_123" {
		t.Fatalf("expected order_id ord_123, got %v", decoded["order_id"])
	}

	var scanned JSONB
	if err := scanned.Scan(data); err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	if scanned["order_id"] != "ord_123" {
		t.Fatalf("expected scanned order_id ord_123, got %v", scanned["order_id"])
	}
}

func TestDeliveryStatusTerminal(t *testing.T) {
	if !DeliveryDelivered.Terminal() {
		t.Fatalf("expected delivered to be terminal")
	}
	if !DeliveryAbandoned.Terminal() {
		t.Fatalf("expected abandoned to be terminal")
	}
	if DeliveryPending.Terminal() {
		t.Fatalf("expected pending to be non-terminal")
	}
	if DeliveryFailed.Terminal() {
		t.Fatalf("expected failed to be non-terminal")
	}
}
