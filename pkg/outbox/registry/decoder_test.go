package registry

import (
	"encoding/json"
	"testing"

	"github.com/angelmondragon/aura-storefront/pkg/enums"
	"github.com/angelmondragon/aura-storefront/pkg/outbox/payloads"
)

func TestDecoderRegistry(t *testing.T) {
	reg := NewDecoderRegistry()
	reg.Register(enums.EventOrderPaid, 2, func(payload json.RawMessage) (interface{}, error) {
		var decoded map[string]string
		if err := json.Unmarshal(payload, &decoded); err != nil {
			return nil, err
		}
		return decoded, nil
	})

	input := json.RawMessage(`{"orderId":"o-1"}`)
	output, err := reg.Decode(enums.EventOrderPaid, 2, input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outMap, ok := output.(map[string]string); !ok || outMap["orderId"] != "o-1" {
		t.Fatalf("unexpected output %+v", output)
	}

	if _, err := reg.Decode(enums.EventOrderPaid, 1, input); err == nil {
		t.Fatal("expected unregistered version to fail")
	}
}

func TestOrderDecoders(t *testing.T) {
	reg := NewOrderDecoders()

	out, err := reg.Decode(enums.EventOrderDelivered, 1, json.RawMessage(`{"orderId":"o-9","userEmail":"jane@example.com"}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	delivered, ok := out.(*payloads.OrderDeliveredEvent)
	if !ok {
		t.Fatalf("unexpected type %T", out)
	}
	if delivered.OrderID != "o-9" || delivered.UserEmail != "jane@example.com" {
		t.Fatalf("unexpected payload %+v", delivered)
	}

	if _, err := reg.Decode(enums.EventOrderCreated, 1, json.RawMessage(`{"orderId":`)); err == nil {
		t.Fatal("expected malformed payload to fail")
	}
}
