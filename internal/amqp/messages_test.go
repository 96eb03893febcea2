package amqp

import (
	"testing"
	"time"
)

func TestEstimateCompletedMessageRoundTrip(t *testing.T) {
	msg := NewEstimateCompletedMessage(42, "Austin", 410050, 260050)
	if msg.Timestamp.IsZero() {
		t.Fatal("timestamp should be set")
	}

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	got, err := EstimateCompletedMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got.ID != 42 || got.Location != "Austin" {
		t.Fatalf("unexpected message: %+v", got)
	}
	if got.NetIncomeCents != 410050 || got.RemainingCents != 260050 {
		t.Fatalf("unexpected amounts: %+v", got)
	}
	if !got.Timestamp.Truncate(time.Second).Equal(msg.Timestamp.Truncate(time.Second)) {
		t.Fatalf("timestamp mismatch: %v vs %v", got.Timestamp, msg.Timestamp)
	}
}

func TestEstimateCompletedMessageFromInvalidJSON(t *testing.T) {
	if _, err := EstimateCompletedMessageFromJSON([]byte("{")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}
