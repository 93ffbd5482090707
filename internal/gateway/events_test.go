package gateway

import (
	"reflect"
	"testing"
)

func TestClassifyEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		want   Classification
		wantOk bool
	}{
		{
			name:  "order paid",
			event: Event{Type: "order.paid", Data: EventData{ID: "or_123"}},
			want: Classification{
				TargetStatus:   TargetPaid,
				CorrelationIds: []string{"or_123"},
			},
			wantOk: true,
		},
		{
			name: "charge paid with parent order fallback",
			event: Event{Type: "charge.paid", Data: EventData{
				ID:    "ch_456",
				Order: &EventOrder{ID: "or_123"},
			}},
			want: Classification{
				TargetStatus:   TargetPaid,
				CorrelationIds: []string{"ch_456", "or_123"},
			},
			wantOk: true,
		},
		{
			name: "charge paid without its own id",
			event: Event{Type: "charge.paid", Data: EventData{
				Order: &EventOrder{ID: "or_123"},
			}},
			want: Classification{
				TargetStatus:   TargetPaid,
				CorrelationIds: []string{"or_123"},
			},
			wantOk: true,
		},
		{
			name:  "charge payment failed",
			event: Event{Type: "charge.payment_failed", Data: EventData{ID: "ch_456"}},
			want: Classification{
				TargetStatus:   TargetFailed,
				CorrelationIds: []string{"ch_456"},
			},
			wantOk: true,
		},
		{
			name:  "order canceled",
			event: Event{Type: "order.canceled", Data: EventData{ID: "or_123"}},
			want: Classification{
				TargetStatus:   TargetFailed,
				CorrelationIds: []string{"or_123"},
			},
			wantOk: true,
		},
		{
			name:   "unknown event type",
			event:  Event{Type: "charge.antifraud_approved", Data: EventData{ID: "ch_456"}},
			wantOk: false,
		},
		{
			name:   "empty type",
			event:  Event{Data: EventData{ID: "ch_456"}},
			wantOk: false,
		},
		{
			name:   "paid event without any correlation id",
			event:  Event{Type: "order.paid"},
			wantOk: false,
		},
		{
			name: "duplicate ids collapse",
			event: Event{Type: "charge.paid", Data: EventData{
				ID:    "or_123",
				Order: &EventOrder{ID: "or_123"},
			}},
			want: Classification{
				TargetStatus:   TargetPaid,
				CorrelationIds: []string{"or_123"},
			},
			wantOk: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ClassifyEvent(tt.event)
			if ok != tt.wantOk {
				t.Fatalf("ClassifyEvent ok = %v, want %v", ok, tt.wantOk)
			}
			if !ok {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ClassifyEvent = %+v, want %+v", got, tt.want)
			}
		})
	}
}
