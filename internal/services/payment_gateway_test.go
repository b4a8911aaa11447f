package services

import "testing"

func TestSessionFromWebhook(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantIntent string
		wantCharge string
	}{
		{
			name:       "unexpanded payment intent",
			raw:        `{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"paid","payment_intent":"pi_1","metadata":{"booking_id":"b-1"}}`,
			wantIntent: "pi_1",
		},
		{
			name:       "expanded payment intent",
			raw:        `{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"paid","payment_intent":{"id":"pi_1","object":"payment_intent","latest_charge":"ch_1"},"metadata":{"booking_id":"b-1"}}`,
			wantIntent: "pi_1",
			wantCharge: "ch_1",
		},
		{
			name: "no payment intent",
			raw:  `{"id":"cs_1","object":"checkout.session","status":"complete","payment_status":"paid","payment_intent":null,"metadata":{"booking_id":"b-1"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := SessionFromWebhook([]byte(tt.raw))
			if err != nil {
				t.Fatalf("SessionFromWebhook: %v", err)
			}
			if s.ID != "cs_1" || s.Status != SessionStatusComplete || s.PaymentStatus != SessionPaymentPaid {
				t.Errorf("session = %+v", s)
			}
			if s.Metadata[metadataBookingIDKey] != "b-1" {
				t.Errorf("metadata = %v", s.Metadata)
			}
			if s.PaymentIntentID != tt.wantIntent || s.ChargeID != tt.wantCharge {
				t.Errorf("intent/charge = %q/%q, want %q/%q", s.PaymentIntentID, s.ChargeID, tt.wantIntent, tt.wantCharge)
			}
		})
	}

	if _, err := SessionFromWebhook([]byte(`{"id":`)); err == nil {
		t.Error("truncated payload decoded")
	}
}
