package payment

import (
	"testing"
	"time"
)

func TestUnixTimePtr(t *testing.T) {
	if got := unixTimePtr(0); got != nil {
		t.Fatalf("expected nil for zero input, got %v", got)
	}

	got := unixTimePtr(1700000000)
	if got == nil {
		t.Fatal("expected non-nil for non-zero input")
	}
	if !got.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("got %v, want %v", got, time.Unix(1700000000, 0))
	}
}

func TestUnixTime(t *testing.T) {
	if got := unixTime(1700000000); !got.Equal(time.Unix(1700000000, 0)) {
		t.Fatalf("got %v, want %v", got, time.Unix(1700000000, 0))
	}
}

func TestShortCustomerRef(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"cus_1234567890", "34567890"},
		{"cus_1", "cus_1"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := shortCustomerRef(tt.in); got != tt.want {
			t.Fatalf("shortCustomerRef(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
