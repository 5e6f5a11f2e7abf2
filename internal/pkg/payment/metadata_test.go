package payment

import "testing"

func TestParseBuzzPriceMetadata(t *testing.T) {
	tests := []struct {
		name       string
		metadata   map[string]string
		wantOK     bool
		wantAmount int64
		wantBonus  string
	}{
		{
			name:       "plain amount",
			metadata:   map[string]string{"buzzAmount": "1000"},
			wantOK:     true,
			wantAmount: 1000,
		},
		{
			name:       "amount with bonus",
			metadata:   map[string]string{"buzzAmount": "5500", "bonusDescription": "10% bonus"},
			wantOK:     true,
			wantAmount: 5500,
			wantBonus:  "10% bonus",
		},
		{
			name:     "no annotation",
			metadata: map[string]string{"tier": "buzz"},
			wantOK:   false,
		},
		{
			name:     "nil metadata",
			metadata: nil,
			wantOK:   false,
		},
		{
			name:     "empty amount",
			metadata: map[string]string{"buzzAmount": ""},
			wantOK:   false,
		},
		{
			name:     "unparseable amount",
			metadata: map[string]string{"buzzAmount": "lots"},
			wantOK:   false,
		},
		{
			name:     "zero amount",
			metadata: map[string]string{"buzzAmount": "0"},
			wantOK:   false,
		},
		{
			name:     "negative amount",
			metadata: map[string]string{"buzzAmount": "-5"},
			wantOK:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, ok := ParseBuzzPriceMetadata(tt.metadata)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if !tt.wantOK {
				if meta != nil {
					t.Fatalf("expected nil metadata, got %+v", meta)
				}
				return
			}
			if meta.BuzzAmount != tt.wantAmount {
				t.Fatalf("BuzzAmount = %d, want %d", meta.BuzzAmount, tt.wantAmount)
			}
			if meta.BonusDescription != tt.wantBonus {
				t.Fatalf("BonusDescription = %q, want %q", meta.BonusDescription, tt.wantBonus)
			}
		})
	}
}
