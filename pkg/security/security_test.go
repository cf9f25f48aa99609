package security

import "testing"

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    Level
		wantErr bool
	}{
		{in: "low", want: LevelLow},
		{in: "medium", want: LevelMedium},
		{in: "HIGH", want: LevelHigh},
		{in: "admin", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("ParseLevel(%q) should fail", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLevel(%q) failed: %v", tt.in, err)
			}
			if got != tt.want {
				t.Fatalf("ParseLevel(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestStaticProvider(t *testing.T) {
	p := NewStatic(LevelLow)
	if p.Level() != LevelLow {
		t.Fatal("initial level not reported")
	}

	p.Set(LevelMedium)
	if p.Level() != LevelMedium {
		t.Fatal("pushed level not reported")
	}
}
