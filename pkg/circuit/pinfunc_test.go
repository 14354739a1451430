package circuit

import "testing"

func TestParsePinFunc(t *testing.T) {
	tests := []struct {
		in   string
		want PinFunc
	}{
		{"INPUT", Input},
		{"power_in", PowerIn},
		{"POWER-OUT", PowerOut},
		{"PWRIN", PowerIn},
		{"tri_state", Tristate},
		{"open_collector", OpenCollector},
		{"NO-CONNECT", NoConnect},
		{"bidirectional", Bidir},
		{"unspecified", Unspec},
		{"free", Free},
	}
	for _, tt := range tests {
		got, err := ParsePinFunc(tt.in)
		if err != nil {
			t.Errorf("ParsePinFunc(%q): %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePinFunc(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if _, err := ParsePinFunc("sideways"); err == nil {
		t.Error("expected error for unknown function")
	}
}

func TestPinDrive(t *testing.T) {
	p := NewPin("1", "OUT", Output)
	if p.Drive() != DrivePushPull {
		t.Errorf("output drive = %v", p.Drive())
	}
	p.SetDrive(DrivePower)
	if p.Drive() != DrivePower {
		t.Errorf("override drive = %v", p.Drive())
	}
	if Free.Info().MinRcv != DriveNoConnect {
		t.Errorf("FREE min receive = %v", Free.Info().MinRcv)
	}
	if d, err := ParseDrive("pullupdn"); err != nil || d != DrivePullUpDown {
		t.Errorf("ParseDrive = %v, %v", d, err)
	}
}
