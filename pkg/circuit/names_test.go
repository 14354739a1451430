package circuit

import (
	"errors"
	"strings"
	"testing"
)

func TestMergeNamesPreference(t *testing.T) {
	tests := []struct {
		name    string
		build   func(c *Circuit) (*Net, *Net)
		want    string
		wantErr error
		warns   int
	}{
		{
			name: "explicit beats generated",
			build: func(c *Circuit) (*Net, *Net) {
				return c.NewNet(""), c.NewNet("VCC")
			},
			want: "VCC",
		},
		{
			name: "fixed beats explicit",
			build: func(c *Circuit) (*Net, *Net) {
				return c.NewNet("SIG"), c.NewNet("GND", Fixed())
			},
			want: "GND",
		},
		{
			name: "two explicit keeps first and warns",
			build: func(c *Circuit) (*Net, *Net) {
				return c.NewNet("A"), c.NewNet("B")
			},
			want:  "A",
			warns: 1,
		},
		{
			name: "two fixed conflict",
			build: func(c *Circuit) (*Net, *Net) {
				return c.NewNet("A", Fixed()), c.NewNet("B", Fixed())
			},
			wantErr: ErrNameConflict,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCircuit()
			a, b := tt.build(c)
			if err := a.Connect(b); err != nil {
				t.Fatal(err)
			}

			warnings, err := a.MergeNames()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("got %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if a.Name() != tt.want || b.Name() != tt.want {
				t.Errorf("names = %s, %s; want %s", a.Name(), b.Name(), tt.want)
			}
			if len(warnings) != tt.warns {
				t.Errorf("got %d warnings %v, want %d", len(warnings), warnings, tt.warns)
			}
		})
	}
}

func TestMergeNamesThreeWayTie(t *testing.T) {
	c := newTestCircuit()
	a, b, d := c.NewNet("A"), c.NewNet("B"), c.NewNet("D")
	if err := a.Connect(b, d); err != nil {
		t.Fatal(err)
	}

	warnings, err := a.MergeNames()
	if err != nil {
		t.Fatal(err)
	}
	if a.Name() != "A" || d.Name() != "A" {
		t.Errorf("names = %s, %s, want A", a.Name(), d.Name())
	}
	if len(warnings) != 3 {
		t.Fatalf("got %d warnings %v, want 2 pairwise and 1 tie", len(warnings), warnings)
	}
	if !strings.Contains(warnings[2], "3 equally ranked names") {
		t.Errorf("tie warning = %q", warnings[2])
	}
}

func TestMergeNetsRetiresSegments(t *testing.T) {
	c := newTestCircuit()
	r := makePart(t, c, "R", 3, Passive)
	pins := r.Pins()
	a := c.NewNet("A")
	b := c.NewNet("")
	if err := a.Connect(pins[0]); err != nil {
		t.Fatal(err)
	}
	if err := b.Connect(pins[1]); err != nil {
		t.Fatal(err)
	}
	if err := b.Connect(a); err != nil {
		t.Fatal(err)
	}

	if err := c.MergeNets(); err != nil {
		t.Fatal(err)
	}

	if !a.Valid() || b.Valid() {
		t.Fatalf("validity a=%v b=%v, want true/false", a.Valid(), b.Valid())
	}
	if len(c.AllNets()) != 1 || c.AllNets()[0] != a {
		t.Errorf("circuit nets = %v, want [A]", c.AllNets())
	}
	if got := len(a.DirectPins()); got != 2 {
		t.Errorf("representative holds %d pins, want 2", got)
	}
	if !sameSet(b.Pins(), a.Pins()) {
		t.Error("retired net no longer reaches its group")
	}
	if err := b.Connect(pins[2]); !errors.Is(err, ErrInvalidNet) {
		t.Errorf("mutating retired net: got %v, want ErrInvalidNet", err)
	}
	if err := b.SetName("X"); !errors.Is(err, ErrInvalidNet) {
		t.Errorf("renaming retired net: got %v", err)
	}
	if pins[1].Net() != a {
		t.Errorf("pin moved to %v, want A", pins[1].Net())
	}
}
