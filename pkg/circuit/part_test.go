package circuit

import (
	"errors"
	"regexp"
	"testing"
)

func fourPinPart(t *testing.T) *Part {
	t.Helper()
	pins := []*Pin{
		NewPin("1", "VDD", PowerIn),
		NewPin("2", "VSS", PowerIn),
		NewPin("3", "D0", Bidir),
		NewPin("4", "D1", Bidir),
	}
	pins[0].AddAlias("VCC")
	pins[1].AddAlias("GND")
	p, err := NewPart("CHIP", pins...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

func pinNums(pins []*Pin) []string {
	out := make([]string, len(pins))
	for i, p := range pins {
		out[i] = p.Num
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestPartLookup(t *testing.T) {
	p := fourPinPart(t)

	tests := []struct {
		name string
		ids  []any
		want []string
	}{
		{"alias", []any{"VCC"}, []string{"1"}},
		{"alias case-insensitive", []any{"gnd"}, []string{"2"}},
		{"name", []any{"D1"}, []string{"4"}},
		{"int number", []any{3}, []string{"3"}},
		{"string number", []any{"2"}, []string{"2"}},
		{"p-prefixed number", []any{"p4"}, []string{"4"}},
		{"range", []any{Span(2, 3)}, []string{"2", "3"}},
		{"descending range", []any{Span(4, 2)}, []string{"4", "3", "2"}},
		{"comma list", []any{"1, D0"}, []string{"1", "3"}},
		{"bus notation", []any{"D[1:0]"}, []string{"4", "3"}},
		{"nested", []any{[]any{1, "VSS"}}, []string{"1", "2"}},
		{"duplicates removed", []any{1, "VCC", "VDD"}, []string{"1"}},
		{"explicit pattern", []any{regexp.MustCompile(`^(VCC|GND)$`)}, []string{"1", "2"}},
		{"all pins", nil, []string{"1", "2", "3", "4"}},
		{"no match", []any{"XYZ"}, []string{}},
		{"no pattern without regex", []any{"D.*"}, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pins, err := p.Get(tt.ids...)
			if err != nil {
				t.Fatalf("Get(%v): %v", tt.ids, err)
			}
			if got := pinNums(pins); !equalStrings(got, tt.want) {
				t.Errorf("Get(%v) = %v, want %v", tt.ids, got, tt.want)
			}
		})
	}
}

func TestPartLookupOrder(t *testing.T) {
	// Pin 1 is named "2"; a lookup of "2" must find pin number 2 first.
	pins := []*Pin{NewPin("1", "2", Passive), NewPin("2", "X", Passive)}
	p, err := NewPart("ODD", pins...)
	if err != nil {
		t.Fatal(err)
	}
	got, err := p.Pin("2")
	if err != nil {
		t.Fatal(err)
	}
	if got.Num != "2" {
		t.Errorf("lookup of \"2\" returned pin %s, want number match", got.Num)
	}

	byName, err := p.ByName("2")
	if err != nil {
		t.Fatal(err)
	}
	if len(byName) != 1 || byName[0].Num != "1" {
		t.Errorf("ByName(\"2\") = %v", pinNums(byName))
	}
}

func TestByNumberPatternIgnoresAliases(t *testing.T) {
	p := fourPinPart(t)
	p.Pins()[0].AddAlias("SUPPLY")

	got, err := p.ByNumber(regexp.MustCompile("SUP.*"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("ByNumber(SUP.*) = %v, want none", pinNums(got))
	}

	got, err = p.ByNumber(regexp.MustCompile("^[12]$"))
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].Num != "1" || got[1].Num != "2" {
		t.Errorf("ByNumber(^[12]$) = %v", pinNums(got))
	}
}

func TestPartRegexLookup(t *testing.T) {
	p := fourPinPart(t)
	p.MatchRegex = true

	pins, err := p.Get("D.*")
	if err != nil {
		t.Fatal(err)
	}
	if got := pinNums(pins); !equalStrings(got, []string{"3", "4"}) {
		t.Errorf("pattern lookup = %v", got)
	}
}

func TestPartPinErrors(t *testing.T) {
	p := fourPinPart(t)
	if _, err := p.Pin("NOPE"); !errors.Is(err, ErrIndex) {
		t.Errorf("missing pin: got %v", err)
	}
	if _, err := p.Pin(Span(1, 2)); !errors.Is(err, ErrCardinality) {
		t.Errorf("ambiguous pin: got %v", err)
	}
	if _, err := p.Get(Span(0, 9)); !errors.Is(err, ErrIndex) {
		t.Errorf("range outside pin numbers: got %v", err)
	}
	if _, err := p.Get(3.5); !errors.Is(err, ErrIllegalOperand) {
		t.Errorf("float id: got %v", err)
	}
}

func TestPartUnits(t *testing.T) {
	c := newTestCircuit()
	p, err := c.Instantiate(fourPinPart(t), "")
	if err != nil {
		t.Fatal(err)
	}
	u, err := p.MakeUnit("A", "VCC", "D0")
	if err != nil {
		t.Fatal(err)
	}
	if u.Ref() != p.Ref()+".A" {
		t.Errorf("unit ref = %s", u.Ref())
	}
	got, err := u.Pin("VCC")
	if err != nil {
		t.Fatal(err)
	}
	want, _ := p.Pin(1)
	if got != want {
		t.Error("unit pin is not shared with the part")
	}
	if _, err := u.Pin("D1"); !errors.Is(err, ErrIndex) {
		t.Errorf("pin outside unit: got %v", err)
	}
}

func TestPartCopy(t *testing.T) {
	c := newTestCircuit()
	orig, err := c.Instantiate(fourPinPart(t), "U7")
	if err != nil {
		t.Fatal(err)
	}
	orig.Fields["mfr"] = "ACME"
	if _, err := orig.MakeUnit("PWR", 1, 2); err != nil {
		t.Fatal(err)
	}
	if err := c.NewNet("GND").Connect(orig.Pins()[1]); err != nil {
		t.Fatal(err)
	}

	cp := orig.Copy()

	if cp.Circuit() != nil || cp.Ref() != "" || cp.Tag() != "" {
		t.Errorf("copy is not detached: circuit=%v ref=%q tag=%q", cp.Circuit(), cp.Ref(), cp.Tag())
	}
	if cp.Fields["mfr"] != "ACME" {
		t.Error("fields not copied")
	}
	cp.Fields["mfr"] = "OTHER"
	if orig.Fields["mfr"] != "ACME" {
		t.Error("fields shared between copies")
	}
	for i, pin := range cp.Pins() {
		if pin == orig.Pins()[i] || pin.Part() != cp {
			t.Errorf("pin %d not re-parented", i)
		}
		if pin.Net() != nil {
			t.Errorf("pin %d copied a connection", i)
		}
	}
	unit := cp.Unit("PWR")
	if unit == nil || unit.Pins()[0] != cp.Pins()[0] {
		t.Error("unit not rebuilt on copied pins")
	}
	vcc, err := cp.Pin("VCC")
	if err != nil || vcc != cp.Pins()[0] {
		t.Errorf("copied alias lookup: %v %v", vcc, err)
	}
}

func TestPartPinMutations(t *testing.T) {
	c := newTestCircuit()
	p, err := c.Instantiate(fourPinPart(t), "")
	if err != nil {
		t.Fatal(err)
	}
	if err := p.RenamePin("D0", "SDA"); err != nil {
		t.Fatal(err)
	}
	if pin, err := p.Pin("SDA"); err != nil || pin.Num != "3" {
		t.Errorf("renamed pin lookup: %v %v", pin, err)
	}
	if err := p.SwapPins("VCC", "GND"); err != nil {
		t.Fatal(err)
	}
	if pin, _ := p.Pin("VCC"); pin.Num != "2" {
		t.Errorf("after swap VCC is pin %s", pin.Num)
	}

	if err := p.RemovePins("SDA"); err != nil {
		t.Fatal(err)
	}
	if len(p.Pins()) != 3 {
		t.Errorf("pin count = %d", len(p.Pins()))
	}

	if err := c.NewNet("X").Connect(p.Pins()[0]); err != nil {
		t.Fatal(err)
	}
	edits := map[string]func() error{
		"rename":   func() error { return p.RenamePin(1, "NEW") },
		"renumber": func() error { return p.RenumberPin(1, "9") },
		"swap":     func() error { return p.SwapPins(2, 4) },
		"remove":   func() error { return p.RemovePins(2) },
	}
	for name, edit := range edits {
		if err := edit(); !errors.Is(err, ErrIllegalMutation) {
			t.Errorf("%s on connected part: got %v", name, err)
		}
	}
	if len(p.Pins()) != 3 {
		t.Errorf("refused edits changed pin count to %d", len(p.Pins()))
	}

	p.Disconnect()
	if err := p.RenumberPin(1, "9"); err != nil {
		t.Errorf("renumber after disconnect: %v", err)
	}
}

func TestSplitPinNames(t *testing.T) {
	p, err := NewPart("MCU", NewPin("1", "PA0/ADC0", Bidir))
	if err != nil {
		t.Fatal(err)
	}
	p.SplitPinNames("/")
	pin, err := p.Pin("ADC0")
	if err != nil || pin.Num != "1" {
		t.Errorf("split alias lookup: %v %v", pin, err)
	}
}

func TestPartTagAndValue(t *testing.T) {
	p := fourPinPart(t)
	if p.Value() != "CHIP" {
		t.Errorf("default value = %s", p.Value())
	}
	if err := p.SetTag("bad tag!"); err == nil {
		t.Error("expected invalid tag error")
	}
	if err := p.SetTag("abc-123_x"); err != nil {
		t.Errorf("valid tag rejected: %v", err)
	}
}

func TestPinSortKey(t *testing.T) {
	nums := []string{"A10", "A9", "B1", "2", "10"}
	keys := make(map[string]string)
	for _, n := range nums {
		keys[n] = NewPin(n, "", Passive).SortKey()
	}
	if !(keys["A9"] < keys["A10"] && keys["A10"] < keys["B1"]) {
		t.Errorf("BGA order wrong: %v", keys)
	}
	if !(keys["2"] < keys["10"]) {
		t.Errorf("numeric order wrong: %v", keys)
	}
}
