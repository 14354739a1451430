package kicad

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/library"
)

const amplifiers = `(kicad_symbol_lib (version 20211014) (generator kicad_symbol_editor)
  (symbol "LM358" (pin_names (offset 1.016)) (in_bom yes) (on_board yes)
    (property "Reference" "U" (id 0) (at 0 5.08 0))
    (property "Value" "LM358" (id 1) (at 0 -5.08 0))
    (property "Footprint" "" (id 2) (at 0 0 0))
    (property "Datasheet" "http://www.ti.com/lit/ds/symlink/lm2904-n.pdf" (id 3) (at 0 0 0))
    (property "ki_keywords" "dual opamp" (id 4) (at 0 0 0))
    (property "ki_description" "Low-Power, Dual Operational Amplifiers" (id 5) (at 0 0 0))
    (symbol "LM358_1_1"
      (polyline (pts (xy -5.08 5.08) (xy 5.08 0)) (stroke (width 0.254)) (fill (type background)))
      (pin output line (at 7.62 0 180) (length 2.54) (name "~" (effects (font (size 1.27 1.27)))) (number "1" (effects (font (size 1.27 1.27)))))
      (pin input line (at -7.62 -2.54 0) (length 2.54) (name "-" (effects (font (size 1.27 1.27)))) (number "2" (effects (font (size 1.27 1.27)))))
      (pin input line (at -7.62 2.54 0) (length 2.54) (name "+" (effects (font (size 1.27 1.27)))) (number "3" (effects (font (size 1.27 1.27)))))
    )
    (symbol "LM358_1_2"
      (pin output line (at 7.62 0 180) (length 2.54) (name "~") (number "1"))
    )
    (symbol "LM358_2_1"
      (pin input line (at -7.62 2.54 0) (length 2.54) (name "+") (number "5"))
      (pin input line (at -7.62 -2.54 0) (length 2.54) (name "-") (number "6"))
      (pin output line (at 7.62 0 180) (length 2.54) (name "~") (number "7"))
    )
    (symbol "LM358_3_1"
      (pin power_in line (at -2.54 -7.62 90) (length 3.81) (name "V-") (number "4"))
      (pin power_in line (at -2.54 7.62 270) (length 3.81) (name "V+") (number "8"))
    )
  )
  (symbol "LM2904" (extends "LM358")
    (property "Reference" "U" (id 0) (at 0 5.08 0))
    (property "Value" "LM2904" (id 1) (at 0 -5.08 0))
    (property "Datasheet" "~" (id 3) (at 0 0 0))
  )
  (symbol "R" (pin_numbers hide) (pin_names (offset 0)) (in_bom yes) (on_board yes)
    (property "Reference" "R" (id 0) (at 2.032 0 90))
    (property "Value" "R" (id 1) (at 0 0 90))
    (symbol "R_0_1" (rectangle (start -1.016 -2.54) (end 1.016 2.54)))
    (symbol "R_1_1"
      (pin passive line (at 0 3.81 270) (length 1.27) (name "~") (number "1"))
      (pin passive line (at 0 -3.81 90) (length 1.27) (name "~") (number "2"))
    )
  )
  (symbol "MCU" (in_bom yes) (on_board yes)
    (property "Reference" "U?" (id 0) (at 0 0 0))
    (symbol "MCU_1_1"
      (pin bidirectional line (at 0 0 0) (length 2.54) (name "PA0") (number "A1")
        (alternate "ADC0" input line) (alternate "SDA" open_collector line))
      (pin no_connect line (at 0 0 0) (length 2.54) (name "NC") (number "A2"))
      (pin tri_state line (at 0 0 0) (length 2.54) (name "DO") (number "A3"))
    )
  )
)`

func parse(t *testing.T) *library.Library {
	t.Helper()
	lib, err := Loader{}.Parse(strings.NewReader(amplifiers), "Amplifier.kicad_sym")
	require.NoError(t, err)
	return lib
}

func TestParseSymbols(t *testing.T) {
	lib := parse(t)
	assert.Equal(t, "Amplifier", lib.Name)
	assert.Equal(t, []string{"LM2904", "LM358", "MCU", "R"}, lib.Names())

	op, err := lib.Get("lm358")
	require.NoError(t, err)
	assert.Equal(t, "U", op.RefPrefix)
	assert.Equal(t, "Low-Power, Dual Operational Amplifiers", op.Description)
	assert.Equal(t, "dual opamp", op.Fields["ki_keywords"])
	require.Len(t, op.Pins, 8, "alternate body style pins are skipped")
	assert.Equal(t, "", op.Pins[0].Name, "~ means no name")

	require.Len(t, op.Units, 3)
	assert.Equal(t, library.UnitDef{Label: "uA", Pins: []string{"1", "2", "3"}}, op.Units[0])
	assert.Equal(t, library.UnitDef{Label: "uC", Pins: []string{"4", "8"}}, op.Units[2])

	r, err := lib.Get("R")
	require.NoError(t, err)
	assert.Equal(t, "R", r.RefPrefix)
	assert.Empty(t, r.Units, "single-unit parts have no units")
}

func TestExtends(t *testing.T) {
	lib := parse(t)
	derived, err := lib.Get("LM2904")
	require.NoError(t, err)
	assert.Equal(t, "LM2904", derived.Value)
	assert.Empty(t, derived.Datasheet)
	assert.Len(t, derived.Pins, 8)
	assert.Len(t, derived.Units, 3)
}

func TestTemplateToPart(t *testing.T) {
	lib := parse(t)

	op, err := lib.Part("LM358")
	require.NoError(t, err)
	vcc, err := op.Pin("V+")
	require.NoError(t, err)
	assert.Equal(t, circuit.PowerIn, vcc.Func)
	assert.Equal(t, "uB", op.Units()[1].Label)

	mcu, err := lib.Part("MCU")
	require.NoError(t, err)
	assert.Equal(t, "U", mcu.RefPrefix, "trailing ? stripped from the reference")
	sda, err := mcu.Pin("SDA")
	require.NoError(t, err)
	assert.Equal(t, "A1", sda.Num)
	assert.Equal(t, circuit.Bidir, sda.Func)

	funcs := make([]circuit.PinFunc, 0, 3)
	for _, p := range mcu.Pins() {
		funcs = append(funcs, p.Func)
	}
	assert.Equal(t, []circuit.PinFunc{circuit.Bidir, circuit.NoConnect, circuit.Tristate}, funcs)
}

func TestParseErrors(t *testing.T) {
	tests := map[string]string{
		"not a library": `(kicad_pcb (version 1))`,
		"bad body":      `(kicad_symbol_lib (symbol "A" (symbol "B_1_1")))`,
		"bad unit":      `(kicad_symbol_lib (symbol "A" (symbol "A_x_1")))`,
		"no number":     `(kicad_symbol_lib (symbol "A" (symbol "A_1_1" (pin input line (name "X")))))`,
		"extends":       `(kicad_symbol_lib (symbol "A" (extends "B")))`,
		"syntax":        `(kicad_symbol_lib (symbol "A"`,
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Loader{}.Parse(strings.NewReader(input), "x.kicad_sym")
			assert.Error(t, err)
		})
	}
}

func TestUnitLabel(t *testing.T) {
	assert.Equal(t, "uA", UnitLabel(1))
	assert.Equal(t, "uZ", UnitLabel(26))
	assert.Equal(t, "uAA", UnitLabel(27))
}

func TestRegistryIntegration(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "Amplifier.kicad_sym"), []byte(amplifiers), 0o644))

	reg := library.NewRegistry(library.WithPaths(dir), library.WithLoaders(Loader{}))
	ctx := ctxlog.WithLogger(context.Background(), ctxlog.Discard())
	p, err := reg.Part(ctx, "Amplifier", "R")
	require.NoError(t, err)
	assert.Len(t, p.Pins(), 2)
}
