package netlist

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OpenTraceLab/OpenTraceNet/internal/ctxlog"
	"github.com/OpenTraceLab/OpenTraceNet/internal/sexp"
	"github.com/OpenTraceLab/OpenTraceNet/pkg/circuit"
)

func resistor(t *testing.T) *circuit.Part {
	t.Helper()
	r, err := circuit.NewPart("R",
		circuit.NewPin("1", "", circuit.Passive),
		circuit.NewPin("2", "", circuit.Passive))
	require.NoError(t, err)
	r.RefPrefix = "R"
	r.Footprint = "Resistor_SMD:R_0603"
	return r
}

// divider builds VCC - R1 - MID - R2 - GND with an LED driver on MID.
func divider(t *testing.T) *circuit.Circuit {
	t.Helper()
	c := circuit.New(circuit.WithLogger(ctxlog.Discard()), circuit.WithName("divider"))
	tmpl := resistor(t)

	r1, err := c.Instantiate(tmpl, "")
	require.NoError(t, err)
	r2, err := c.Instantiate(tmpl, "")
	require.NoError(t, err)
	r2.SetValue("4k7")
	r2.Fields["tolerance"] = "1%"

	buf, err := circuit.NewPart("BUF",
		circuit.NewPin("1", "IN", circuit.Input),
		circuit.NewPin("2", "OUT", circuit.Output))
	require.NoError(t, err)
	u1, err := c.Instantiate(buf, "")
	require.NoError(t, err)

	vcc := c.NewNet("VCC")
	gnd := c.NewNet("GND")
	require.NoError(t, vcc.Connect(r1.Pins()[0]))
	require.NoError(t, gnd.Connect(r2.Pins()[1]))
	require.NoError(t, r1.Pins()[1].Connect(r2.Pins()[0], u1.Pins()[0]))
	c.NewNet("UNUSED")

	_, err = c.NewBus("D", 2)
	require.NoError(t, err)
	return c
}

func TestBuild(t *testing.T) {
	c := divider(t)
	nl := Build(c, WithSource("divider.hcl"), WithDate(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)))

	assert.Equal(t, "divider.hcl", nl.Source)
	assert.Equal(t, "2024-05-01T12:00:00Z", nl.Date)

	require.Len(t, nl.Components, 3)
	assert.Equal(t, "R1", nl.Components[0].Ref)
	assert.Equal(t, "R", nl.Components[0].Value, "value defaults to the part name")
	assert.Equal(t, "4k7", nl.Components[1].Value)
	assert.Equal(t, "1%", nl.Components[1].Fields["tolerance"])
	assert.Equal(t, "U1", nl.Components[2].Ref)
	assert.NotEmpty(t, nl.Components[0].Tag)

	names := make([]string, len(nl.Nets))
	for i, n := range nl.Nets {
		names[i] = n.Name
		assert.Equal(t, i+1, n.Code)
	}
	assert.Equal(t, []string{"GND", "N$1", "VCC"}, names, "pinless nets are skipped")

	mid := nl.Nets[1]
	require.Len(t, mid.Nodes, 3)
	assert.Equal(t, Node{Ref: "R1", Pin: "2", PinFunc: "PASSIVE"}, mid.Nodes[0])
	assert.Equal(t, Node{Ref: "U1", Pin: "1", PinName: "IN", PinFunc: "INPUT"}, mid.Nodes[2])
	assert.Equal(t, circuit.DrivePassive.String(), mid.Drive)

	require.Len(t, nl.Buses, 1)
	assert.Equal(t, Bus{Name: "D", Nets: []string{"D0", "D1"}}, nl.Buses[0])
}

func TestMergedNetsAppearOnce(t *testing.T) {
	c := circuit.New(circuit.WithLogger(ctxlog.Discard()))
	tmpl := resistor(t)
	r1, err := c.Instantiate(tmpl, "")
	require.NoError(t, err)
	r2, err := c.Instantiate(tmpl, "")
	require.NoError(t, err)

	a, b := c.NewNet("A"), c.NewNet("B")
	require.NoError(t, a.Connect(r1.Pins()[0]))
	require.NoError(t, b.Connect(r2.Pins()[0]))
	require.NoError(t, a.Connect(b))

	nl := Build(c)
	require.Len(t, nl.Nets, 1)
	assert.Len(t, nl.Nets[0].Nodes, 2)
}

func TestPartlessPinsAreSkipped(t *testing.T) {
	c := circuit.New(circuit.WithLogger(ctxlog.Discard()))
	r1, err := c.Instantiate(resistor(t), "")
	require.NoError(t, err)

	tp := circuit.NewPin("TP", "probe", circuit.Passive)
	n := c.NewNet("SENSE")
	require.NoError(t, n.Connect(r1.Pins()[0], r1.Pins()[1], tp))

	nl := Build(c)
	require.Len(t, nl.Nets, 1)
	assert.Equal(t, []Node{
		{Ref: "R1", Pin: "1", PinFunc: "PASSIVE"},
		{Ref: "R1", Pin: "2", PinFunc: "PASSIVE"},
	}, nl.Nets[0].Nodes)

	var buf bytes.Buffer
	require.NoError(t, nl.Write(&buf, FormatJSON))
	require.NoError(t, nl.Write(&buf, FormatKiCad))
	assert.NotContains(t, buf.String(), "probe")
}

func TestRefOrdering(t *testing.T) {
	c := circuit.New(circuit.WithLogger(ctxlog.Discard()))
	tmpl := resistor(t)
	for range 10 {
		_, err := c.Instantiate(tmpl, "")
		require.NoError(t, err)
	}
	nl := Build(c)
	assert.Equal(t, "R2", nl.Components[1].Ref)
	assert.Equal(t, "R10", nl.Components[9].Ref)

	assert.True(t, refLess("C3", "R1"))
	assert.True(t, refLess("U9", "U10"))
	assert.False(t, refLess("U10", "U9"))
}

func TestExportJSON(t *testing.T) {
	nl := Build(divider(t))
	data, err := nl.ExportJSON()
	require.NoError(t, err)

	var doc struct {
		Version  string `json:"version"`
		NetCount int    `json:"net_count"`
		Nets     []Net  `json:"nets"`
	}
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "1.0", doc.Version)
	assert.Equal(t, 3, doc.NetCount)
	assert.Equal(t, nl.Nets, doc.Nets)
}

func TestExportKiCad(t *testing.T) {
	nl := Build(divider(t), WithSource("divider.hcl"))
	text, err := nl.ExportKiCad()
	require.NoError(t, err)

	root, err := sexp.ParseOne(strings.NewReader(text))
	require.NoError(t, err)
	assert.Equal(t, "export", root.Key())
	assert.Equal(t, KiCadVersion, root.Find("version").Arg(0))
	assert.Equal(t, "divider.hcl", root.Find("design").Find("source").Arg(0))

	comps := root.Find("components").FindAll("comp")
	require.Len(t, comps, 3)
	assert.Equal(t, "R2", comps[1].Find("ref").Arg(0))
	assert.Equal(t, "Resistor_SMD:R_0603", comps[1].Find("footprint").Arg(0))
	prop := comps[1].Find("property")
	require.NotNil(t, prop)
	assert.Equal(t, "tolerance", prop.Find("name").Arg(0))

	nets := root.Find("nets").FindAll("net")
	require.Len(t, nets, 3)
	assert.Equal(t, "N$1", nets[1].Find("name").Arg(0))
	nodes := nets[1].FindAll("node")
	require.Len(t, nodes, 3)
	assert.Equal(t, "input", nodes[2].Find("pintype").Arg(0))
	assert.Equal(t, "IN", nodes[2].Find("pinfunction").Arg(0))
}

func TestWriteFormats(t *testing.T) {
	nl := Build(divider(t))
	for _, name := range []string{"json", "KiCad"} {
		f, err := ParseFormat(name)
		require.NoError(t, err)
		var buf bytes.Buffer
		require.NoError(t, nl.Write(&buf, f))
		assert.NotZero(t, buf.Len())
	}

	_, err := ParseFormat("spice")
	assert.Error(t, err)
	assert.Error(t, nl.Write(&bytes.Buffer{}, Format("spice")))
}
