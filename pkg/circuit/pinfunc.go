package circuit

import (
	"fmt"
	"strings"
)

// PinFunc is the electrical function of a pin.
type PinFunc int

// Pin functions.
const (
	Input PinFunc = iota
	Output
	Bidir
	Tristate
	Passive
	PullUp
	PullDown
	Unspec
	PowerIn
	PowerOut
	OpenCollector
	OpenEmitter
	NoConnect
	Free

	numPinFuncs
)

// PinFuncs lists every pin function in table order.
func PinFuncs() []PinFunc {
	funcs := make([]PinFunc, numPinFuncs)
	for i := range funcs {
		funcs[i] = PinFunc(i)
	}
	return funcs
}

var pinFuncNames = [numPinFuncs]string{
	Input:         "INPUT",
	Output:        "OUTPUT",
	Bidir:         "BIDIRECTIONAL",
	Tristate:      "TRISTATE",
	Passive:       "PASSIVE",
	PullUp:        "PULLUP",
	PullDown:      "PULLDN",
	Unspec:        "UNSPECIFIED",
	PowerIn:       "POWER-IN",
	PowerOut:      "POWER-OUT",
	OpenCollector: "OPEN-COLLECTOR",
	OpenEmitter:   "OPEN-EMITTER",
	NoConnect:     "NO-CONNECT",
	Free:          "FREE",
}

// String returns the display name used in ERC messages.
func (f PinFunc) String() string {
	if f < 0 || f >= numPinFuncs {
		return fmt.Sprintf("PinFunc(%d)", int(f))
	}
	return pinFuncNames[f]
}

// Valid reports whether f is a known pin function.
func (f PinFunc) Valid() bool {
	return f >= 0 && f < numPinFuncs
}

// pinFuncAliases maps accepted spellings to functions. Keys are normalized by
// normFuncName, so "power_in", "POWER-IN" and "PWRIN" all resolve.
var pinFuncAliases = map[string]PinFunc{
	"input": Input, "in": Input, "i": Input,
	"output": Output, "out": Output, "o": Output,
	"bidir": Bidir, "bidirectional": Bidir, "inout": Bidir, "io": Bidir, "b": Bidir,
	"tristate": Tristate, "tri": Tristate, "t": Tristate,
	"passive": Passive, "p": Passive,
	"pullup": PullUp,
	"pulldn": PullDown, "pulldown": PullDown,
	"unspec": Unspec, "unspecified": Unspec, "u": Unspec,
	"pwrin": PowerIn, "powerin": PowerIn, "w": PowerIn,
	"pwrout": PowerOut, "powerout": PowerOut,
	"opencoll": OpenCollector, "opencollector": OpenCollector, "c": OpenCollector,
	"openemit": OpenEmitter, "openemitter": OpenEmitter, "e": OpenEmitter,
	"noconnect": NoConnect, "nc": NoConnect, "n": NoConnect, "unconnected": NoConnect,
	"free": Free,
}

func normFuncName(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(s)
}

// ParsePinFunc converts a textual pin function into a PinFunc. It accepts the
// display names, the short uppercase names (PWRIN, OPENCOLL) and the KiCad
// electrical types (power_in, tri_state, no_connect).
func ParsePinFunc(s string) (PinFunc, error) {
	if f, ok := pinFuncAliases[normFuncName(s)]; ok {
		return f, nil
	}
	return Unspec, fmt.Errorf("circuit: unknown pin function %q", s)
}

// Drive is the strength with which a pin drives a net.
type Drive int

// Drive strengths, weakest first.
const (
	DriveNoConnect Drive = iota
	DriveNone
	DrivePassive
	DrivePullUpDown
	DriveOneSide
	DriveTristate
	DrivePushPull
	DrivePower
)

var driveNames = [...]string{"NOCONNECT", "NONE", "PASSIVE", "PULLUPDN", "ONESIDE", "TRISTATE", "PUSHPULL", "POWER"}

func (d Drive) String() string {
	if d < 0 || int(d) >= len(driveNames) {
		return fmt.Sprintf("Drive(%d)", int(d))
	}
	return driveNames[d]
}

// ParseDrive converts a drive name such as "power" or "PUSHPULL" into a Drive.
func ParseDrive(s string) (Drive, error) {
	n := strings.ToUpper(normFuncName(s))
	for i, name := range driveNames {
		if name == n {
			return Drive(i), nil
		}
	}
	return DriveNone, fmt.Errorf("circuit: unknown drive %q", s)
}

// FuncInfo is the drive a function provides and the range of drive it accepts.
type FuncInfo struct {
	Drive  Drive
	MaxRcv Drive
	MinRcv Drive
}

var funcInfo = [numPinFuncs]FuncInfo{
	Input:         {DriveNone, DrivePower, DrivePassive},
	Output:        {DrivePushPull, DrivePassive, DriveNone},
	Bidir:         {DriveTristate, DrivePower, DriveNone},
	Tristate:      {DriveTristate, DriveTristate, DriveNone},
	Passive:       {DrivePassive, DrivePower, DriveNone},
	PullUp:        {DrivePullUpDown, DrivePower, DriveNone},
	PullDown:      {DrivePullUpDown, DrivePower, DriveNone},
	Unspec:        {DriveNone, DrivePower, DriveNone},
	PowerIn:       {DriveNone, DrivePower, DrivePower},
	PowerOut:      {DrivePower, DrivePassive, DriveNone},
	OpenCollector: {DriveOneSide, DriveTristate, DriveNone},
	OpenEmitter:   {DriveOneSide, DriveTristate, DriveNone},
	NoConnect:     {DriveNoConnect, DriveNoConnect, DriveNoConnect},
	Free:          {DriveNone, DrivePower, DriveNoConnect},
}

// Info returns the drive characteristics of f.
func (f PinFunc) Info() FuncInfo {
	if !f.Valid() {
		return funcInfo[Unspec]
	}
	return funcInfo[f]
}
