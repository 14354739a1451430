package circuit

import (
	"errors"
	"fmt"
)

// Error classes returned by circuit operations. Callers match them with errors.Is.
var (
	// ErrIllegalOperand is returned when a value that is not a pin, net, bus or
	// group is handed to a connection operation.
	ErrIllegalOperand = errors.New("circuit: illegal operand")

	// ErrCrossCircuit is returned when two objects from different circuits are connected.
	ErrCrossCircuit = fmt.Errorf("%w: objects belong to different circuits", ErrIllegalOperand)

	// ErrIllegalMutation is returned when state that may only change through
	// Connect is modified directly.
	ErrIllegalMutation = errors.New("circuit: illegal mutation")

	// ErrUnmovable is returned when a connected member is moved between circuits.
	ErrUnmovable = errors.New("circuit: member cannot be moved")

	// ErrNotMember is returned when removing something that is not in the circuit.
	ErrNotMember = fmt.Errorf("%w: not a member of this circuit", ErrUnmovable)

	// ErrInvalidNet is returned when a net retired by MergeNets is mutated.
	ErrInvalidNet = errors.New("circuit: net is no longer valid")

	// ErrCopyPrecondition is returned when copying a net that already has pins.
	ErrCopyPrecondition = errors.New("circuit: cannot copy a net with attached pins")

	// ErrCardinality is returned when a group connection is neither 1:1 nor 1:N.
	ErrCardinality = errors.New("circuit: connection width mismatch")

	// ErrNoConnect is returned for operations the no-connect net does not allow.
	ErrNoConnect = errors.New("circuit: no-connect violation")

	// ErrNameConflict is returned when two fixed names meet in one merged net.
	ErrNameConflict = errors.New("circuit: conflicting fixed net names")

	// ErrIndex is returned for bus and pin indices outside the valid range.
	ErrIndex = errors.New("circuit: index out of range")
)
