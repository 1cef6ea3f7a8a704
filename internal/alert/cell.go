// Package alert implements the request/acknowledge cells monitors use to
// assert and deassert faults, and the LED board that consumes them.
package alert

import "fmt"

// Cell is one fault indicator as seen by a single monitor. Monitors only
// submit requests with Request; the board acknowledges them.
type Cell uint8

const (
	ClearAck Cell = iota // fault not asserted, acknowledged
	SetAck               // fault asserted, acknowledged
	ClearReq             // clear requested, not yet acknowledged
	SetReq               // set requested, not yet acknowledged
)

var cellNames = [...]string{"CLEAR_ACK", "SET_ACK", "CLEAR_REQ", "SET_REQ"}

func (c Cell) String() string {
	if int(c) < len(cellNames) {
		return cellNames[c]
	}
	return fmt.Sprintf("UNKNOWN(%d)", c)
}

// Request moves the cell toward set (fault asserted) or clear. Repeated
// identical requests are no-ops, and a request that cancels one the board
// has not yet acknowledged restores the acknowledged state. It reports
// whether the cell changed.
func (c *Cell) Request(set bool) bool {
	if set {
		switch *c {
		case ClearAck:
			*c = SetReq
			return true
		case ClearReq:
			*c = SetAck
			return true
		case SetReq, SetAck:
			return false
		}
	} else {
		switch *c {
		case SetAck:
			*c = ClearReq
			return true
		case SetReq:
			*c = ClearAck
			return true
		case ClearReq, ClearAck:
			return false
		}
	}
	panic(fmt.Sprintf("alert: invalid cell state %d", *c))
}

// Asserted reports whether the cell represents an asserted fault once all
// pending requests are acknowledged.
func (c Cell) Asserted() bool {
	return c == SetAck || c == SetReq
}
