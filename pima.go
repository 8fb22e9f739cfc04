// Package pima implements the PIMA Home-Automation / Building-Management
// binary protocol (v1.15) used by PIMA Hunter Pro alarm panels, plus a
// supervisor loop that keeps a session alive against that protocol over a
// serial or TCP transport.
package pima

import "fmt"

// ArmMode is the panel's armed state for a partition, and the mode byte
// sent on an OPEN/CLOSE command.
type ArmMode byte

const (
	Disarm  ArmMode = 0x00
	FullArm ArmMode = 0x01
	Home1   ArmMode = 0x02
	Home2   ArmMode = 0x03
)

// String renders the lowercase label used both in the decoded StatusRecord
// and in the JSON wire format of the HTTP/MQTT boundary.
func (m ArmMode) String() string {
	switch m {
	case Disarm:
		return "disarm"
	case FullArm:
		return "full_arm"
	case Home1:
		return "home1"
	case Home2:
		return "home2"
	default:
		return fmt.Sprintf("unknown(%02X)", byte(m))
	}
}

// ParseArmMode maps the lowercase wire label back to an ArmMode, as used by
// the HTTP and MQTT arm command bodies. Returns InvalidArmMode for anything
// else.
func ParseArmMode(s string) (ArmMode, error) {
	switch s {
	case "disarm":
		return Disarm, nil
	case "full_arm":
		return FullArm, nil
	case "home1":
		return Home1, nil
	case "home2":
		return Home2, nil
	default:
		return 0, &InvalidArmMode{}
	}
}

// ZoneCapacity is the panel's configured zone count, one of 32, 96 or 144.
type ZoneCapacity int

const (
	HP32  ZoneCapacity = 32
	HP96  ZoneCapacity = 96
	HP144 ZoneCapacity = 144
)

// ModuleID is the 1-byte identifier the adapter declares and the panel
// echoes in every reply, derived from the configured zone capacity.
func (z ZoneCapacity) ModuleID() byte {
	if z == HP144 {
		return 0x13
	}
	return 0x0d
}

// ZoneBytesStride is the number of bytes the status frame allocates per
// zone-bitmap category (open/alarmed/bypassed/failed).
func (z ZoneCapacity) ZoneBytesStride() int {
	if z == HP144 {
		return 18
	}
	return 12
}

// zoneBitmapWidth is the number of meaningful bytes within each
// ZoneBytesStride-wide slot: capacity/8.
func (z ZoneCapacity) zoneBitmapWidth() int {
	return int(z) / 8
}

// Valid reports whether z is one of the three panel configurations this
// adapter understands.
func (z ZoneCapacity) Valid() bool {
	return z == HP32 || z == HP96 || z == HP144
}

// MessageKind is the outbound protocol operation code.
type MessageKind byte

const (
	MsgOpen   MessageKind = 0x01
	MsgStatus MessageKind = 0x05
	MsgRead   MessageKind = 0x0e
	MsgWrite  MessageKind = 0x0f
	MsgClose  MessageKind = 0x19
)

// ChannelKind selects the panel subsystem a frame addresses.
type ChannelKind byte

const (
	ChanIdle      ChannelKind = 0x00
	ChanSystem    ChannelKind = 0x01
	ChanZones     ChannelKind = 0x02
	ChanOutputs   ChannelKind = 0x03
	ChanLogin     ChannelKind = 0x04
	ChanParameter ChannelKind = 0x05
)

// StatusRecord is the canonical decoded panel state. Fields representing
// sets are nil when not applicable to the frame that produced this record
// (e.g. an IDLE-channel reply only sets LoggedIn).
type StatusRecord struct {
	LoggedIn     bool `json:"logged_in"`
	CommandAck   bool `json:"command_ack,omitempty"`
	OpenZones    []int `json:"open_zones,omitempty"`
	AlarmedZones []int `json:"alarmed_zones,omitempty"`
	BypassedZones []int `json:"bypassed_zones,omitempty"`
	FailedZones  []int `json:"failed_zones,omitempty"`

	// Partitions maps partition number (1..16) to its ArmMode label. Always
	// a total function over 1..16 when populated from a SYSTEM/STATUS body.
	Partitions map[int]string `json:"partitions,omitempty"`

	// Failures holds human-readable discrete and parametric failure
	// strings. Absent (nil) rather than present-but-empty, matching the
	// source's "include failures only if non-empty" rule.
	Failures []string `json:"failures,omitempty"`
}

// Equal reports structural equality between two status records, used by
// the Supervisor to suppress redundant publishes.
func (s *StatusRecord) Equal(other *StatusRecord) bool {
	if s == nil || other == nil {
		return s == other
	}
	if s.LoggedIn != other.LoggedIn || s.CommandAck != other.CommandAck {
		return false
	}
	if !intSetEqual(s.OpenZones, other.OpenZones) ||
		!intSetEqual(s.AlarmedZones, other.AlarmedZones) ||
		!intSetEqual(s.BypassedZones, other.BypassedZones) ||
		!intSetEqual(s.FailedZones, other.FailedZones) {
		return false
	}
	if len(s.Partitions) != len(other.Partitions) {
		return false
	}
	for k, v := range s.Partitions {
		if other.Partitions[k] != v {
			return false
		}
	}
	if !stringSetEqual(s.Failures, other.Failures) {
		return false
	}
	return true
}

func intSetEqual(a, b []int) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[int]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

func stringSetEqual(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]bool, len(a))
	for _, v := range a {
		seen[v] = true
	}
	for _, v := range b {
		if !seen[v] {
			return false
		}
	}
	return true
}

// PartitionsToAddr packs a set of 1-based partition indices into the
// little-endian 16-bit address used by the arm command: bit p-1 set for
// each selected partition p.
func PartitionsToAddr(partitions []int) uint16 {
	var addr uint16
	for _, p := range partitions {
		if p >= 1 && p <= 16 {
			addr |= 1 << uint(p-1)
		}
	}
	return addr
}

// AddrToPartitions unpacks the little-endian 16-bit partition address back
// into the set of 1-based selected partition indices.
func AddrToPartitions(addr uint16) []int {
	var out []int
	for p := 1; p <= 16; p++ {
		if addr&(1<<uint(p-1)) != 0 {
			out = append(out, p)
		}
	}
	return out
}
