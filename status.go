package pima

import "fmt"

// discreteFailures maps bit index (1..48) to the panel's documented fault
// label. Spellings, including "Commuincation", are preserved verbatim for
// compatibility with existing consumers of this taxonomy.
var discreteFailures = map[int]string{
	1:  "System Low Power",
	2:  "Unknown (2)",
	3:  "System Error",
	4:  "Zone Failure",
	5:  "Unknown (5)",
	6:  "Auxiliary Voltage Failure (Fuse short)",
	7:  "W/L Zone Low Battery",
	8:  "Wireless Receiver Failure",
	9:  "Low Battery",
	10: "Telephone Line Failure",
	11: "MAINS Failure (220V)",
	12: "Tamper 1 Open",
	13: "Tamper 2 Open",
	14: "Clock Not Set",
	15: "RAM Error",
	16: "Station Commuincation Failure",
	17: "Siren 1 Failure",
	18: "Siren 2 Failure",
	19: "SMS Communication",
	20: "SMS Card",
	21: "GSM200 Error",
	22: "Network Comm. Fault",
	23: "Radio Fault",
	24: "Keyfob Rec. Fault",
	25: "Wireless Receiver Tamper Open",
	26: "Wireless Jamming",
	27: "GSM-200 Failure",
	28: "GSM Communication Failure",
	29: "GSM-SIM Failure",
	30: "GSM Link Failure",
	31: "GSM Comm. Fault 2nd station",
	32: "W/L Zone Supervision",
	33: "Unknown (33)",
	34: "Network fault Station 2",
	35: "Net4Pro Fault",
	36: "VVR 1 Fault",
	37: "VVR 2 Fault",
	38: "VVR 3 Fault",
	39: "VVR 4 Fault",
	40: "VVR 1 Power Fault",
	41: "VVR 2 Power Fault",
	42: "VVR 3 Power Fault",
	43: "VVR 4 Power Fault",
}

// parametricFailure is one entry in the ordered list of per-module failure
// bitmaps that follow the discrete-failure bitmap in a STATUS body.
type parametricFailure struct {
	template string
	bytes    int
}

var parametricFailures = []parametricFailure{
	{"Keypad %d Failure", 1},
	{"Keypad %d Tamper", 1},
	{"Zone Expander %d Failure", 2},
	{"Zone Expander %d Tamper", 2},
	{"Zone Expander %d Low Voltage", 2},
	{"Zone Expander %d AC Failure", 2},
	{"Zone Expander %d Low Battery", 2},
	{"Out Expander %d Failure", 1},
	{"Out Expander %d Tamper", 1},
	{"Out Expander %d Low Voltage", 1},
	{"Out Expander %d AC Failure", 1},
	{"Out Expander %d Low Battery", 1},
}

// bitsSet returns the 1-based indices of every set bit in buf, read as a
// little-endian bitmap (bit 0 of buf[0] is index 1).
func bitsSet(buf []byte) []int {
	var out []int
	for byteIdx, b := range buf {
		for bit := 0; bit < 8; bit++ {
			if b&(1<<uint(bit)) != 0 {
				out = append(out, byteIdx*8+bit+1)
			}
		}
	}
	return out
}

// parseStatusBody decodes a SYSTEM-channel STATUS frame payload (starting
// at the module_id byte) into a StatusRecord, for the given zone capacity.
func parseStatusBody(capacity ZoneCapacity, payload []byte) (*StatusRecord, error) {
	zb := capacity.ZoneBytesStride()
	w := capacity.zoneBitmapWidth()

	need := 6 + 4*zb + 16 + 6
	if len(payload) < need {
		return nil, &ShortFrame{Want: need, Got: len(payload)}
	}

	rec := &StatusRecord{}

	zoneSlot := func(offset int) []int {
		if offset+w > len(payload) {
			return nil
		}
		return bitsSet(payload[offset : offset+w])
	}
	rec.OpenZones = zoneSlot(6)
	rec.AlarmedZones = zoneSlot(6 + zb)
	rec.BypassedZones = zoneSlot(6 + 2*zb)
	rec.FailedZones = zoneSlot(6 + 3*zb)

	i := 6 + 4*zb
	partitions := make(map[int]string, 16)
	for p := 1; p <= 16; p++ {
		partitions[p] = ArmMode(payload[i+p-1]).String()
	}
	rec.Partitions = partitions
	i += 16

	var failures []string
	discreteBitmap := payload[i : i+6]
	for _, k := range bitsSet(discreteBitmap) {
		if k >= 44 && k <= 48 {
			failures = append(failures, fmt.Sprintf("Unknown (%d)", k))
			continue
		}
		if label, ok := discreteFailures[k]; ok {
			failures = append(failures, label)
		}
	}
	i += 6

	for _, pf := range parametricFailures {
		if i+pf.bytes > len(payload) {
			break
		}
		for _, k := range bitsSet(payload[i : i+pf.bytes]) {
			failures = append(failures, fmt.Sprintf(pf.template, k))
		}
		i += pf.bytes
	}
	if len(failures) > 0 {
		rec.Failures = failures
	}

	i += 4 // ID/account, unused
	if i < len(payload) {
		flags := payload[i]
		rec.LoggedIn = flags&0x01 != 0
		rec.CommandAck = flags&0x02 != 0
	}

	return rec, nil
}
