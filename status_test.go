package pima

import "testing"

// buildSystemStatusPayload constructs a minimal SYSTEM/STATUS payload body
// (starting at module_id) for HP32, with the given zone-open byte, all
// partitions disarmed except partition 1 which is full_arm, no failures,
// and the given flags byte.
func buildSystemStatusPayload(openZonesByte0 byte, flags byte) []byte {
	capacity := HP32
	zb := capacity.ZoneBytesStride()
	payload := make([]byte, 6+4*zb+16+6+totalParametricBytes()+4+1)
	payload[0] = capacity.ModuleID()
	payload[1] = byte(MsgStatus)
	payload[2] = byte(ChanSystem)
	payload[3], payload[4], payload[5] = 0x02, 0x00, 0x00

	payload[6] = openZonesByte0 // open_zones slot, byte 0

	partitionOffset := 6 + 4*zb
	payload[partitionOffset] = byte(FullArm) // partition 1
	for p := 2; p <= 16; p++ {
		payload[partitionOffset+p-1] = byte(Disarm)
	}

	flagsOffset := partitionOffset + 16 + 6 + totalParametricBytes() + 4
	if flagsOffset < len(payload) {
		payload[flagsOffset] = flags
	}
	return payload
}

func TestParseStatusBodyE1(t *testing.T) {
	payload := buildSystemStatusPayload(0x03, 0x03)

	rec, err := parseStatusBody(HP32, payload)
	if err != nil {
		t.Fatalf("parseStatusBody: %v", err)
	}

	if !rec.LoggedIn || !rec.CommandAck {
		t.Errorf("LoggedIn=%v CommandAck=%v, want both true", rec.LoggedIn, rec.CommandAck)
	}
	if len(rec.OpenZones) != 2 || rec.OpenZones[0] != 1 || rec.OpenZones[1] != 2 {
		t.Errorf("OpenZones = %v, want [1 2]", rec.OpenZones)
	}
	if len(rec.AlarmedZones) != 0 || len(rec.BypassedZones) != 0 || len(rec.FailedZones) != 0 {
		t.Errorf("expected no alarmed/bypassed/failed zones, got %v %v %v", rec.AlarmedZones, rec.BypassedZones, rec.FailedZones)
	}
	if rec.Failures != nil {
		t.Errorf("Failures = %v, want nil", rec.Failures)
	}
	if rec.Partitions[1] != "full_arm" {
		t.Errorf("Partitions[1] = %q, want full_arm", rec.Partitions[1])
	}
	for p := 2; p <= 16; p++ {
		if rec.Partitions[p] != "disarm" {
			t.Errorf("Partitions[%d] = %q, want disarm", p, rec.Partitions[p])
		}
	}
}

func TestPartitionsTotalFunction(t *testing.T) {
	payload := buildSystemStatusPayload(0, 0)
	rec, err := parseStatusBody(HP32, payload)
	if err != nil {
		t.Fatalf("parseStatusBody: %v", err)
	}
	if len(rec.Partitions) != 16 {
		t.Fatalf("len(Partitions) = %d, want 16", len(rec.Partitions))
	}
	valid := map[string]bool{"disarm": true, "full_arm": true, "home1": true, "home2": true}
	for p, mode := range rec.Partitions {
		if !valid[mode] {
			t.Errorf("Partitions[%d] = %q, not a valid ArmMode label", p, mode)
		}
	}
}

func TestDiscreteFailureDecoding(t *testing.T) {
	capacity := HP32
	zb := capacity.ZoneBytesStride()
	i := 6 + 4*zb + 16
	payload := make([]byte, i+6+totalParametricBytes()+4+1)
	payload[0] = capacity.ModuleID()
	payload[1] = byte(MsgStatus)
	payload[2] = byte(ChanSystem)
	payload[3], payload[4], payload[5] = 0x02, 0x00, 0x00
	// set bit 16 (Station Commuincation Failure): byte index 1 (0-based), bit 7
	payload[i+1] = 1 << 7

	rec, err := parseStatusBody(capacity, payload)
	if err != nil {
		t.Fatalf("parseStatusBody: %v", err)
	}
	found := false
	for _, f := range rec.Failures {
		if f == "Station Commuincation Failure" {
			found = true
		}
	}
	if !found {
		t.Errorf("Failures = %v, want to include 'Station Commuincation Failure'", rec.Failures)
	}
}

func totalParametricBytes() int {
	total := 0
	for _, pf := range parametricFailures {
		total += pf.bytes
	}
	return total
}
