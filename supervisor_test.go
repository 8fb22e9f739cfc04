package pima

import "testing"

func TestStatusRecordEqualChangeDetection(t *testing.T) {
	a := &StatusRecord{LoggedIn: true, Partitions: map[int]string{1: "disarm"}}
	b := &StatusRecord{LoggedIn: true, Partitions: map[int]string{1: "disarm"}}
	c := &StatusRecord{LoggedIn: true, Partitions: map[int]string{1: "full_arm"}}

	if !a.Equal(b) {
		t.Errorf("expected a.Equal(b) for byte-identical records")
	}
	if a.Equal(c) {
		t.Errorf("expected !a.Equal(c) for differing partitions")
	}
}

func TestSupervisorPublishSuppressesDuplicate(t *testing.T) {
	s := &Supervisor{}
	var received []*StatusRecord
	s.OnStatusChange(func(r *StatusRecord) { received = append(received, r) })

	rec1 := &StatusRecord{LoggedIn: true, Partitions: map[int]string{1: "disarm"}}
	rec2 := &StatusRecord{LoggedIn: true, Partitions: map[int]string{1: "disarm"}}

	s.publish(rec1)
	s.publish(rec2)

	if len(received) != 1 {
		t.Fatalf("received %d publishes, want exactly 1 (E6 change detection)", len(received))
	}
}

func TestSupervisorArmReturnsResultingStatus(t *testing.T) {
	capacity := HP32
	idlePayload := []byte{capacity.ModuleID(), byte(MsgStatus), byte(ChanIdle), 0}
	idleFrame := wrapFrame(idlePayload)
	statusPayload := buildSystemStatusPayload(0, 0x01)
	statusFrame := wrapFrame(statusPayload)

	ft := newFakeTransport(append(append([]byte{}, idleFrame...), statusFrame...))
	s := &Supervisor{capacity: capacity, transport: ft, engine: NewEngine(ft, capacity)}

	rec, err := s.Arm(FullArm, []int{1})
	if err != nil {
		t.Fatalf("Arm: %v", err)
	}
	if rec == nil || !rec.LoggedIn {
		t.Errorf("Arm result = %+v, want LoggedIn true", rec)
	}
}
