package node

import "testing"

func TestPoll_NotReadyReturnsNoDataWithoutReading(t *testing.T) {
	s := &fakeSensor{ready: false, reading: CO2Reading{CO2PPM: 400}}
	r, outcome := Poll(s)
	if outcome != PollNoData {
		t.Errorf("outcome = %v; want PollNoData", outcome)
	}
	if r != nil {
		t.Errorf("reading = %v; want nil", r)
	}
	if s.reads != 0 {
		t.Errorf("Read called %d times while not ready; want 0", s.reads)
	}
}

func TestPoll_ReadySuccessReturnsNewReading(t *testing.T) {
	want := CO2Reading{CO2PPM: 412, Temperature: 23.5, Humidity: 41}
	s := &fakeSensor{ready: true, reading: want}
	r, outcome := Poll(s)
	if outcome != PollNewReading {
		t.Fatalf("outcome = %v; want PollNewReading", outcome)
	}
	if r != want {
		t.Errorf("reading = %v; want %v", r, want)
	}
}

func TestPoll_ReadFailureReturnsFault(t *testing.T) {
	s := &fakeSensor{ready: true, err: errBus}
	r, outcome := Poll(s)
	if outcome != PollFault {
		t.Errorf("outcome = %v; want PollFault", outcome)
	}
	if r != nil {
		t.Errorf("reading = %v; want nil on fault", r)
	}
}

func TestPoll_FaultDoesNotStickAcrossCycles(t *testing.T) {
	s := &fakeSensor{ready: true, err: errBus}
	if _, outcome := Poll(s); outcome != PollFault {
		t.Fatalf("outcome = %v; want PollFault", outcome)
	}

	// Transient error clears; the next cycle just works.
	s.err = nil
	s.reading = CO2Reading{CO2PPM: 500}
	if _, outcome := Poll(s); outcome != PollNewReading {
		t.Errorf("outcome after recovery = %v; want PollNewReading", outcome)
	}
}
