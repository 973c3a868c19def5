package eventlog

import (
	"context"
	"math"
	"strings"
	"testing"

	"trafficstats/internal/network"

	"github.com/paulmach/orb"
)

func testNetwork() *network.Network {
	return network.New([]network.Link{
		{ID: "1", From: orb.Point{0, 0}, To: orb.Point{1000, 0}, Length: 1000, Lanes: 2, FreeSpeed: 10, Capacity: 2000, RoadType: "primary", Modes: []string{"car", "truck"}},
		{ID: "2", From: orb.Point{1000, 0}, To: orb.Point{2000, 0}, Length: 1000, Lanes: 1, FreeSpeed: 20, Capacity: 1000, RoadType: "secondary", Modes: []string{"car", "truck"}},
	})
}

const eventsFixture = `<?xml version="1.0" encoding="utf-8"?>
<events version="1.0">
  <event time="0.0" type="vehicle enters traffic" person="p1" link="1" vehicle="v1" networkMode="car" relativePosition="1.0"/>
  <event time="10.0" type="left link" vehicle="v1" link="1"/>
  <event time="10.0" type="entered link" vehicle="v1" link="2"/>
  <event time="110.0" type="left link" vehicle="v1" link="2"/>
  <event time="110.0" type="entered link" vehicle="v1" link="1"/>
  <event time="310.0" type="left link" vehicle="v1" link="1"/>
  <event time="310.0" type="entered link" vehicle="v1" link="2"/>
  <event time="400.0" type="vehicle leaves traffic" person="p1" link="2" vehicle="v1" networkMode="car" relativePosition="1.0"/>
  <event time="3700.0" type="vehicle enters traffic" person="p2" link="2" vehicle="t1" networkMode="truck" relativePosition="1.0"/>
  <event time="3700.0" type="entered link" vehicle="t1" link="1"/>
  <event time="3800.0" type="left link" vehicle="t1" link="1"/>
  <event time="3800.0" type="entered link" vehicle="t1" link="99"/>
</events>`

func reduceFixture(t *testing.T, opts ReduceOptions) *Series {
	t.Helper()
	r := NewReducer(testNetwork(), opts)
	n, err := ReadEvents(context.Background(), strings.NewReader(eventsFixture), r.Handle)
	if err != nil {
		t.Fatalf("ReadEvents() error = %v", err)
	}
	if n != 12 {
		t.Fatalf("Expected 12 events, got %d", n)
	}
	return r.Result()
}

func TestReduce_TravelTimes(t *testing.T) {
	s := reduceFixture(t, ReduceOptions{})
	net := testNetwork()
	l1, _ := net.Link("1")
	l2, _ := net.Link("2")

	// Link 2: one traversal 10 -> 110 in slice 0.
	if tt, ok := s.TravelTimes.TravelTime(l2, 0); !ok || tt != 100 {
		t.Errorf("Link 2 slice 0: got (%v, %v), want (100, true)", tt, ok)
	}
	// Link 1: the departure link is not measured; 110 -> 310 is.
	if tt, ok := s.TravelTimes.TravelTime(l1, 899); !ok || tt != 200 {
		t.Errorf("Link 1 slice 0: got (%v, %v), want (200, true)", tt, ok)
	}
	if got := s.TravelTimes.Observations("1", 0); got != 1 {
		t.Errorf("Expected 1 observation on link 1 slice 0, got %d", got)
	}
	// Truck traversal at 3700 lands in slice 4.
	if tt, ok := s.TravelTimes.TravelTime(l1, 3600); !ok || tt != 100 {
		t.Errorf("Link 1 slice 4: got (%v, %v), want (100, true)", tt, ok)
	}
	// Nothing observed in slice 1 and no fallback.
	if _, ok := s.TravelTimes.TravelTime(l1, 900); ok {
		t.Error("Expected no travel time without observations")
	}
	if _, ok := s.TravelTimes.TravelTime(l1, DaySeconds); ok {
		t.Error("Expected no travel time beyond the day")
	}
}

func TestReduce_FreeSpeedFallback(t *testing.T) {
	s := reduceFixture(t, ReduceOptions{FreeSpeedFallback: true})
	l1, _ := testNetwork().Link("1")

	tt, ok := s.TravelTimes.TravelTime(l1, 900)
	if !ok || math.Abs(tt-100) > 1e-9 {
		t.Errorf("Expected free-speed travel time 100, got (%v, %v)", tt, ok)
	}
}

func TestReduce_ModeFilterAppliesToTravelTimesOnly(t *testing.T) {
	s := reduceFixture(t, ReduceOptions{Modes: []string{"car"}})
	l1, _ := testNetwork().Link("1")

	if _, ok := s.TravelTimes.TravelTime(l1, 3600); ok {
		t.Error("Truck travel times must be excluded when only car is analysed")
	}
	if got := s.Volumes.PerHourForMode("1", Truck)[1]; got != 1 {
		t.Errorf("Truck volume should still be counted, got %v", got)
	}
}

func TestReduce_Volumes(t *testing.T) {
	s := reduceFixture(t, ReduceOptions{})

	v1 := s.Volumes.PerHour("1")
	if v1[0] != 2 || v1[1] != 1 {
		t.Errorf("Link 1 volumes hour0=%v hour1=%v, want 2 and 1", v1[0], v1[1])
	}
	if got := s.Volumes.PerHourForMode("1", Car)[0]; got != 2 {
		t.Errorf("Car volume on link 1 hour 0 = %v, want 2", got)
	}
	if got := s.Volumes.PerHourForMode("1", Bike)[0]; got != 0 {
		t.Errorf("Unseen mode should report zero, got %v", got)
	}
	if got := s.Volumes.PerHour("99")[0]; got != 0 {
		t.Errorf("Unknown link should report zero, got %v", got)
	}

	modes := s.Volumes.Modes()
	if len(modes) != 2 || modes[0] != Car || modes[1] != Truck {
		t.Errorf("Modes() = %v, want [car truck]", modes)
	}
}

func TestReduce_Anomalies(t *testing.T) {
	doc := `<events>
  <event time="0" type="entered link" vehicle="v" link="1"/>
  <event time="50" type="left link" vehicle="v" link="2"/>
  <event time="60" type="entered link" vehicle="w" link="2"/>
  <event time="30" type="left link" vehicle="w" link="2"/>
</events>`
	r := NewReducer(testNetwork(), ReduceOptions{})
	if _, err := ReadEvents(context.Background(), strings.NewReader(doc), r.Handle); err != nil {
		t.Fatal(err)
	}
	s := r.Result()

	if len(s.Anomalies) != 1 {
		t.Fatalf("Expected anomalies on one link, got %+v", s.Anomalies)
	}
	a := s.Anomalies[0]
	if a.LinkID != "2" || a.UnmatchedLeaves != 1 || a.NegativeTravelTimes != 1 {
		t.Errorf("Unexpected anomaly %+v", a)
	}
}

func TestReadEvents_Malformed(t *testing.T) {
	r := NewReducer(testNetwork(), ReduceOptions{})
	_, err := ReadEvents(context.Background(), strings.NewReader(`<events><event time="abc" type="left link"/></events>`), r.Handle)
	if err == nil {
		t.Fatal("Expected error for a non-numeric time")
	}
}

func TestModeSet_Sorted(t *testing.T) {
	s := newModeSet()
	for _, m := range []Mode{"scooter", Truck, "airtaxi", Car} {
		s.intern(m)
	}
	got := s.Sorted()
	want := []Mode{Car, Truck, "airtaxi", "scooter"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Sorted() = %v, want %v", got, want)
		}
	}
	if i, _ := s.Index("scooter"); i != 0 {
		t.Errorf("Interned index must be stable, got %d", i)
	}
}
