package network

import (
	"context"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/paulmach/orb"
)

const matsimFixture = `<?xml version="1.0" encoding="UTF-8"?>
<network name="fixture">
  <attributes>
    <attribute name="coordinateReferenceSystem" class="java.lang.String">EPSG:25832</attribute>
  </attributes>
  <nodes>
    <node id="a" x="0.0" y="0.0"/>
    <node id="b" x="1000.0" y="0.0"/>
    <node id="c" x="1000.0" y="500.0"/>
  </nodes>
  <links capperiod="00:30:00" effectivecellsize="7.5" effectivelanewidth="3.75">
    <link id="ab" from="a" to="b" length="1000.0" freespeed="10.0" capacity="1000.0" permlanes="2.0" oneway="1" modes="car,truck">
      <attributes>
        <attribute name="type" class="java.lang.String">highway.primary</attribute>
      </attributes>
    </link>
    <link id="bc" from="b" to="c" length="500.0" freespeed="8.33" capacity="600.0" permlanes="1.0" oneway="1" modes="bike"/>
  </links>
</network>`

func TestReadMATSim(t *testing.T) {
	n, err := ReadMATSim(strings.NewReader(matsimFixture))
	if err != nil {
		t.Fatalf("ReadMATSim() error = %v", err)
	}

	if n.Len() != 2 {
		t.Fatalf("Expected 2 links, got %d", n.Len())
	}
	if n.CRS != "EPSG:25832" {
		t.Errorf("Expected CRS EPSG:25832, got %q", n.CRS)
	}

	ab, ok := n.Link("ab")
	if !ok {
		t.Fatal("Link ab not found")
	}
	if ab.RoadType != "primary" {
		t.Errorf("Expected highway. prefix stripped, got %q", ab.RoadType)
	}
	if ab.Capacity != 2000 {
		t.Errorf("Expected capacity normalised to 2000 veh/h for a 30 minute capperiod, got %v", ab.Capacity)
	}
	if ab.To != (orb.Point{1000, 0}) {
		t.Errorf("Unexpected to-node coordinate %v", ab.To)
	}
	if ab.LaneKm() != 2 {
		t.Errorf("Expected 2 lane-km, got %v", ab.LaneKm())
	}

	bc, _ := n.Link("bc")
	if bc.RoadType != UnclassifiedRoadType {
		t.Errorf("Expected untyped link to be %q, got %q", UnclassifiedRoadType, bc.RoadType)
	}

	if got := n.RoadTypes(); len(got) != 2 || got[0] != "primary" || got[1] != "unclassified" {
		t.Errorf("RoadTypes() = %v", got)
	}
}

func TestReadMATSim_UnknownNode(t *testing.T) {
	doc := `<network><nodes><node id="a" x="0" y="0"/></nodes><links><link id="l" from="a" to="zz" length="1" freespeed="1" capacity="1" permlanes="1" modes="car"/></links></network>`
	if _, err := ReadMATSim(strings.NewReader(doc)); err == nil {
		t.Fatal("Expected error for a link referencing an unknown node")
	}
}

func TestLoadMATSim_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "network.xml.gz")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	zw := gzip.NewWriter(f)
	if _, err := zw.Write([]byte(matsimFixture)); err != nil {
		t.Fatal(err)
	}
	zw.Close()
	f.Close()

	n, err := LoadMATSim(path)
	if err != nil {
		t.Fatalf("LoadMATSim() error = %v", err)
	}
	if n.Len() != 2 {
		t.Errorf("Expected 2 links from gzipped network, got %d", n.Len())
	}
}

func TestFilters(t *testing.T) {
	n, err := ReadMATSim(strings.NewReader(matsimFixture))
	if err != nil {
		t.Fatal(err)
	}

	if got := n.Filter(ModeFilter(nil)).Len(); got != 2 {
		t.Errorf("Empty mode list should keep every link, kept %d", got)
	}
	if got := n.Filter(ModeFilter([]string{"car"})); got.Len() != 1 {
		t.Errorf("Expected only the car link, kept %d", got.Len())
	}

	// Square around the first link's midpoint (500, 0) only.
	b, err := NewBoundary(orb.MultiPolygon{{{{400, -10}, {600, -10}, {600, 10}, {400, 10}, {400, -10}}}})
	if err != nil {
		t.Fatal(err)
	}
	kept := n.Filter(BoundaryFilter(b))
	if kept.Len() != 1 {
		t.Fatalf("Expected one link inside the boundary, got %d", kept.Len())
	}
	if _, ok := kept.Link("ab"); !ok {
		t.Error("Expected link ab to be kept")
	}
	if kept.CRS != n.CRS {
		t.Error("Filter should preserve the CRS")
	}
}

func TestParseBoundary(t *testing.T) {
	fc := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Polygon","coordinates":[[[0,0],[10,0],[10,10],[0,10],[0,0]]]}}]}`
	b, err := ParseBoundary([]byte(fc))
	if err != nil {
		t.Fatalf("ParseBoundary() error = %v", err)
	}
	if !b.Contains(orb.Point{5, 5}) {
		t.Error("Expected (5,5) inside")
	}
	if b.Contains(orb.Point{15, 5}) {
		t.Error("Expected (15,5) outside")
	}

	empty := `{"type":"FeatureCollection","features":[{"type":"Feature","properties":{},"geometry":{"type":"Point","coordinates":[1,1]}}]}`
	if _, err := ParseBoundary([]byte(empty)); err != ErrEmptyBoundary {
		t.Errorf("Expected ErrEmptyBoundary, got %v", err)
	}
}

const osmFixture = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="52.5000" lon="13.4000"/>
  <node id="2" lat="52.5000" lon="13.4100"/>
  <node id="3" lat="52.5050" lon="13.4100"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="secondary"/>
    <tag k="lanes" v="4"/>
    <tag k="maxspeed" v="30 mph"/>
  </way>
  <way id="11">
    <nd ref="3"/>
    <nd ref="1"/>
    <tag k="highway" v="primary"/>
    <tag k="oneway" v="yes"/>
  </way>
  <way id="12">
    <nd ref="1"/>
    <nd ref="3"/>
    <tag k="highway" v="footway"/>
  </way>
</osm>`

func TestReadOSM(t *testing.T) {
	n, err := ReadOSM(context.Background(), strings.NewReader(osmFixture))
	if err != nil {
		t.Fatalf("ReadOSM() error = %v", err)
	}

	// Way 10: two segments in both directions; way 11: one segment one-way; footway skipped.
	if n.Len() != 5 {
		t.Fatalf("Expected 5 links, got %d", n.Len())
	}

	fwd, ok := n.Link("10_0")
	if !ok {
		t.Fatal("Expected link 10_0")
	}
	if fwd.Lanes != 2 {
		t.Errorf("Expected 4 total lanes split to 2 per direction, got %v", fwd.Lanes)
	}
	if math.Abs(fwd.FreeSpeed-30*1.609344/3.6) > 1e-9 {
		t.Errorf("Unexpected mph conversion: %v", fwd.FreeSpeed)
	}
	// 0.01 degrees of longitude at 52.5N is roughly 677 m.
	if fwd.Length < 650 || fwd.Length > 700 {
		t.Errorf("Unexpected geodesic length %v", fwd.Length)
	}
	if _, ok := n.Link("11_0_r"); ok {
		t.Error("One-way way must not produce a reverse link")
	}
	if rev, ok := n.Link("10_1_r"); !ok || rev.From != fwdEnd(n, "10_1") {
		t.Error("Reverse link should start where the forward link ends")
	}
}

func TestReadOSM_OnewayAgainstNodeOrder(t *testing.T) {
	const doc = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="test">
  <node id="1" lat="52.5000" lon="13.4000"/>
  <node id="2" lat="52.5000" lon="13.4100"/>
  <way id="20">
    <nd ref="1"/>
    <nd ref="2"/>
    <tag k="highway" v="primary"/>
    <tag k="oneway" v="-1"/>
    <tag k="lanes" v="2"/>
  </way>
</osm>`

	n, err := ReadOSM(context.Background(), strings.NewReader(doc))
	if err != nil {
		t.Fatalf("ReadOSM() error = %v", err)
	}
	if n.Len() != 1 {
		t.Fatalf("Expected only the reverse link, got %d links", n.Len())
	}
	if _, ok := n.Link("20_0"); ok {
		t.Error("oneway=-1 must not produce a link in node order")
	}
	rev, ok := n.Link("20_0_r")
	if !ok {
		t.Fatal("Expected link 20_0_r")
	}
	if rev.From != (orb.Point{13.41, 52.5}) {
		t.Errorf("Expected the reverse link to start at node 2, got %v", rev.From)
	}
	if rev.Lanes != 2 {
		t.Errorf("Expected all 2 lanes on the reverse link, got %v", rev.Lanes)
	}
}

func fwdEnd(n *Network, id string) orb.Point {
	l, _ := n.Link(id)
	return l.To
}
