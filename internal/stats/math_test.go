package stats

import (
	"math"
	"testing"
)

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		values []Value
		want   Value
	}{
		{"Empty", nil, NoData},
		{"AllMissing", []Value{NoData, NoData}, NoData},
		{"SingleItem", []Value{Some(0.4)}, Some(0.4)},
		{"MissingExcluded", []Value{Some(1), NoData, Some(0.5)}, Some(0.75)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.values)
			if got.Valid() != tt.want.Valid() {
				t.Fatalf("Mean() validity = %v, want %v", got.Valid(), tt.want.Valid())
			}
			if math.Abs(got.Or(0)-tt.want.Or(0)) > 1e-12 {
				t.Errorf("Mean() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWeightedMean_EqualWeightsIsPlainMean(t *testing.T) {
	values := []Value{Some(0.2), Some(0.4), Some(0.9)}
	weights := []float64{3.5, 3.5, 3.5}

	got := WeightedMean(values, weights)
	want := Mean(values)

	if math.Abs(got.Or(-1)-want.Or(-2)) > 1e-12 {
		t.Errorf("WeightedMean() with equal weights = %v, want plain mean %v", got, want)
	}
}

func TestWeightedMean(t *testing.T) {
	tests := []struct {
		name    string
		values  []Value
		weights []float64
		want    Value
	}{
		{"Weighted", []Value{Some(1), Some(0)}, []float64{3, 1}, Some(0.75)},
		{"MissingDropsWeight", []Value{Some(1), NoData}, []float64{1, 100}, Some(1)},
		{"ZeroWeights", []Value{Some(1), Some(0.5)}, []float64{0, 0}, NoData},
		{"LengthMismatch", []Value{Some(1)}, []float64{1, 2}, NoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := WeightedMean(tt.values, tt.weights)
			if got.Valid() != tt.want.Valid() {
				t.Fatalf("WeightedMean() validity = %v, want %v", got.Valid(), tt.want.Valid())
			}
			if math.Abs(got.Or(0)-tt.want.Or(0)) > 1e-12 {
				t.Errorf("WeightedMean() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRound(t *testing.T) {
	if got := Round(0.12349, 3); got != 0.123 {
		t.Errorf("Round(0.12349, 3) = %v, want 0.123", got)
	}
	if got := Round(41.6666, 1); got != 41.7 {
		t.Errorf("Round(41.6666, 1) = %v, want 41.7", got)
	}
}

func TestValue(t *testing.T) {
	if Some(math.NaN()).Valid() {
		t.Error("Some(NaN) should be NoData")
	}
	if Some(math.Inf(1)).Valid() {
		t.Error("Some(+Inf) should be NoData")
	}
	if NoData.String() != "" {
		t.Errorf("NoData.String() = %q, want empty", NoData.String())
	}
	if got := Some(0.5).String(); got != "0.5" {
		t.Errorf("Some(0.5).String() = %q, want 0.5", got)
	}
	if got := Some(10).Scale(3.6).Or(0); math.Abs(got-36) > 1e-9 {
		t.Errorf("Scale = %v, want 36", got)
	}
	if NoData.Scale(2).Valid() {
		t.Error("NoData.Scale should stay NoData")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"00:00:00", 0, false},
		{"01:02:03", 3723, false},
		{"25:00:00", 90000, false},
		{"1:2", 0, true},
		{"00:61:00", 0, true},
		{"aa:00:00", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseClock(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseClock(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseClock(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
