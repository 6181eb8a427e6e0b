package serializer

import (
	"math"
	"testing"
	"time"

	"github.com/emberlab/gasvault/lib/dataset"
)

func sampleDataset() *dataset.Dataset {
	t0 := time.Date(2012, 1, 1, 0, 0, 0, 0, time.UTC)
	d := dataset.New()
	d.Times = []time.Time{t0, t0.Add(time.Hour), t0.Add(2 * time.Hour)}
	d.Columns["ch4"] = []float64{1893.2, 1894.7, 1891.0}
	d.Attrs["units"] = "ppb"
	return d
}

func roundTrip(t *testing.T, s IDatasetSerializer, in *dataset.Dataset) *dataset.Dataset {
	t.Helper()
	b, err := s.Serialize(in)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}
	out := dataset.New()
	if err := s.Deserialize(b, out); err != nil {
		t.Fatalf("Deserialize failed: %v", err)
	}
	return out
}

// TestSerializerRoundTrip tests that both serializers preserve a dataset
func TestSerializerRoundTrip(t *testing.T) {
	for _, tt := range []struct {
		name string
		s    IDatasetSerializer
	}{
		{"json", NewJSONSerializer()},
		{"gob", NewGOBSerializer()},
	} {
		t.Run(tt.name, func(t *testing.T) {
			in := sampleDataset()
			out := roundTrip(t, tt.s, in)

			if out.Len() != in.Len() {
				t.Fatalf("expected %d rows, got %d", in.Len(), out.Len())
			}
			for i := range in.Times {
				if !out.Times[i].Equal(in.Times[i]) {
					t.Errorf("row %d: timestamp changed from %v to %v", i, in.Times[i], out.Times[i])
				}
				if out.Columns["ch4"][i] != in.Columns["ch4"][i] {
					t.Errorf("row %d: value changed from %v to %v", i, in.Columns["ch4"][i], out.Columns["ch4"][i])
				}
			}
			if out.Attrs["units"] != "ppb" {
				t.Errorf("attrs lost in round trip: %v", out.Attrs)
			}
		})
	}
}

// TestGOBSerializerPreservesNaN tests that spliced NaN padding survives
// storage; this is why gob is the default block serializer
func TestGOBSerializerPreservesNaN(t *testing.T) {
	in := sampleDataset()
	in.Columns["co2"] = []float64{math.NaN(), 398.5, math.NaN()}

	out := roundTrip(t, NewGOBSerializer(), in)

	co2 := out.Columns["co2"]
	if !math.IsNaN(co2[0]) || !math.IsNaN(co2[2]) {
		t.Errorf("NaN padding lost in round trip: %v", co2)
	}
	if co2[1] != 398.5 {
		t.Errorf("expected co2 value 398.5, got %v", co2[1])
	}
}

// TestJSONSerializerRejectsNaN tests the documented JSON limitation
func TestJSONSerializerRejectsNaN(t *testing.T) {
	in := sampleDataset()
	in.Columns["co2"] = []float64{math.NaN(), 398.5, math.NaN()}

	if _, err := NewJSONSerializer().Serialize(in); err == nil {
		t.Error("JSON serialization of NaN should fail")
	}
}
