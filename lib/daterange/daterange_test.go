package daterange

import (
	"strings"
	"testing"
	"time"
)

func mustParse(t *testing.T, s string) time.Time {
	t.Helper()
	ts, err := time.Parse(time.RFC3339, s)
	if err != nil {
		t.Fatalf("bad test timestamp %q: %v", s, err)
	}
	return ts
}

// TestCreateSplitRoundTrip tests that Split is the exact inverse of Create
func TestCreateSplitRoundTrip(t *testing.T) {
	start := mustParse(t, "2012-01-01T00:00:00Z")
	end := mustParse(t, "2012-03-31T23:59:59Z")

	s := Create(start, end)
	if !strings.Contains(s, "+00:00") {
		t.Errorf("UTC timestamps should render a numeric offset, got %q", s)
	}
	if s != "2012-01-01-00:00:00+00:00_2012-03-31-23:59:59+00:00" {
		t.Errorf("unexpected daterange string %q", s)
	}

	gotStart, gotEnd, err := Split(s)
	if err != nil {
		t.Fatalf("Split(%q) failed: %v", s, err)
	}
	if !gotStart.Equal(start) || !gotEnd.Equal(end) {
		t.Errorf("round trip changed bounds: got [%v, %v], want [%v, %v]", gotStart, gotEnd, start, end)
	}
}

// TestCreateNormalizesToUTC tests that non-UTC inputs are encoded as UTC
func TestCreateNormalizesToUTC(t *testing.T) {
	zone := time.FixedZone("CET", 3600)
	local := time.Date(2012, 1, 1, 1, 0, 0, 0, zone)

	s := Create(local, local.Add(time.Hour))
	gotStart, _, err := Split(s)
	if err != nil {
		t.Fatalf("Split(%q) failed: %v", s, err)
	}
	want := mustParse(t, "2012-01-01T00:00:00Z")
	if !gotStart.Equal(want) {
		t.Errorf("expected start %v, got %v", want, gotStart)
	}
}

// TestSplitRejectsMalformedStrings tests error cases of Split
func TestSplitRejectsMalformedStrings(t *testing.T) {
	for _, s := range []string{
		"",
		"2012-01-01-00:00:00+00:00",
		"2012-01-01-00:00:00+00:00_2012-01-02-00:00:00+00:00_2012-01-03-00:00:00+00:00",
		"not-a-date_2012-01-02-00:00:00+00:00",
	} {
		if _, _, err := Split(s); err == nil {
			t.Errorf("Split(%q) should fail", s)
		}
	}
}

// TestOverlaps tests the closed-interval overlap semantics
func TestOverlaps(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2012, 1, d, 0, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name string
		a, b Range
		want bool
	}{
		{"disjoint", NewRange(day(1), day(5)), NewRange(day(10), day(15)), false},
		{"contained", NewRange(day(1), day(15)), NewRange(day(5), day(10)), true},
		{"partial", NewRange(day(1), day(10)), NewRange(day(5), day(15)), true},
		{"identical", NewRange(day(1), day(5)), NewRange(day(1), day(5)), true},
		{"shared bound", NewRange(day(1), day(5)), NewRange(day(5), day(10)), true},
		{"adjacent", NewRange(day(1), day(5)), NewRange(day(5).Add(time.Second), day(10)), false},
	}

	for _, tt := range tests {
		if got := tt.a.Overlaps(tt.b); got != tt.want {
			t.Errorf("%s: Overlaps() = %v, want %v", tt.name, got, tt.want)
		}
		// The test must be symmetric
		if got := tt.b.Overlaps(tt.a); got != tt.want {
			t.Errorf("%s: reversed Overlaps() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

// TestOverlapStrings tests the string-level overlap helper
func TestOverlapStrings(t *testing.T) {
	a := "2012-01-01-00:00:00+00:00_2012-03-31-23:59:59+00:00"
	b := "2012-02-01-00:00:00+00:00_2012-02-28-23:59:59+00:00"
	c := "2012-04-01-00:00:00+00:00_2012-06-30-23:59:59+00:00"

	if got, err := Overlap(a, b); err != nil || !got {
		t.Errorf("Overlap(a, b) = (%v, %v), want (true, nil)", got, err)
	}
	if got, err := Overlap(a, c); err != nil || got {
		t.Errorf("Overlap(a, c) = (%v, %v), want (false, nil)", got, err)
	}
	if _, err := Overlap("garbage", b); err == nil {
		t.Error("Overlap with a malformed string should fail")
	}
}

// TestRepresentativePadsBySamplingPeriod tests the end-bound padding
func TestRepresentativePadsBySamplingPeriod(t *testing.T) {
	t0 := mustParse(t, "2012-01-01T00:00:00Z")
	times := []time.Time{t0, t0.Add(time.Minute), t0.Add(2 * time.Minute)}

	r, err := Representative(times, time.Minute)
	if err != nil {
		t.Fatalf("Representative failed: %v", err)
	}
	if !r.Start.Equal(t0) {
		t.Errorf("expected start %v, got %v", t0, r.Start)
	}
	// Last sample covers one period, minus one second to stay closed.
	want := t0.Add(2*time.Minute + 59*time.Second)
	if !r.End.Equal(want) {
		t.Errorf("expected padded end %v, got %v", want, r.End)
	}
}

// TestRepresentativeWithoutPeriod tests the exact-bounds behavior
func TestRepresentativeWithoutPeriod(t *testing.T) {
	t0 := mustParse(t, "2012-01-01T00:00:00Z")
	t1 := t0.Add(time.Hour)

	// Unordered input, max is found by scanning
	r, err := Representative([]time.Time{t1, t0}, 0)
	if err != nil {
		t.Fatalf("Representative failed: %v", err)
	}
	if !r.Start.Equal(t0) || !r.End.Equal(t1) {
		t.Errorf("expected [%v, %v], got [%v, %v]", t0, t1, r.Start, r.End)
	}
}

// TestRepresentativeZeroLength tests that a single instant is widened
func TestRepresentativeZeroLength(t *testing.T) {
	t0 := mustParse(t, "2012-01-01T00:00:00Z")

	r, err := Representative([]time.Time{t0}, 0)
	if err != nil {
		t.Fatalf("Representative failed: %v", err)
	}
	if !r.End.After(r.Start) {
		t.Errorf("zero-length range should be widened, got [%v, %v]", r.Start, r.End)
	}
	if want := t0.Add(time.Second); !r.End.Equal(want) {
		t.Errorf("expected end %v, got %v", want, r.End)
	}
}

// TestRepresentativeEmptyInput tests the empty-index error case
func TestRepresentativeEmptyInput(t *testing.T) {
	if _, err := Representative(nil, time.Minute); err == nil {
		t.Error("Representative(nil) should fail")
	}
}

// TestParsePeriod tests the accepted sampling period forms
func TestParsePeriod(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"60", 60 * time.Second},
		{"60.0", 60 * time.Second},
		{"1.5", 1500 * time.Millisecond},
		{"60s", 60 * time.Second},
		{"1h", time.Hour},
		{"", 0},
		{"not_set", 0},
		{"NOT_SET", 0},
		{"none", 0},
	}
	for _, tt := range tests {
		got, err := ParsePeriod(tt.in)
		if err != nil {
			t.Errorf("ParsePeriod(%q) failed: %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePeriod(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}

	if _, err := ParsePeriod("every monday"); err == nil {
		t.Error("ParsePeriod should reject unparseable input")
	}
}

// TestSortRangesAndBounds tests chronological sorting and overall bounds
func TestSortRangesAndBounds(t *testing.T) {
	feb := "2012-02-01-00:00:00+00:00_2012-02-28-23:59:59+00:00"
	jan := "2012-01-01-00:00:00+00:00_2012-01-31-23:59:59+00:00"
	mar := "2012-03-01-00:00:00+00:00_2012-03-31-23:59:59+00:00"

	ranges := []string{feb, mar, jan}
	SortRanges(ranges)
	if ranges[0] != jan || ranges[1] != feb || ranges[2] != mar {
		t.Errorf("unexpected sort order: %v", ranges)
	}

	start, end, err := Bounds(ranges)
	if err != nil {
		t.Fatalf("Bounds failed: %v", err)
	}
	if !start.Equal(mustParse(t, "2012-01-01T00:00:00Z")) {
		t.Errorf("unexpected overall start %v", start)
	}
	if !end.Equal(mustParse(t, "2012-03-31T23:59:59Z")) {
		t.Errorf("unexpected overall end %v", end)
	}

	if _, _, err := Bounds(nil); err == nil {
		t.Error("Bounds(nil) should fail")
	}
}
