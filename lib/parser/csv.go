package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/emberlab/gasvault/lib/dataset"
	"github.com/jszwec/csvutil"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("parser")

// FormatCSV is the source format name of the reference CSV parser.
const FormatCSV = "csv"

func init() {
	if err := Register(FormatCSV, ParseCSV); err != nil {
		panic(err)
	}
}

// timeLayouts are the accepted timestamp encodings of the time column, tried
// in order.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// csvRow captures the time column; all other columns are picked up through
// the decoder's unused-column tracking.
type csvRow struct {
	Time string `csv:"time"`
}

// ParseCSV parses a generic observation CSV: a "time" column plus one value
// column per species. Every value column becomes one parsed unit keyed by
// the lower-cased column name, carrying the kwargs metadata plus the species
// name.
func ParseCSV(path string, kwargs map[string]string) (map[string]ParsedUnit, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	dec, err := csvutil.NewDecoder(csv.NewReader(f))
	if err != nil {
		return nil, fmt.Errorf("cannot read CSV header of %s: %w", path, err)
	}
	header := dec.Header()

	var (
		times   []time.Time
		columns = make(map[string][]float64)
	)

	for {
		var row csvRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("cannot parse CSV row in %s: %w", path, err)
		}

		t, err := parseTimestamp(row.Time)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp in %s: %w", path, err)
		}
		times = append(times, t)

		record := dec.Record()
		for _, i := range dec.Unused() {
			name := strings.ToLower(strings.TrimSpace(header[i]))
			raw := strings.TrimSpace(record[i])
			value, err := strconv.ParseFloat(raw, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q for column %q in %s", raw, name, path)
			}
			columns[name] = append(columns[name], value)
		}
	}

	if len(times) == 0 {
		return nil, fmt.Errorf("file %s contains no data rows", path)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("file %s contains no value columns besides time", path)
	}

	units := make(map[string]ParsedUnit, len(columns))
	for species, values := range columns {
		if len(values) != len(times) {
			return nil, fmt.Errorf("column %q of %s has %d values for %d timestamps", species, path, len(values), len(times))
		}

		ds := dataset.New()
		ds.Times = append([]time.Time{}, times...)
		ds.Columns[species] = values

		meta := make(map[string]string, len(kwargs)+1)
		for k, v := range kwargs {
			meta[strings.ToLower(k)] = strings.ToLower(v)
		}
		meta["species"] = species

		units[species] = ParsedUnit{Data: ds, Metadata: meta}
	}

	log.Debugf("parsed %s: %d rows, %d species", path, len(times), len(units))
	return units, nil
}

// parseTimestamp decodes one time-column value: any accepted layout or unix
// seconds. The result is always UTC.
func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC(), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
