package marketdata

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"odte-scanner/internal/markethours"
	"odte-scanner/internal/model"
)

// csvLayouts are the timestamp formats accepted in bar files, tried in
// order. Naive timestamps are interpreted as exchange-local.
var csvLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ReadCSV loads bars from a timestamp,open,high,low,close,volume file.
// A header row is detected and skipped. Previous-day columns are attached
// before returning.
func ReadCSV(path string) ([]model.Bar, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseCSV(f)
}

// ParseCSV reads bars from r. See ReadCSV.
func ParseCSV(r io.Reader) ([]model.Bar, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = 6

	var bars []model.Bar
	line := 0
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("csv read: %w", err)
		}
		line++
		if line == 1 && isHeader(rec) {
			continue
		}

		b, err := parseRow(rec)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		if len(bars) > 0 && !b.TS.After(bars[len(bars)-1].TS) {
			return nil, fmt.Errorf("csv line %d: timestamps not strictly increasing", line)
		}
		bars = append(bars, b)
	}
	return AttachPrevDay(bars), nil
}

// WriteCSV writes bars in the same format ReadCSV accepts.
func WriteCSV(w io.Writer, bars []model.Bar) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"timestamp", "open", "high", "low", "close", "volume"}); err != nil {
		return err
	}
	for _, b := range bars {
		rec := []string{
			b.TS.Format(time.RFC3339),
			strconv.FormatFloat(b.Open, 'f', -1, 64),
			strconv.FormatFloat(b.High, 'f', -1, 64),
			strconv.FormatFloat(b.Low, 'f', -1, 64),
			strconv.FormatFloat(b.Close, 'f', -1, 64),
			strconv.FormatInt(b.Volume, 10),
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func isHeader(rec []string) bool {
	_, err := strconv.ParseFloat(rec[1], 64)
	return err != nil
}

func parseRow(rec []string) (model.Bar, error) {
	ts, err := parseTS(rec[0])
	if err != nil {
		return model.Bar{}, err
	}
	var vals [4]float64
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(rec[i+1], 64)
		if err != nil {
			return model.Bar{}, fmt.Errorf("field %d: %w", i+1, err)
		}
		vals[i] = v
	}
	vol, err := strconv.ParseInt(rec[5], 10, 64)
	if err != nil {
		return model.Bar{}, fmt.Errorf("volume: %w", err)
	}
	return model.NewBar(ts, vals[0], vals[1], vals[2], vals[3], vol), nil
}

func parseTS(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(markethours.NY), nil
	}
	for _, layout := range csvLayouts[1:] {
		if t, err := time.ParseInLocation(layout, s, markethours.NY); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", s)
}
