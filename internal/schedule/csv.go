package schedule

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
)

func makeIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(h)] = i
	}
	return idx
}

func getField(record []string, idx map[string]int, field string) string {
	if i, ok := idx[field]; ok && i < len(record) {
		return strings.TrimSpace(record[i])
	}
	return ""
}

// readCSV reads every data row of a CSV file, yielding each record plus the
// header's column index so callers can use getField. Rows that fail to
// parse are skipped, matching the tolerant-parsing convention used
// throughout this package's GTFS readers.
func readCSV(r io.Reader, fn func(record []string, idx map[string]int)) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return err
	}
	idx := makeIndex(header)

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		fn(record, idx)
	}
	return nil
}

func parseIntField(record []string, idx map[string]int, field string) int {
	v, _ := strconv.Atoi(getField(record, idx, field))
	return v
}

func parseGTFSTime(s string) (int, bool) {
	// GTFS times are H:MM:SS or HH:MM:SS and may exceed 24:00:00 for
	// service that runs past midnight.
	parts := strings.Split(s, ":")
	if len(parts) != 3 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	sec, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return 0, false
	}
	return h*3600 + m*60 + sec, true
}
