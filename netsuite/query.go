package netsuite

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// maxIDRange caps how many ids a single range expression may expand to.
const maxIDRange = 10000

// ParseIDParameter parses an id list in the accepted shapes: comma separated
// ("1,2,3"), ranges ("1-100", including negative bounds), bracketed arrays
// ("[1,2,3]") and mixes of those. Unparseable parts are skipped; an empty
// result is reported as nil.
func ParseIDParameter(raw string) []int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	if strings.HasPrefix(raw, "[") && strings.HasSuffix(raw, "]") {
		raw = raw[1 : len(raw)-1]
	}
	var result []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if start, end, ok := parseIDRange(part); ok {
			if start > end {
				continue
			}
			if end-start > maxIDRange {
				end = start + maxIDRange
			}
			for id := start; id <= end; id++ {
				result = append(result, id)
			}
			continue
		}
		if id, err := strconv.Atoi(part); err == nil {
			result = append(result, id)
		}
	}
	return result
}

// parseIDRange recognises "a-b" with optionally negative bounds.
func parseIDRange(part string) (int, int, bool) {
	// Skip the sign position so "-5--1" parses as (-5, -1).
	search := part
	offset := 0
	if strings.HasPrefix(part, "-") {
		search = part[1:]
		offset = 1
	}
	idx := strings.Index(search, "-")
	if idx <= 0 {
		return 0, 0, false
	}
	start, err := strconv.Atoi(part[:offset+idx])
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.Atoi(part[offset+idx+1:])
	if err != nil {
		return 0, 0, false
	}
	return start, end, true
}

// ParseFieldList splits a comma separated field list, dropping blanks.
func ParseFieldList(raw string) []string {
	if raw == "" {
		return nil
	}
	var fields []string
	for _, field := range strings.Split(raw, ",") {
		if field = strings.TrimSpace(field); field != "" {
			fields = append(fields, field)
		}
	}
	return fields
}

// ParseBooleanParam accepts the usual spellings: true/false, yes/no, 1/0,
// on/off and their single-letter forms. The second return reports whether the
// value was recognised.
func ParseBooleanParam(raw string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "true", "yes", "1", "on", "t", "y":
		return true, true
	case "false", "no", "0", "off", "f", "n":
		return false, true
	default:
		return false, false
	}
}

// ParseFloatParam parses a float query value; the second return reports
// success.
func ParseFloatParam(raw string) (float64, bool) {
	value, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, false
	}
	return value, true
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// ParseDateParam parses a date query value in ISO, date-only or US slash
// format. Values without a zone are interpreted as UTC.
func ParseDateParam(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// PageParams carries pagination inputs from the caller.
type PageParams struct {
	Page     int
	PageSize int
}

// Validate rejects page requests beyond the available range with a
// PageBounds error.
func (p PageParams) Validate(totalPages int) error {
	if p.Page < 1 || p.Page > totalPages {
		return NewPageBounds(p.Page, totalPages)
	}
	return nil
}

// PaginationInfo is the search pagination state NetSuite reports through
// response headers.
type PaginationInfo struct {
	SearchID     string
	TotalRecords int
	TotalPages   int
	PageSize     int
}

// ExtractPaginationInfo reads the NETSUITE-* pagination headers from a
// provider response.
func ExtractPaginationInfo(h http.Header) PaginationInfo {
	return PaginationInfo{
		SearchID:     h.Get("Netsuite-Search-Id"),
		TotalRecords: headerInt(h, "Netsuite-Total-Records", 0),
		TotalPages:   headerInt(h, "Netsuite-Total-Pages", 0),
		PageSize:     headerInt(h, "Netsuite-Page-Size", 20),
	}
}

func headerInt(h http.Header, name string, fallback int) int {
	value, err := strconv.Atoi(strings.TrimSpace(h.Get(name)))
	if err != nil {
		return fallback
	}
	return value
}

// netsuiteTimestampLayout is the second-precision, zone-less form NetSuite
// accepts in search values.
const netsuiteTimestampLayout = "2006-01-02T15:04:05"

// FormatTimestamp renders a timestamp the way the NetSuite API expects:
// second precision, no zone designator. The time is rendered in UTC.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(netsuiteTimestampLayout)
}

// ParseTimestamp parses timestamps as NetSuite emits them, e.g.
// "2024-01-01T00:00:00.000-08:00", with the fractional seconds and zone
// offset both optional. Zone-less values are interpreted as UTC. Parsing the
// output of FormatTimestamp returns the original instant for whole-second
// UTC times.
func ParseTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	layouts := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999",
		netsuiteTimestampLayout,
	}
	for _, layout := range layouts {
		if t, err := time.ParseInLocation(layout, raw, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
