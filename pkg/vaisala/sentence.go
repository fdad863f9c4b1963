package vaisala

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	// Station address, one or more T/R framing letters, then the message id
	// up to the first comma. Matching is non-greedy so the id never swallows
	// the fields that follow.
	headerRegexp = regexp.MustCompile(`([0-9]+)[TR]+(.+?),`)

	// Two-letter field code, then the value up to the next comma or the end
	// of the line. The separator is captured and stripped afterwards.
	fieldRegexp = regexp.MustCompile(`([A-Z][a-z])=+(.+?(?:,|$))`)
)

// Header is the address part of a sentence.
type Header struct {
	StationID int
	MessageID string
}

// ParseHeader extracts the station address and message id from the first
// sentence found in line.
func ParseHeader(line string) (Header, error) {
	m := headerRegexp.FindStringSubmatch(line)
	if m == nil {
		return Header{}, fmt.Errorf("%w: %q", ErrMalformedHeader, line)
	}

	id, err := strconv.Atoi(m[1])
	if err != nil {
		return Header{}, fmt.Errorf("%w: station address %q: %v", ErrMalformedHeader, m[1], err)
	}

	return Header{StationID: id, MessageID: m[2]}, nil
}

// ParseFields returns every code=value pair in line, keyed by code. Values
// keep their unit suffix; a single trailing comma or carriage return is
// removed. A line without fields yields an empty map.
func ParseFields(line string) map[string]string {
	line = strings.TrimSuffix(line, "\n")

	fields := make(map[string]string)
	for _, m := range fieldRegexp.FindAllStringSubmatch(line, -1) {
		fields[m[1]] = trimTerminator(m[2])
	}
	return fields
}

func trimTerminator(v string) string {
	if n := len(v); n > 0 && (v[n-1] == ',' || v[n-1] == '\r') {
		return v[:n-1]
	}
	return v
}

// splitValue separates a raw field value into its numeric magnitude and its
// unit suffix.
func splitValue(code, raw string) (float64, byte, error) {
	if len(raw) < 2 {
		return 0, 0, fmt.Errorf("%w: %s=%q", ErrMalformedValue, code, raw)
	}

	suffix := raw[len(raw)-1]
	v, err := strconv.ParseFloat(raw[:len(raw)-1], 64)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s=%q: %v", ErrMalformedValue, code, raw, err)
	}
	return v, suffix, nil
}
