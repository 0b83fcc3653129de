package internal

import (
	"bytes"
	"encoding/json"
	"sync/atomic"
	"unicode/utf8"
)

// roleMarker is the literal substring that anchors the fast scan. Every
// serialized message object carries a "role" key; unrelated blobs rarely do.
var roleMarker = []byte(`"role"`)

// Role-anchored scanner tuning. The window and candidate bounds are
// heuristics; a message object wider than the backward window falls through
// to the per-blob baseline fallback in the extractor.
const (
	defaultAnchorWindow  = 64 * 1024
	defaultMaxCandidates = 16
	defaultMaxObjectSpan = 256 * 1024
)

// parseAttemptTotal counts JSON decode attempts across all scanners in the
// process. Surfaced by `agent-peek inspect` as a scan diagnostic.
var parseAttemptTotal atomic.Int64

// ParseAttemptTotal returns the process-wide JSON decode attempt count.
func ParseAttemptTotal() int64 {
	return parseAttemptTotal.Load()
}

// balancedEnd walks forward from an opening brace and returns the index of
// the matching closing brace, honoring string and escape state. Returns -1
// when the object does not close within maxSpan bytes (or the buffer ends).
func balancedEnd(data []byte, start, maxSpan int) int {
	depth := 0
	inString := false
	escaped := false

	end := len(data)
	if maxSpan > 0 && start+maxSpan < end {
		end = start + maxSpan
	}

	for i := start; i < end; i++ {
		b := data[i]
		if inString {
			if escaped {
				escaped = false
			} else if b == '\\' {
				escaped = true
			} else if b == '"' {
				inString = false
			}
			continue
		}
		switch b {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// decodeObject attempts to decode a candidate span as a JSON object. Every
// call counts as one parse attempt. Non-object values and malformed UTF-8
// fail only the candidate.
func decodeObject(span []byte) (map[string]interface{}, bool) {
	parseAttemptTotal.Add(1)
	if !utf8.Valid(span) {
		return nil, false
	}
	var obj map[string]interface{}
	if err := json.Unmarshal(span, &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// ObjectScanner finds syntactically balanced {...} spans in a byte buffer
// and yields each as a decoded JSON object, in left-to-right order of the
// opening brace. It is the correctness baseline for blob extraction.
//
// On any candidate failure the cursor resumes one byte past the opening
// brace that started the failed attempt, never blindly past the span, so a
// valid nested object starting at brace+1 is not lost.
type ObjectScanner struct {
	data          []byte
	pos           int
	found         int
	maxObjects    int
	parseAttempts int
}

// NewObjectScanner creates a scanner over data that yields at most
// maxObjects objects.
func NewObjectScanner(data []byte, maxObjects int) *ObjectScanner {
	return &ObjectScanner{data: data, maxObjects: maxObjects}
}

// ParseAttempts returns how many JSON decodes this scanner has attempted.
func (s *ObjectScanner) ParseAttempts() int {
	return s.parseAttempts
}

// Next returns the next decoded object, or ok=false when the buffer (or the
// object budget) is exhausted. Truncated objects at the buffer end yield
// nothing.
func (s *ObjectScanner) Next() (map[string]interface{}, bool) {
	for s.pos < len(s.data) && s.found < s.maxObjects {
		rel := bytes.IndexByte(s.data[s.pos:], '{')
		if rel == -1 {
			return nil, false
		}
		start := s.pos + rel

		end := balancedEnd(s.data, start, 0)
		if end == -1 {
			// No matching close before the buffer ends; a nested object may
			// still start past this brace.
			s.pos = start + 1
			continue
		}

		s.parseAttempts++
		obj, ok := decodeObject(s.data[start : end+1])
		if !ok {
			s.pos = start + 1
			continue
		}

		s.pos = end + 1
		s.found++
		return obj, true
	}
	return nil, false
}

// RoleScanner yields message-shaped objects from buffers where most JSON is
// unrelated noise. Instead of parsing every balanced object, it anchors on
// the "role" marker substring, scans backward for candidate opening braces,
// and structurally validates only those. On well-formed input its output is
// a subset-equal match of the baseline scanner's role-filtered output.
type RoleScanner struct {
	data          []byte
	roles         map[string]bool
	pos           int
	window        int
	maxCandidates int
	maxSpan       int
	parseAttempts int
}

// NewRoleScanner creates a role-anchored scanner that accepts objects whose
// role field is in roles and that carry a content field.
func NewRoleScanner(data []byte, roles []string) *RoleScanner {
	set := make(map[string]bool, len(roles))
	for _, r := range roles {
		set[r] = true
	}
	return &RoleScanner{
		data:          data,
		roles:         set,
		window:        defaultAnchorWindow,
		maxCandidates: defaultMaxCandidates,
		maxSpan:       defaultMaxObjectSpan,
	}
}

// SetWindow overrides the backward candidate window (bytes). Used by tests
// to exercise pathological layouts without huge fixtures.
func (s *RoleScanner) SetWindow(window int) {
	s.window = window
}

// ParseAttempts returns how many JSON decodes this scanner has attempted.
func (s *RoleScanner) ParseAttempts() int {
	return s.parseAttempts
}

// Next returns the next accepted message object, or ok=false when no marker
// remains. The scanner never fails: unparsable regions and false-positive
// markers (the substring inside unrelated text) are skipped.
func (s *RoleScanner) Next() (map[string]interface{}, bool) {
	for s.pos < len(s.data) {
		rel := bytes.Index(s.data[s.pos:], roleMarker)
		if rel == -1 {
			return nil, false
		}
		markerAt := s.pos + rel

		lo := markerAt - s.window
		if lo < 0 {
			lo = 0
		}

		// Candidate opening braces, nearest to the marker first.
		candidates := 0
		for i := markerAt - 1; i >= lo && candidates < s.maxCandidates; i-- {
			if s.data[i] != '{' {
				continue
			}
			candidates++

			end := balancedEnd(s.data, i, s.maxSpan)
			if end == -1 || end < markerAt {
				continue
			}

			s.parseAttempts++
			obj, ok := decodeObject(s.data[i : end+1])
			if !ok {
				continue
			}
			role, ok := obj["role"].(string)
			if !ok || !s.roles[role] {
				continue
			}
			if _, ok := obj["content"]; !ok {
				continue
			}

			// Advance past the whole object so a "role" substring inside its
			// content is not re-anchored.
			s.pos = end + 1
			return obj, true
		}

		// Dead marker; move one marker forward, not one byte, so literal
		// text containing the substring cannot stall the scan.
		s.pos = markerAt + len(roleMarker)
	}
	return nil, false
}

// blobMayContainMessage is the cheap pre-check applied before any scan: a
// blob without both an opening brace and the role marker cannot yield a
// message.
func blobMayContainMessage(blob []byte) bool {
	return bytes.IndexByte(blob, '{') != -1 && bytes.Contains(blob, roleMarker)
}
