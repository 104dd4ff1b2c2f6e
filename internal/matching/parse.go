package matching

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// llmMatch is one entry of the backend's {"matches": [...]} reply.
type llmMatch struct {
	ID     flexID    `json:"id"`
	Score  flexScore `json:"score"`
	Reason string    `json:"reason"`
}

type llmReply struct {
	Matches []llmMatch `json:"matches"`
}

// flexID accepts a JSON number or a numeric string. Anything else decodes
// to 0.
type flexID int64

func (f *flexID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(b)), `"`)
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		if fl, ferr := strconv.ParseFloat(s, 64); ferr == nil && fl == math.Trunc(fl) {
			n = int64(fl)
		} else {
			n = 0
		}
	}
	*f = flexID(n)
	return nil
}

// flexScore accepts a JSON number or a numeric string. Anything else
// decodes to NaN, which never clears the threshold.
type flexScore float64

func (f *flexScore) UnmarshalJSON(b []byte) error {
	s := strings.TrimSpace(strings.Trim(string(bytes.TrimSpace(b)), `"`))
	s = strings.TrimSuffix(s, "%")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		v = math.NaN()
	}
	*f = flexScore(v)
	return nil
}

// extractMatches finds the {"matches": [...]} object in model output. It
// tries the whole text, then the text with markdown fences removed, then the
// span from the first '{' to the last '}', and finally the largest
// decodable object that carries a matches key.
func extractMatches(content string) ([]llmMatch, bool) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, false
	}

	for _, candidate := range []string{content, stripFences(content), outerBraces(content)} {
		if m, ok := decodeReply(candidate); ok {
			return m, true
		}
	}

	var best []llmMatch
	bestLen := 0
	found := false
	for i := 0; i < len(content); i++ {
		if content[i] != '{' {
			continue
		}
		dec := json.NewDecoder(strings.NewReader(content[i:]))
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			continue
		}
		if len(raw) <= bestLen {
			continue
		}
		if m, ok := decodeReply(string(raw)); ok {
			best, bestLen, found = m, len(raw), true
		}
	}
	return best, found
}

func decodeReply(s string) ([]llmMatch, bool) {
	if s == "" {
		return nil, false
	}
	var probe map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &probe); err != nil {
		return nil, false
	}
	if _, ok := probe["matches"]; !ok {
		return nil, false
	}
	var reply llmReply
	if err := json.Unmarshal([]byte(s), &reply); err != nil {
		return nil, false
	}
	return reply.Matches, true
}

func stripFences(s string) string {
	start := strings.Index(s, "```")
	if start < 0 {
		return ""
	}
	rest := s[start+3:]
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 && !strings.Contains(rest[:nl], "{") {
		rest = rest[nl+1:]
	}
	if end := strings.Index(rest, "```"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

func outerBraces(s string) string {
	start := strings.IndexByte(s, '{')
	end := strings.LastIndexByte(s, '}')
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}
