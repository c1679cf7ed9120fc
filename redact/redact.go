// Package redact strips likely secrets from transcript-derived text before
// it is displayed or exported. Agent session logs routinely capture API
// keys and tokens that tools read or printed during the session.
package redact

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/zricethezav/gitleaks/v8/detect"
)

const placeholder = "REDACTED"

// candidatePattern matches token-shaped runs worth entropy-testing.
var candidatePattern = regexp.MustCompile(`[A-Za-z0-9/+_=-]{10,}`)

// entropyThreshold is the minimum Shannon entropy for a candidate to count
// as a secret. Prose and identifiers sit well below it; API keys and
// tokens sit well above.
const entropyThreshold = 4.5

var (
	detector     *detect.Detector
	detectorOnce sync.Once
)

func getDetector() *detect.Detector {
	detectorOnce.Do(func() {
		d, err := detect.NewDetectorDefaultConfig()
		if err != nil {
			return
		}
		detector = d
	})
	return detector
}

// span is a byte range flagged for redaction.
type span struct{ start, end int }

// String replaces likely secrets in s with REDACTED. Two detectors run and
// either one can flag a range: a Shannon-entropy scan over token-shaped
// runs, and the gitleaks rule set for known secret formats.
func String(s string) string {
	spans := flagSpans(s)
	if len(spans) == 0 {
		return s
	}

	var b strings.Builder
	prev := 0
	for _, sp := range mergeSpans(spans) {
		b.WriteString(s[prev:sp.start])
		b.WriteString(placeholder)
		prev = sp.end
	}
	b.WriteString(s[prev:])
	return b.String()
}

func flagSpans(s string) []span {
	var spans []span

	for _, loc := range candidatePattern.FindAllStringIndex(s, -1) {
		if shannonEntropy(s[loc[0]:loc[1]]) > entropyThreshold {
			spans = append(spans, span{loc[0], loc[1]})
		}
	}

	if d := getDetector(); d != nil {
		for _, finding := range d.DetectString(s) {
			if finding.Secret == "" {
				continue
			}
			// A rule reports the secret text once; flag every occurrence.
			from := 0
			for {
				idx := strings.Index(s[from:], finding.Secret)
				if idx < 0 {
					break
				}
				start := from + idx
				spans = append(spans, span{start, start + len(finding.Secret)})
				from = start + len(finding.Secret)
			}
		}
	}
	return spans
}

func mergeSpans(spans []span) []span {
	sort.Slice(spans, func(i, j int) bool { return spans[i].start < spans[j].start })
	merged := []span{spans[0]}
	for _, sp := range spans[1:] {
		last := &merged[len(merged)-1]
		if sp.start <= last.end {
			if sp.end > last.end {
				last.end = sp.end
			}
		} else {
			merged = append(merged, sp)
		}
	}
	return merged
}

// Lines redacts a JSONL transcript export. Each line is parsed so that
// only string values are scanned; replacements are then made on the raw
// line text, so lines without secrets keep their exact original bytes.
// Unparseable lines fall back to whole-line redaction.
func Lines(content string) (string, error) {
	lines := strings.Split(content, "\n")
	var b strings.Builder
	for i, line := range lines {
		if i > 0 {
			b.WriteByte('\n')
		}
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			b.WriteString(line)
			continue
		}

		var parsed any
		if err := json.Unmarshal([]byte(trimmed), &parsed); err != nil {
			b.WriteString(String(line))
			continue
		}

		repls := collectReplacements(parsed)
		if len(repls) == 0 {
			b.WriteString(line)
			continue
		}

		result := line
		for _, r := range repls {
			origJSON, err := jsonEncodeString(r[0])
			if err != nil {
				return "", err
			}
			replJSON, err := jsonEncodeString(r[1])
			if err != nil {
				return "", err
			}
			result = strings.ReplaceAll(result, origJSON, replJSON)
		}
		b.WriteString(result)
	}
	return b.String(), nil
}

// collectReplacements walks a parsed JSON value and collects unique
// (original, redacted) pairs for string values that need redaction.
func collectReplacements(v any) [][2]string {
	seen := make(map[string]bool)
	var repls [][2]string
	var walk func(v any)
	walk = func(v any) {
		switch val := v.(type) {
		case map[string]any:
			if skipObject(val) {
				return
			}
			for k, child := range val {
				if skipField(k) {
					continue
				}
				walk(child)
			}
		case []any:
			for _, child := range val {
				walk(child)
			}
		case string:
			redacted := String(val)
			if redacted != val && !seen[val] {
				seen[val] = true
				repls = append(repls, [2]string{val, redacted})
			}
		}
	}
	walk(v)
	return repls
}

// skipField excludes structural transcript fields from scanning. UUIDs,
// tool-use IDs, and thinking signatures are high-entropy by construction
// and must survive redaction intact, or result matching breaks.
func skipField(key string) bool {
	if key == "signature" || key == "timestamp" {
		return true
	}
	lower := strings.ToLower(key)
	return strings.HasSuffix(lower, "id") || strings.HasSuffix(lower, "ids") || strings.HasSuffix(lower, "uuid")
}

// skipObject excludes embedded image payloads; base64 image data is all
// high entropy and redacting it just destroys the export.
func skipObject(obj map[string]any) bool {
	t, ok := obj["type"].(string)
	return ok && (strings.HasPrefix(t, "image") || t == "base64")
}

func shannonEntropy(s string) float64 {
	if len(s) == 0 {
		return 0
	}
	freq := make(map[byte]int)
	for i := range len(s) {
		freq[s[i]]++
	}
	length := float64(len(s))
	var entropy float64
	for _, count := range freq {
		p := float64(count) / length
		entropy -= p * math.Log2(p)
	}
	return entropy
}

// jsonEncodeString returns the JSON encoding of s without HTML escaping.
func jsonEncodeString(s string) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return "", fmt.Errorf("json encode string: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}
