package source

import (
	"bufio"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// cue is one timed block of a WebVTT or SRT document. Times are in seconds.
type cue struct {
	start float64
	end   float64
	text  string
}

var (
	// Matches "00:02:16,612 --> 00:02:19,376" (SRT) and "02:16.612 --> 02:19.376" (WebVTT).
	cueTimeRE = regexp.MustCompile(`^((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})\s+-->\s+((?:\d+:)?\d{1,2}:\d{2}[.,]\d{1,3})`)
	// Inline WebVTT markup such as <c.colorE5E5E5>, </c> and <00:00:01.520>.
	cueTagRE = regexp.MustCompile(`<[^>]*>`)
)

// parseCues reads WebVTT or SRT text. Headers, indices, NOTE and STYLE blocks
// are skipped. Consecutive cues with identical text, which rolling auto
// captions produce, are merged.
func parseCues(content string) ([]cue, error) {
	var cues []cue
	var current *cue
	var lines []string

	flush := func() {
		if current != nil {
			current.text = strings.TrimSpace(cueTagRE.ReplaceAllString(strings.Join(lines, " "), ""))
			if current.text != "" {
				if n := len(cues); n > 0 && cues[n-1].text == current.text {
					cues[n-1].end = current.end
				} else {
					cues = append(cues, *current)
				}
			}
		}
		current = nil
		lines = lines[:0]
	}

	scanner := bufio.NewScanner(strings.NewReader(content))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\ufeff"))

		if m := cueTimeRE.FindStringSubmatch(line); m != nil {
			flush()
			start, err := parseCueTime(m[1])
			if err != nil {
				return nil, err
			}
			end, err := parseCueTime(m[2])
			if err != nil {
				return nil, err
			}
			current = &cue{start: start, end: end}
			continue
		}

		if line == "" {
			flush()
			continue
		}
		if current != nil {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read captions: %w", err)
	}
	flush()

	return cues, nil
}

// parseCueTime parses "hh:mm:ss,mmm", "hh:mm:ss.mmm" or "mm:ss.mmm" into seconds.
func parseCueTime(s string) (float64, error) {
	s = strings.Replace(s, ",", ".", 1)
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("invalid cue time: %q", s)
	}

	var total float64
	for _, p := range parts[:len(parts)-1] {
		n, err := strconv.Atoi(p)
		if err != nil {
			return 0, fmt.Errorf("invalid cue time: %q", s)
		}
		total = total*60 + float64(n)
	}
	sec, err := strconv.ParseFloat(parts[len(parts)-1], 64)
	if err != nil {
		return 0, fmt.Errorf("invalid cue time: %q", s)
	}
	return total*60 + sec, nil
}
