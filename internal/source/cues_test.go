package source

import (
	"math"
	"testing"
)

func TestParseCues(t *testing.T) {
	t.Run("srt", func(t *testing.T) {
		content := "1\n00:00:01,000 --> 00:00:02,500\nHello there\n\n2\n00:01:02,250 --> 00:01:04,000\nGeneral\nKenobi\n"

		cues, err := parseCues(content)
		if err != nil {
			t.Fatalf("parseCues() error = %v", err)
		}
		if len(cues) != 2 {
			t.Fatalf("len(cues) = %d, want 2", len(cues))
		}
		if cues[0].start != 1 || cues[0].end != 2.5 || cues[0].text != "Hello there" {
			t.Errorf("cues[0] = %+v", cues[0])
		}
		if math.Abs(cues[1].start-62.25) > 1e-9 || cues[1].text != "General Kenobi" {
			t.Errorf("cues[1] = %+v", cues[1])
		}
	})

	t.Run("webvtt with markup", func(t *testing.T) {
		content := "\ufeffWEBVTT\nKind: captions\nLanguage: en\n\nNOTE generated\n\n" +
			"00:00.500 --> 00:02.000 align:start position:0%\n<c.colorE5E5E5>so</c><00:00:01.000><c> today</c>\n\n" +
			"00:02.000 --> 00:03.000\nso today\n\n" +
			"01:00:00.000 --> 01:00:01.000\nlater\n"

		cues, err := parseCues(content)
		if err != nil {
			t.Fatalf("parseCues() error = %v", err)
		}
		if len(cues) != 2 {
			t.Fatalf("len(cues) = %d, want 2 (duplicate merged): %+v", len(cues), cues)
		}
		if cues[0].text != "so today" || cues[0].start != 0.5 || cues[0].end != 3 {
			t.Errorf("cues[0] = %+v", cues[0])
		}
		if cues[1].start != 3600 {
			t.Errorf("cues[1].start = %v, want 3600", cues[1].start)
		}
	})

	t.Run("no cues", func(t *testing.T) {
		cues, err := parseCues("WEBVTT\n\n")
		if err != nil {
			t.Fatalf("parseCues() error = %v", err)
		}
		if len(cues) != 0 {
			t.Errorf("len(cues) = %d, want 0", len(cues))
		}
	})
}

func TestParseCueTime(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		wantErr bool
	}{
		{"00:00:01,000", 1, false},
		{"01:02:03.500", 3723.5, false},
		{"02:03.250", 123.25, false},
		{"bad", 0, true},
	}
	for _, tt := range tests {
		got, err := parseCueTime(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseCueTime(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("parseCueTime(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
