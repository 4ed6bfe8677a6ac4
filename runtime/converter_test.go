package runtime

import (
	"testing"
	"time"
)

type videoInput struct {
	VideoID string        `json:"videoId"`
	Limit   int           `json:"limit"`
	Text    bool          `json:"text"`
	Timeout time.Duration `json:"timeout"`
}

type jobOutput struct {
	JobID  string     `json:"jobId"`
	Status string     `json:"status"`
	Meta   videoInput `json:"meta"`
	Hidden string     `json:"-"`
	Note   string     `json:"note,omitempty"`
}

func TestToStringValueMap(t *testing.T) {
	got := ToStringValueMap(map[string]any{
		"id":      "dQw4w9WgXcQ",
		"limit":   50,
		"big":     int64(9000000000),
		"ratio":   1.5,
		"whole":   float64(30),
		"text":    true,
		"noLinks": false,
		"lang":    nil,
	})

	want := map[string]string{
		"id":      "dQw4w9WgXcQ",
		"limit":   "50",
		"big":     "9000000000",
		"ratio":   "1.5",
		"whole":   "30",
		"text":    "true",
		"noLinks": "false",
	}

	if len(got) != len(want) {
		t.Fatalf("Expected %d entries, got %d: %v", len(want), len(got), got)
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("%s: expected %q, got %q", k, v, got[k])
		}
	}
	if _, ok := got["lang"]; ok {
		t.Error("Expected nil value to be dropped")
	}
}

func TestMapToStruct_WeakTyping(t *testing.T) {
	tests := []struct {
		name  string
		input map[string]any
		want  videoInput
	}{
		{
			name:  "native types",
			input: map[string]any{"videoId": "abc", "limit": 10, "text": true},
			want:  videoInput{VideoID: "abc", Limit: 10, Text: true},
		},
		{
			name:  "strings from query parameters",
			input: map[string]any{"videoId": "abc", "limit": "25", "text": "true"},
			want:  videoInput{VideoID: "abc", Limit: 25, Text: true},
		},
		{
			name:  "floats from JSON bodies",
			input: map[string]any{"limit": 50.0},
			want:  videoInput{Limit: 50},
		},
		{
			name:  "duration string",
			input: map[string]any{"timeout": "90s"},
			want:  videoInput{Timeout: 90 * time.Second},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got videoInput
			if err := mapToStruct(tt.input, &got); err != nil {
				t.Fatalf("mapToStruct failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("Expected %+v, got %+v", tt.want, got)
			}
		})
	}
}

func TestMapToStruct_InvalidInput(t *testing.T) {
	var got videoInput
	err := mapToStruct(map[string]any{"limit": "many"}, &got)
	if err == nil {
		t.Error("Expected error for non-numeric limit")
	}
}

func TestMapToStruct_YAMLTags(t *testing.T) {
	var cfg struct {
		BaseURL string `yaml:"base_url"`
	}
	if err := mapToStructFromYAML(map[string]any{"base_url": "https://x"}, &cfg); err != nil {
		t.Fatalf("mapToStructFromYAML failed: %v", err)
	}
	if cfg.BaseURL != "https://x" {
		t.Errorf("Expected BaseURL='https://x', got '%s'", cfg.BaseURL)
	}
}

func TestStructToMap(t *testing.T) {
	out, err := structToMap(jobOutput{
		JobID:  "job-1",
		Status: "completed",
		Meta:   videoInput{VideoID: "abc"},
		Hidden: "secret",
	})
	if err != nil {
		t.Fatalf("structToMap failed: %v", err)
	}

	if out["jobId"] != "job-1" {
		t.Errorf("Expected jobId 'job-1', got %v", out["jobId"])
	}
	meta, ok := out["meta"].(map[string]any)
	if !ok {
		t.Fatalf("Expected meta to be a map, got %T", out["meta"])
	}
	if meta["videoId"] != "abc" {
		t.Errorf("Expected meta.videoId 'abc', got %v", meta["videoId"])
	}
	if _, ok := out["Hidden"]; ok {
		t.Error("Expected json:\"-\" field to be skipped")
	}
	if _, ok := out["note"]; ok {
		t.Error("Expected empty omitempty field to be skipped")
	}
}
