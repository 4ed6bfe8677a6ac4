package yaml

import "testing"

func TestValueStore_SetNested(t *testing.T) {
	s := NewValueStore()
	body := map[string]any{
		"items": []any{
			map[string]any{"json": map[string]any{"videoId": "a"}, "item": 0},
		},
	}
	s.SetNested("fetch-videos.result", body)

	checks := map[string]any{
		"fetch-videos.result.items.0.json.videoId": "a",
		"fetch-videos.result.items.0.item":         0,
	}
	for key, want := range checks {
		got, ok := s.Get(key)
		if !ok {
			t.Errorf("Expected %s to be set", key)
			continue
		}
		if got != want {
			t.Errorf("%s: expected %v, got %v", key, want, got)
		}
	}

	if _, ok := s.All()["fetch_videos_result_items"]; !ok {
		t.Error("Expected intermediate list to be stored")
	}
}

func TestValueStore_SetGet(t *testing.T) {
	s := NewValueStore()
	s.Set("request.queryParameters.lang", "en")

	if v, ok := s.Get("request_queryParameters_lang"); !ok || v != "en" {
		t.Errorf("Expected flat key lookup to match, got %v %v", v, ok)
	}
	if _, ok := s.Get("missing"); ok {
		t.Error("Expected missing key to report false")
	}
}
