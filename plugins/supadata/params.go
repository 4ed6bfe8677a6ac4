package supadata

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/creasty/defaults"
	"github.com/sflowg/supadata/runtime"
)

// Selector picks the operation an item runs.
type Selector struct {
	Resource  string `json:"resource" validate:"required"`
	Operation string `json:"operation" validate:"required"`
}

type VideoParams struct {
	VideoID string `json:"videoId" validate:"required"`
}

type TranscriptParams struct {
	VideoID string `json:"videoId" validate:"required"`
	Text    bool   `json:"text"`
	Lang    string `json:"lang" validate:"omitempty,len=2,alpha"`
}

type ChannelParams struct {
	ChannelID string `json:"channelId" validate:"required"`
}

type ChannelVideosParams struct {
	ChannelID string `json:"channelId" validate:"required"`
	Limit     int    `json:"limit" default:"50" validate:"gte=1,lte=5000"`
	Type      string `json:"type" default:"all" validate:"oneof=all video short live"`
	ReturnAll bool   `json:"returnAll"`
}

type PlaylistParams struct {
	PlaylistID string `json:"playlistId" validate:"required"`
}

type PlaylistVideosParams struct {
	PlaylistID string `json:"playlistId" validate:"required"`
	Limit      int    `json:"limit" default:"50" validate:"gte=1,lte=5000"`
	ReturnAll  bool   `json:"returnAll"`
}

// PollParams tune how long an operation waits for an asynchronous job.
// Zero values fall back to the plugin's configured poll options.
type PollParams struct {
	WaitForCompletion bool `json:"waitForCompletion" default:"true"`
	PollInterval      int  `json:"pollInterval" validate:"gte=0,lte=60"`
	MaxWait           int  `json:"maxWait" validate:"gte=0,lte=3600"`
}

// UniversalTranscriptParams fetches a transcript for any supported platform URL.
type UniversalTranscriptParams struct {
	URL  string `json:"url" validate:"required"`
	Lang string `json:"lang" validate:"omitempty,len=2,alpha"`
	Text bool   `json:"text"`
	Mode string `json:"mode" default:"auto" validate:"oneof=native generate auto"`

	PollParams `json:",squash"`
}

type ScrapeParams struct {
	URL     string `json:"url" validate:"required"`
	NoLinks bool   `json:"noLinks"`
	Lang    string `json:"lang" validate:"omitempty,len=2,alpha"`
}

// ExtractParams submits an AI extraction. Schema is a JSON Schema given as an
// object or as a string holding one; it is forwarded unmodified.
type ExtractParams struct {
	URL    string `json:"url" validate:"required"`
	Prompt string `json:"prompt"`
	Schema any    `json:"schema"`

	PollParams `json:",squash"`
}

type JobParams struct {
	JobID string `json:"jobId" validate:"required"`
}

// decodeParams fills p from raw: tag defaults first, then the resolved
// parameters (weakly typed), then validation.
func decodeParams(raw map[string]any, p any) error {
	if err := defaults.Set(p); err != nil {
		return fmt.Errorf("apply defaults: %w", err)
	}
	if err := runtime.MapToStruct(raw, p, "json"); err != nil {
		return &ValidationError{Message: err.Error(), cause: err}
	}
	if err := runtime.ValidateStruct(reflect.ValueOf(p).Elem().Interface()); err != nil {
		fields := runtime.FieldErrors(err)
		if len(fields) == 0 {
			return &ValidationError{Message: err.Error(), cause: err}
		}
		f := fields[0]
		return &ValidationError{
			Field:   jsonName(p, f.Field),
			Message: ruleMessage(f),
			cause:   err,
		}
	}
	return nil
}

// jsonName maps a struct field name of p (or an embedded struct) to its json name.
func jsonName(p any, field string) string {
	t := reflect.TypeOf(p)
	for t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	sf, ok := t.FieldByName(field)
	if !ok {
		return field
	}
	name, _, _ := strings.Cut(sf.Tag.Get("json"), ",")
	if name == "" {
		return field
	}
	return name
}

func ruleMessage(f runtime.FieldError) string {
	switch f.Tag {
	case "required":
		return "is required"
	case "oneof":
		return "must be one of: " + f.Param
	case "gte":
		return "must be at least " + f.Param
	case "lte":
		return "must be at most " + f.Param
	case "len":
		return "must be " + f.Param + " characters"
	case "alpha":
		return "must contain letters only"
	default:
		return "failed rule " + f.Tag
	}
}

// jsonSchema returns the schema as an object. Strings must parse as a JSON object.
func jsonSchema(v any) (map[string]any, error) {
	switch s := v.(type) {
	case nil:
		return nil, nil
	case map[string]any:
		return s, nil
	case string:
		if strings.TrimSpace(s) == "" {
			return nil, nil
		}
		doc, err := gabs.ParseJSON([]byte(s))
		if err != nil {
			return nil, &ValidationError{Field: "schema", Message: "is not valid JSON", cause: err}
		}
		obj, ok := doc.Data().(map[string]any)
		if !ok {
			return nil, &ValidationError{Field: "schema", Message: "must be a JSON object"}
		}
		return obj, nil
	default:
		return nil, &ValidationError{Field: "schema", Message: fmt.Sprintf("must be a JSON object, got %T", v)}
	}
}
