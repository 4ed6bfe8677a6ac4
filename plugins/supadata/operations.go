package supadata

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/Jeffail/gabs/v2"
)

// operation runs one (resource, operation) pair for one item and returns the
// JSON of the records it produced.
type operation func(ctx context.Context, d *Dispatcher, creds Credentials, raw map[string]any) ([]map[string]any, error)

// typed decodes and validates the parameters of P before calling run.
func typed[P any](run func(context.Context, *Dispatcher, Credentials, *P) ([]map[string]any, error)) operation {
	return func(ctx context.Context, d *Dispatcher, creds Credentials, raw map[string]any) ([]map[string]any, error) {
		p := new(P)
		if err := decodeParams(raw, p); err != nil {
			return nil, err
		}
		return run(ctx, d, creds, p)
	}
}

var operations = map[string]map[string]operation{
	"youtube": {
		"getVideo":          typed(getVideo),
		"getTranscript":     typed(getYouTubeTranscript),
		"getChannel":        typed(getChannel),
		"getChannelVideos":  typed(getChannelVideos),
		"getPlaylist":       typed(getPlaylist),
		"getPlaylistVideos": typed(getPlaylistVideos),
	},
	"transcript": {
		"get": typed(getTranscript),
	},
	"webScrape": {
		"scrapeUrl": typed(scrapeURL),
	},
	"extract": {
		"extract": typed(extract),
		"getJob":  typed(getExtractJob),
	},
}

func getVideo(ctx context.Context, d *Dispatcher, creds Credentials, p *VideoParams) ([]map[string]any, error) {
	ref, err := parseVideoRef("videoId", p.VideoID)
	if err != nil {
		return nil, err
	}
	id := ref.ID
	if id == "" {
		id = ref.URL
	}
	return d.single(ctx, creds, Request{
		Method: http.MethodGet,
		Path:   "/youtube/video",
		Query:  map[string]any{"id": id},
	})
}

func getYouTubeTranscript(ctx context.Context, d *Dispatcher, creds Credentials, p *TranscriptParams) ([]map[string]any, error) {
	ref, err := parseVideoRef("videoId", p.VideoID)
	if err != nil {
		return nil, err
	}
	query := map[string]any{"text": p.Text}
	if ref.ID != "" {
		query["videoId"] = ref.ID
	} else {
		query["url"] = ref.URL
	}
	if p.Lang != "" {
		query["lang"] = p.Lang
	}
	return d.single(ctx, creds, Request{Method: http.MethodGet, Path: "/youtube/transcript", Query: query})
}

func getChannel(ctx context.Context, d *Dispatcher, creds Credentials, p *ChannelParams) ([]map[string]any, error) {
	id, err := resourceRef("channelId", p.ChannelID)
	if err != nil {
		return nil, err
	}
	return d.single(ctx, creds, Request{
		Method: http.MethodGet,
		Path:   "/youtube/channel",
		Query:  map[string]any{"id": id},
	})
}

func getChannelVideos(ctx context.Context, d *Dispatcher, creds Credentials, p *ChannelVideosParams) ([]map[string]any, error) {
	id, err := resourceRef("channelId", p.ChannelID)
	if err != nil {
		return nil, err
	}
	query := map[string]any{"id": id, "type": p.Type}
	if !p.ReturnAll {
		query["limit"] = p.Limit
	}
	return d.videoList(ctx, creds, Request{Method: http.MethodGet, Path: "/youtube/channel/videos", Query: query}, p.ReturnAll)
}

func getPlaylist(ctx context.Context, d *Dispatcher, creds Credentials, p *PlaylistParams) ([]map[string]any, error) {
	id, err := resourceRef("playlistId", p.PlaylistID)
	if err != nil {
		return nil, err
	}
	return d.single(ctx, creds, Request{
		Method: http.MethodGet,
		Path:   "/youtube/playlist",
		Query:  map[string]any{"id": id},
	})
}

func getPlaylistVideos(ctx context.Context, d *Dispatcher, creds Credentials, p *PlaylistVideosParams) ([]map[string]any, error) {
	id, err := resourceRef("playlistId", p.PlaylistID)
	if err != nil {
		return nil, err
	}
	query := map[string]any{"id": id}
	if !p.ReturnAll {
		query["limit"] = p.Limit
	}
	return d.videoList(ctx, creds, Request{Method: http.MethodGet, Path: "/youtube/playlist/videos", Query: query}, p.ReturnAll)
}

func getTranscript(ctx context.Context, d *Dispatcher, creds Credentials, p *UniversalTranscriptParams) ([]map[string]any, error) {
	u, err := webURL("url", p.URL)
	if err != nil {
		return nil, err
	}
	query := map[string]any{"url": u, "text": p.Text, "mode": p.Mode}
	if p.Lang != "" {
		query["lang"] = p.Lang
	}

	resp, err := d.client.Do(ctx, creds, Request{Method: http.MethodGet, Path: "/transcript", Query: query})
	if err != nil {
		return nil, err
	}

	// Long media is transcribed asynchronously: the answer is only a job ID.
	jobID, _ := resp.S("jobId").Data().(string)
	if jobID == "" || resp.Exists("content") || !p.WaitForCompletion {
		return []map[string]any{recordJSON(resp)}, nil
	}

	done, err := d.poller.Await(ctx, creds, "/transcript", jobID, d.pollOptions(p.PollParams))
	if err != nil {
		return nil, err
	}
	return []map[string]any{recordJSON(done)}, nil
}

func scrapeURL(ctx context.Context, d *Dispatcher, creds Credentials, p *ScrapeParams) ([]map[string]any, error) {
	u, err := webURL("url", p.URL)
	if err != nil {
		return nil, err
	}
	query := map[string]any{"url": u}
	if p.NoLinks {
		query["noLinks"] = true
	}
	if p.Lang != "" {
		query["lang"] = p.Lang
	}
	return d.single(ctx, creds, Request{Method: http.MethodGet, Path: "/web/scrape", Query: query})
}

func extract(ctx context.Context, d *Dispatcher, creds Credentials, p *ExtractParams) ([]map[string]any, error) {
	u, err := webURL("url", p.URL)
	if err != nil {
		return nil, err
	}
	schema, err := jsonSchema(p.Schema)
	if err != nil {
		return nil, err
	}
	if p.Prompt == "" && schema == nil {
		return nil, &ValidationError{Field: "prompt", Message: "a prompt or a schema is required"}
	}

	body := map[string]any{"url": u}
	if p.Prompt != "" {
		body["prompt"] = p.Prompt
	}
	if schema != nil {
		body["schema"] = schema
	}

	created, err := d.client.Do(ctx, creds, Request{Method: http.MethodPost, Path: "/extract", Body: body})
	if err != nil {
		return nil, err
	}
	if !p.WaitForCompletion {
		return []map[string]any{recordJSON(created)}, nil
	}

	jobID, _ := created.S("jobId").Data().(string)
	if jobID == "" {
		return nil, &APIError{
			Method:     http.MethodPost,
			Path:       "/extract",
			StatusCode: http.StatusOK,
			Message:    "response has no jobId",
		}
	}

	done, err := d.poller.Await(ctx, creds, "/extract", jobID, d.pollOptions(p.PollParams))
	if err != nil {
		return nil, err
	}
	return []map[string]any{recordJSON(done)}, nil
}

func getExtractJob(ctx context.Context, d *Dispatcher, creds Credentials, p *JobParams) ([]map[string]any, error) {
	return d.single(ctx, creds, Request{
		Method: http.MethodGet,
		Path:   "/extract/" + url.PathEscape(p.JobID),
		Route:  "/extract/{jobId}",
	})
}

func (d *Dispatcher) single(ctx context.Context, creds Credentials, req Request) ([]map[string]any, error) {
	resp, err := d.client.Do(ctx, creds, req)
	if err != nil {
		return nil, err
	}
	return []map[string]any{recordJSON(resp)}, nil
}

// videoKinds maps the id lists of a channel or playlist listing to the record type.
var videoKinds = []struct {
	field string
	kind  string
}{
	{"videoIds", "video"},
	{"shortIds", "short"},
	{"liveIds", "live"},
}

// videoList emits one {videoId, type} record per listed id, walking every
// page when all is set.
func (d *Dispatcher) videoList(ctx context.Context, creds Credentials, req Request, all bool) ([]map[string]any, error) {
	var records []map[string]any
	collect := func(page *gabs.Container) (int, error) {
		n := 0
		for _, k := range videoKinds {
			for _, id := range arrayField(page, k.field) {
				records = append(records, map[string]any{"videoId": id, "type": k.kind})
				n++
			}
		}
		return n, nil
	}

	if all {
		if err := d.client.Walk(ctx, creds, req, d.limits, collect); err != nil {
			return nil, err
		}
		return records, nil
	}

	resp, err := d.client.Do(ctx, creds, req)
	if err != nil {
		return nil, err
	}
	if _, err := collect(resp); err != nil {
		return nil, err
	}
	return records, nil
}

func (d *Dispatcher) pollOptions(p PollParams) PollOptions {
	opts := d.poll
	if p.PollInterval > 0 {
		opts.Interval = time.Duration(p.PollInterval) * time.Second
	}
	if p.MaxWait > 0 {
		opts.MaxWait = time.Duration(p.MaxWait) * time.Second
	}
	return opts
}

// recordJSON returns the answer as a record body. Non-object answers are
// wrapped under "data".
func recordJSON(doc *gabs.Container) map[string]any {
	if m, ok := doc.Data().(map[string]any); ok {
		return m
	}
	return map[string]any{"data": doc.Data()}
}
