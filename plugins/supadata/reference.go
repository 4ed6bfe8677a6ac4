package supadata

import (
	"net/url"
	"regexp"
	"strings"
)

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// videoRef is a video reference resolved from user input: either a video ID
// or, when no ID can be extracted, a URL the API resolves itself.
type videoRef struct {
	ID  string
	URL string
}

// parseVideoRef accepts a bare video ID or a YouTube URL in any of the
// watch?v=, youtu.be/, shorts/, embed/ and live/ forms. Both forms of the
// same video resolve to the same ID.
func parseVideoRef(field, input string) (videoRef, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return videoRef{}, &ValidationError{Field: field, Message: "is required"}
	}
	if !looksLikeURL(input) {
		return videoRef{ID: input}, nil
	}

	u, err := parseURL(field, input)
	if err != nil {
		return videoRef{}, err
	}
	if id := videoIDFromURL(u); id != "" {
		return videoRef{ID: id}, nil
	}
	return videoRef{URL: input}, nil
}

func videoIDFromURL(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	var id string
	switch {
	case host == "youtu.be":
		id = segments[0]
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com") || host == "youtube-nocookie.com":
		switch segments[0] {
		case "watch":
			id = u.Query().Get("v")
		case "shorts", "embed", "live", "v":
			if len(segments) > 1 {
				id = segments[1]
			}
		}
	}

	if videoIDPattern.MatchString(id) {
		return id
	}
	return ""
}

// resourceRef validates a channel or playlist reference. IDs, handles and URLs
// are forwarded as given; URL-like input must parse.
func resourceRef(field, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &ValidationError{Field: field, Message: "is required"}
	}
	if looksLikeURL(input) {
		if _, err := parseURL(field, input); err != nil {
			return "", err
		}
	}
	return input, nil
}

// webURL validates an absolute http(s) URL.
func webURL(field, input string) (string, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return "", &ValidationError{Field: field, Message: "is required"}
	}
	u, err := url.Parse(input)
	if err != nil {
		return "", &ValidationError{Field: field, Message: "is not a valid URL", cause: err}
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", &ValidationError{Field: field, Message: "must be an absolute http(s) URL"}
	}
	return input, nil
}

func looksLikeURL(s string) bool {
	lower := strings.ToLower(s)
	return strings.Contains(lower, "://") ||
		strings.HasPrefix(lower, "www.") ||
		strings.Contains(lower, "youtube.com/") ||
		strings.Contains(lower, "youtu.be/")
}

// parseURL parses URL-like input, assuming https when the scheme is missing.
func parseURL(field, input string) (*url.URL, error) {
	raw := input
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, &ValidationError{Field: field, Message: "is not a valid URL", cause: err}
	}
	if u.Host == "" {
		return nil, &ValidationError{Field: field, Message: "URL has no host"}
	}
	return u, nil
}
