package youtube

import (
	"net/url"
	"strings"

	"github.com/forPelevin/topicut/internal/types"
)

// ParseVideoID extracts the video id from the usual YouTube URL shapes
// (watch, youtu.be, shorts, embed, live) or accepts a bare id.
func ParseVideoID(raw string) (types.VideoID, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", &types.InputError{Field: "youtube_url", Reason: "is required"}
	}
	if id := types.VideoID(raw); id.Validate() == nil {
		return id, nil
	}

	s := raw
	if !strings.Contains(s, "://") {
		s = "https://" + s
	}
	u, err := url.Parse(s)
	if err != nil {
		return "", &types.InputError{Field: "youtube_url", Reason: "is not a valid URL"}
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	host = strings.TrimPrefix(host, "m.")
	segs := strings.Split(strings.Trim(u.Path, "/"), "/")

	var candidate string
	switch host {
	case "youtu.be":
		candidate = segs[0]
	case "youtube.com", "music.youtube.com", "youtube-nocookie.com":
		switch {
		case segs[0] == "watch":
			candidate = u.Query().Get("v")
		case len(segs) >= 2 && (segs[0] == "shorts" || segs[0] == "embed" || segs[0] == "live" || segs[0] == "v"):
			candidate = segs[1]
		}
	default:
		return "", &types.InputError{Field: "youtube_url", Reason: "is not a YouTube URL"}
	}

	id := types.VideoID(candidate)
	if err := id.Validate(); err != nil {
		return "", &types.InputError{Field: "youtube_url", Reason: "does not contain a valid video id"}
	}
	return id, nil
}
