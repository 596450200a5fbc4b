package youtube

import (
	"errors"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

// ErrInvalidVideoID means no 11-character video id could be found.
var ErrInvalidVideoID = errors.New("invalid YouTube video id")

var (
	videoIDPattern  = regexp.MustCompile(`^[0-9A-Za-z_-]{11}$`)
	looseIDPattern  = regexp.MustCompile(`(?:v=|/)([0-9A-Za-z_-]{11})(?:[^0-9A-Za-z_-]|$)`)
	durationPattern = regexp.MustCompile(`^P(?:(\d+)D)?T?(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?$`)
)

// ValidateVideoID reports whether id has the shape of a YouTube video id.
func ValidateVideoID(id string) bool {
	return videoIDPattern.MatchString(id)
}

// ExtractVideoID accepts a bare id or a watch, youtu.be, embed, shorts or
// live URL and returns the video id.
func ExtractVideoID(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if ValidateVideoID(raw) {
		return raw, nil
	}

	candidate := raw
	if !strings.Contains(candidate, "://") {
		candidate = "https://" + candidate
	}
	if u, err := url.Parse(candidate); err == nil {
		if id := idFromURL(u); ValidateVideoID(id) {
			return id, nil
		}
	}

	if m := looseIDPattern.FindStringSubmatch(raw); m != nil {
		return m[1], nil
	}
	return "", ErrInvalidVideoID
}

func idFromURL(u *url.URL) string {
	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	segments := strings.Split(strings.Trim(u.Path, "/"), "/")

	switch host {
	case "youtu.be":
		return segments[0]
	case "youtube.com", "m.youtube.com", "music.youtube.com", "youtube-nocookie.com":
		if v := u.Query().Get("v"); v != "" {
			return v
		}
		if len(segments) >= 2 {
			switch segments[0] {
			case "embed", "shorts", "live", "v":
				return segments[1]
			}
		}
	}
	return ""
}

// parseDurationSeconds converts an ISO 8601 duration such as PT1H2M3S.
func parseDurationSeconds(duration string) int {
	m := durationPattern.FindStringSubmatch(duration)
	if m == nil {
		return 0
	}

	total := 0
	for i, unit := range []int{86400, 3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}
		if n, err := strconv.Atoi(m[i+1]); err == nil {
			total += n * unit
		}
	}
	return total
}
