package resolver

import (
	"regexp"
)

// Quality is a YouTube thumbnail quality tier
type Quality string

const (
	QualityMaxRes  Quality = "maxresdefault"
	QualitySD      Quality = "sddefault"
	QualityHQ      Quality = "hqdefault"
	QualityMQ      Quality = "mqdefault"
	QualityDefault Quality = "default"
)

// QualityLadder lists the tiers tried during resolution, best first
var QualityLadder = []Quality{
	QualityMaxRes,
	QualitySD,
	QualityHQ,
	QualityMQ,
	QualityDefault,
}

// Ordered patterns for the URL shapes YouTube hands out. First match
// wins; each captures the 11-character video ID.
var youtubeIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`youtube\.com/watch\?(?:[^&]*&)*v=([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtu\.be/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/embed/([a-zA-Z0-9_-]{11})`),
	regexp.MustCompile(`youtube\.com/v/([a-zA-Z0-9_-]{11})`),
}

// ExtractYouTubeID pulls the 11-character video ID out of a YouTube URL.
// Returns false when no known shape matches.
func ExtractYouTubeID(rawURL string) (string, bool) {
	if rawURL == "" {
		return "", false
	}

	for _, pattern := range youtubeIDPatterns {
		if match := pattern.FindStringSubmatch(rawURL); len(match) == 2 {
			return match[1], true
		}
	}

	return "", false
}

// ThumbnailURL builds the YouTube thumbnail image URL for a video ID at
// the given quality tier.
func ThumbnailURL(baseURL, videoID string, quality Quality) string {
	return baseURL + "/vi/" + videoID + "/" + string(quality) + ".jpg"
}
