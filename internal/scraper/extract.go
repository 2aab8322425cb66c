package scraper

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	resolutionPattern = regexp.MustCompile(`(?i)\b(480p|720p|960p|1080p|1440p|2160p|4K)\b`)
	subgroupPattern   = regexp.MustCompile(`^\s*\[([^\]]+)\]`)
	infohashPattern   = regexp.MustCompile(`(?i)\b([0-9a-f]{40})\b`)
	bracketPattern    = regexp.MustCompile(`\[[^\]]*\]|\([^)]*\)`)
	extensionPattern  = regexp.MustCompile(`(?i)\.(mkv|mp4|avi|ts)$`)

	// Episode markers, tried in order: " - 07", "E07", "Ep 07".
	episodePatterns = []*regexp.Regexp{
		regexp.MustCompile(`\s-\s(\d{1,4})(?:\s|$|v\d)`),
		regexp.MustCompile(`(?i)\bE(\d{1,4})\b`),
		regexp.MustCompile(`(?i)\bEp\.?\s?(\d{1,4})\b`),
	}
)

// ExtractResolution pulls the first resolution token from a release title
// and canonicalizes it. 4K maps to 2160P; absent tokens return "".
func ExtractResolution(title string) string {
	match := resolutionPattern.FindString(title)
	if match == "" {
		return ""
	}
	token := strings.ToUpper(match)
	if token == "4K" {
		return "2160P"
	}
	return token
}

// ExtractSubgroup returns the contents of the leading bracket group, the
// conventional position for a release group name.
func ExtractSubgroup(title string) string {
	match := subgroupPattern.FindStringSubmatch(title)
	if len(match) < 2 {
		return ""
	}
	return strings.TrimSpace(match[1])
}

// ExtractInfohash finds a 40-hex-digit torrent hash in arbitrary text
// (descriptions, magnet URIs) and lowercases it.
func ExtractInfohash(text string) string {
	match := infohashPattern.FindString(text)
	if match == "" {
		return ""
	}
	return strings.ToLower(match)
}

// ExtractEpisode pulls an episode number from a release title.
func ExtractEpisode(title string) (int, bool) {
	// Strip bracket groups first so "[1080p]" or "(720p)" can't shadow
	// an episode marker.
	cleaned := bracketPattern.ReplaceAllString(title, " ")
	for _, pattern := range episodePatterns {
		if match := pattern.FindStringSubmatch(cleaned); len(match) >= 2 {
			if episode, err := strconv.Atoi(match[1]); err == nil {
				return episode, true
			}
		}
	}
	return 0, false
}

// NormalizeTitle produces the comparison form of a release title: NFKC
// normalized, bracket groups and file extensions removed, lowercased,
// whitespace collapsed.
func NormalizeTitle(title string) string {
	normalized := norm.NFKC.String(title)
	normalized = bracketPattern.ReplaceAllString(normalized, " ")
	normalized = extensionPattern.ReplaceAllString(normalized, "")
	normalized = strings.ToLower(normalized)
	return strings.Join(strings.Fields(normalized), " ")
}

// releaseKey derives the logical-release grouping key: the normalized
// title with resolution and episode markers stripped, paired with the
// extracted episode number when present.
func releaseKey(c *Candidate) string {
	base := NormalizeTitle(c.Title)
	base = resolutionPattern.ReplaceAllString(base, " ")
	for _, pattern := range episodePatterns {
		base = pattern.ReplaceAllString(base, " ")
	}
	base = strings.Join(strings.Fields(base), " ")
	if c.HasEpisode {
		return base + "#" + strconv.Itoa(c.Episode)
	}
	return base
}

// Annotate fills the extracted attribute fields of a candidate in place.
func Annotate(c *Candidate) {
	c.Resolution = ExtractResolution(c.Title)
	c.Subgroup = ExtractSubgroup(c.Title)
	c.Episode, c.HasEpisode = ExtractEpisode(c.Title)
	if c.Infohash == "" && c.Magnet != "" {
		c.Infohash = ExtractInfohash(c.Magnet)
	}
	c.Infohash = strings.ToLower(strings.TrimSpace(c.Infohash))
}
