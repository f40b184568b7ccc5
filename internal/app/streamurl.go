package app

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/Guilhem-Bonnet/Stream-Channel/internal/domain"
)

// Origines canoniques autorisées. Tout le reste est rejeté.
const (
	originNetflix = "https://www.netflix.com"
	originHulu    = "https://www.hulu.com"
	originMax     = "https://play.hbomax.com"
)

// SanitizeStreamURL valide une URL contre la liste blanche des trois
// plateformes et la réduit à origine canonique + path + query.
// Échoue fermé: tout ce qui n'est pas https sur un hôte connu donne "".
// Les credentials et le fragment sont perdus au passage.
func SanitizeStreamURL(raw string) string {
	if raw == "" {
		return ""
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	if parsed.Scheme != "https" {
		return ""
	}

	host := strings.ToLower(parsed.Hostname())
	var origin string
	switch {
	case host == "www.netflix.com" || strings.HasSuffix(host, ".netflix.com"):
		origin = originNetflix
	case host == "www.hulu.com" || strings.HasSuffix(host, ".hulu.com"):
		origin = originHulu
	case host == "play.hbomax.com" || host == "play.max.com" ||
		strings.HasSuffix(host, ".hbomax.com") || strings.HasSuffix(host, ".max.com"):
		origin = originMax
	default:
		return ""
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	out := origin + path
	if parsed.RawQuery != "" {
		out += "?" + parsed.RawQuery
	}
	return out
}

// DetectPlatform identifie la plateforme par hostname exact, après
// canonicalisation par SanitizeStreamURL.
func DetectPlatform(rawURL string) domain.Platform {
	if rawURL == "" {
		return domain.PlatformUnknown
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return domain.PlatformUnknown
	}
	switch strings.ToLower(parsed.Hostname()) {
	case "www.netflix.com":
		return domain.PlatformNetflix
	case "www.hulu.com":
		return domain.PlatformHulu
	case "play.hbomax.com":
		return domain.PlatformMax
	default:
		return domain.PlatformUnknown
	}
}

var (
	netflixTitleRe  = regexp.MustCompile(`(?i)^https://www\.netflix\.com/title/(\d+)`)
	netflixJbvRe    = regexp.MustCompile(`(?i)^https://www\.netflix\.com/browse\?jbv=(\d+)`)
	netflixWatchRe  = regexp.MustCompile(`(?i)^https://www\.netflix\.com/watch/(\d+)`)
	netflixJbvAnyRe = regexp.MustCompile(`(?i)[?&]jbv=(\d+)`)
	huluWatchRe     = regexp.MustCompile(`(?i)^https://www\.hulu\.com/watch/[a-z0-9-]+`)
	huluSeriesRe    = regexp.MustCompile(`(?i)^https://www\.hulu\.com/series/[a-z0-9-]+`)
)

// normalizeNetflixPlayableURL ramène les formes /browse?jbv=ID et /title/ID
// sur leur forme canonique.
func normalizeNetflixPlayableURL(raw string) string {
	if raw == "" {
		return ""
	}
	if m := netflixTitleRe.FindStringSubmatch(raw); m != nil {
		return originNetflix + "/title/" + m[1]
	}
	if m := netflixJbvRe.FindStringSubmatch(raw); m != nil {
		return originNetflix + "/title/" + m[1]
	}
	if m := netflixWatchRe.FindStringSubmatch(raw); m != nil {
		return originNetflix + "/watch/" + m[1]
	}
	return raw
}

func netflixPathID(raw, segment string) string {
	if raw == "" {
		return ""
	}
	re := regexp.MustCompile(`(?i)/` + segment + `/(\d+)`)
	if m := re.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

func netflixJbvID(raw string) string {
	if m := netflixJbvAnyRe.FindStringSubmatch(raw); m != nil {
		return m[1]
	}
	return ""
}

// PlayableURL dérive l'URL effectivement navigable d'un item, avec la logique
// de précédence propre à chaque plateforme.
func PlayableURL(item domain.Item) string {
	seriesURL := SanitizeStreamURL(item.SeriesURL)
	sourceURL := SanitizeStreamURL(item.SourceURL)
	episodeURL := SanitizeStreamURL(item.EpisodeURL)

	switch item.Platform {
	case domain.PlatformNetflix:
		seriesID := netflixPathID(seriesURL, "title")
		if seriesID == "" {
			seriesID = netflixJbvID(seriesURL)
		}
		episodeID := netflixPathID(episodeURL, "watch")
		sourceWatchID := netflixPathID(sourceURL, "watch")

		// Un id /watch tiré de sourceUrl est le plus fiable; un id épisode
		// ne vaut que s'il se distingue de l'id série.
		trustedWatchID := sourceWatchID
		if trustedWatchID == "" && episodeID != "" && episodeID != seriesID {
			trustedWatchID = episodeID
		}

		var candidates []string
		if trustedWatchID != "" {
			candidates = []string{originNetflix + "/watch/" + trustedWatchID, seriesURL, sourceURL, episodeURL}
		} else {
			candidates = []string{seriesURL, sourceURL, episodeURL}
		}
		for _, c := range candidates {
			if v := SanitizeStreamURL(normalizeNetflixPlayableURL(c)); v != "" {
				return v
			}
		}
		return ""

	case domain.PlatformHulu:
		// Une URL /watch concrète d'abord: une page série risque de
		// reprendre un titre sans rapport depuis l'état du compte.
		for _, c := range []string{episodeURL, sourceURL, seriesURL} {
			if m := huluWatchRe.FindString(c); m != "" {
				return m
			}
		}
		for _, c := range []string{seriesURL, sourceURL, episodeURL} {
			if m := huluSeriesRe.FindString(c); m != "" {
				return m
			}
		}
	}

	// Max et plateformes inconnues: précédence simple.
	if episodeURL != "" {
		return episodeURL
	}
	if sourceURL != "" {
		return sourceURL
	}
	return seriesURL
}
