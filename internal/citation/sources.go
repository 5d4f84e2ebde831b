package citation

import (
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// Source types relative to the story's own websites.
const (
	SourcePrimary   = "primary"
	SourceSecondary = "secondary"
)

// Source is a classified source URL.
type Source struct {
	URL    string `json:"url"`
	Domain string `json:"domain"`
	Type   string `json:"type"`
	Kind   string `json:"kind"`
}

// ClassifySources labels each URL as primary when it shares a registrable
// domain with one of the story websites, and tags known news/academic hosts.
func ClassifySources(urls []string, storyWebsites []string) []Source {
	var storyDomains []string
	for _, w := range storyWebsites {
		if d, err := BaseDomain(w); err == nil {
			storyDomains = append(storyDomains, d)
		}
	}

	out := make([]Source, 0, len(urls))
	for _, raw := range urls {
		src := Source{URL: raw, Type: SourceSecondary, Kind: KindOther}
		u, err := url.Parse(raw)
		if err == nil {
			src.Kind = knownDomainKind(u.Hostname())
		}
		if d, err := BaseDomain(raw); err == nil {
			src.Domain = d
			for _, sd := range storyDomains {
				if strings.EqualFold(d, sd) {
					src.Type = SourcePrimary
					break
				}
			}
		}
		out = append(out, src)
	}
	return out
}

// BaseDomain returns the eTLD+1 of a URL or bare hostname.
func BaseDomain(raw string) (string, error) {
	if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
		raw = "https://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL %s: %w", raw, err)
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return "", fmt.Errorf("no hostname found in URL: %s", raw)
	}
	base, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", fmt.Errorf("failed to get base domain for %s: %w", host, err)
	}
	return base, nil
}
