package citation

import (
	"net/url"
	"regexp"
	"strings"

	"mvdan.cc/xurls/v2"
)

// MaxSourceURLs caps the number of URLs returned per response.
const MaxSourceURLs = 20

const trailingPunctuation = ".,;:!?"

// urlBody matches the remainder of a URL after its scheme inside the layer patterns.
const urlBody = `https?://[^\s<>"'\x60{}|\\^]+`

// KnownDomain is an allowlisted news or academic domain.
type KnownDomain struct {
	Domain string
	Kind   string
}

// Source kinds.
const (
	KindNews     = "news"
	KindAcademic = "academic"
	KindOther    = "other"
)

// KnownDomains is the allowlist scanned by the domain layer.
var KnownDomains = []KnownDomain{
	{Domain: "cnn.com", Kind: KindNews},
	{Domain: "bbc.com", Kind: KindNews},
	{Domain: "reuters.com", Kind: KindNews},
	{Domain: "ap.org", Kind: KindNews},
	{Domain: "nytimes.com", Kind: KindNews},
	{Domain: "washingtonpost.com", Kind: KindNews},
	{Domain: "theguardian.com", Kind: KindNews},
	{Domain: "forbes.com", Kind: KindNews},
	{Domain: "bloomberg.com", Kind: KindNews},
	{Domain: "wsj.com", Kind: KindNews},
	{Domain: "npr.org", Kind: KindNews},
	{Domain: "arxiv.org", Kind: KindAcademic},
	{Domain: "pubmed.ncbi.nlm.nih.gov", Kind: KindAcademic},
	{Domain: "scholar.google.com", Kind: KindAcademic},
	{Domain: "researchgate.net", Kind: KindAcademic},
	{Domain: "doi.org", Kind: KindAcademic},
}

// URLLayer is one pass of the source URL scan. When Group is non-zero the
// URL is taken from that capture group instead of the whole match.
type URLLayer struct {
	Label   string
	Pattern *regexp.Regexp
	Group   int
}

// URLLayers run after the generic xurls scan, in order.
var URLLayers = []URLLayer{
	{Label: "bracketed", Pattern: regexp.MustCompile(`\[(https?://[^\s\[\]]+)\]`), Group: 1},
	{Label: "parenthesized", Pattern: regexp.MustCompile(`\((https?://[^\s()]+)\)`), Group: 1},
	{Label: "known_domain", Pattern: knownDomainPattern()},
	{Label: "citation_phrase", Pattern: regexp.MustCompile(`(?i)\b(?:sources?|according to|from|via|see|ref|reference):?\s+(` + urlBody + `)`), Group: 1},
	{Label: "availability_phrase", Pattern: regexp.MustCompile(`(?i)\b(?:available at|found at|read more at):?\s+(` + urlBody + `)`), Group: 1},
}

var genericURLs = xurls.Strict()

func knownDomainPattern() *regexp.Regexp {
	quoted := make([]string, len(KnownDomains))
	for i, d := range KnownDomains {
		quoted[i] = regexp.QuoteMeta(d.Domain)
	}
	return regexp.MustCompile(`(?i)https?://(?:[a-z0-9-]+\.)*(?:` + strings.Join(quoted, "|") + `)(?:[/?#][^\s<>"'\x60{}|\\^]*)?`)
}

// ExtractSourceURLs returns the distinct absolute http(s) URLs in text, in order
// of discovery across the scan layers, capped at MaxSourceURLs.
func ExtractSourceURLs(text string) []string {
	out := make([]string, 0)
	seen := make(map[string]struct{})

	add := func(raw string) bool {
		u, ok := cleanURL(raw)
		if !ok {
			return len(out) < MaxSourceURLs
		}
		if _, dup := seen[u]; !dup {
			seen[u] = struct{}{}
			out = append(out, u)
		}
		return len(out) < MaxSourceURLs
	}

	for _, m := range genericURLs.FindAllString(text, -1) {
		if !add(m) {
			return out
		}
	}
	for _, layer := range URLLayers {
		for _, m := range layer.Pattern.FindAllStringSubmatch(text, -1) {
			if layer.Group >= len(m) {
				continue
			}
			if !add(m[layer.Group]) {
				return out
			}
		}
	}
	return out
}

// cleanURL strips trailing punctuation and unbalanced closing wrappers, lowercases
// the scheme, and rejects anything that is not an absolute http(s) URL with a host.
func cleanURL(raw string) (string, bool) {
	u := strings.TrimSpace(raw)
	for {
		trimmed := strings.TrimRight(u, trailingPunctuation)
		trimmed = trimUnbalanced(trimmed, '(', ')')
		trimmed = trimUnbalanced(trimmed, '[', ']')
		if trimmed == u {
			break
		}
		u = trimmed
	}

	lower := strings.ToLower(u)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return "", false
	}
	// Schemes are case-insensitive; store them lowercased.
	i := strings.Index(u, "://")
	u = lower[:i] + u[i:]
	parsed, err := url.Parse(u)
	if err != nil || parsed.Host == "" {
		return "", false
	}
	return u, true
}

func trimUnbalanced(s string, open, close byte) string {
	for strings.HasSuffix(s, string(close)) && strings.Count(s, string(open)) < strings.Count(s, string(close)) {
		s = s[:len(s)-1]
	}
	return s
}

// knownDomainKind returns the allowlist kind for host, or KindOther.
func knownDomainKind(host string) string {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")
	for _, d := range KnownDomains {
		if host == d.Domain || strings.HasSuffix(host, "."+d.Domain) {
			return d.Kind
		}
	}
	return KindOther
}
