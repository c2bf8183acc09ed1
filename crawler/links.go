package crawler

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	// Locate links that point to web pages that don't serve html content.
	exclusionRegex = regexp.MustCompile(`(?i)\.(?:jpg|jpeg|png|gif|ico|css|js)$`)
	// Locate the <base href="xxx"> tag and return the value of the href
	// attribute.
	baseHrefRegex = regexp.MustCompile(`(?i)<base.*?href\s*?=\s*?"(.*?)\s*?"`)
	// Locate the <a href="xxx"> tag and return the value of the href
	// attribute.
	findLinkRegex = regexp.MustCompile(`(?i)<a.*?href\s*?=\s*?"\s*?(.*?)\s*?".*?>`)
	// Locate a rel="nofollow" attribute inside a matched <a> tag.
	noFollowRegex = regexp.MustCompile(`(?i)rel\s*?=\s*?"?nofollow"?`)
)

// linkExtractor scans the body of a retrieved HTML document and extracts
// the crawlable links embedded in it.
type linkExtractor struct {
	netDetector PrivateNetworkDetector
}

func newLinkExtractor(netDetector PrivateNetworkDetector) *linkExtractor {
	return &linkExtractor{netDetector: netDetector}
}

// Extract returns the unique, absolute, followable links found in content.
// Relative links are resolved against pageURL, or against the page's
// <base href> when one is present. Fragments are stripped so that anchors
// within one page collapse into a single link; nofollow links and links to
// non-HTML resources or private networks are dropped.
func (e *linkExtractor) Extract(pageURL string, content []byte) []string {
	relativeTo, err := url.Parse(pageURL)
	if err != nil {
		return nil
	}

	doc := string(content)

	// A <base href="xxx"> tag overrides the page URL as the base for all
	// relative links.
	baseMatches := baseHrefRegex.FindStringSubmatch(doc)
	if len(baseMatches) == 2 {
		if baseURL := resolveToAbsoluteURL(relativeTo, ensureTrailingSlash(baseMatches[1])); baseURL != nil {
			relativeTo = baseURL
		}
	}

	var links []string
	seen := make(map[string]struct{})

	for _, match := range findLinkRegex.FindAllStringSubmatch(doc, -1) {
		parsedURL := resolveToAbsoluteURL(relativeTo, match[1])
		if !e.shouldRetainURL(relativeTo.Hostname(), parsedURL) {
			continue
		}

		// Truncate / remove html anchors. ie, in
		// ["https://example.com/index.html#foo"], the [#foo] is dropped.
		parsedURL.Fragment = ""

		link := parsedURL.String()

		if exclusionRegex.MatchString(link) {
			continue
		}

		if _, exists := seen[link]; exists {
			continue
		}
		seen[link] = struct{}{}

		if noFollowRegex.MatchString(match[0]) {
			continue
		}

		links = append(links, link)
	}

	return links
}

func (e *linkExtractor) shouldRetainURL(srcHost string, url *url.URL) bool {
	// Skip links that could not be resolved.
	if url == nil {
		return false
	}

	// Skip links with non HTTP(S) schemes.
	if url.Scheme != "http" && url.Scheme != "https" {
		return false
	}

	// Keep relative links to the same host. The private network check for
	// the host already happened when the page itself was fetched.
	if srcHost == url.Hostname() {
		return true
	}

	// Skip links that resolve to private networks.
	isPrivate, err := e.netDetector.IsNetworkPrivate(url.Hostname())
	if err != nil || isPrivate {
		return false
	}

	return true
}

func ensureTrailingSlash(s string) string {
	if s == "" || s[len(s)-1] != '/' {
		return s + "/"
	}

	return s
}

// resolveToAbsoluteURL expands target into an absolute URL: targets starting
// with '//' inherit the scheme from relativeTo, all other targets resolve
// relative to it. Unparseable targets yield nil.
func resolveToAbsoluteURL(relativeTo *url.URL, target string) *url.URL {
	if target == "" {
		return nil
	}

	if strings.HasPrefix(target, "//") {
		target = relativeTo.Scheme + ":" + target
	}

	targetURL, err := url.Parse(target)
	if err != nil {
		return nil
	}

	return relativeTo.ResolveReference(targetURL)
}
