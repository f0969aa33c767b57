package identity

import (
	"math/rand/v2"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Identity is the outbound browser persona applied to one request attempt.
type Identity struct {
	UserAgent      string
	AcceptLanguage string
	Referer        string
}

var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_5) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.5 Safari/605.1.15",
	"Mozilla/5.0 (X11; Linux x86_64; rv:128.0) Gecko/20100101 Firefox/128.0",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:127.0) Gecko/20100101 Firefox/127.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/125.0 Safari/537.36",
}

// DefaultUserAgents returns a copy of the built-in pool.
func DefaultUserAgents() []string {
	return append([]string(nil), defaultUserAgents...)
}

// Rotator draws a random identity per attempt from a fixed user-agent pool.
type Rotator struct {
	mu         sync.Mutex
	userAgents []string
	intn       func(n int) int
}

func NewRotator(userAgents []string) *Rotator {
	pool := make([]string, 0, len(userAgents))
	for _, ua := range userAgents {
		if ua = strings.TrimSpace(ua); ua != "" {
			pool = append(pool, ua)
		}
	}
	if len(pool) == 0 {
		pool = DefaultUserAgents()
	}

	return &Rotator{
		userAgents: pool,
		intn:       rand.IntN,
	}
}

func (r *Rotator) Size() int {
	return len(r.userAgents)
}

// Next picks an identity for a request to target in the given locale. The
// referer is the target's site root, as if the visitor navigated from it.
func (r *Rotator) Next(target, locale string) Identity {
	r.mu.Lock()
	ua := r.userAgents[r.intn(len(r.userAgents))]
	r.mu.Unlock()

	return Identity{
		UserAgent:      ua,
		AcceptLanguage: AcceptLanguage(locale),
		Referer:        siteRoot(target),
	}
}

// Apply writes the identity and the accompanying browser headers onto req.
func (id Identity) Apply(req *http.Request) {
	req.Header.Set("User-Agent", id.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", id.AcceptLanguage)
	req.Header.Set("Cache-Control", "no-cache")
	req.Header.Set("Pragma", "no-cache")
	req.Header.Set("Upgrade-Insecure-Requests", "1")
	req.Header.Set("Sec-Fetch-Dest", "document")
	req.Header.Set("Sec-Fetch-Mode", "navigate")
	if id.Referer != "" {
		req.Header.Set("Referer", id.Referer)
		req.Header.Set("Sec-Fetch-Site", "same-origin")
	} else {
		req.Header.Set("Sec-Fetch-Site", "none")
	}
}

// AcceptLanguage builds a q-weighted header for a locale such as "cs-CZ" or
// "es", always falling back to English.
func AcceptLanguage(locale string) string {
	locale = strings.ReplaceAll(strings.TrimSpace(locale), "_", "-")
	primary, region, _ := strings.Cut(locale, "-")
	primary = strings.ToLower(primary)
	if primary == "" || (primary == "en" && region == "") {
		return "en-US,en;q=0.9"
	}
	if primary == "en" {
		return "en-" + strings.ToUpper(region) + ",en;q=0.9"
	}
	if region == "" {
		return primary + ",en;q=0.8"
	}
	return primary + "-" + strings.ToUpper(region) + "," + primary + ";q=0.9,en;q=0.8"
}

func siteRoot(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}
	return u.Scheme + "://" + u.Host + "/"
}
