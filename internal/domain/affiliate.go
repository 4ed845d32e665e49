package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// BuildAffiliateLink returns "<marketplace>/dp/<asin>?tag=<tag>".
func BuildAffiliateLink(marketplace, asin, tag string) string {
	base := strings.TrimRight(marketplace, "/")
	return fmt.Sprintf("%s/dp/%s?tag=%s", base, url.PathEscape(asin), url.QueryEscape(tag))
}

// ValidateAffiliateLink checks that link is an absolute http(s) URL carrying
// the affiliate tag.
func ValidateAffiliateLink(link, tag string) error {
	u, err := url.Parse(link)
	if err != nil {
		return fmt.Errorf("invalid affiliate link %q: %w", link, err)
	}
	if !u.IsAbs() || u.Host == "" {
		return fmt.Errorf("affiliate link %q is not absolute", link)
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("affiliate link %q has unsupported scheme %q", link, u.Scheme)
	}
	if got := u.Query().Get("tag"); got != tag {
		return fmt.Errorf("affiliate link %q has tag %q, want %q", link, got, tag)
	}
	return nil
}

// EnsureAffiliateTag rewrites link so that its tag query parameter is tag.
func EnsureAffiliateTag(link, tag string) (string, error) {
	u, err := url.Parse(link)
	if err != nil {
		return "", fmt.Errorf("invalid affiliate link %q: %w", link, err)
	}
	q := u.Query()
	q.Set("tag", tag)
	u.RawQuery = q.Encode()
	out := u.String()
	if err := ValidateAffiliateLink(out, tag); err != nil {
		return "", err
	}
	return out, nil
}
