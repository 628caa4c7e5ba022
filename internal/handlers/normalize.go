package handlers

import (
	"errors"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/purell"
)

var errInvalidURL = errors.New("invalid url")

const urlFlags = purell.FlagsUsuallySafeGreedy | purell.FlagRemoveWWW | purell.FlagSortQuery

// normalizeURL canonicalizes a user-supplied link to https with a lowercase
// host, no www prefix, no trailing slash and sorted query. Empty stays empty.
func normalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + strings.TrimPrefix(raw, "//")
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "", errInvalidURL
	}
	u.Scheme = "https"
	return purell.NormalizeURL(u, urlFlags), nil
}
