package catalog

import (
	"net/url"
	"regexp"
	"strings"
)

// Category values recognized by the shop. Products with anything else are
// collapsed into CategoryOther so they stay reachable through a catch-all
// filter instead of disappearing.
const (
	CategoryAll   = "全部"
	CategoryOther = "其他"
)

// PresetCategories is the fixed pill order, the "all" sentinel first.
var PresetCategories = []string{CategoryAll, "項鍊", "手鏈", "耳環", "戒指"}

var (
	imageSeparators = regexp.MustCompile(`[,|\n]`)
	styleSeparators = regexp.MustCompile(`[,|\n、]`)

	driveFileRe = regexp.MustCompile(`^https://drive\.google\.com/file/d/([^/?#]+)`)
)

// NormalizeImages turns the raw images field into an ordered list of direct
// image URLs. String input is split on comma, pipe and newline; if splitting
// produces nothing but the trimmed input is non-empty, the input itself is
// the single entry. Every URL gets the scheme upgrade and share-link rewrite.
func NormalizeImages(raw StringOrList) []string {
	var parts []string
	if raw.isList {
		parts = raw.list
	} else {
		parts = splitAndTrim(raw.text, imageSeparators)
		if len(parts) == 0 {
			if trimmed := strings.TrimSpace(raw.text); trimmed != "" {
				parts = []string{trimmed}
			}
		}
	}

	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, RewriteImageURL(p))
	}
	return out
}

// NormalizeStyles turns the raw styles field into an ordered list of distinct
// style labels. String input additionally splits on the full-width
// enumeration comma used in the sheet.
func NormalizeStyles(raw StringOrList) []string {
	var parts []string
	if raw.isList {
		parts = raw.list
	} else {
		parts = splitAndTrim(raw.text, styleSeparators)
	}

	seen := make(map[string]struct{}, len(parts))
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// NormalizeCategory trims the raw category and collapses anything outside the
// preset set into the "other" bucket.
func NormalizeCategory(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return CategoryOther
	}
	for _, c := range PresetCategories {
		if trimmed == c {
			return trimmed
		}
	}
	return CategoryOther
}

// RewriteImageURL upgrades plain http URLs to https and rewrites Google Drive
// share links to their direct-access form, which is what an <img>-style
// consumer actually needs. Unrecognized URLs pass through untouched.
func RewriteImageURL(u string) string {
	u = strings.TrimSpace(u)
	if rest, ok := strings.CutPrefix(u, "http://"); ok {
		u = "https://" + rest
	}

	if m := driveFileRe.FindStringSubmatch(u); m != nil {
		return driveDirectURL(m[1])
	}
	if strings.HasPrefix(u, "https://drive.google.com/open") {
		if parsed, err := url.Parse(u); err == nil {
			if id := parsed.Query().Get("id"); id != "" {
				return driveDirectURL(id)
			}
		}
	}
	return u
}

func driveDirectURL(id string) string {
	return "https://drive.google.com/uc?export=view&id=" + url.QueryEscape(id)
}

func splitAndTrim(s string, separators *regexp.Regexp) []string {
	parts := separators.Split(s, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
