package processor

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
)

type rewritePattern struct {
	re       *regexp.Regexp
	template string
}

// Each pattern captures the full match and the URL inside it.
var rewritePatterns = []rewritePattern{
	{regexp.MustCompile(`(?i)(url\(['"]?\s*(.*?)["']?\))`), `url("%s")`},
	{regexp.MustCompile(`(?i)(@import\s*["']\s*(.*?)["'])`), `@import url("%s")`},
	{regexp.MustCompile(`(?i)(sourceMappingURL=([^\s]+))`), `sourceMappingURL=%s`},
}

var schemePattern = regexp.MustCompile(`^[a-z]+:`)

// Rewrite roots relative URLs in CSS (url(), @import and sourceMappingURL) at
// env.Prefix, resolving them against the input name's directory. Absolute and
// scheme URLs are kept as written.
func Rewrite(_ context.Context, text string, in Input, env Env) (string, error) {
	for _, p := range rewritePatterns {
		text = replaceSubmatches(p.re, text, func(matched, ref string) string {
			rewritten, ok := rewriteURL(ref, in.Name, env.Prefix)
			if !ok {
				return matched
			}
			return fmt.Sprintf(p.template, rewritten)
		})
	}
	return text, nil
}

// rewriteURL returns the prefixed URL for ref, or false when ref must be left alone.
func rewriteURL(ref, inputName, prefix string) (string, bool) {
	if ref == "" || schemePattern.MatchString(ref) || strings.HasPrefix(ref, "/") {
		return "", false
	}

	// Split the fragment off so a path-like fragment does not interfere.
	urlPath, fragment, hasFragment := strings.Cut(ref, "#")
	iefix := hasFragment && strings.Contains(ref, "?#")
	if iefix {
		urlPath = strings.TrimSuffix(urlPath, "?")
	}

	resolved := path.Clean(path.Join(path.Dir(inputName), urlPath))
	transformed := joinPrefix(prefix, resolved)

	if hasFragment && fragment != "" {
		if iefix {
			transformed += "?#" + fragment
		} else {
			transformed += "#" + fragment
		}
	}

	if unescaped, err := url.PathUnescape(transformed); err == nil {
		transformed = unescaped
	}
	return transformed, true
}

func joinPrefix(prefix, resolved string) string {
	if prefix == "" {
		return resolved
	}
	base, err := url.Parse(prefix)
	if err != nil {
		return strings.TrimSuffix(prefix, "/") + "/" + resolved
	}
	ref, err := url.Parse(resolved)
	if err != nil {
		return strings.TrimSuffix(prefix, "/") + "/" + resolved
	}
	ref.ForceQuery = false
	return base.ResolveReference(ref).String()
}

// replaceSubmatches replaces every match of re, handing fn the full match and
// the second capture group.
func replaceSubmatches(re *regexp.Regexp, text string, fn func(matched, ref string) string) string {
	indexes := re.FindAllStringSubmatchIndex(text, -1)
	if len(indexes) == 0 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, idx := range indexes {
		b.WriteString(text[last:idx[0]])
		matched := text[idx[2]:idx[3]]
		ref := ""
		if idx[4] >= 0 {
			ref = text[idx[4]:idx[5]]
		}
		b.WriteString(fn(matched, ref))
		last = idx[1]
	}
	b.WriteString(text[last:])
	return b.String()
}
