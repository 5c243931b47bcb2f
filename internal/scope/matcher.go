package scope

import (
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cockroachdb/errors"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
)

// Matcher decides whether a path matches a glob pattern. Paths are always
// passed slash-separated and cleaned, without a leading "./". Implementations
// must be pure and safe for concurrent use.
type Matcher interface {
	Match(path, pattern string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(path, pattern string) bool

// Match calls f.
func (f MatcherFunc) Match(path, pattern string) bool { return f(path, pattern) }

// GlobMatcher matches slash-separated paths with doublestar syntax
// (`**`, `{a,b}`, character classes).
type GlobMatcher struct{}

// Match reports whether path matches pattern. Malformed patterns never match;
// ResolveScopes rejects them before any matching happens.
func (GlobMatcher) Match(p, pattern string) bool {
	ok, err := doublestar.Match(pattern, normalizePath(p))
	return err == nil && ok
}

// ValidatePattern fails with ErrInvalidPattern when pattern is not a valid glob.
func ValidatePattern(pattern string) error {
	if pattern == "" {
		return errors.Wrap(errUtils.ErrInvalidPattern, "empty pattern")
	}
	if !doublestar.ValidatePattern(pattern) {
		return errors.WithHint(
			errors.Wrapf(errUtils.ErrInvalidPattern, "%q", pattern),
			"check for unbalanced brackets or braces",
		)
	}
	return nil
}

// normalizePath converts a path to the slash-separated relative form used by
// patterns: "./src\\a.js" becomes "src/a.js".
func normalizePath(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = path.Clean(p)
	return strings.TrimPrefix(p, "./")
}

// ancestors returns the normalized path p followed by each of its parent
// directories, nearest first.
func ancestors(p string) []string {
	out := []string{p}
	for {
		dir := path.Dir(p)
		if dir == "." || dir == "/" || dir == p {
			return out
		}
		out = append(out, dir)
		p = dir
	}
}
