package blocklist

import (
	"fmt"
	"strings"
)

const (
	httpsSchemePrefixConstant         = "https://"
	httpSchemePrefixConstant          = "http://"
	gitUserPrefixConstant             = "git@"
	gitSuffixConstant                 = ".git"
	wildcardSuffixConstant            = "/*"
	pathSeparatorConstant             = "/"
	sshPathDelimiterConstant          = ":"
	organizationGuardTemplateConstant = "github.com/%s/*"
)

// Pattern couples the raw pattern text with its normalized matching form.
type Pattern struct {
	Raw        string
	normalized string
	prefix     bool
}

// NewPattern parses raw pattern text into a Pattern.
func NewPattern(raw string) Pattern {
	trimmedRaw := strings.TrimSpace(raw)
	matchText := trimmedRaw
	isPrefix := strings.HasSuffix(matchText, wildcardSuffixConstant)
	if isPrefix {
		matchText = strings.TrimSuffix(matchText, wildcardSuffixConstant)
	}
	return Pattern{
		Raw:        trimmedRaw,
		normalized: NormalizeRepositoryURL(matchText),
		prefix:     isPrefix,
	}
}

// Matches reports whether the normalized candidate URL matches this pattern.
// A wildcard pattern matches any candidate beginning with the pattern text,
// with no path boundary requirement: github.com/acme/* also covers
// github.com/acmeco/widgets.
func (pattern Pattern) Matches(normalizedCandidate string) bool {
	if len(pattern.normalized) == 0 {
		return false
	}
	if pattern.prefix {
		return strings.HasPrefix(normalizedCandidate, pattern.normalized)
	}
	return normalizedCandidate == pattern.normalized
}

// NormalizeRepositoryURL lowers, trims, and strips scheme prefixes and the .git
// suffix so that equivalent repository references compare equal. The ssh
// shorthand path delimiter is folded into a path separator.
func NormalizeRepositoryURL(candidate string) string {
	normalized := strings.ToLower(strings.TrimSpace(candidate))
	switch {
	case strings.HasPrefix(normalized, httpsSchemePrefixConstant):
		normalized = strings.TrimPrefix(normalized, httpsSchemePrefixConstant)
	case strings.HasPrefix(normalized, httpSchemePrefixConstant):
		normalized = strings.TrimPrefix(normalized, httpSchemePrefixConstant)
	case strings.HasPrefix(normalized, gitUserPrefixConstant):
		normalized = strings.TrimPrefix(normalized, gitUserPrefixConstant)
		normalized = strings.Replace(normalized, sshPathDelimiterConstant, pathSeparatorConstant, 1)
	}
	normalized = strings.TrimSuffix(normalized, gitSuffixConstant)
	normalized = strings.TrimSuffix(normalized, pathSeparatorConstant)
	return normalized
}

// Matcher evaluates repository URLs against an ordered pattern list. Implicit
// organization guards come first, then configured defaults, then user patterns;
// the first match wins.
type Matcher struct {
	patterns []Pattern
}

// NewMatcher builds a matcher from the mirror organization and the configured
// and persisted pattern lists. Guards against mirroring the organization's own
// repositories are always present.
func NewMatcher(organization string, configuredPatterns []string, userPatterns []string) *Matcher {
	orderedPatterns := make([]Pattern, 0, 1+len(configuredPatterns)+len(userPatterns))

	trimmedOrganization := strings.TrimSpace(organization)
	if len(trimmedOrganization) > 0 {
		guardPattern := fmt.Sprintf(organizationGuardTemplateConstant, strings.ToLower(trimmedOrganization))
		orderedPatterns = append(orderedPatterns, NewPattern(guardPattern))
	}

	for _, configuredPattern := range configuredPatterns {
		orderedPatterns = append(orderedPatterns, NewPattern(configuredPattern))
	}
	for _, userPattern := range userPatterns {
		orderedPatterns = append(orderedPatterns, NewPattern(userPattern))
	}

	return &Matcher{patterns: orderedPatterns}
}

// IsBlocked reports whether the candidate URL matches any pattern.
func (matcher *Matcher) IsBlocked(candidateURL string) bool {
	_, blocked := matcher.Reason(candidateURL)
	return blocked
}

// Reason returns the raw text of the first matching pattern.
func (matcher *Matcher) Reason(candidateURL string) (string, bool) {
	normalizedCandidate := NormalizeRepositoryURL(candidateURL)
	if len(normalizedCandidate) == 0 {
		return "", false
	}
	for _, pattern := range matcher.patterns {
		if pattern.Matches(normalizedCandidate) {
			return pattern.Raw, true
		}
	}
	return "", false
}

// Patterns returns the raw pattern list in evaluation order.
func (matcher *Matcher) Patterns() []string {
	rawPatterns := make([]string, 0, len(matcher.patterns))
	for _, pattern := range matcher.patterns {
		rawPatterns = append(rawPatterns, pattern.Raw)
	}
	return rawPatterns
}
