package blocklist_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/gitmirror/internal/blocklist"
)

const (
	matcherTestOrganizationConstant = "mirror-org"
)

func TestNormalizeRepositoryURL(testInstance *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "https_scheme", input: "https://github.com/Upstream/Project.git", expected: "github.com/upstream/project"},
		{name: "http_scheme", input: "http://github.com/upstream/project", expected: "github.com/upstream/project"},
		{name: "ssh_shorthand", input: "git@github.com:upstream/project.git", expected: "github.com/upstream/project"},
		{name: "bare_path", input: "github.com/upstream/project", expected: "github.com/upstream/project"},
		{name: "trailing_slash", input: "https://github.com/upstream/project/", expected: "github.com/upstream/project"},
		{name: "surrounding_whitespace", input: "  github.com/upstream/project  ", expected: "github.com/upstream/project"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			require.Equal(testInstance, testCase.expected, blocklist.NormalizeRepositoryURL(testCase.input))
		})
	}
}

func TestMatcherEvaluatesPatternsInOrder(testInstance *testing.T) {
	matcher := blocklist.NewMatcher(
		matcherTestOrganizationConstant,
		[]string{"github.com/spammy/*"},
		[]string{"github.com/upstream/banned"},
	)

	testCases := []struct {
		name            string
		candidate       string
		expectedBlocked bool
		expectedPattern string
	}{
		{
			name:            "organization_guard_blocks_self_mirror",
			candidate:       "https://github.com/mirror-org/upstream_project",
			expectedBlocked: true,
			expectedPattern: "github.com/mirror-org/*",
		},
		{
			name:            "wildcard_prefix_blocks_owner",
			candidate:       "git@github.com:spammy/anything.git",
			expectedBlocked: true,
			expectedPattern: "github.com/spammy/*",
		},
		{
			name:            "exact_pattern_blocks_repository",
			candidate:       "https://github.com/upstream/banned.git",
			expectedBlocked: true,
			expectedPattern: "github.com/upstream/banned",
		},
		{
			name:            "sibling_repository_not_blocked",
			candidate:       "https://github.com/upstream/allowed",
			expectedBlocked: false,
		},
		{
			name:            "wildcard_matches_owner_name_prefix",
			candidate:       "https://github.com/spammy-extra/project",
			expectedBlocked: true,
			expectedPattern: "github.com/spammy/*",
		},
		{
			name:            "wildcard_matches_bare_owner",
			candidate:       "https://github.com/spammy",
			expectedBlocked: true,
			expectedPattern: "github.com/spammy/*",
		},
		{
			name:            "unrelated_owner_not_blocked",
			candidate:       "https://github.com/spam/project",
			expectedBlocked: false,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			matchedPattern, blocked := matcher.Reason(testCase.candidate)
			require.Equal(testInstance, testCase.expectedBlocked, blocked)
			require.Equal(testInstance, testCase.expectedBlocked, matcher.IsBlocked(testCase.candidate))
			if testCase.expectedBlocked {
				require.Equal(testInstance, testCase.expectedPattern, matchedPattern)
			}
		})
	}
}

func TestMatcherWithoutOrganizationSkipsGuard(testInstance *testing.T) {
	matcher := blocklist.NewMatcher("", nil, nil)
	require.False(testInstance, matcher.IsBlocked("https://github.com/upstream/project"))
	require.Empty(testInstance, matcher.Patterns())
}

func TestMatcherIgnoresEmptyCandidates(testInstance *testing.T) {
	matcher := blocklist.NewMatcher(matcherTestOrganizationConstant, nil, nil)
	require.False(testInstance, matcher.IsBlocked("   "))
}
