package core

import (
	"fmt"
	"strings"

	"github.com/akedrou/textdiff"
)

// VerifyInvocations checks that the invocations matching pattern number
// within times. A nil pattern counts every invocation. On success it returns
// the matching invocations.
func VerifyInvocations(
	target string,
	invocations []*MethodInvocation,
	pattern *MockSetup,
	times Times,
) ([]*MethodInvocation, error) {
	var matched []*MethodInvocation

	for _, inv := range invocations {
		if pattern == nil || pattern.AppliesTo(inv) {
			matched = append(matched, inv)
		}
	}

	if times.Validate(len(matched)) {
		return matched, nil
	}

	failure := &VerificationError{
		Target:   target,
		Expected: times,
		Actual:   len(matched),
	}

	if pattern == nil {
		failure.Calls = describe(invocations)

		return nil, failure
	}

	failure.Pattern = pattern.String()

	var related []*MethodInvocation

	for _, inv := range invocations {
		if pattern.Invocation.matchesShape(inv) {
			related = append(related, inv)
		}
	}

	failure.Calls = describe(related)

	if len(matched) == 0 {
		if closest := closestCall(pattern, related); closest != nil {
			failure.Diff = textdiff.Unified("expected", "actual", renderPattern(pattern), renderCall(closest))
		}
	}

	return nil, failure
}

func describe(invocations []*MethodInvocation) []string {
	calls := make([]string, len(invocations))
	for idx, inv := range invocations {
		calls[idx] = inv.String()
	}

	return calls
}

// closestCall picks the related call matching the most argument positions.
// Ties go to the earliest call.
func closestCall(pattern *MockSetup, related []*MethodInvocation) *MethodInvocation {
	var (
		best      *MethodInvocation
		bestScore = -1
	)

	for _, inv := range related {
		score := 0

		for idx, matcher := range pattern.Matchers {
			if idx < len(inv.Arguments) && matcher.Matches(inv.Arguments[idx]) {
				score++
			}
		}

		if score > bestScore {
			best, bestScore = inv, score
		}
	}

	return best
}

func renderPattern(pattern *MockSetup) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%v\n", pattern.Invocation.Member)

	for idx, matcher := range pattern.Matchers {
		fmt.Fprintf(&builder, "  %s: %v\n", paramName(pattern.Invocation.Member, idx), matcher)
	}

	return builder.String()
}

func renderCall(inv *MethodInvocation) string {
	var builder strings.Builder

	fmt.Fprintf(&builder, "%v\n", inv.Member)

	for idx, arg := range inv.Arguments {
		fmt.Fprintf(&builder, "  %s: %#v\n", paramName(inv.Member, idx), arg)
	}

	return builder.String()
}

func paramName(member *Member, idx int) string {
	if member != nil && idx < len(member.Params) && member.Params[idx].Name != "" {
		return member.Params[idx].Name
	}

	return fmt.Sprintf("arg%d", idx)
}
