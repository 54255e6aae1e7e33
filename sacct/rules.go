package sacct

import (
	"regexp"
)

// Snakemake executors stuff the rule identity into the job comment as
// "rule_<name>_wildcards_<args>", or just "rule_<name>" when the rule has no wildcards.  Jobs
// whose comment has neither form belong to no rule.
var (
	ruleWildcardsRe = regexp.MustCompile(`^rule_(.+?)_wildcards_(.+)$`)
	ruleOnlyRe      = regexp.MustCompile(`^rule_(.+)$`)
)

// ParseRuleComment extracts the rule name and its wildcard arguments from a job comment.  Both
// results are "" when the comment is not rule-shaped.
func ParseRuleComment(comment string) (rule, args string) {
	if m := ruleWildcardsRe.FindStringSubmatch(comment); m != nil {
		return m[1], m[2]
	}
	if m := ruleOnlyRe.FindStringSubmatch(comment); m != nil {
		return m[1], ""
	}
	return "", ""
}
