package chatbot

import (
	"regexp"
	"strings"
)

type intentPattern struct {
	intent Intent
	re     *regexp.Regexp
}

// Patterns are tried in order; the first match wins. Each pattern captures the
// argument (customer term, voucher number, cost center) in group 1.
var intentPatterns = []intentPattern{
	{IntentOrderStatus, regexp.MustCompile(`(?i)\border\s+(?:status\s+(?:of\s+|for\s+)?)?([A-Za-z0-9/_-]+)\s*\??$`)},
	{IntentOutstanding, regexp.MustCompile(`(?i)\b(?:outstanding|balance|owes?|receivables?)\b(?:\s+(?:of|for))?\s*(.*?)\s*\??$`)},
	{IntentDelivery, regexp.MustCompile(`(?i)\bdeliver(?:y|ies)?\b(?:\s+(?:schedule|plan|day))?(?:\s+(?:of|for))?\s*(.*?)\s*\??$`)},
	{IntentBudget, regexp.MustCompile(`(?i)\bbudget\b(?:\s+(?:left|remaining))?(?:\s+(?:of|for))?\s*(.*?)\s*\??$`)},
}

// MatchIntent classifies a message and extracts its argument.
func MatchIntent(message string) (Intent, string) {
	trimmed := strings.TrimSpace(message)
	for _, p := range intentPatterns {
		if m := p.re.FindStringSubmatch(trimmed); m != nil {
			return p.intent, strings.TrimSpace(m[1])
		}
	}
	return IntentUnknown, ""
}

// isCancel reports whether the message aborts a pending clarification.
func isCancel(message string) bool {
	switch strings.ToLower(strings.TrimSpace(message)) {
	case "cancel", "stop", "nevermind", "never mind", "no":
		return true
	}
	return false
}
