package gateway

import "strings"

// priorityRule maps free-text priority keywords (English and French, the
// two languages workspace users type in) to a Jira priority ID. Rules are
// walked in order so "highest"/"lowest" win over their "high"/"low"
// substrings.
type priorityRule struct {
	id       string
	keywords []string
}

var priorityRules = []priorityRule{
	{"1", []string{"highest", "urgent", "critical", "critique", "bloquant"}},
	{"5", []string{"lowest", "minor", "mineure", "tres basse", "très basse"}},
	{"2", []string{"high", "haute", "important", "elevee", "élevée"}},
	{"4", []string{"low", "basse", "faible"}},
	{"3", []string{"medium", "moyenne", "normal"}},
}

// defaultPriorityID is Medium, used when the caller's priority text matches
// nothing or is absent.
const defaultPriorityID = "3"

// MapPriority maps a free-text priority to one of Jira's five priority IDs
// ("1" Highest .. "5" Lowest) by case-insensitive substring matching.
func MapPriority(priority string) string {
	lower := strings.ToLower(strings.TrimSpace(priority))
	if lower == "" {
		return defaultPriorityID
	}
	for _, rule := range priorityRules {
		for _, keyword := range rule.keywords {
			if strings.Contains(lower, keyword) {
				return rule.id
			}
		}
	}
	return defaultPriorityID
}
