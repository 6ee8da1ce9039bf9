// Package classifier performs the local, pre-planner triage of a question:
// small-talk gets a canned reply and destructive intent gets refused, in both
// cases without ever reaching the language model or the store.
package classifier

import (
	"regexp"
	"strings"
)

// Result is the outcome of the local triage.
type Result struct {
	IsSmalltalk   bool   `json:"is_smalltalk"`
	IsDestructive bool   `json:"is_destructive"`
	MatchedRule   string `json:"matched_rule,omitempty"`
}

// rule pairs a name with either a regexp or plain substrings. All patterns are
// matched against the lowercased, trimmed input.
type rule struct {
	name     string
	regex    *regexp.Regexp
	keywords []string
}

// Classifier is stateless and safe for concurrent use.
type Classifier struct {
	smalltalkRules   []rule
	destructiveRules []rule
}

// New builds the classifier with its fixed rule sets.
func New() *Classifier {
	return &Classifier{
		smalltalkRules: []rule{
			{
				name:     "greeting",
				regex:    regexp.MustCompile(`^(hi|hello|hey|yo|good (morning|afternoon|evening))\b`),
				keywords: []string{"how are you", "what's up", "whats up"},
			},
			{
				name:     "gratitude",
				regex:    regexp.MustCompile(`^(thanks|thank you|thx|ty)\b`),
				keywords: []string{"appreciate it"},
			},
			{
				name:     "self_description",
				keywords: []string{"who are you", "what can you do", "what are you", "help me understand what you do"},
			},
			{
				name:     "farewell",
				regex:    regexp.MustCompile(`^(bye|goodbye|see you|good night)\b`),
				keywords: []string{},
			},
		},
		destructiveRules: []rule{
			{
				name:     "database_wipe",
				keywords: []string{"drop database", "drop the database", "drop collection", "truncate", "reset database", "reset the database", "wipe"},
			},
			{
				name:     "bulk_delete",
				regex:    regexp.MustCompile(`delete\s+(all|every|the)\b`),
				keywords: []string{"remove all", "remove every", "delete everything"},
			},
			{
				// Bare write verbs outside clearly scoped phrases such as
				// "delete my ..." which the CRUD layer owns anyway.
				name:  "write_verb",
				regex: regexp.MustCompile(`\b(delete|insert|update|create|drop|remove)\b`),
			},
		},
	}
}

// Classify runs both checks. Smalltalk is checked first so that greetings
// containing an incidental verb never trip the destructive rules; an explicit
// destructive phrase still wins because a question that matches a smalltalk
// rule never reaches the write-verb rules in practice (rules anchor on
// greeting openers).
func (c *Classifier) Classify(text string) Result {
	input := strings.ToLower(strings.TrimSpace(text))
	if input == "" {
		return Result{}
	}

	for _, r := range c.smalltalkRules {
		if matches(input, r) {
			// Scoped write phrases like "delete my account, thanks" are not
			// smalltalk even when they end politely.
			if !containsDestructivePhrase(input) {
				return Result{IsSmalltalk: true, MatchedRule: r.name}
			}
		}
	}

	for _, r := range c.destructiveRules {
		if matches(input, r) {
			if r.name == "write_verb" && isScopedPersonalPhrase(input) {
				continue
			}
			return Result{IsDestructive: true, MatchedRule: r.name}
		}
	}

	return Result{}
}

func matches(input string, r rule) bool {
	if r.regex != nil && r.regex.MatchString(input) {
		return true
	}
	for _, kw := range r.keywords {
		if strings.Contains(input, kw) {
			return true
		}
	}
	return false
}

var scopedPersonal = regexp.MustCompile(`\b(delete|remove|update|create)\s+my\b`)

// isScopedPersonalPhrase recognizes "delete my cart" style requests. Those
// belong to the CRUD layer and fall through to the planner, whose FORBIDDEN
// sentinel refuses them with a clearer message than the attack path.
func isScopedPersonalPhrase(input string) bool {
	return scopedPersonal.MatchString(input)
}

var destructivePhrase = regexp.MustCompile(`\b(drop|truncate|wipe)\b|delete\s+(all|every|everything)`)

func containsDestructivePhrase(input string) bool {
	return destructivePhrase.MatchString(input)
}
