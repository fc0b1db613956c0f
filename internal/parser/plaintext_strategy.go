package parser

import (
	"regexp"
	"strings"
)

var fencedBlockAnywhere = regexp.MustCompile("(?s)```")

// completionPhrases tips taskComplete toward true; continuationPhrases
// tips it toward false. Checked in order, first match wins, default false.
var completionPhrases = []string{
	"here's your", "here is your", "completed successfully", "created successfully",
	"task is complete", "all done", "finished successfully", "successfully generated",
}
var continuationPhrases = []string{
	"need to", "next step", "requires", "i will now", "let me", "i need to",
}

// parsePlainText is the last-resort strategy: it never fails. The entire
// body becomes the response; taskComplete is inferred from keyword
// heuristics, with the presence of a fenced code block tipping the
// balance toward true (a model that hands back a finished snippet is
// usually done, not mid-plan).
func parsePlainText(raw string) *DecisionRecord {
	trimmed := strings.TrimSpace(raw)
	lower := strings.ToLower(trimmed)

	complete := false
	for _, p := range completionPhrases {
		if strings.Contains(lower, p) {
			complete = true
			break
		}
	}
	if !complete {
		continuation := false
		for _, p := range continuationPhrases {
			if strings.Contains(lower, p) {
				continuation = true
				break
			}
		}
		if !continuation && fencedBlockAnywhere.MatchString(trimmed) {
			complete = true
		}
	}

	return &DecisionRecord{
		Strategy:     "plaintext",
		TaskComplete: complete,
		Response:     trimmed,
		Diagnostics:  map[string]string{},
	}
}
