// Package extractor recovers structured complaint fields from the
// prose of a conversation transcript. There is no schema to lean on:
// each field is found independently by a label-anchored pattern, and
// the result is all-or-nothing — a record is produced only when every
// mandatory field is simultaneously recoverable.
package extractor

import (
	"regexp"
	"strings"
)

// Details is a fully recovered complaint, ready to merge with the
// pending classification snapshot. Coach and Seat are optional and may
// be empty.
type Details struct {
	ComplaintID string
	UserName    string
	UserEmail   string
	UserContact string
	UserPNR     string
	TrainNumber string
	TrainName   string
	Coach       string
	Seat        string
}

// Outcome describes what an extraction attempt produced. Incomplete is
// an expected state, not an error: it means registration is deferred
// until the missing fields appear in the transcript.
type Outcome int

const (
	// NoIdentifier means no complaint-identifier token is present yet.
	NoIdentifier Outcome = iota
	// Incomplete means an identifier exists but at least one mandatory
	// field could not be recovered. No partial record is returned.
	Incomplete
	// Complete means every mandatory field was recovered.
	Complete
)

func (o Outcome) String() string {
	switch o {
	case NoIdentifier:
		return "no_identifier"
	case Incomplete:
		return "incomplete"
	case Complete:
		return "complete"
	}
	return "unknown"
}

// Label-anchored field patterns. These mirror the conversational shape
// the augmenter instructs the dialogue model to produce; extraction is
// best-effort by contract, so each pattern tolerates the usual
// separator noise (colon, semicolon, dash, whitespace) after its label.
var (
	idPattern          = regexp.MustCompile(`#(IRC\d+)`)
	namePattern        = regexp.MustCompile(`(?i)name[:;\s-]*([a-z\s]+?)(?:[,\n]|email|contact|pnr|train)`)
	emailPattern       = regexp.MustCompile(`(?i)email[:;\s-]*([\w.\-]+@[\w.\-]+\.\w+)`)
	contactPattern     = regexp.MustCompile(`(?i)(?:contact|phone|mobile)[:;\s-]*(\d{10})`)
	pnrPattern         = regexp.MustCompile(`(?i)pnr[:;\s-]*(\d{10})`)
	trainNumberPattern = regexp.MustCompile(`(?i)train number[:;\s-]*(\d{5})`)
	trainNamePattern   = regexp.MustCompile(`(?i)train name[:;\s-]*([a-z0-9\s]+?)(?:[,\n]|coach|seat|$)`)
	// Coach codes carry a digit (B2, S5, A1); requiring one keeps prose
	// like "Coach Maintenance" from yielding a bogus single-letter code.
	coachPattern = regexp.MustCompile(`(?i:coach)[:;\s-]*([A-Z]*\d[A-Z0-9]*)`)
	seatPattern  = regexp.MustCompile(`(?i:seat)[:;\s-]*(\d+)`)
)

// HasComplaintID reports whether text contains a complaint-identifier
// token. The orchestrator uses this as the extraction trigger.
func HasComplaintID(text string) bool {
	return idPattern.MatchString(text)
}

// Extract scans the full conversation text for the identifier and
// every field. It is a pure function of its input: running it twice on
// the same text yields identical output. The whole transcript must be
// passed, not just the newest turns, because required fields may have
// been provided several turns earlier.
func Extract(conversation string) (Details, Outcome) {
	id := firstGroup(idPattern, conversation)
	if id == "" {
		return Details{}, NoIdentifier
	}

	d := Details{
		ComplaintID: id,
		UserName:    strings.TrimSpace(firstGroup(namePattern, conversation)),
		UserEmail:   firstGroup(emailPattern, conversation),
		UserContact: firstGroup(contactPattern, conversation),
		UserPNR:     firstGroup(pnrPattern, conversation),
		TrainNumber: firstGroup(trainNumberPattern, conversation),
		TrainName:   strings.TrimSpace(firstGroup(trainNamePattern, conversation)),
	}

	if d.UserName == "" || d.UserEmail == "" || d.UserContact == "" ||
		d.UserPNR == "" || d.TrainNumber == "" || d.TrainName == "" {
		return Details{}, Incomplete
	}

	d.Coach = firstGroup(coachPattern, conversation)
	d.Seat = firstGroup(seatPattern, conversation)
	return d, Complete
}

func firstGroup(re *regexp.Regexp, s string) string {
	m := re.FindStringSubmatch(s)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}
