// Package augment builds the machine-instruction suffix attached to
// the outgoing copy of a classified user turn. The suffix constrains
// the dialogue model's output shape so that the extractor's anchored
// patterns can later recover every field from the prose transcript.
// It is never persisted into the visible transcript.
package augment

import (
	"fmt"

	"github.com/Jasmine2209/irctc-complaints-chatbot/internal/classifier"
)

const contextTemplate = `

[SYSTEM CONTEXT: The user's complaint has been automatically classified as %q with %.1f%% confidence. This complaint will be routed to the %s department.

IMPORTANT: When the user provides their personal details, you MUST ask for ALL of the following in this order:
1. Name
2. Email
3. Contact Number (10 digits)
4. PNR (10 digits)
5. Train Number (5 digits)
6. Train Name (full name of the train, e.g., "Rajdhani Express", "Shatabdi Express")
7. Coach (optional)
8. Seat (optional)

Once ALL required information (Name, Email, Contact, PNR, Train Number, AND Train Name) is provided, generate a unique complaint ID in this format: IRC[YYYYMMDDHHMMSS][4-random-digits] (example: IRC202501101430521234). Prefix the ID with # when you state it.

Then confirm the complaint registration and include the classification category naturally in your response.]`

// Build renders the instruction suffix for one classification result.
func Build(res *classifier.Result) string {
	return fmt.Sprintf(contextTemplate, res.Category, res.Confidence*100, res.Department)
}
