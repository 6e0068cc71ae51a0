package classifier

// complaintKeywords is the fixed lexicon used to decide whether a
// message is worth a remote classification call. Terms cover food
// quality, hygiene, delivery, billing, and service problems seen in
// IRCTC eCatering complaints. Matching is lowercase containment.
var complaintKeywords = []string{
	"stale", "hair", "cockroach", "dirty", "rude", "refund", "expired",
	"overcharge", "missing", "delay", "allergy", "cold", "bad", "terrible",
	"wrong", "problem", "issue", "complaint", "dal", "roti", "food", "order",
	"watery", "soggy", "spoiled", "late", "burnt", "raw", "smelly", "disgusting",
	"awful", "horrible", "unhygienic", "not delivered", "didnt receive", "never got",
}
