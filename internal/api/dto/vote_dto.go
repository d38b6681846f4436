package dto

// CastVoteRequest payload.
type CastVoteRequest struct {
	VoteType string `json:"vote_type"`
}

// VoteResponse reports the committed vote.
type VoteResponse struct {
	VoteID             string `json:"vote_id"`
	VoteType           string `json:"vote_type"`
	Upvotes            int    `json:"upvotes"`
	Downvotes          int    `json:"downvotes"`
	ReporterReputation int    `json:"reporter_reputation"`
}

// VerificationResponse reports the committed verification.
type VerificationResponse struct {
	VerificationID    string `json:"verification_id"`
	VerificationCount int    `json:"verification_count"`
	AutoClosed        bool   `json:"auto_closed"`
}
