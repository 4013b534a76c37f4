package domain

// DeliveryOutcome records the result of one send attempt for one recipient.
type DeliveryOutcome struct {
	Email   string `json:"email"`
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// DispatchStatus summarizes a batch more precisely than the Success flag.
type DispatchStatus string

const (
	DispatchComplete DispatchStatus = "complete" // every recipient succeeded
	DispatchPartial  DispatchStatus = "partial"  // some succeeded, some failed
	DispatchFailed   DispatchStatus = "failed"   // no recipient succeeded
)

// DispatchResult is what the dispatcher returns for a campaign.
//
// Success is true when at least one recipient succeeded; a batch where one
// of a thousand sends went out still reports true. Status distinguishes the
// complete and partial cases.
type DispatchResult struct {
	Success      bool              `json:"success"`
	Scheduled    bool              `json:"scheduled,omitempty"`
	ScheduledFor string            `json:"scheduledFor,omitempty"`
	Results      []DeliveryOutcome `json:"results,omitempty"`
	Sent         int               `json:"sent"`
	Failed       int               `json:"failed"`
	Status       DispatchStatus    `json:"status,omitempty"`
}

// Tally fills Sent, Failed, Success and Status from Results.
func (r *DispatchResult) Tally() {
	r.Sent, r.Failed = 0, 0
	for _, o := range r.Results {
		if o.Success {
			r.Sent++
		} else {
			r.Failed++
		}
	}
	r.Success = r.Sent > 0
	switch {
	case r.Failed == 0 && r.Sent > 0:
		r.Status = DispatchComplete
	case r.Sent > 0:
		r.Status = DispatchPartial
	default:
		r.Status = DispatchFailed
	}
}
