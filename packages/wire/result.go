package wire

import (
	"time"

	"github.com/google/uuid"
)

// Result is produced once per request after the dispatch loop terminates
// successfully. It carries the full request/response detail plus the number
// of transport attempts it took to get there.
type Result struct {
	ID        uuid.UUID
	SessionID uuid.UUID
	SpecName  string
	Request   *Request
	Response  *Response
	Attempts  int
	Elapsed   time.Duration
}

func NewResult(sessionID uuid.UUID, specName string, req *Request, resp *Response, attempts int, elapsed time.Duration) *Result {
	return &Result{
		ID:        uuid.New(),
		SessionID: sessionID,
		SpecName:  specName,
		Request:   req,
		Response:  resp,
		Attempts:  attempts,
		Elapsed:   elapsed,
	}
}
