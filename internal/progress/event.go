// Package progress defines the event structures emitted by ingestion
// workers, a non-blocking batching hub, and the sink interfaces that
// consume them.
package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JakeFAU/billtext-ingest/internal/bills"
)

// Stage denotes the milestone an Event represents.
type Stage string

// Supported progress stages.
const (
	StageJobStart  Stage = "JOB_START"
	StageJobHB     Stage = "JOB_HEARTBEAT"
	StageJobDone   Stage = "JOB_DONE"
	StageJobError  Stage = "JOB_ERROR"
	StageBillStart Stage = "BILL_START"
	StageBillDone  Stage = "BILL_DONE"
)

// Result classifies how a bill's ingestion finished.
type Result string

// Bill completion results.
const (
	ResultSuccess Result = "success"
	ResultFailed  Result = "failed"
	ResultNoText  Result = "no_text"
)

// Event captures one component of ingestion progress.
type Event struct {
	// JobID uniquely identifies a job run in 16-byte UUID form.
	JobID [16]byte
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time
	// Stage denotes which lifecycle or bill milestone occurred.
	Stage Stage
	// Worker is the emitting worker's index; -1 for job-level events.
	Worker int
	// Bill scopes bill events to one bill.
	Bill bills.ID
	// Result classifies BILL_DONE events.
	Result Result
	// Source records where text came from when any was acquired.
	Source bills.TextSource
	// Rendition is the winning rendition type, when any.
	Rendition string
	// Bytes carries the raw payload size of the winning fetch.
	Bytes int64
	// Dur captures execution latency for bill completions and job ends.
	Dur time.Duration
	// Note attaches low-volume debug context such as error text.
	Note string
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.JobID == [16]byte{} {
		return errors.New("job id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageJobStart, StageJobHB, StageJobDone, StageJobError:
	case StageBillStart:
		if e.Bill.IsZero() {
			return errors.New("bill start requires a bill")
		}
	case StageBillDone:
		if e.Bill.IsZero() {
			return errors.New("bill done requires a bill")
		}
		if e.Result == "" {
			return errors.New("bill done requires a result")
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}

// JobUUID converts the binary job ID to uuid.UUID.
func (e Event) JobUUID() uuid.UUID {
	return uuid.UUID(e.JobID)
}

// UUIDToBytes encodes a uuid.UUID into the Event form.
func UUIDToBytes(id uuid.UUID) [16]byte {
	var dest [16]byte
	copy(dest[:], id[:])
	return dest
}
