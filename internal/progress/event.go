package progress

import (
	"errors"
	"fmt"
	"time"

	"github.com/JakeFAU/citesync/internal/citation"
)

// Stage denotes the milestone represented by an Event.
type Stage string

// Supported progress stages.
const (
	StageRunStart    Stage = "RUN_START"
	StagePageStart   Stage = "PAGE_START"
	StageRowWritten  Stage = "ROW_WRITTEN"
	StageRowSkipped  Stage = "ROW_SKIPPED"
	StageWriteFailed Stage = "WRITE_FAILED"
	StagePageDone    Stage = "PAGE_DONE"
	StagePageError   Stage = "PAGE_ERROR"
	StageRunDone     Stage = "RUN_DONE"
)

// Event captures one step of a sync run.
type Event struct {
	// RunID identifies the process invocation.
	RunID string `json:"run_id"`
	// TS is the UTC timestamp recorded by the emitter.
	TS time.Time `json:"ts"`
	Stage Stage  `json:"stage"`
	// Page is the sheet page name; empty for run-level events.
	Page string `json:"page,omitempty"`
	// Row is the 1-based sheet row for row-level events.
	Row int    `json:"row,omitempty"`
	URL string `json:"url,omitempty"`
	// Record is the written (or attempted) record for row-level events.
	Record *citation.Record `json:"record,omitempty"`
	// DocumentHash is the digest of the downloaded PDF, when one was downloaded.
	DocumentHash string        `json:"document_hash,omitempty"`
	Dur          time.Duration `json:"dur,omitempty"`
	// Note carries low-volume context such as error text.
	Note string `json:"note,omitempty"`
}

// Validate performs coarse validation on Event payloads.
func (e Event) Validate() error {
	if e.RunID == "" {
		return errors.New("run id is required")
	}
	if e.TS.IsZero() {
		return errors.New("timestamp is required")
	}
	switch e.Stage {
	case StageRunStart, StageRunDone:
	case StagePageStart, StagePageDone, StagePageError:
		if e.Page == "" {
			return fmt.Errorf("%s requires page", e.Stage)
		}
	case StageRowWritten, StageRowSkipped, StageWriteFailed:
		if e.Page == "" || e.Row < citation.FirstDataRow {
			return fmt.Errorf("%s requires page and row", e.Stage)
		}
	default:
		return fmt.Errorf("unknown stage %q", e.Stage)
	}
	if e.Dur < 0 {
		return errors.New("duration must be >= 0")
	}
	return nil
}
