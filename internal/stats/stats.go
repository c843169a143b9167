// Package stats defines the point-in-time record a Session publishes to
// the Session Manager on start and on each collect-info tick.
//
// Grounded on novatif-surgemq's systree.SessionStat collaborator, tagged
// with a generated id the way other broker services stamp outbound
// records (google/uuid, used by hlindberg-mezquit and Pyr33x-goqtt).
package stats

import (
	"time"

	"github.com/google/uuid"
)

// Snapshot is a single point-in-time session stats record.
type Snapshot struct {
	ID               string // uuid, distinguishes repeated snapshots
	ClientID         string
	CleanSess        bool
	Subscriptions    int
	MaxInflight      int
	InflightQueueLen int
	MessageQueueLen  int
	MessageDropped   uint64
	AwaitingRel      int
	AwaitingAck      int
	AwaitingComp     int
	CreatedAt        time.Time
	TakenAt          time.Time
}

// New stamps a fresh Snapshot with a new UUID and the current time.
func New(clientID string) Snapshot {
	return Snapshot{
		ID:       uuid.New().String(),
		ClientID: clientID,
		TakenAt:  time.Now(),
	}
}
