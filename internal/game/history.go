// internal/game/history.go
package game

import (
	"time"

	"github.com/google/uuid"
)

// ActionRecord captures one room mutation for the historian pipeline.
type ActionRecord struct {
	RoomCode    string                 `json:"room_code"`
	ActionIndex int                    `json:"action_index"`
	ActorID     uuid.UUID              `json:"actor_id"`
	ActionType  string                 `json:"action_type"`
	Payload     map[string]interface{} `json:"payload,omitempty"`
	Timestamp   int64                  `json:"timestamp"`
}

// Recorder receives action records. Implementations must not block game
// logic; the Redis-backed recorder publishes asynchronously.
type Recorder interface {
	Record(rec ActionRecord)
}

// logAction hands an action record to the recorder, if one is attached.
// Assumes the room lock is held.
func (r *Room) logAction(actor uuid.UUID, actionType string, payload map[string]interface{}) {
	if r.recorder == nil {
		return
	}
	r.actionIndex++
	r.recorder.Record(ActionRecord{
		RoomCode:    r.Code,
		ActionIndex: r.actionIndex,
		ActorID:     actor,
		ActionType:  actionType,
		Payload:     payload,
		Timestamp:   time.Now().UnixMilli(),
	})
}
