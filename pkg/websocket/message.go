package websocket

import "time"

// Типы сообщений жизненного цикла осмотра.
const (
	TypeInspectionCreated   = "inspection.created"
	TypeCheckpointUpdated   = "checkpoint.updated"
	TypeInspectionCompleted = "inspection.completed"
	TypeInspectionStopped   = "inspection.stopped"
)

// Envelope - это "конверт", в котором отправляются сообщения.
// Тип сообщения позволяет фронтенду понять, что делать.
type Envelope struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}
