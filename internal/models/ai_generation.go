package models

import (
	"time"

	"github.com/google/uuid"
)

// AIGeneration is a showcase entry documenting a prompt given to an AI
// tool and what came back. Tags are a plain ordered list, not relational.
type AIGeneration struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	AITool      string     `json:"aiTool"`
	Prompt      string     `json:"prompt"`
	InputParams *string    `json:"inputParams"`
	Output      string     `json:"output"`
	Tags        []string   `json:"tags"`
	DeletedAt   *time.Time `json:"-"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}
