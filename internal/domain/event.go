package domain

type EventAction string

const (
	EventCreated EventAction = "created"
	EventUpdated EventAction = "updated"
	EventDeleted EventAction = "deleted"
)

const (
	ResourceStoryUniverse = "story_universe"
	ResourceStory         = "story"
	ResourceUser          = "user"
)

// Event describes a committed change to a resource owned by a user.
type Event struct {
	Action   EventAction `json:"action"`
	Resource string      `json:"resource"`
	ID       int64       `json:"id"`
	Data     any         `json:"data,omitempty"`
}
