package topic

import (
	"fmt"
)

// Topic segments shared by the host relay and its consumers. Changing them breaks subscribers.
const (
	// SuffixEvent carries controller events (Host -> Broker).
	// Structure: {root}/event/{hostID}
	SuffixEvent = "event"

	// SuffixState carries the retained controller snapshot (Host -> Broker).
	// Structure: {root}/state/{hostID}
	SuffixState = "state"

	// SuffixClassify carries labels from a remote classifier (Broker -> Host).
	// Structure: {root}/classify/{hostID}
	SuffixClassify = "classify"
)

// TopicBuilder constructs topic strings under one root namespace.
type TopicBuilder struct {
	// root is the base namespace for all topics (e.g., "binsort/v1").
	root string
}

// NewTopicBuilder creates a new instance of TopicBuilder with the specified root namespace.
func NewTopicBuilder(root string) *TopicBuilder {
	return &TopicBuilder{root: root}
}

// Event returns the topic a host publishes its controller events on.
func (b *TopicBuilder) Event(hostID string) string {
	return b.build(SuffixEvent, hostID)
}

// EventWildcard matches the events of every host.
func (b *TopicBuilder) EventWildcard() string {
	return b.build(SuffixEvent, Wildcard)
}

// State returns the retained snapshot topic of a host.
func (b *TopicBuilder) State(hostID string) string {
	return b.build(SuffixState, hostID)
}

// Classify returns the topic a host takes classification labels from.
func (b *TopicBuilder) Classify(hostID string) string {
	return b.build(SuffixClassify, hostID)
}

// build joins {root}/{suffix}/{identifier}.
func (b *TopicBuilder) build(suffix, id string) string {
	return fmt.Sprintf("%s/%s/%s", b.root, suffix, id)
}
