package poker

// ReplaceStories overwrites the room backlog with list.
func (c *Coordinator) ReplaceStories(roomID string, list []string) {
	c.apply(func(o *outbox) {
		stories := make([]string, len(list))
		copy(stories, list)
		c.stories[roomID] = stories
		o.broadcast(roomID, EventStoriesUpdate, c.storyList(roomID))
	})
}

func (c *Coordinator) storyList(roomID string) []string {
	src := c.stories[roomID]
	out := make([]string, len(src))
	copy(out, src)
	return out
}
