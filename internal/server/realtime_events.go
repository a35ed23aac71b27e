package server

import (
	"context"
	"encoding/json"
	"log"
)

// Event type constants prevent typos in event names.
const (
	EventSnippetCreated = "snippet:created"
	EventCommentCreated = "comment:created"
	EventLikeAdded      = "like:added"
	EventLikeRemoved    = "like:removed"
	EventUserOnline     = "user:online"
	EventUserOffline    = "user:offline"
)

// publishUserEvent delivers an event to one user's connections. With Redis
// available it goes through pub/sub so every instance's hub sees it; without
// Redis only the local hub is reached.
func (s *Server) publishUserEvent(userID uint, eventType string, payload map[string]interface{}) {
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}
	if s.redis != nil {
		if err := s.notifier.PublishUser(context.Background(), userID, message); err != nil {
			log.Printf("failed to publish %s event to user %d: %v", eventType, userID, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
}

// publishBroadcastEvent delivers an event to every connected client.
func (s *Server) publishBroadcastEvent(eventType string, payload map[string]interface{}) {
	message, ok := encodeEvent(eventType, payload)
	if !ok {
		return
	}
	if s.redis != nil {
		if err := s.notifier.PublishBroadcast(context.Background(), message); err != nil {
			log.Printf("failed to publish %s broadcast event: %v", eventType, err)
		}
		return
	}
	if s.hub != nil {
		s.hub.BroadcastAll(message)
	}
}

func encodeEvent(eventType string, payload map[string]interface{}) (string, bool) {
	event := map[string]interface{}{
		"type":    eventType,
		"payload": payload,
	}
	eventJSON, err := json.Marshal(event)
	if err != nil {
		log.Printf("failed to marshal %s event: %v", eventType, err)
		return "", false
	}
	return string(eventJSON), true
}
