package http

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/batch"
	"github.com/cmlabs-hris/hris-leave-engine/internal/pkg/sse"
)

// getIntQueryParam gets an int query parameter with a default value
func getIntQueryParam(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return intVal
}

// BatchProgressEvent is published after every item of a bulk operation.
type BatchProgressEvent struct {
	Operation string `json:"operation"`
	batch.Progress
}

// progressPublisher forwards batch progress to the SSE topic of one user.
func progressPublisher(hub *sse.Hub, userID, operation string) batch.ProgressFunc {
	if hub == nil {
		return nil
	}
	topic := sse.UserTopic(userID)
	return func(p batch.Progress) {
		hub.Publish(topic, sse.Event{
			Event: sse.EventBatchProgress,
			Data:  BatchProgressEvent{Operation: operation, Progress: p},
		})
	}
}

func batchMessage(operation string, result batch.Result) string {
	msg := fmt.Sprintf("%s finished: %d succeeded, %d failed", operation, result.Succeeded, result.Failed)
	if result.Cancelled {
		msg += fmt.Sprintf(", cancelled with %d skipped", result.Skipped)
	}
	return msg
}
