package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const TaskFollowUpSend = "followup:send"

// FollowUpPayload identifies one follow-up row and the booking it belongs to.
type FollowUpPayload struct {
	FollowUpID string `json:"followUpId"`
	BookingID  string `json:"bookingId"`
	Channel    string `json:"channel"`
}

func NewFollowUpTask(payload FollowUpPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskFollowUpSend, data), nil
}

func ParseFollowUpPayload(task *asynq.Task) (FollowUpPayload, error) {
	var payload FollowUpPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return FollowUpPayload{}, err
	}
	if payload.FollowUpID == "" || payload.BookingID == "" {
		return FollowUpPayload{}, fmt.Errorf("%s: payload missing ids", TaskFollowUpSend)
	}
	return payload, nil
}
