package scheduler

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const TaskSyncExecute = "synctasks.execute"

type SyncExecutePayload struct {
	TaskID string `json:"taskId"`
}

func NewSyncExecuteTask(payload SyncExecutePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSyncExecute, data), nil
}

func ParseSyncExecutePayload(task *asynq.Task) (SyncExecutePayload, error) {
	var payload SyncExecutePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return SyncExecutePayload{}, err
	}
	return payload, nil
}
