package models

// Task belongs to exactly one user; UserID is immutable after creation.
type Task struct {
	UserID    string `json:"userId" dynamodbav:"userId"`
	TaskID    string `json:"taskId" dynamodbav:"taskId"`
	Note      string `json:"note" dynamodbav:"note"`
	IsChecked bool   `json:"isChecked" dynamodbav:"isChecked"`
}

// TaskUpdate carries the only fields a task patch may change. Nil means
// leave the field untouched.
type TaskUpdate struct {
	Note      *string `json:"note"`
	IsChecked *bool   `json:"isChecked"`
}

// TaskReport is the aggregate produced by the report endpoint.
type TaskReport struct {
	TotalCheckedTasks   int `json:"totalCheckedTasks"`
	TotalUncheckedTasks int `json:"totalUncheckedTasks"`
}
