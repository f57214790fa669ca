package database

import (
	"fmt"
	"strconv"
)

// Both entity kinds share one physical table. The partition value
// discriminates the kind; the sort key embeds the owning user's email.
const (
	TaskPartition = "tasks"
	UserPartition = "users"
)

// TaskKey builds the sort key for a single task. The "::" delimiter
// directly after the email segment guarantees one owner's keys are
// never a prefix of another owner's.
func TaskKey(email, taskID string) string {
	return fmt.Sprintf("task_info::%s::%s", email, taskID)
}

// TaskKeyPrefix builds the sort-key prefix matching every task owned by
// the given user.
func TaskKeyPrefix(email string) string {
	return fmt.Sprintf("task_info::%s::", email)
}

// UserKey builds the sort key for a user record. One record per owner.
func UserKey(email string) string {
	return fmt.Sprintf("user_info::%s", email)
}

// QueryableIndex builds the synthetic secondary-index value combining
// owner and checked state, e.g. "a@x.com::true". Any write that changes
// isChecked must recompute this value in the same write.
func QueryableIndex(email string, checked bool) string {
	return email + "::" + strconv.FormatBool(checked)
}
