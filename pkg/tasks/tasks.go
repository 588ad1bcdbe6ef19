// Package tasks defines the structure for tasks that are sent to Kafka.
package tasks

// AccountIndexTask represents an account that finished onboarding and is
// waiting to be indexed into Elasticsearch for back-office search.
type AccountIndexTask struct {
	AccountID   string `json:"account_id"`
	UserID      uint   `json:"user_id"`
	SessionID   string `json:"session_id"`
	CompletedAt int64  `json:"completed_at"`
}
