package constants

import "time"

const (
	// ContextKeyUserID is the key under which the authenticated user ID is stored
	// in both the session and the gin context.
	ContextKeyUserID = "user_id"
	// ContextKeyTask holds the task loaded by RequireTaskOwner.
	ContextKeyTask = "task"

	SessionCookieName = "task_session"

	MinPasswordLength = 6

	TitleMinLength       = 2
	TitleMaxLength       = 100
	DescriptionMaxLength = 500

	// DateLayout is the wire format of due dates.
	DateLayout = "2006-01-02"

	MaxAIGeneratedTasks = 20

	DefaultTokenTTL       = 7 * 24 * time.Hour
	DefaultStatsCacheTTL  = 5 * time.Minute
	DefaultRequestTimeout = 10 * time.Second
)
