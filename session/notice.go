package session

import (
	"time"

	"github.com/tradecore/client/internal/id"
)

// NoticeLevel classifies a notice for collaborators rendering it.
type NoticeLevel string

const (
	NoticeInfo    NoticeLevel = "info"
	NoticeWarning NoticeLevel = "warning"
)

// Notice is an informational message the core surfaces to collaborators,
// e.g. "switching to default account" when a switch target had no
// credential.
type Notice struct {
	ID      string
	Level   NoticeLevel
	Message string
	Time    time.Time
}

func newNotice(level NoticeLevel, message string) Notice {
	return Notice{
		ID:      id.New(),
		Level:   level,
		Message: message,
		Time:    time.Now().UTC(),
	}
}
