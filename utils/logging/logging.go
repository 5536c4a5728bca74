package logging

import (
	"log/slog"
	"os"

	slogmulti "github.com/samber/slog-multi"
)

type LogCode string

const (
	// SYSTEM EVENTS (SYSTEM*)
	SYSTEM LogCode = "SYSTEM"

	// ACCOUNT OPERATIONS (ACCOUNT*)
	ACCOUNT_SIGNUP  LogCode = "ACCOUNT_SIGNUP"
	ACCOUNT_PROFILE LogCode = "ACCOUNT_PROFILE"

	// MARKETPLACE OPERATIONS (MARKET*)
	COMPANY_CREATE    LogCode = "COMPANY_CREATE"
	COMPANY_REVIEW    LogCode = "COMPANY_REVIEW"
	PROJECT_CREATE    LogCode = "PROJECT_CREATE"
	PROJECT_REVIEW    LogCode = "PROJECT_REVIEW"
	SUBMISSION_CREATE LogCode = "SUBMISSION_CREATE"
	SUBMISSION_REVIEW LogCode = "SUBMISSION_REVIEW"
)

// InitLogging fans structured logs out to a JSON log file and a human
// readable stream on stderr.
func InitLogging(logFile *os.File) {
	jsonHandler := slog.NewJSONHandler(logFile, &slog.HandlerOptions{Level: slog.LevelDebug})
	textHandler := slog.NewTextHandler(os.Stderr, nil)

	logger := slog.New(slogmulti.Fanout(jsonHandler, textHandler))
	slog.SetDefault(logger)
}
