package logger

import (
	"os"
	"time"

	common "bank_etl/internal/app/common/exception_handler"

	"github.com/sirupsen/logrus"
)

// TimestampLayout renders as YYYY-Mon-DD-HH:MM:SS.
const TimestampLayout = "2006-Jan-02-15:04:05"

// Progress records pipeline milestones. Implementations must report write
// failures instead of dropping them.
type Progress interface {
	Log(message string) error
}

// ProgressFormatter renders entries as "<timestamp>,<message>" lines.
type ProgressFormatter struct{}

func (ProgressFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	line := entry.Time.Format(TimestampLayout) + "," + entry.Message + "\n"
	return []byte(line), nil
}

// ProgressLog is an append-only progress file. Every entry is fsynced before
// Log returns. It is not safe for concurrent writers.
type ProgressLog struct {
	file      *os.File
	formatter logrus.Formatter
	console   *logrus.Logger
	now       func() time.Time
}

// OpenProgressLog opens (or creates) path in append mode.
func OpenProgressLog(path string, console *logrus.Logger) (*ProgressLog, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, common.NewCustomError(common.ErrLogWrite, "Failed to open progress log "+path, err)
	}
	if console == nil {
		console = GetLogger()
	}
	return &ProgressLog{
		file:      f,
		formatter: ProgressFormatter{},
		console:   console,
		now:       time.Now,
	}, nil
}

func (p *ProgressLog) Log(message string) error {
	entry := logrus.NewEntry(p.console)
	entry.Time = p.now()
	entry.Message = message

	line, err := p.formatter.Format(entry)
	if err != nil {
		return common.NewCustomError(common.ErrLogWrite, "Failed to format progress entry", err)
	}
	if _, err := p.file.Write(line); err != nil {
		return common.NewCustomError(common.ErrLogWrite, "Failed to write progress entry", err)
	}
	if err := p.file.Sync(); err != nil {
		return common.NewCustomError(common.ErrLogWrite, "Failed to sync progress log", err)
	}

	p.console.WithField("progress", true).Info(message)
	return nil
}

func (p *ProgressLog) Close() error {
	return p.file.Close()
}
