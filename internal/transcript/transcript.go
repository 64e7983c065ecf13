package transcript

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/intake-assistant/internal/ai"
	"github.com/spigell/intake-assistant/internal/candidate"
)

const (
	// FileName is the name of both the append-only log and the exported copy.
	FileName  = "candidate_data.txt"
	Separator = "---"

	EmailToken = "[email]"
	PhoneToken = "[phone]"
)

// Anonymize replaces email addresses and phone-like digit runs with fixed tokens.
func Anonymize(text string) string {
	text = candidate.EmailPattern.ReplaceAllLiteralString(text, EmailToken)
	return candidate.PhonePattern.ReplaceAllLiteralString(text, PhoneToken)
}

// Render formats the non-system messages as one "role: content" line each,
// followed by the separator line.
func Render(messages []ai.Message) string {
	var b strings.Builder
	for _, m := range messages {
		if m.Role == ai.RoleSystem {
			continue
		}
		fmt.Fprintf(&b, "%s: %s\n", m.Role, Anonymize(m.Content))
	}
	b.WriteString(Separator)
	b.WriteString("\n")
	return b.String()
}

// Sink appends rendered transcripts to a log file.
type Sink struct {
	dir    string
	logger *zap.Logger
	last   string
}

// NewSink stores the log in dir, or in the OS temp directory when dir is empty.
func NewSink(dir string, logger *zap.Logger) *Sink {
	if strings.TrimSpace(dir) == "" {
		dir = os.TempDir()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sink{dir: dir, logger: logger}
}

// Path is the location of the append-only log.
func (s *Sink) Path() string {
	return filepath.Join(s.dir, FileName)
}

// Last returns the most recently saved block, empty before the first save.
func (s *Sink) Last() string {
	return s.last
}

// Save renders messages and appends them to the log. The file is opened and
// closed on every call.
func (s *Sink) Save(messages []ai.Message) (string, error) {
	content := Render(messages)

	file, err := os.OpenFile(s.Path(), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("open transcript log: %w", err)
	}

	if _, err := file.WriteString(content); err != nil {
		file.Close()
		return "", fmt.Errorf("write transcript log: %w", err)
	}

	if err := file.Close(); err != nil {
		return "", fmt.Errorf("close transcript log: %w", err)
	}

	s.last = content
	s.logger.Info("conversation saved", zap.String("filename", s.Path()), zap.Int("bytes", len(content)))

	return content, nil
}

// Export writes the last saved block to dir as FileName, replacing any
// existing copy, and returns the written path.
func (s *Sink) Export(dir string) (string, error) {
	if s.last == "" {
		return "", fmt.Errorf("nothing saved yet")
	}
	if strings.TrimSpace(dir) == "" {
		dir = "."
	}

	path := filepath.Join(dir, FileName)
	if filepath.Clean(path) == filepath.Clean(s.Path()) {
		return "", fmt.Errorf("export target %q is the transcript log itself", path)
	}

	if err := os.WriteFile(path, []byte(s.last), 0o600); err != nil {
		return "", fmt.Errorf("export transcript: %w", err)
	}

	s.logger.Info("transcript exported", zap.String("filename", path))
	return path, nil
}
