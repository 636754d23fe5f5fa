package repl

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// DefaultHistorySize caps the number of remembered lines.
const DefaultHistorySize = 1000

// History is the line history of a REPL, optionally backed by a file.
type History struct {
	entries []string
	maxSize int
	file    string
}

// NewHistory creates a history persisted at file; an empty file keeps it
// in memory.
func NewHistory(file string, maxSize int) *History {
	if maxSize <= 0 {
		maxSize = DefaultHistorySize
	}
	return &History{maxSize: maxSize, file: file}
}

// DefaultHistoryFile returns ~/.gridwire/history.
func DefaultHistoryFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".gridwire", "history")
}

// Add records a line. Repeating the previous line is a no-op.
func (h *History) Add(line string) {
	if n := len(h.entries); n > 0 && h.entries[n-1] == line {
		return
	}
	h.entries = append(h.entries, line)
	if len(h.entries) > h.maxSize {
		h.entries = h.entries[len(h.entries)-h.maxSize:]
	}
}

// Get returns the entry index steps back (0 = most recent).
func (h *History) Get(index int) string {
	if index < 0 || index >= len(h.entries) {
		return ""
	}
	return h.entries[len(h.entries)-1-index]
}

// Entries returns the lines oldest first.
func (h *History) Entries() []string {
	return append([]string(nil), h.entries...)
}

// Load appends the persisted lines. A missing file is not an error.
func (h *History) Load() error {
	if h.file == "" {
		return nil
	}
	f, err := os.Open(h.file)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			h.Add(line)
		}
	}
	return scanner.Err()
}

// Save writes the history file.
func (h *History) Save() error {
	if h.file == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(h.file), 0o700); err != nil {
		return err
	}
	data := strings.Join(h.entries, "\n")
	if data != "" {
		data += "\n"
	}
	return os.WriteFile(h.file, []byte(data), 0o600)
}
