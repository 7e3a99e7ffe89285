package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/fsnotify/fsnotify"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"

	"github.com/Iron-Ham/monologue/internal/logging"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View debug logs",
	Long: `View and filter the debug log written by debates and one-shot commands.

Examples:
  # Show the last 50 entries
  monologue logs

  # Show every entry of the most recent debate
  monologue logs --debate last -n 0

  # Follow the log while a debate runs in another terminal
  monologue logs -f

  # Only warnings and errors from one debater in the last hour
  monologue logs --level warn --participant debater-b --since 1h

  # Search for specific patterns
  monologue logs --grep "choice|extraction"`,
	RunE: runLogs,
}

var (
	logsTail        int
	logsFollow      bool
	logsLevel       string
	logsSince       string
	logsGrep        string
	logsDebate      string
	logsParticipant string
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().BoolVarP(&logsFollow, "follow", "f", false, "Follow log output (like tail -f)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsSince, "since", "", "Show entries since duration ago (e.g., 1h, 30m)")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter entries matching pattern (regex)")
	logsCmd.Flags().StringVar(&logsDebate, "debate", "", "Only entries of this debate ID (\"last\" for the most recent)")
	logsCmd.Flags().StringVar(&logsParticipant, "participant", "", "Only entries of this participant (e.g. debater-a)")
}

// logEntry represents a parsed JSON log line
type logEntry struct {
	Time        time.Time      `json:"time"`
	Level       string         `json:"level"`
	Msg         string         `json:"msg"`
	DebateID    string         `json:"debate_id,omitempty"`
	Participant string         `json:"participant,omitempty"`
	Round       int            `json:"round,omitempty"`
	Extra       map[string]any `json:"-"`
}

// UnmarshalJSON keeps unknown fields in Extra.
func (e *logEntry) UnmarshalJSON(data []byte) error {
	type alias logEntry
	if err := json.Unmarshal(data, (*alias)(e)); err != nil {
		return err
	}

	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for _, known := range []string{"time", "level", "msg", "debate_id", "participant", "round"} {
		delete(all, known)
	}
	if len(all) > 0 {
		e.Extra = all
	}
	return nil
}

// logFilter holds the parsed filter flags.
type logFilter struct {
	minLevel    int
	since       time.Time
	grep        *regexp.Regexp
	debateID    string
	participant string
}

// levelPriority returns the priority of a log level for filtering
func levelPriority(level string) int {
	switch strings.ToUpper(level) {
	case logging.LevelDebug:
		return 0
	case logging.LevelInfo:
		return 1
	case logging.LevelWarn:
		return 2
	case logging.LevelError:
		return 3
	default:
		return -1
	}
}

func (f *logFilter) passes(entry *logEntry) bool {
	if f.minLevel >= 0 && levelPriority(entry.Level) < f.minLevel {
		return false
	}
	if !f.since.IsZero() && entry.Time.Before(f.since) {
		return false
	}
	if f.debateID != "" && entry.DebateID != f.debateID {
		return false
	}
	if f.participant != "" && entry.Participant != f.participant {
		return false
	}
	if f.grep != nil {
		searchText := entry.Msg
		for _, v := range entry.Extra {
			searchText += " " + fmt.Sprintf("%v", v)
		}
		if !f.grep.MatchString(searchText) {
			return false
		}
	}
	return true
}

// logFormatter renders entries with level colors.
type logFormatter struct {
	time   lipgloss.Style
	field  lipgloss.Style
	levels map[string]lipgloss.Style
}

func newLogFormatter(w io.Writer, color bool) *logFormatter {
	r := lipgloss.NewRenderer(w)
	if !color {
		r.SetColorProfile(termenv.Ascii)
	}
	return &logFormatter{
		time:  r.NewStyle().Foreground(lipgloss.Color("8")),
		field: r.NewStyle().Foreground(lipgloss.Color("6")),
		levels: map[string]lipgloss.Style{
			logging.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("8")),
			logging.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("4")),
			logging.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("3")),
			logging.LevelError: r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
		},
	}
}

func (f *logFormatter) format(entry *logEntry) string {
	var sb strings.Builder

	sb.WriteString(f.time.Render("[" + entry.Time.Format("15:04:05.000") + "]"))
	sb.WriteString(" ")
	level := strings.ToUpper(entry.Level)
	sb.WriteString(f.levels[level].Render("[" + level + "]"))
	sb.WriteString(" ")
	sb.WriteString(entry.Msg)

	if entry.DebateID != "" {
		sb.WriteString(" " + f.field.Render("debate_id=") + entry.DebateID)
	}
	if entry.Participant != "" {
		sb.WriteString(" " + f.field.Render("participant=") + entry.Participant)
	}
	if entry.Round > 0 {
		sb.WriteString(" " + f.field.Render("round=") + fmt.Sprint(entry.Round))
	}

	keys := make([]string, 0, len(entry.Extra))
	for k := range entry.Extra {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		sb.WriteString(" " + f.field.Render(k+"=") + fmt.Sprintf("%v", entry.Extra[k]))
	}
	return sb.String()
}

func runLogs(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	logPath := filepath.Join(cfg.Logging.ResolveDir(), logging.LogFileName)
	if _, err := os.Stat(logPath); os.IsNotExist(err) {
		fmt.Fprintln(out, "No logs found.")
		fmt.Fprintln(out, "Logs are stored at:", logPath)
		return nil
	}

	filter := &logFilter{minLevel: -1, participant: logsParticipant, debateID: logsDebate}
	if logsLevel != "" {
		filter.minLevel = levelPriority(logging.ParseLevel(logsLevel))
	}
	if logsSince != "" {
		duration, err := time.ParseDuration(logsSince)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.since = time.Now().Add(-duration)
	}
	if logsGrep != "" {
		filter.grep, err = regexp.Compile(logsGrep)
		if err != nil {
			return fmt.Errorf("invalid grep pattern: %w", err)
		}
	}
	if filter.debateID == "last" {
		filter.debateID, err = lastDebateID(logPath)
		if err != nil {
			return err
		}
		if filter.debateID == "" {
			fmt.Fprintln(out, "No debates found in the log.")
			return nil
		}
	}

	formatter := newLogFormatter(out, cfg.Output.Color)

	if logsFollow {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return followLogs(ctx, out, logPath, filter, formatter)
	}
	return displayLogs(out, logPath, logsTail, filter, formatter)
}

// scanEntries calls fn for every line of the log file. Lines that are not
// JSON are passed with a nil entry.
func scanEntries(logPath string, fn func(line string, entry *logEntry)) error {
	file, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	// Increase buffer size for potentially long log lines
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		var entry logEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			fn(line, nil)
			continue
		}
		fn(line, &entry)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("error reading log file: %w", err)
	}
	return nil
}

// lastDebateID returns the debate ID of the newest entry that has one.
func lastDebateID(logPath string) (string, error) {
	var id string
	err := scanEntries(logPath, func(_ string, entry *logEntry) {
		if entry != nil && entry.DebateID != "" {
			id = entry.DebateID
		}
	})
	return id, err
}

// displayLogs prints the filtered entries, keeping only the last tail.
func displayLogs(out io.Writer, logPath string, tail int, filter *logFilter, formatter *logFormatter) error {
	var entries []string
	err := scanEntries(logPath, func(line string, entry *logEntry) {
		switch {
		case entry == nil:
			entries = append(entries, line)
		case filter.passes(entry):
			entries = append(entries, formatter.format(entry))
		}
	})
	if err != nil {
		return err
	}

	if tail > 0 && len(entries) > tail {
		entries = entries[len(entries)-tail:]
	}
	for _, entry := range entries {
		fmt.Fprintln(out, entry)
	}
	if len(entries) == 0 {
		fmt.Fprintln(out, "No matching log entries found.")
	}
	return nil
}

// printLine writes one raw log line, formatted when it parses as JSON.
func printLine(out io.Writer, line string, filter *logFilter, formatter *logFormatter) {
	var entry logEntry
	if err := json.Unmarshal([]byte(line), &entry); err != nil {
		fmt.Fprintln(out, line)
		return
	}
	if filter.passes(&entry) {
		fmt.Fprintln(out, formatter.format(&entry))
	}
}

// logTail reads complete lines appended to a log file.
type logTail struct {
	file    *os.File
	reader  *bufio.Reader
	partial string
}

func openLogTail(path string, atEnd bool) (*logTail, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	if atEnd {
		if _, err := file.Seek(0, io.SeekEnd); err != nil {
			_ = file.Close()
			return nil, fmt.Errorf("failed to seek to end: %w", err)
		}
	}
	return &logTail{file: file, reader: bufio.NewReader(file)}, nil
}

// drain calls emit for every complete line available. A trailing line
// without a newline is held until the rest of it is written.
func (t *logTail) drain(emit func(string)) error {
	for {
		line, err := t.reader.ReadString('\n')
		if err == io.EOF {
			t.partial += line
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading log file: %w", err)
		}
		line = strings.TrimSpace(t.partial + line)
		t.partial = ""
		if line != "" {
			emit(line)
		}
	}
}

func (t *logTail) Close() error {
	return t.file.Close()
}

// followLogs prints entries appended after it starts, until ctx is done.
// The log directory is watched rather than the file so that a rotated
// debug.log is picked up from its first line.
func followLogs(ctx context.Context, out io.Writer, logPath string, filter *logFilter, formatter *logFormatter) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer watcher.Close()

	if err := watcher.Add(filepath.Dir(logPath)); err != nil {
		return fmt.Errorf("failed to watch log directory: %w", err)
	}

	tail, err := openLogTail(logPath, true)
	if err != nil {
		return err
	}
	defer func() { _ = tail.Close() }()

	emit := func(line string) { printLine(out, line, filter, formatter) }
	fmt.Fprintf(out, "Following logs... (Ctrl+C to stop)\n\n")

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != filepath.Clean(logPath) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				reopened, err := openLogTail(logPath, false)
				if err != nil {
					return err
				}
				_ = tail.Close()
				tail = reopened
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) {
				if err := tail.drain(emit); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return fmt.Errorf("log watcher failed: %w", err)
		}
	}
}
