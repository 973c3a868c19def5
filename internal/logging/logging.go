package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogFileName is the name of the rotating log file inside the log directory.
const LogFileName = "trafficstats.log"

// Init initializes the global logger with dual sinks: os.Stderr and a rotating file.
// When the log directory is unusable only the console sink is installed.
func Init(verbose bool) {
	// 0. Load .env from binary directory and working directory to ensure LOGS_FOLDER is available.
	// We do this here because Init is called before config.Load.
	exePath, err := os.Executable()
	if err == nil {
		_ = godotenv.Load(filepath.Join(filepath.Dir(exePath), ".env"))
	}
	_ = godotenv.Load()

	// 1. Determine log level
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	// 2. Setup Stderr Writer (Console)
	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	// 3. Setup File Writer (Rotating)
	logDir := os.Getenv("LOGS_FOLDER")
	if logDir == "" {
		logDir = filepath.Join(dataPath(), "logs")
	}

	var out io.Writer = consoleWriter
	if err := ensureWritable(logDir); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging to console only: %v\n", err)
	} else {
		fileWriter := &lumberjack.Logger{
			Filename:   filepath.Join(logDir, LogFileName),
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		}
		// 4. Combine Writers
		out = zerolog.MultiLevelWriter(io.Writer(consoleWriter), fileWriter)
	}

	// 5. Set Global Logger
	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger()
}

func dataPath() string {
	if p := os.Getenv("DATA_PATH"); p != "" {
		return p
	}
	return "."
}

// ensureWritable creates dir and checks that files can be written into it.
func ensureWritable(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory %q: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0644); err != nil {
		return fmt.Errorf("log directory %q is not writable: %w", dir, err)
	}
	_ = os.Remove(testFile)
	return nil
}
