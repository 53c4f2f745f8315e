// Package config loads the emote reactor configuration from a .env file,
// EMOTE_* environment variables and command line flags, in increasing order
// of precedence.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/ayusman/emotereactor/internal/gesture"
)

// Config holds every runtime option of the reactor.
type Config struct {
	CameraID    int
	EmoteDir    string
	DBPath      string
	Addr        string // empty disables the HTTP server
	StaticDir   string
	HookDir     string // empty disables switch hooks
	Debug       bool
	Tray        bool
	Headless    bool
	SwitchDelay time.Duration
	Absence     gesture.AbsencePolicy
}

// DataDir returns ~/.emotereactor, or .emotereactor when the home
// directory is unknown.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".emotereactor"
	}
	return filepath.Join(home, ".emotereactor")
}

// Load reads .env from the working directory, the environment and args.
func Load(args []string) (*Config, error) {
	return LoadFrom(".env", args)
}

// LoadFrom is Load with an explicit .env path. A missing file is not an error.
func LoadFrom(envFile string, args []string) (*Config, error) {
	if err := godotenv.Load(envFile); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
		log.Printf("No %s file found, using system environment variables", envFile)
	}

	cfg := &Config{
		CameraID:    getEnvInt("EMOTE_CAMERA", 0),
		EmoteDir:    getEnv("EMOTE_DIR", "emotes"),
		DBPath:      getEnv("EMOTE_DB", filepath.Join(DataDir(), "emotereactor.db")),
		Addr:        getEnv("EMOTE_ADDR", ":8080"),
		StaticDir:   getEnv("EMOTE_STATIC_DIR", ""),
		HookDir:     getEnv("EMOTE_HOOKS", filepath.Join(DataDir(), "hooks")),
		Debug:       getEnvBool("EMOTE_DEBUG", true),
		Tray:        getEnvBool("EMOTE_TRAY", false),
		Headless:    getEnvBool("EMOTE_HEADLESS", false),
		SwitchDelay: getEnvDuration("EMOTE_SWITCH_DELAY", gesture.DefaultSwitchDelay),
		Absence:     gesture.AbsencePolicy(getEnv("EMOTE_ABSENCE", string(gesture.AbsencePause))),
	}

	fset := flag.NewFlagSet("emotereactor", flag.ContinueOnError)
	fset.SetOutput(io.Discard)
	fset.IntVar(&cfg.CameraID, "camera", cfg.CameraID, "camera device index")
	fset.StringVar(&cfg.EmoteDir, "emotes", cfg.EmoteDir, "directory holding <label>.gif files")
	fset.StringVar(&cfg.DBPath, "db", cfg.DBPath, "SQLite database path, empty disables history")
	fset.StringVar(&cfg.Addr, "addr", cfg.Addr, "HTTP listen address, empty disables the server")
	fset.StringVar(&cfg.StaticDir, "static", cfg.StaticDir, "directory served at / by the HTTP server")
	fset.StringVar(&cfg.HookDir, "hooks", cfg.HookDir, "directory of switch hooks, empty disables them")
	fset.BoolVar(&cfg.Debug, "debug", cfg.Debug, "draw the debug overlay")
	fset.BoolVar(&cfg.Tray, "tray", cfg.Tray, "run headless with a system tray menu")
	fset.BoolVar(&cfg.Headless, "headless", cfg.Headless, "do not open a display window")
	fset.DurationVar(&cfg.SwitchDelay, "switch-delay", cfg.SwitchDelay, "minimum time between emote switches")
	absence := fset.String("absence", string(cfg.Absence), "what missing landmarks do to six-seven: pause or reset")

	if err := fset.Parse(args); err != nil {
		return nil, fmt.Errorf("invalid arguments: %w", err)
	}

	policy, ok := gesture.ParseAbsencePolicy(*absence)
	if !ok {
		return nil, fmt.Errorf("invalid absence policy %q", *absence)
	}
	cfg.Absence = policy

	if cfg.Tray {
		cfg.Headless = true
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first option that cannot be used.
func (c *Config) Validate() error {
	if c.CameraID < 0 {
		return fmt.Errorf("camera index must not be negative, got %d", c.CameraID)
	}
	if c.SwitchDelay < 0 {
		return fmt.Errorf("switch delay must not be negative, got %s", c.SwitchDelay)
	}
	return nil
}

func getEnv(key string, defaultVal string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if v := os.Getenv(key); v != "" {
		if intVal, err := strconv.Atoi(v); err == nil {
			return intVal
		}
		log.Printf("Ignoring invalid %s=%q", key, v)
	}
	return defaultVal
}

func getEnvBool(key string, defaultVal bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
		log.Printf("Ignoring invalid %s=%q", key, v)
	}
	return defaultVal
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		log.Printf("Ignoring invalid %s=%q", key, v)
	}
	return defaultVal
}
