package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"chameleon/internal/domain"
)

// EnvPrefix is prepended to every environment variable, e.g. CHAMELEON_PORT
const EnvPrefix = "CHAMELEON"

// Config holds all application configuration
type Config struct {
	Server  ServerConfig
	Store   StoreConfig
	Game    GameConfig
	Rooms   RoomsConfig
	Topics  TopicsConfig
	Logging LoggingConfig
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port    string
	Host    string
	Env     string // "development" or "production"
	BaseURL string // public URL used in invite links; derived from the request when empty
}

// StoreConfig selects the room store backend
type StoreConfig struct {
	Driver     string // "memory" or "sqlite"
	SQLitePath string
}

// GameConfig holds the game rules
type GameConfig struct {
	MinPlayers       int
	MaxPlayers       int
	TopicVoteEnabled bool
	GuessTiming      string
	MaxRoundsTable   string
	EvasionBonuses   string
	ScoreThreshold   int
	ClueSeconds      int
	VoteSeconds      int
	MaxClueLength    int
	MaxNameLength    int
}

// RoomsConfig holds room lifecycle settings
type RoomsConfig struct {
	CodeLength      int
	CodeAttempts    int
	EndGrace        time.Duration
	StaleTimeout    time.Duration
	CleanupInterval time.Duration
	ChatHistory     int
}

// TopicsConfig points at an optional topics file replacing the built-in pool
// and configures generated topics
type TopicsConfig struct {
	File         string
	GeminiAPIKey string // generated topics are disabled when empty
	GeminiModel  string
}

// LoggingConfig holds logging-related configuration
type LoggingConfig struct {
	Level  string
	Format string // "json" or "text"
}

// RegisterFlags adds every setting to fs with its default
func RegisterFlags(fs *pflag.FlagSet) {
	rules := domain.DefaultRules()

	fs.String("config", "", "path to a config file (json, yaml or toml)")

	fs.String("host", "0.0.0.0", "address to bind to")
	fs.StringP("port", "p", "8080", "port to listen on")
	fs.String("env", "development", "environment (development or production)")
	fs.String("base-url", "", "public base URL for invite links")

	fs.String("store", "memory", "room store backend (memory or sqlite)")
	fs.String("sqlite-path", "chameleon.db", "path to the sqlite database")

	fs.Int("min-players", rules.MinPlayers, "minimum players to start a game")
	fs.Int("max-players", rules.MaxPlayers, "maximum players in a room")
	fs.Bool("topic-vote", rules.TopicVoteEnabled, "let players vote to skip the dealt topic")
	fs.String("guess-timing", string(rules.GuessTiming), "when the impostor guesses the word (duringVoting or beforeVoting)")
	fs.String("max-rounds-table", "5:1,8:2,9:3", "rounds per game by player count, as maxPlayers:rounds pairs")
	fs.String("evasion-bonuses", "2,3,5", "impostor bonus for surviving each round")
	fs.Int("score-threshold", rules.ScoreThreshold, "score that wins the match")
	fs.Int("clue-seconds", int(rules.ClueDuration/time.Second), "seconds per clue turn")
	fs.Int("vote-seconds", int(rules.VoteDuration/time.Second), "seconds for the vote")
	fs.Int("max-clue-length", rules.MaxClueLength, "maximum clue length in characters")
	fs.Int("max-name-length", rules.MaxNameLength, "maximum player name length in characters")

	fs.Int("code-length", 5, "room code length")
	fs.Int("code-attempts", 5, "room code collision retries")
	fs.Duration("end-grace", 3*time.Second, "delay before an ended room is deleted")
	fs.Duration("stale-timeout", 2*time.Hour, "idle time before a room is cleaned up")
	fs.Duration("cleanup-interval", 10*time.Minute, "how often stale rooms are swept")
	fs.Int("chat-history", rules.ChatHistory, "chat messages kept per room")

	fs.String("topics-file", "", "topics file replacing the built-in topics")
	fs.String("gemini-api-key", "", "Gemini API key enabling topics generated from a seed phrase")
	fs.String("gemini-model", "gemini-2.5-flash", "Gemini model used for generated topics")

	fs.String("log-level", "info", "log level (debug, info, warn, error)")
	fs.String("log-format", "text", "log format (text or json)")
}

// NewViper binds fs and the CHAMELEON_* environment. Flags set on the
// command line win over the environment, which wins over the config file.
func NewViper(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	var bindErr error
	fs.VisitAll(func(f *pflag.Flag) {
		if err := v.BindPFlag(f.Name, f); err != nil {
			bindErr = errors.Join(bindErr, err)
		}
		if err := v.BindEnv(f.Name); err != nil {
			bindErr = errors.Join(bindErr, err)
		}
	})
	if bindErr != nil {
		return nil, fmt.Errorf("bind flags: %w", bindErr)
	}

	if path := v.GetString("config"); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	return v, nil
}

// Load reads the configuration out of v and validates it
func Load(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:    v.GetString("port"),
			Host:    v.GetString("host"),
			Env:     v.GetString("env"),
			BaseURL: strings.TrimRight(v.GetString("base-url"), "/"),
		},
		Store: StoreConfig{
			Driver:     strings.ToLower(v.GetString("store")),
			SQLitePath: v.GetString("sqlite-path"),
		},
		Game: GameConfig{
			MinPlayers:       v.GetInt("min-players"),
			MaxPlayers:       v.GetInt("max-players"),
			TopicVoteEnabled: v.GetBool("topic-vote"),
			GuessTiming:      v.GetString("guess-timing"),
			MaxRoundsTable:   v.GetString("max-rounds-table"),
			EvasionBonuses:   v.GetString("evasion-bonuses"),
			ScoreThreshold:   v.GetInt("score-threshold"),
			ClueSeconds:      v.GetInt("clue-seconds"),
			VoteSeconds:      v.GetInt("vote-seconds"),
			MaxClueLength:    v.GetInt("max-clue-length"),
			MaxNameLength:    v.GetInt("max-name-length"),
		},
		Rooms: RoomsConfig{
			CodeLength:      v.GetInt("code-length"),
			CodeAttempts:    v.GetInt("code-attempts"),
			EndGrace:        v.GetDuration("end-grace"),
			StaleTimeout:    v.GetDuration("stale-timeout"),
			CleanupInterval: v.GetDuration("cleanup-interval"),
			ChatHistory:     v.GetInt("chat-history"),
		},
		Topics: TopicsConfig{
			File:         v.GetString("topics-file"),
			GeminiAPIKey: v.GetString("gemini-api-key"),
			GeminiModel:  v.GetString("gemini-model"),
		},
		Logging: LoggingConfig{
			Level:  strings.ToLower(v.GetString("log-level")),
			Format: strings.ToLower(v.GetString("log-format")),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that cannot be defaulted
func (c *Config) Validate() error {
	port, err := strconv.Atoi(c.Server.Port)
	if err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %s", c.Server.Port)
	}

	switch c.Store.Driver {
	case "memory":
	case "sqlite":
		if c.Store.SQLitePath == "" {
			return errors.New("--sqlite-path is required for the sqlite store")
		}
	default:
		return fmt.Errorf("unknown store %q (want memory or sqlite)", c.Store.Driver)
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("unknown log format %q (want text or json)", c.Logging.Format)
	}
	if c.Rooms.CodeLength < 4 {
		return fmt.Errorf("room codes must be at least 4 characters, got %d", c.Rooms.CodeLength)
	}

	if _, err := c.Rules(); err != nil {
		return err
	}
	return nil
}

// Rules converts the game settings into domain rules
func (c *Config) Rules() (domain.Rules, error) {
	steps, err := domain.ParseRoundSteps(c.Game.MaxRoundsTable)
	if err != nil {
		return domain.Rules{}, fmt.Errorf("max rounds table: %w", err)
	}
	bonuses, err := domain.ParseIntList(c.Game.EvasionBonuses)
	if err != nil {
		return domain.Rules{}, fmt.Errorf("evasion bonuses: %w", err)
	}

	rules := domain.Rules{
		MinPlayers:       c.Game.MinPlayers,
		MaxPlayers:       c.Game.MaxPlayers,
		TopicVoteEnabled: c.Game.TopicVoteEnabled,
		GuessTiming:      domain.GuessTiming(c.Game.GuessTiming),
		RoundSteps:       steps,
		EvasionBonuses:   bonuses,
		ScoreThreshold:   c.Game.ScoreThreshold,
		ClueDuration:     time.Duration(c.Game.ClueSeconds) * time.Second,
		VoteDuration:     time.Duration(c.Game.VoteSeconds) * time.Second,
		MaxClueLength:    c.Game.MaxClueLength,
		MaxNameLength:    c.Game.MaxNameLength,
		ChatHistory:      c.Rooms.ChatHistory,
	}
	if err := rules.Validate(); err != nil {
		return domain.Rules{}, fmt.Errorf("game rules: %w", err)
	}
	return rules, nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.Env == "development"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Env == "production"
}

// GetAddr returns the server address in host:port format
func (c *Config) GetAddr() string {
	return c.Server.Host + ":" + c.Server.Port
}
