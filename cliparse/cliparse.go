package cliparse

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port                  int
	DatabaseURL           string
	DatabaseType          string
	CallerKeySalt         string
	VotingDuration        time.Duration
	ResetClearsCandidates bool
	DefaultElection       string
	DeployerAddress       string
	AllowedOrigins        []string
}

const (
	defaultPort           = 8080
	defaultVotingDuration = 24 * time.Hour
)

// ParseFlags validates flags and fills gaps from the environment.
// A .env file (see -env-file) is loaded first and never overrides
// variables already set in the process environment.
func ParseFlags(args []string) (Config, error) {
	var cfg Config
	var (
		envFile  string
		duration string
		origins  string
		clearSet bool
	)

	fs := flag.NewFlagSet("chainelect", flag.ContinueOnError)

	// Network and storage (can be CLI args or env)
	fs.IntVar(&cfg.Port, "p", 0, "Server port")
	fs.StringVar(&cfg.DatabaseURL, "d", "", "Database URL, or directory for leveldb")
	fs.StringVar(&cfg.DatabaseType, "t", "", "Database type (sqlite, postgres or leveldb)")
	fs.StringVar(&envFile, "env-file", ".env", "Optional dotenv file")

	// Secrets (prefer env variables, but allow CLI for dev)
	fs.StringVar(&cfg.CallerKeySalt, "caller-salt", "", "Caller key salt (prefer env)")

	// Election defaults
	fs.StringVar(&duration, "voting-duration", "", "Voting window, e.g. 24h")
	fs.BoolVar(&cfg.ResetClearsCandidates, "reset-clears-candidates", false, "Reset also removes candidates")
	fs.StringVar(&cfg.DefaultElection, "election", "", "Election to create at startup if missing")
	fs.StringVar(&cfg.DeployerAddress, "deployer", "", "Deployer address for the startup election")
	fs.StringVar(&origins, "origins", "", "Comma separated CORS origins")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "reset-clears-candidates" {
			clearSet = true
		}
	})

	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	// Fall back to environment variables
	if cfg.Port == 0 {
		if portStr := os.Getenv("PORT"); portStr != "" {
			port, err := strconv.Atoi(portStr)
			if err != nil {
				return Config{}, errors.New("invalid PORT env variable")
			}
			cfg.Port = port
		} else {
			cfg.Port = defaultPort
		}
	}

	if cfg.DatabaseURL == "" {
		cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	}
	if cfg.DatabaseURL == "" {
		return Config{}, errors.New("database URL required (use -d or DATABASE_URL env)")
	}

	if cfg.DatabaseType == "" {
		cfg.DatabaseType = os.Getenv("DATABASE_TYPE")
		if cfg.DatabaseType == "" {
			cfg.DatabaseType = "sqlite"
		}
	}
	switch cfg.DatabaseType {
	case "sqlite", "postgres", "leveldb":
	default:
		return Config{}, fmt.Errorf("unsupported database type %q", cfg.DatabaseType)
	}

	// Secrets - MUST be provided
	if cfg.CallerKeySalt == "" {
		cfg.CallerKeySalt = os.Getenv("CALLER_KEY_SALT")
	}
	if cfg.CallerKeySalt == "" {
		return Config{}, errors.New("CALLER_KEY_SALT required")
	}

	if duration == "" {
		duration = os.Getenv("VOTING_DURATION")
	}
	cfg.VotingDuration = defaultVotingDuration
	if duration != "" {
		d, err := time.ParseDuration(duration)
		if err != nil {
			return Config{}, fmt.Errorf("invalid voting duration %q: %w", duration, err)
		}
		if d < time.Second {
			return Config{}, fmt.Errorf("voting duration must be at least 1s, got %s", d)
		}
		cfg.VotingDuration = d
	}

	if !clearSet {
		if v := os.Getenv("RESET_CLEARS_CANDIDATES"); v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return Config{}, errors.New("invalid RESET_CLEARS_CANDIDATES env variable")
			}
			cfg.ResetClearsCandidates = b
		}
	}

	if cfg.DefaultElection == "" {
		cfg.DefaultElection = os.Getenv("DEFAULT_ELECTION")
	}
	if cfg.DeployerAddress == "" {
		cfg.DeployerAddress = os.Getenv("DEPLOYER_ADDRESS")
	}
	if cfg.DefaultElection != "" && cfg.DeployerAddress == "" {
		return Config{}, errors.New("DEPLOYER_ADDRESS required when a default election is set")
	}

	if origins == "" {
		origins = os.Getenv("ALLOWED_ORIGINS")
	}
	if origins == "" {
		origins = "*"
	}
	for _, o := range strings.Split(origins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, o)
		}
	}

	return cfg, nil
}
