// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

/*
Package cliparse handles command-line argument parsing and configuration.

# Configuration

ParseFlags returns a Config struct with all settings:

	cfg, err := cliparse.ParseFlags(os.Args[1:])

# CLI Flags and Environment Variables

	-p                        PORT                     (default 8080)
	-d                        DATABASE_URL             (required)
	-t                        DATABASE_TYPE            sqlite, postgres or leveldb (default sqlite)
	-caller-salt              CALLER_KEY_SALT          (required)
	-voting-duration          VOTING_DURATION          (default 24h)
	-reset-clears-candidates  RESET_CLEARS_CANDIDATES  (default false)
	-election                 DEFAULT_ELECTION         created at startup if missing
	-deployer                 DEPLOYER_ADDRESS         required with -election
	-origins                  ALLOWED_ORIGINS          comma separated (default *)
	-env-file                                          dotenv file (default .env)

CLI flags take precedence over environment variables. The dotenv file is
read with github.com/joho/godotenv and never overrides variables already
present in the environment; a missing file is not an error.

For leveldb, DATABASE_URL is the database directory.
*/
package cliparse
