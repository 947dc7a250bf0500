// Package config loads BlockQuest configuration from the environment.
//
// Load reads an optional .env file, then parses the environment into Config
// using struct tags. Validate reports every problem at once:
//
//	cfg, err := config.Load()
//	if err != nil {
//	    return err
//	}
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//
// # Environment Variables
//
//	SERVER_PORT, SERVER_ENV, SERVER_READ_TIMEOUT, CORS_ALLOWED_ORIGINS
//	STORAGE_DRIVER               memory (default) or surrealdb
//	STORAGE_SNAPSHOT_PATH        memory driver snapshot file, empty disables
//	STORAGE_SNAPSHOT_INTERVAL    default 1m
//	DB_HOST, DB_PORT, DB_NAMESPACE, DB_DATABASE, DB_USER, DB_PASSWORD
//	JWT_PRIVATE_KEY_PATH, JWT_PUBLIC_KEY_PATH, JWT_ISSUER, JWT_EXPIRATION_MINS
//	CERT_OWNER_ADDRESS           registry owner, required in production
//	CERT_MINTER_ADDRESS          identity completeGame mints under
//	JOURNAL_ENABLED, JOURNAL_PATH
//	DICE_SEED                    0 seeds from the host
//	LOG_LEVEL                    debug, info, warn or error
package config
