package constants

// LogLevelEnv names the environment variable holding the default log level.
const LogLevelEnv = "LENDCORE_LOG_LEVEL"

// RepoPathEnv overrides the default repo location.
const RepoPathEnv = "LENDCORE_PATH"

// DefaultRepoPath is used when neither a flag nor RepoPathEnv is given.
const DefaultRepoPath = "~/.lendcore"

// WalletPasswordEnv supplies the wallet passphrase to the cli.
const WalletPasswordEnv = "LENDCORE_WALLET_PASSWORD"
