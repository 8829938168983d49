package main

// Exit codes used across commands.
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing API key, bad paths)
	ExitDataError   = 3 // Data error (malformed input, validation failure)
	ExitAPIError    = 4 // Scopus API failure (auth, quota, network)
)
