package logcolors

// ANSI color codes for log prefixes
const (
	Reset  = "\033[0m"
	Red    = "\033[31m"
	Green  = "\033[32m"
	Yellow = "\033[33m"
	Blue   = "\033[34m"
	Purple = "\033[35m"
	Cyan   = "\033[36m"

	BrightGreen   = "\033[92m"
	BrightBlue    = "\033[94m"
	BrightMagenta = "\033[95m"
	BrightCyan    = "\033[96m"
)

// Client-local store log prefixes
const (
	LogStoreInit    = Blue + "[Store:Init]" + Reset
	LogStore        = Blue + "[Store]" + Reset
	LogStoreBackup  = Blue + "[Store:Backup]" + Reset
	LogStoreRestore = Blue + "[Store:Restore]" + Reset
	LogOffset       = Green + "[Offset]" + Reset
	LogPreferences  = Green + "[Preferences]" + Reset
)

// Session and version history log prefixes
const (
	LogSession  = Cyan + "[Session]" + Reset
	LogVersions = BrightCyan + "[Versions]" + Reset
)

// Sync core log prefixes
const (
	LogSync     = BrightGreen + "[Sync]" + Reset
	LogSections = BrightGreen + "[Sections]" + Reset
	LogExport   = BrightBlue + "[Export]" + Reset
)

// Rate limiting log prefixes
const (
	LogRateLimit = Purple + "[RateLimit]" + Reset
	LogAPIKey    = Purple + "[APIKey]" + Reset
)

// Server/Init log prefixes
const (
	LogServer  = Green + "[Server]" + Reset
	LogConfig  = Cyan + "[Config]" + Reset
	LogStats   = Blue + "[Stats]" + Reset
	LogRequest = Purple + "[Request]" + Reset
)

// CircuitBreakerPrefix returns a colored circuit breaker prefix with the given name
func CircuitBreakerPrefix(name string) string {
	return Purple + "[CircuitBreaker:" + name + "]" + Reset
}

// clientColors rotate by a byte-sum hash so the same client id always gets the same color
var clientColors = []string{
	Green, Blue, Purple, Cyan, Yellow,
	BrightGreen, BrightBlue, BrightMagenta, BrightCyan, Red,
}

// Client returns a colored client or session id for log messages
func Client(id string) string {
	hash := 0
	for _, c := range id {
		hash += int(c)
	}
	return clientColors[hash%len(clientColors)] + id + Reset
}
