package environment

import "os"

const (
	MemoryBackend  = "memory"
	SortedBackend  = "sorted"
	LevelDBBackend = "leveldb"
)

const defaultJaegerURL = "http://jaeger.cluster/api/traces"

func Debug() bool {
	return os.Getenv("DEBUG") == "true"
}

func TraceEnabled() bool {
	return os.Getenv("TRACE") == "true"
}

// Backend names the backing store ledgerctl writes to. Defaults to memory.
func Backend() string {
	backend, ok := os.LookupEnv("LEDGER_BACKEND")
	if !ok || backend == "" {
		backend = MemoryBackend
	}
	return backend
}

func JaegerURL() string {
	url, ok := os.LookupEnv("JAEGER_URL")
	if !ok || url == "" {
		url = defaultJaegerURL
	}
	return url
}
