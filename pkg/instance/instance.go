// Package instance names the running process in logs and lock values.
package instance

import (
	"os"
	"strings"
)

const fallbackID = "worker-0"

// GetID prefers an explicit WORKER_ID, then the Cloud Run revision, then the
// host name. Processes that can resolve none of them report worker-0.
func GetID() string {
	return resolve(os.Getenv, os.Hostname)
}

func resolve(getenv func(string) string, hostname func() (string, error)) string {
	for _, key := range []string{"WORKER_ID", "K_REVISION"} {
		if id := strings.TrimSpace(getenv(key)); id != "" {
			return id
		}
	}
	if host, err := hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}
