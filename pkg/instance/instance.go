// Package instance names the running worker process in logs.
package instance

import (
	"os"

	"github.com/angelmondragon/aura-storefront/pkg/env"
)

// ID returns AURA_INSTANCE_ID, falling back to the hostname.
func ID() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		host = "worker-0"
	}
	return env.Get("INSTANCE_ID", host)
}
