package instance

import "github.com/angelmondragon/storefront-backend/pkg/env"

// GetID identifies the running process in logs: the platform dyno name, the
// container hostname, or "local".
func GetID() string {
	return env.First("local", "DYNO", "HOSTNAME")
}
