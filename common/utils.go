package common

import (
	uuid "github.com/nu7hatch/gouuid"
)

// GenUUID returns a random id for a batch or run.
func GenUUID() string {
	// uuid.NewV4 only fails if the system's random source does, so retry
	for {
		if id, err := uuid.NewV4(); err == nil {
			return id.String()
		}
	}
}
