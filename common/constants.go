package common

import (
	"time"
)

// Port a worker node listens on unless configured otherwise.
const DefaultWorkerPort = 5000

const DefaultProbeTimeout = 2 * time.Second
