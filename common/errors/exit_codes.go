package errors

type ExitCode int

// Values follow the sysexits.h convention where one exists.
const (
	GenericFailureExitCode ExitCode = 1

	// input data was malformed: a cyclic task graph
	DataErrorExitCode ExitCode = 65

	// unreachable worker nodes when a live cluster was required
	UnavailableExitCode ExitCode = 69

	// failure writing the report
	CantCreateExitCode ExitCode = 73

	// missing dataset, no processors configured, invalid environment
	ConfigurationExitCode ExitCode = 78
)
