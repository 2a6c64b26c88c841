package workflow

// Outcome is the verdict of a workflow run.
type Outcome int

const (
	// OutcomeOK: audit found no differences, or init completed.
	OutcomeOK Outcome = iota
	// OutcomeUnchanged: update or check found nothing to do.
	OutcomeUnchanged
	// OutcomeChanged: differences were found (and, for update, saved).
	OutcomeChanged
	// OutcomeBitrot: content changed under an unchanged mtime.
	OutcomeBitrot
	// OutcomeAborted: the user declined the update.
	OutcomeAborted
)

// Process exit codes.
const (
	ExitOK           = 0
	ExitPrecondition = 1
	ExitDifferences  = 2
	ExitBitrot       = 3
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeChanged:
		return "changed"
	case OutcomeBitrot:
		return "bitrot"
	case OutcomeAborted:
		return "aborted"
	}
	return "unknown"
}

// AuditExitCode maps an audit outcome to the process exit code. Update and
// init always exit 0 on success.
func (o Outcome) AuditExitCode() int {
	switch o {
	case OutcomeChanged:
		return ExitDifferences
	case OutcomeBitrot:
		return ExitBitrot
	}
	return ExitOK
}
