package instances

// Phase is the client-side lifecycle of a challenge instance.
type Phase string

const (
	PhaseIdle     Phase = "idle"
	PhaseStarting Phase = "starting"
	PhaseRunning  Phase = "running"
	PhaseStopping Phase = "stopping"
	PhaseError    Phase = "error"
)

// Instance is a live provisioned execution of a challenge. The id is opaque
// and assigned by the backend.
type Instance struct {
	Key   string
	ID    string
	URL   string
	Phase Phase
}
