package appstore

// Phase is the bulk load lifecycle: idle -> loading -> loaded | failed.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseLoaded  Phase = "loaded"
	PhaseFailed  Phase = "failed"
)

// LoadState is the current phase plus the failure message when failed.
type LoadState struct {
	Phase   Phase  `json:"phase"`
	Message string `json:"message,omitempty"`
}

func (s LoadState) Ready() bool {
	return s.Phase == PhaseLoaded
}

func failed(err error) LoadState {
	return LoadState{Phase: PhaseFailed, Message: err.Error()}
}
