package lifecycle

import "sync"

// FormState is the submission state of one create, edit or delete form
type FormState int

const (
	Idle FormState = iota
	Validating
	Submitting
)

func (s FormState) String() string {
	switch s {
	case Validating:
		return "validating"
	case Submitting:
		return "submitting"
	default:
		return "idle"
	}
}

// FormStatus is a point-in-time copy of a form
type FormStatus struct {
	Message string    `json:"message,omitempty"`
	State   FormState `json:"-"`
	Open    bool      `json:"open"`
}

// Form tracks one modal form across a lifecycle flow.
//
//	idle -> validating -> idle (invalid, message)
//	                   -> submitting -> idle, closed (success)
//	                                 -> idle, open, message (failure)
type Form struct {
	message string
	mu      sync.Mutex
	state   FormState
	open    bool
}

// NewForm creates a closed, idle form
func NewForm() *Form {
	return &Form{}
}

// Open shows the form with no message
func (f *Form) Open() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = true
	f.message = ""
}

// Close hides the form. A submission already in flight still completes.
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.message = ""
}

func (f *Form) Status() FormStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return FormStatus{State: f.state, Open: f.open, Message: f.message}
}

func (f *Form) begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state != Idle {
		return ErrSubmissionInProgress
	}
	f.state = Validating
	f.message = ""
	return nil
}

func (f *Form) reject(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Idle
	f.message = message
}

func (f *Form) submit() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Submitting
}

func (f *Form) succeed() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Idle
	f.open = false
	f.message = ""
}

func (f *Form) fail(message string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.state = Idle
	f.open = true
	f.message = message
}
