package extraction

// Mode is the kind of work an attempt performs.
type Mode int

const (
	ModeFull Mode = iota
	ModeSimple
	ModeDocumentService
)

// Attempt indexes at which the mode changes. Attempt 2 has no behavior of its
// own and renders like attempts 0 and 1.
const (
	SimpleFetchAttempt     = 3
	DocumentServiceAttempt = 4
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeSimple:
		return "simple"
	case ModeDocumentService:
		return "document_service"
	default:
		return "unknown"
	}
}

// ModeFor maps an attempt index to its mode.
func ModeFor(attempt int) Mode {
	switch {
	case attempt >= DocumentServiceAttempt:
		return ModeDocumentService
	case attempt == SimpleFetchAttempt:
		return ModeSimple
	default:
		return ModeFull
	}
}

// Outcome is the result of one fetch+parse step.
type Outcome int

const (
	// OutcomeSuccess means the parse produced main content.
	OutcomeSuccess Outcome = iota
	// OutcomeEmpty means there was no HTML to parse, usually after a failed fetch.
	OutcomeEmpty
	// OutcomeEscalate means HTML was present but no content could be extracted.
	OutcomeEscalate
)

func (o Outcome) String() string {
	switch o {
	case OutcomeSuccess:
		return "success"
	case OutcomeEmpty:
		return "empty"
	case OutcomeEscalate:
		return "escalate"
	default:
		return "unknown"
	}
}

// Action is what the orchestrator does after a step.
type Action int

const (
	ActionReturn Action = iota
	ActionRetry
	ActionDocumentService
	ActionReturnEmpty
)

func (a Action) String() string {
	switch a {
	case ActionReturn:
		return "return"
	case ActionRetry:
		return "retry"
	case ActionDocumentService:
		return "document_service"
	case ActionReturnEmpty:
		return "return_empty"
	default:
		return "unknown"
	}
}

// Next is the transition table applied after every fetch+parse step.
func Next(hasURL bool, o Outcome) Action {
	switch o {
	case OutcomeSuccess:
		return ActionReturn
	case OutcomeEmpty:
		if !hasURL {
			return ActionReturnEmpty
		}
		return ActionRetry
	default:
		if !hasURL {
			return ActionReturnEmpty
		}
		return ActionDocumentService
	}
}
