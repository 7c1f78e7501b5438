package narrative

// Phase is the coarse dramatic stage of a scripted conversation.
type Phase string

const (
	PhaseGreeting     Phase = "greeting"
	PhaseEstablishing Phase = "establishing"
	PhaseWorking      Phase = "working"
	PhaseCrisis       Phase = "crisis"
	PhaseRevelation   Phase = "revelation"
	PhaseResolution   Phase = "resolution"
)

// phaseTransitions is the complete transition table. No transition exists
// outside it; resolution is terminal.
var phaseTransitions = map[Phase][]Phase{
	PhaseGreeting:     {PhaseEstablishing, PhaseWorking},
	PhaseEstablishing: {PhaseWorking, PhaseCrisis},
	PhaseWorking:      {PhaseCrisis, PhaseResolution},
	PhaseCrisis:       {PhaseRevelation, PhaseResolution},
	PhaseRevelation:   {PhaseResolution, PhaseWorking},
	PhaseResolution:   {},
}

// phaseTurnBudgets are soft per-phase turn budgets. Reaching a budget flags
// ShouldAdvance; it never forces a transition.
var phaseTurnBudgets = map[Phase]int{
	PhaseGreeting:     3,
	PhaseEstablishing: 6,
	PhaseWorking:      15,
	PhaseCrisis:       8,
	PhaseRevelation:   4,
	PhaseResolution:   5,
}

// phaseInstructions are directives for the response generator, one per phase.
var phaseInstructions = map[Phase]string{
	PhaseGreeting:     "Open warmly but briefly. Establish who you are and take stock of the player.",
	PhaseEstablishing: "Build rapport. Draw out what the player wants and what they already know.",
	PhaseWorking:      "Focus on the task at hand. Trade information, make progress, raise the stakes gradually.",
	PhaseCrisis:       "The situation is breaking down. Respond with urgency and keep the pressure on.",
	PhaseRevelation:   "Deliver the truth you have been holding back, and let it land before moving on.",
	PhaseResolution:   "Wind the conversation down. Settle what was decided and find a way to part.",
}

// phaseSuggestedTopics seed the generator with material appropriate to the
// phase. Static; the anti-repetition signal comes from recent topics.
var phaseSuggestedTopics = map[Phase][]string{
	PhaseGreeting:     {"introductions", "the current situation"},
	PhaseEstablishing: {"background", "what brought you here", "what the player needs"},
	PhaseWorking:      {"the task at hand", "obstacles", "what you need from each other"},
	PhaseCrisis:       {"the immediate danger", "hard choices", "who to trust"},
	PhaseRevelation:   {"the hidden truth", "what it changes"},
	PhaseResolution:   {"what was decided", "parting terms"},
}

// ValidPhase reports whether p is one of the six defined phases.
func ValidPhase(p Phase) bool {
	_, ok := phaseTransitions[p]
	return ok
}

// AllowedTransitions returns the phases reachable from p, in preference
// order. Empty for resolution and for unknown phases.
func AllowedTransitions(p Phase) []Phase {
	return phaseTransitions[p]
}
