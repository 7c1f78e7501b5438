package narrative

import (
	"fmt"
	"reflect"
	"testing"
)

func TestAdvanceToLegalTransitions(t *testing.T) {
	tests := []struct {
		from   Phase
		to     Phase
		wantOK bool
	}{
		{PhaseGreeting, PhaseEstablishing, true},
		{PhaseGreeting, PhaseWorking, true},
		{PhaseGreeting, PhaseCrisis, false},
		{PhaseGreeting, PhaseResolution, false},
		{PhaseEstablishing, PhaseWorking, true},
		{PhaseEstablishing, PhaseCrisis, true},
		{PhaseEstablishing, PhaseGreeting, false},
		{PhaseWorking, PhaseCrisis, true},
		{PhaseWorking, PhaseResolution, true},
		{PhaseWorking, PhaseGreeting, false},
		{PhaseWorking, PhaseRevelation, false},
		{PhaseCrisis, PhaseRevelation, true},
		{PhaseCrisis, PhaseResolution, true},
		{PhaseCrisis, PhaseWorking, false},
		{PhaseRevelation, PhaseResolution, true},
		{PhaseRevelation, PhaseWorking, true},
		{PhaseRevelation, PhaseCrisis, false},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s_to_%s", tt.from, tt.to), func(t *testing.T) {
			m := NewMachine()
			m.Reset(tt.from)
			got := m.AdvanceTo(tt.to)
			if got != tt.wantOK {
				t.Errorf("AdvanceTo(%s) from %s = %v, want %v", tt.to, tt.from, got, tt.wantOK)
			}
			if tt.wantOK && m.Current != tt.to {
				t.Errorf("phase = %s after successful advance, want %s", m.Current, tt.to)
			}
			if !tt.wantOK && m.Current != tt.from {
				t.Errorf("phase = %s after failed advance, want unchanged %s", m.Current, tt.from)
			}
		})
	}
}

func TestResolutionIsTerminal(t *testing.T) {
	m := NewMachine()
	m.Reset(PhaseResolution)

	targets := []Phase{
		PhaseGreeting, PhaseEstablishing, PhaseWorking,
		PhaseCrisis, PhaseRevelation, PhaseResolution, Phase("anything"),
	}
	for _, target := range targets {
		if m.AdvanceTo(target) {
			t.Errorf("AdvanceTo(%s) from resolution succeeded", target)
		}
	}
	if m.Advance() {
		t.Error("Advance() from resolution succeeded")
	}
	if m.Current != PhaseResolution {
		t.Errorf("phase left resolution: %s", m.Current)
	}
}

func TestAdvanceUsesFirstAllowed(t *testing.T) {
	m := NewMachine()
	if !m.Advance() {
		t.Fatal("Advance from greeting failed")
	}
	if m.Current != PhaseEstablishing {
		t.Errorf("Advance from greeting went to %s, want establishing", m.Current)
	}
}

func TestAdvanceResetsTurnsInPhase(t *testing.T) {
	m := NewMachine()
	m.RecordTurn("player", "Hello there.", "", nil)
	m.RecordTurn("npc", "Welcome aboard.", "", nil)
	if m.TurnsInPhase != 2 {
		t.Fatalf("TurnsInPhase = %d, want 2", m.TurnsInPhase)
	}

	if !m.AdvanceTo(PhaseWorking) {
		t.Fatal("AdvanceTo(working) from greeting failed")
	}
	if m.TurnsInPhase != 0 {
		t.Errorf("TurnsInPhase = %d after advance, want 0", m.TurnsInPhase)
	}
	if m.TurnCount != 2 {
		t.Errorf("TurnCount = %d after advance, want 2 (global count is not reset)", m.TurnCount)
	}

	// Greeting is no longer reachable from working.
	if m.AdvanceTo(PhaseGreeting) {
		t.Error("AdvanceTo(greeting) from working succeeded")
	}
}

func TestClassifyTurn(t *testing.T) {
	tests := []struct {
		content string
		want    TurnType
	}{
		{"What happened to the crew?", TurnQuestion},
		{"where is everyone", TurnQuestion},
		{"Can you open the airlock", TurnQuestion},
		{"Is that blood", TurnQuestion},
		{"I'm scared of what we'll find.", TurnEmotion},
		{"That makes me so angry.", TurnEmotion},
		{"I feel like you're hiding something.", TurnEmotion},
		{"I grab the crowbar and pry at the panel.", TurnAction},
		{"Slowly open the hatch.", TurnAction},
		{"I search the lockers.", TurnAction},
		{"The reactor was fine when I checked it.", TurnStatement},
		{"My shift ended an hour ago.", TurnStatement},
		{"", TurnSilence},
		{"   ", TurnSilence},
	}

	for _, tt := range tests {
		t.Run(tt.content, func(t *testing.T) {
			if got := classifyTurn(tt.content); got != tt.want {
				t.Errorf("classifyTurn(%q) = %s, want %s", tt.content, got, tt.want)
			}
		})
	}
}

// Question outranks emotion, emotion outranks action.
func TestClassifyTurnPrecedence(t *testing.T) {
	if got := classifyTurn("Are you scared?"); got != TurnQuestion {
		t.Errorf("question+emotion = %s, want question", got)
	}
	if got := classifyTurn("I feel like I should grab the crowbar."); got != TurnEmotion {
		t.Errorf("emotion+action = %s, want emotion", got)
	}
}

func TestRecordTurnBoundedBuffer(t *testing.T) {
	m := NewMachine()
	for i := 0; i < 55; i++ {
		m.RecordTurn("player", fmt.Sprintf("turn number %d", i), "", nil)
	}

	if len(m.Records) != maxTurnRecords {
		t.Fatalf("records length = %d, want %d", len(m.Records), maxTurnRecords)
	}
	// Oldest entries were evicted: the first surviving record is turn 36.
	if m.Records[0].TurnNumber != 36 {
		t.Errorf("oldest surviving record = turn %d, want 36", m.Records[0].TurnNumber)
	}
	if m.Records[len(m.Records)-1].TurnNumber != 55 {
		t.Errorf("newest record = turn %d, want 55", m.Records[len(m.Records)-1].TurnNumber)
	}
	if m.TurnCount != 55 {
		t.Errorf("TurnCount = %d, want 55", m.TurnCount)
	}
}

func TestRecordTurnTruncatesContent(t *testing.T) {
	m := NewMachine()
	long := ""
	for i := 0; i < 30; i++ {
		long += "0123456789"
	}
	m.RecordTurn("npc", long, "", nil)
	if got := len(m.Records[0].Content); got != maxContentLen {
		t.Errorf("stored content length = %d, want %d", got, maxContentLen)
	}
}

func TestRecordTurnExplicitTypeWins(t *testing.T) {
	m := NewMachine()
	m.RecordTurn("player", "What now?", TurnSilence, nil)
	if m.Records[0].Type != TurnSilence {
		t.Errorf("explicit type overridden: %s", m.Records[0].Type)
	}
}

func TestTopicTracking(t *testing.T) {
	m := NewMachine()
	m.RecordTurn("player", "a", "", []string{"reactor"})
	m.RecordTurn("player", "b", "", []string{"crew"})
	m.RecordTurn("player", "c", "", []string{"oxygen", "reactor"})
	m.RecordTurn("player", "d", "", []string{"escape pods"})
	m.RecordTurn("player", "e", "", []string{"manifest", "sabotage"})

	// Most recent first, deduplicated, capped at five.
	want := []string{"sabotage", "manifest", "escape pods", "reactor", "oxygen"}
	if !reflect.DeepEqual(m.RecentTopics, want) {
		t.Errorf("RecentTopics = %v, want %v", m.RecentTopics, want)
	}

	wantDiscussed := []string{"reactor", "crew", "oxygen", "escape pods", "manifest", "sabotage"}
	if !reflect.DeepEqual(m.DiscussedTopics, wantDiscussed) {
		t.Errorf("DiscussedTopics = %v, want %v", m.DiscussedTopics, wantDiscussed)
	}
}

func TestShouldAdvance(t *testing.T) {
	m := NewMachine()
	for i := 0; i < 2; i++ {
		m.RecordTurn("player", "hello", "", nil)
		if m.ShouldAdvance() {
			t.Fatalf("ShouldAdvance true after %d turns in greeting (budget 3)", i+1)
		}
	}
	m.RecordTurn("player", "hello again", "", nil)
	if !m.ShouldAdvance() {
		t.Error("ShouldAdvance false after 3 turns in greeting")
	}

	// Advancing resets the in-phase count and the flag.
	m.AdvanceTo(PhaseWorking)
	if m.ShouldAdvance() {
		t.Error("ShouldAdvance true immediately after advancing")
	}
}

func TestContextSnapshot(t *testing.T) {
	m := NewMachine()
	m.RecordTurn("player", "Who are you?", "", []string{"introductions"})

	ctx := m.Context()
	if ctx.Phase != PhaseGreeting || ctx.TurnCount != 1 || ctx.TurnsInPhase != 1 {
		t.Errorf("context = %+v", ctx)
	}
	if !reflect.DeepEqual(ctx.SuggestedTopics, phaseSuggestedTopics[PhaseGreeting]) {
		t.Errorf("SuggestedTopics = %v", ctx.SuggestedTopics)
	}
	if !reflect.DeepEqual(ctx.AvoidTopics, []string{"introductions"}) {
		t.Errorf("AvoidTopics = %v", ctx.AvoidTopics)
	}
}

func TestInstructions(t *testing.T) {
	m := NewMachine()
	if m.PhaseInstruction() != phaseInstructions[PhaseGreeting] {
		t.Error("wrong greeting instruction")
	}
	if m.TurnTypeInstruction(TurnQuestion) != turnTypeInstructions[TurnQuestion] {
		t.Error("wrong question instruction")
	}
	if m.TurnTypeInstruction(TurnType("interpretive_dance")) != genericTurnInstruction {
		t.Error("unknown turn type should fall back to the generic instruction")
	}
}

func TestReset(t *testing.T) {
	m := NewMachine()
	m.RecordTurn("player", "hi", "", []string{"introductions"})
	m.AdvanceTo(PhaseWorking)

	m.Reset("")
	if m.Current != PhaseGreeting {
		t.Errorf("Reset(\"\") phase = %s, want greeting", m.Current)
	}
	if m.TurnCount != 0 || m.TurnsInPhase != 0 || len(m.Records) != 0 {
		t.Error("Reset did not clear counters and records")
	}
	if len(m.RecentTopics) != 0 || len(m.DiscussedTopics) != 0 {
		t.Error("Reset did not clear topics")
	}

	m.Reset(PhaseCrisis)
	if m.Current != PhaseCrisis {
		t.Errorf("Reset(crisis) phase = %s", m.Current)
	}

	m.Reset(Phase("nonsense"))
	if m.Current != PhaseGreeting {
		t.Errorf("Reset with invalid phase = %s, want greeting", m.Current)
	}
}
