package escalation

import (
	"strings"
	"testing"
)

func TestRecordWarningClimbsLadder(t *testing.T) {
	tracker := NewTracker()

	wantLevels := []int{1, 2, 3, 4, 5}
	for i, want := range wantLevels {
		level := tracker.RecordWarning("o2_warning")
		if level.Level != want {
			t.Errorf("call %d: level = %d, want %d", i+1, level.Level, want)
		}
		if level.GiveUp != (want == 5) {
			t.Errorf("call %d: GiveUp = %v, want %v", i+1, level.GiveUp, want == 5)
		}
	}

	// Past the final rung the level stays clamped.
	for i := 0; i < 3; i++ {
		level := tracker.RecordWarning("o2_warning")
		if level.Level != 5 || !level.GiveUp {
			t.Errorf("post-ladder call: level = %d GiveUp = %v, want 5 true", level.Level, level.GiveUp)
		}
	}
	if tracker.Counts["o2_warning"] != 8 {
		t.Errorf("count = %d, want 8 (count keeps climbing past the ladder)", tracker.Counts["o2_warning"])
	}
}

func TestRecordWarningMonotonic(t *testing.T) {
	tracker := NewTracker()
	prev := 0
	for i := 0; i < 10; i++ {
		level := tracker.RecordWarning("radiation_zone")
		if level.Level < prev {
			t.Fatalf("level decreased from %d to %d on call %d", prev, level.Level, i+1)
		}
		prev = level.Level
	}
}

func TestUnknownTopicUsesGenericLadder(t *testing.T) {
	tracker := NewTracker()

	first := tracker.RecordWarning("loose_cabling")
	if first.Level != 1 || first.Tone != "neutral" {
		t.Errorf("first generic warning = %+v", first)
	}
	second := tracker.RecordWarning("loose_cabling")
	if second.Tone != "firm" {
		t.Errorf("second generic tone = %s, want firm", second.Tone)
	}
	third := tracker.RecordWarning("loose_cabling")
	if !third.GiveUp {
		t.Error("third generic warning should be the give-up rung")
	}
}

func TestPreviewDoesNotMutate(t *testing.T) {
	tracker := NewTracker()

	for i := 0; i < 5; i++ {
		level := tracker.Preview("o2_warning")
		if level.Level != 1 {
			t.Errorf("repeated preview %d: level = %d, want 1", i, level.Level)
		}
	}
	if tracker.Counts["o2_warning"] != 0 {
		t.Errorf("preview mutated count: %d", tracker.Counts["o2_warning"])
	}

	// Preview always shows what the next RecordWarning will return.
	for i := 0; i < 7; i++ {
		previewed := tracker.Preview("o2_warning")
		recorded := tracker.RecordWarning("o2_warning")
		if previewed != recorded {
			t.Errorf("call %d: preview %+v != recorded %+v", i+1, previewed, recorded)
		}
	}
}

func TestShouldWarn(t *testing.T) {
	tracker := NewTracker()

	// o2_warning has 5 rungs with GiveUp on the 5th; after 4 recorded
	// warnings the next one would be the give-up rung.
	for i := 0; i < 4; i++ {
		if !tracker.ShouldWarn("o2_warning") {
			t.Fatalf("ShouldWarn false after %d warnings, want true", i)
		}
		tracker.RecordWarning("o2_warning")
	}
	if tracker.ShouldWarn("o2_warning") {
		t.Error("ShouldWarn true after 4 warnings, want false")
	}
	tracker.RecordWarning("o2_warning")
	if tracker.ShouldWarn("o2_warning") {
		t.Error("ShouldWarn true after give-up rung reached")
	}
}

func TestRecordAndFormat(t *testing.T) {
	tracker := NewTracker()

	directive := tracker.RecordAndFormat("o2_warning", "")
	if !strings.Contains(directive, "warning #1") {
		t.Errorf("first directive missing warning number: %q", directive)
	}
	if !strings.Contains(directive, "informative") {
		t.Errorf("first directive missing tone: %q", directive)
	}
	if !strings.Contains(directive, "20%") {
		t.Errorf("first directive missing intensity: %q", directive)
	}

	directive = tracker.RecordAndFormat("o2_warning", "The O2 reserve is at 31 percent.")
	if !strings.Contains(directive, "warning #2") {
		t.Errorf("second directive missing warning number: %q", directive)
	}
	if !strings.Contains(directive, "Core message: The O2 reserve is at 31 percent.") {
		t.Errorf("second directive missing base content: %q", directive)
	}

	// Drive to the give-up rung.
	tracker.RecordAndFormat("o2_warning", "")
	tracker.RecordAndFormat("o2_warning", "")
	directive = tracker.RecordAndFormat("o2_warning", "")
	if !strings.Contains(directive, "Stop warning") {
		t.Errorf("give-up directive = %q", directive)
	}
	if !strings.Contains(directive, "5 times") {
		t.Errorf("give-up directive missing count: %q", directive)
	}
}

func TestResponseVariation(t *testing.T) {
	tracker := NewTracker()

	// Scripted lines come back in order without advancing the count.
	line, ok := tracker.ResponseVariation("o2_warning")
	if !ok || !strings.Contains(line, "forty percent") {
		t.Errorf("variation at count 0 = %q, %v", line, ok)
	}
	line2, ok := tracker.ResponseVariation("o2_warning")
	if !ok || line2 != line {
		t.Error("repeated lookup without recording should return the same line")
	}

	tracker.RecordWarning("o2_warning")
	line, ok = tracker.ResponseVariation("o2_warning")
	if !ok || !strings.Contains(line, "second time") {
		t.Errorf("variation at count 1 = %q, %v", line, ok)
	}

	// Exhaust the scripted lines.
	tracker.RecordWarning("o2_warning")
	tracker.RecordWarning("o2_warning")
	if _, ok := tracker.ResponseVariation("o2_warning"); ok {
		t.Error("variation should be absent once count passes the scripted lines")
	}

	// Topics with no scripted lines never return one.
	if _, ok := tracker.ResponseVariation("radiation_zone"); ok {
		t.Error("radiation_zone has no scripted variations")
	}
}

func TestResetAndResetTopic(t *testing.T) {
	tracker := NewTracker()
	tracker.RecordWarning("o2_warning")
	tracker.RecordWarning("o2_warning")
	tracker.RecordWarning("restricted_area")

	tracker.ResetTopic("o2_warning")
	if tracker.Counts["o2_warning"] != 0 {
		t.Error("ResetTopic did not clear o2_warning")
	}
	if tracker.Counts["restricted_area"] != 1 {
		t.Error("ResetTopic cleared an unrelated topic")
	}

	tracker.RecordWarning("o2_warning")
	tracker.Reset()
	if len(tracker.Counts) != 0 {
		t.Errorf("Reset left counts: %v", tracker.Counts)
	}
}

func TestZeroValueTrackerReads(t *testing.T) {
	// A tracker decoded from JSON may arrive with a nil map; reads must
	// not panic and writes must initialize it.
	var tracker Tracker
	if got := tracker.Preview("o2_warning"); got.Level != 1 {
		t.Errorf("zero-value preview = %+v", got)
	}
	if !tracker.ShouldWarn("o2_warning") {
		t.Error("zero-value ShouldWarn = false")
	}
	if level := tracker.RecordWarning("o2_warning"); level.Level != 1 {
		t.Errorf("zero-value record = %+v", level)
	}
}

func TestLaddersEndInGiveUp(t *testing.T) {
	for topic, ladder := range topicLadders {
		for i, level := range ladder {
			if level.Level != i+1 {
				t.Errorf("%s rung %d has level %d", topic, i, level.Level)
			}
			if level.GiveUp != (i == len(ladder)-1) {
				t.Errorf("%s rung %d GiveUp = %v", topic, i, level.GiveUp)
			}
			if level.Intensity < 0 || level.Intensity > 1 {
				t.Errorf("%s rung %d intensity %v out of range", topic, i, level.Intensity)
			}
		}
	}
	if !genericLadder[len(genericLadder)-1].GiveUp {
		t.Error("generic ladder must end in a give-up rung")
	}
}
