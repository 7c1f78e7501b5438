package runner

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/dialogue-engine/pkg/narrative"
	"github.com/jwebster45206/dialogue-engine/pkg/session"
)

type ErrorHandlingMode string

const ErrorHandlingExit ErrorHandlingMode = "exit"
const ErrorHandlingContinue ErrorHandlingMode = "continue"

// Runner executes integration tests against a running dialogue-engine API
type Runner struct {
	BaseURL           string
	Client            *http.Client
	Timeout           time.Duration
	Logger            func(format string, args ...interface{})
	ErrorHandlingMode ErrorHandlingMode
	SceneOverride     string // If set, overrides the scene for all test cases
}

// NewRunner creates a new test runner
func NewRunner(baseURL string) *Runner {
	return &Runner{
		BaseURL:           strings.TrimSuffix(baseURL, "/"),
		Client:            &http.Client{Timeout: 60 * time.Second},
		Timeout:           30 * time.Second,
		ErrorHandlingMode: ErrorHandlingContinue,
		Logger:            func(format string, args ...interface{}) {},
	}
}

// LoadTestSuite loads a test suite from a JSON file
func LoadTestSuite(filename string) (TestSuite, error) {
	content, err := os.ReadFile(filename)
	if err != nil {
		return TestSuite{}, fmt.Errorf("failed to read test file %s: %w", filename, err)
	}

	var suite TestSuite
	if err := json.Unmarshal(content, &suite); err != nil {
		return TestSuite{}, fmt.Errorf("failed to parse JSON in %s: %w", filename, err)
	}

	return suite, nil
}

// LoadTestSuiteWithExpansion loads a test suite and expands it if it's a sequence
// Returns a list of actual test suites (expanded from the sequence if needed)
func LoadTestSuiteWithExpansion(filename string, casesDir string) ([]TestJob, error) {
	suite, err := LoadTestSuite(filename)
	if err != nil {
		return nil, err
	}

	// If this is not a sequence, return it as-is
	if !suite.IsSequence() {
		return []TestJob{{
			Name:     suite.Name,
			Suite:    suite,
			CaseFile: filename,
		}}, nil
	}

	// This is a sequence - load all referenced cases
	var jobs []TestJob
	for _, caseFile := range suite.Cases {
		casePath := filepath.Join(casesDir, caseFile)

		// Recursively load (in case a sequence references another sequence)
		subJobs, err := LoadTestSuiteWithExpansion(casePath, casesDir)
		if err != nil {
			return nil, fmt.Errorf("failed to load case '%s' referenced by sequence '%s': %w", caseFile, suite.Name, err)
		}

		jobs = append(jobs, subJobs...)
	}

	return jobs, nil
}

// RunSuite executes a complete test suite
func (r *Runner) RunSuite(ctx context.Context, suite TestSuite) (TestRunResult, error) {
	start := time.Now()
	result := TestRunResult{
		Job: TestJob{
			Name:  suite.Name,
			Suite: suite,
		},
		Results: make([]TestResult, 0, len(suite.Steps)),
	}

	sceneFile := suite.Scene
	if r.SceneOverride != "" {
		sceneFile = r.SceneOverride
	}

	sessionID, err := r.createSession(ctx, sceneFile, suite.PlayerName)
	if err != nil {
		result.Error = fmt.Errorf("failed to create session: %w", err)
		result.Duration = time.Since(start)
		return result, result.Error
	}
	result.Session = sessionID

	// Execute each test step
	for i, step := range suite.Steps {
		r.Logger("    [%d/%d] Running step: %s", i+1, len(suite.Steps), step.Name)
		stepResult, newSessionID := r.runStep(ctx, sessionID, step, sceneFile, suite.PlayerName)
		result.Results = append(result.Results, stepResult)
		sessionID = newSessionID
		result.Session = sessionID

		if stepResult.Error != nil {
			r.Logger("    [%d/%d] ✗ %s: %v", i+1, len(suite.Steps), step.Name, stepResult.Error)
			if result.Error == nil {
				result.Error = fmt.Errorf("step %d (%s) failed: %w", i, step.Name, stepResult.Error)
			}
			// Break only if error handling mode is "exit"
			if r.ErrorHandlingMode == ErrorHandlingExit {
				break
			}
			continue
		}

		r.Logger("    [%d/%d] ✓ %s (%v)", i+1, len(suite.Steps), step.Name, stepResult.Duration)
	}

	result.Duration = time.Since(start)
	return result, result.Error
}

// createSession creates a fresh session for the given scene
func (r *Runner) createSession(ctx context.Context, sceneFile string, playerName string) (uuid.UUID, error) {
	createReq := struct {
		Scene      string `json:"scene"`
		PlayerName string `json:"player_name,omitempty"`
	}{
		Scene:      sceneFile,
		PlayerName: playerName,
	}

	createBody, err := json.Marshal(createReq)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to marshal create request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", r.BaseURL+"/v1/sessions", bytes.NewBuffer(createBody))
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create POST request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to create session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return uuid.UUID{}, fmt.Errorf("create session returned %d: %s", resp.StatusCode, string(body))
	}

	var sess session.Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return uuid.UUID{}, fmt.Errorf("failed to decode created session: %w", err)
	}

	return sess.ID, nil
}

// runStep executes a single test step and checks expectations.
// The returned session ID replaces the current one (RESET_SESSION steps
// start a fresh session).
// Will retry once on timeout errors without backoff.
func (r *Runner) runStep(ctx context.Context, sessionID uuid.UUID, step TestStep, sceneFile string, playerName string) (TestResult, uuid.UUID) {
	// Try once, then retry on timeout
	for attempt := 1; attempt <= 2; attempt++ {
		result, newSessionID := r.executeStep(ctx, sessionID, step, sceneFile, playerName)

		// If successful or not a timeout, return immediately
		if result.Success || result.Error == nil {
			return result, newSessionID
		}

		isTimeout := strings.Contains(result.Error.Error(), "timeout waiting for turn result")

		// If it's a timeout and this is the first attempt, retry
		if isTimeout && attempt == 1 {
			r.Logger("    Timeout detected, retrying step: %s", step.Name)
			continue
		}

		return result, newSessionID
	}

	// Should never reach here, but return empty result just in case
	return TestResult{StepName: step.Name, Error: fmt.Errorf("unexpected error in retry logic")}, sessionID
}

// executeStep performs the actual step execution
func (r *Runner) executeStep(ctx context.Context, sessionID uuid.UUID, step TestStep, sceneFile string, playerName string) (TestResult, uuid.UUID) {
	start := time.Now()
	result := TestResult{
		StepName: step.Name,
	}

	// Control steps manage the session instead of sending a turn.
	switch {
	case step.UserPrompt == ResetSessionPrompt:
		newID, err := r.createSession(ctx, sceneFile, playerName)
		if err != nil {
			result.Error = fmt.Errorf("failed to reset session: %w", err)
			result.Duration = time.Since(start)
			return result, sessionID
		}
		result.Success = true
		result.IsControl = true
		result.ResponseText = "[SESSION RESET]"
		result.Duration = time.Since(start)
		return result, newID

	case step.UserPrompt == EndSessionPrompt:
		if err := r.endSession(ctx, sessionID); err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result, sessionID
		}
		result.IsControl = true
		result.ResponseText = "[SESSION ENDED]"
		return r.finishStep(ctx, sessionID, step, result, start, "", "")

	case strings.HasPrefix(step.UserPrompt, AdvancePhasePrompt):
		target := strings.TrimPrefix(step.UserPrompt, AdvancePhasePrompt)
		target = strings.TrimPrefix(target, ":")
		if err := r.advancePhase(ctx, sessionID, target); err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result, sessionID
		}
		result.IsControl = true
		result.ResponseText = "[PHASE ADVANCED]"
		return r.finishStep(ctx, sessionID, step, result, start, "", "")
	}

	// A plain turn: synchronous APIs answer in one round trip, queued
	// APIs hand back a request id to poll.
	turnResp, requestID, err := PostTurn(ctx, r.Client, r.BaseURL, sessionID, step.UserPrompt)
	if err != nil {
		result.Error = fmt.Errorf("failed to post turn: %w", err)
		result.Duration = time.Since(start)
		return result, sessionID
	}
	if requestID != "" {
		result.RequestID = requestID
		turnResp, err = PollTurnResult(ctx, r.Client, r.BaseURL, sessionID, requestID)
		if err != nil {
			result.Error = err
			result.Duration = time.Since(start)
			return result, sessionID
		}
	}

	responseText := ""
	cue := ""
	if turnResp != nil {
		responseText = turnResp.CleanText
		if len(turnResp.Cues) > 0 {
			cue = turnResp.Cues[0].Raw
		}
	}
	result.ResponseText = responseText

	return r.finishStep(ctx, sessionID, step, result, start, responseText, cue)
}

// finishStep loads the post-step session and validates expectations.
func (r *Runner) finishStep(ctx context.Context, sessionID uuid.UUID, step TestStep, result TestResult, start time.Time, responseText string, cue string) (TestResult, uuid.UUID) {
	sess, err := GetSession(ctx, r.Client, r.BaseURL, sessionID)
	if err != nil {
		result.Error = fmt.Errorf("failed to get session after step: %w", err)
		result.Duration = time.Since(start)
		return result, sessionID
	}

	if err := r.checkExpectations(step.Expectations, sess, responseText, cue); err != nil {
		result.Error = fmt.Errorf("expectation failed: %w", err)
		result.Duration = time.Since(start)
		return result, sessionID
	}

	result.Success = true
	result.Duration = time.Since(start)
	return result, sessionID
}

// endSession ends the conversation via the session end action
func (r *Runner) endSession(ctx context.Context, sessionID uuid.UUID) error {
	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/v1/sessions/%s/end", r.BaseURL, sessionID), nil)
	if err != nil {
		return fmt.Errorf("failed to create end request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("end session returned %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// advancePhase requests a phase transition; an empty target asks the machine
// for its first allowed transition. A refused transition fails the step.
func (r *Runner) advancePhase(ctx context.Context, sessionID uuid.UUID, target string) error {
	reqBody := struct {
		Phase string `json:"phase,omitempty"`
	}{Phase: target}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal advance request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", fmt.Sprintf("%s/v1/sessions/%s/advance", r.BaseURL, sessionID), bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create advance request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to advance phase: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read advance response: %w", err)
	}

	var advResp struct {
		Advanced bool            `json:"advanced"`
		From     narrative.Phase `json:"from"`
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusConflict {
		return fmt.Errorf("advance returned %d: %s", resp.StatusCode, string(body))
	}
	if err := json.Unmarshal(body, &advResp); err != nil {
		return fmt.Errorf("failed to parse advance response: %w", err)
	}
	if !advResp.Advanced {
		return fmt.Errorf("phase did not advance from %s (target %q)", advResp.From, target)
	}
	return nil
}

// checkExpectations validates the test expectations against the session state
// and the NPC response
func (r *Runner) checkExpectations(exp Expectations, sess *session.Session, responseText string, cue string) error {
	// Phase check
	if exp.Phase != nil {
		if sess.Narrative == nil || string(sess.Narrative.Current) != *exp.Phase {
			current := ""
			if sess.Narrative != nil {
				current = string(sess.Narrative.Current)
			}
			return fmt.Errorf("expected phase %s, got %s", *exp.Phase, current)
		}
	}

	if exp.TurnCount != nil {
		if sess.Narrative == nil || sess.Narrative.TurnCount != *exp.TurnCount {
			return fmt.Errorf("expected turn_count %d, got %d", *exp.TurnCount, sess.Narrative.TurnCount)
		}
	}

	if exp.TurnsInPhase != nil {
		if sess.Narrative == nil || sess.Narrative.TurnsInPhase != *exp.TurnsInPhase {
			return fmt.Errorf("expected turns_in_phase %d, got %d", *exp.TurnsInPhase, sess.Narrative.TurnsInPhase)
		}
	}

	if exp.Ended != nil {
		if sess.Ended != *exp.Ended {
			return fmt.Errorf("expected ended to be %t, got %t", *exp.Ended, sess.Ended)
		}
	}

	// Key fact checks: each expected string must appear as a substring of
	// some recorded fact (case insensitive)
	if len(exp.KeyFacts) > 0 {
		var facts []string
		if sess.Dialogue != nil {
			facts = sess.Dialogue.KeyFacts
		}
		for _, expected := range exp.KeyFacts {
			found := false
			for _, fact := range facts {
				if strings.Contains(strings.ToLower(fact), strings.ToLower(expected)) {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("expected a key fact containing '%s'. Actual facts: %v", expected, facts)
			}
		}
	}

	// Topic checks
	if len(exp.Topics) > 0 {
		discussed := make(map[string]bool)
		if sess.Narrative != nil {
			for _, t := range sess.Narrative.DiscussedTopics {
				discussed[t] = true
			}
		}
		for _, topic := range exp.Topics {
			if !discussed[topic] {
				return fmt.Errorf("expected topic '%s' to have been discussed", topic)
			}
		}
	}

	// Escalation warning counts
	if len(exp.WarningCounts) > 0 {
		for topic, expectedCount := range exp.WarningCounts {
			actual := 0
			if sess.Escalation != nil {
				actual = sess.Escalation.Counts[topic]
			}
			if actual != expectedCount {
				return fmt.Errorf("expected %d warnings for %s, got %d", expectedCount, topic, actual)
			}
		}
	}

	// Response content checks
	if len(exp.ResponseContains) > 0 {
		lowerResponse := strings.ToLower(responseText)
		for _, expectedText := range exp.ResponseContains {
			if !strings.Contains(lowerResponse, strings.ToLower(expectedText)) {
				return fmt.Errorf("expected response to contain '%s', but it didn't", expectedText)
			}
		}
	}

	if len(exp.ResponseNotContains) > 0 {
		lowerResponse := strings.ToLower(responseText)
		for _, unexpectedText := range exp.ResponseNotContains {
			if strings.Contains(lowerResponse, strings.ToLower(unexpectedText)) {
				return fmt.Errorf("expected response to NOT contain '%s', but it did", unexpectedText)
			}
		}
	}

	// Regex check
	if exp.ResponseRegex != "" {
		matched, err := regexp.MatchString(exp.ResponseRegex, responseText)
		if err != nil {
			return fmt.Errorf("invalid regex pattern: %w", err)
		}
		if !matched {
			return fmt.Errorf("response didn't match regex pattern: %s", exp.ResponseRegex)
		}
	}

	// Response length checks
	if exp.ResponseMinLength != nil {
		if len(responseText) < *exp.ResponseMinLength {
			return fmt.Errorf("expected response length >= %d, got %d", *exp.ResponseMinLength, len(responseText))
		}
	}
	if exp.ResponseMaxLength != nil {
		if len(responseText) > *exp.ResponseMaxLength {
			return fmt.Errorf("expected response length <= %d, got %d", *exp.ResponseMaxLength, len(responseText))
		}
	}

	// Cue check
	if exp.Cue != nil {
		if cue != *exp.Cue {
			return fmt.Errorf("expected first cue '%s', got '%s'", *exp.Cue, cue)
		}
	}

	return nil
}
