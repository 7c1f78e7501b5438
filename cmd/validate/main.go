package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/jwebster45206/dialogue-engine/pkg/escalation"
	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <scene.json> [more scenes...]\n", os.Args[0])
		os.Exit(1)
	}

	failed := false
	for _, filename := range os.Args[1:] {
		validator := &SceneValidator{}
		if err := validator.validateFile(filename); err != nil {
			fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
			failed = true
			continue
		}
		fmt.Printf("%s is valid.\n", filename)
	}
	if failed {
		os.Exit(1)
	}
}

type SceneValidator struct {
	errors   []string
	warnings []string
}

func (v *SceneValidator) validateFile(filename string) error {
	fmt.Printf("Validating %s...\n", filename)

	baseName := filepath.Base(filename)
	if !strings.HasSuffix(baseName, ".json") {
		return fmt.Errorf("scene file must have .json extension: %s", baseName)
	}

	nameWithoutExt := strings.TrimSuffix(baseName, ".json")
	if !isValidSceneFilename(nameWithoutExt) {
		return fmt.Errorf("scene filename '%s' must be lowercase snake_case (e.g., airlock_bay.json)", baseName)
	}

	data, err := os.ReadFile(filename)
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", filename, err)
	}

	v.errors = nil

	if !json.Valid(data) {
		return fmt.Errorf("file %s contains invalid JSON", filename)
	}

	// Strict decode catches misspelled fields that a plain unmarshal would
	// silently drop.
	var sc scene.Scene
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&sc); err != nil {
		return fmt.Errorf("file %s failed strict JSON unmarshaling: %w", filename, err)
	}

	v.validateScene(&sc)

	for _, w := range v.warnings {
		fmt.Printf("  warning: %s\n", w)
	}
	if len(v.errors) > 0 {
		return fmt.Errorf("validation errors in %s:\n%s", filename, strings.Join(v.errors, "\n"))
	}
	return nil
}

func (v *SceneValidator) validateScene(sc *scene.Scene) {
	if err := sc.Validate(); err != nil {
		v.addError(err.Error())
	}

	v.validateIDFormat("scene id", sc.ID)

	for _, topic := range sc.HazardTopics {
		v.validateIDFormat("hazard topic", topic)
		if !escalation.KnownTopic(topic) {
			v.addWarning(fmt.Sprintf("hazard topic '%s' has no custom escalation ladder; it will use the generic ladder (check for typos)", topic))
		}
	}

	if sc.OpeningLine == "" {
		v.addWarning("scene has no opening_line; the NPC will stay silent until the player speaks")
	}
	if sc.NPC.Voice.ID == "" {
		v.addWarning("npc voice id is empty; speech synthesis will fall back to the default voice")
	}
}

func (v *SceneValidator) validateIDFormat(fieldName, id string) {
	if id == "" {
		return
	}
	if !isValidID(id) {
		v.addError(fmt.Sprintf("%s '%s' should be lowercase snake_case", fieldName, id))
	}
}

func (v *SceneValidator) addError(msg string) {
	v.errors = append(v.errors, "  - "+msg)
}

func (v *SceneValidator) addWarning(msg string) {
	v.warnings = append(v.warnings, msg)
}

var (
	validIDRegex       = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
	validFilenameRegex = regexp.MustCompile(`^[a-z][a-z0-9_]*[a-z0-9]$|^[a-z]$`)
)

func isValidID(id string) bool {
	return validIDRegex.MatchString(id)
}

func isValidSceneFilename(name string) bool {
	// Allow 'x.' prefix for experimental scenes
	name = strings.TrimPrefix(name, "x.")
	return validFilenameRegex.MatchString(name)
}
