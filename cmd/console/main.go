package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

type ConsoleConfig struct {
	APIBaseURL string
	PlayerName string
	Timeout    time.Duration
}

func main() {
	cfg := &ConsoleConfig{
		APIBaseURL: getEnv("API_BASE_URL", "http://localhost:8080"),
		PlayerName: os.Getenv("PLAYER_NAME"),
		Timeout:    60 * time.Second,
	}
	client := &http.Client{Timeout: cfg.Timeout}

	if !testConnection(client, cfg.APIBaseURL) {
		die("Could not connect to API at %s. Please ensure the API is running.\nTry: docker-compose up -d", cfg.APIBaseURL)
	}

	sceneFile, err := promptSceneChoice(client, cfg.APIBaseURL)
	if err != nil {
		die("%v", err)
	}

	sc, err := getScene(client, cfg.APIBaseURL, sceneFile)
	if err != nil {
		die("Failed to load scene: %v", err)
	}

	sess, err := createSession(client, cfg.APIBaseURL, sceneFile, cfg.PlayerName)
	if err != nil {
		die("Failed to create session: %v", err)
	}

	p := tea.NewProgram(NewConsoleUI(cfg, client, sess, sc),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithMouseAllMotion())
	if _, err := p.Run(); err != nil {
		die("Error running program: %v", err)
	}
}

// promptSceneChoice lists the scenes the API serves and reads a numeric
// selection from stdin, returning the chosen scene filename.
func promptSceneChoice(client *http.Client, baseURL string) (string, error) {
	orderedNames, sceneMap, err := listScenes(client, baseURL)
	if err != nil || len(orderedNames) == 0 {
		return "", fmt.Errorf("failed to list scenes: %v", err)
	}

	fmt.Println("Available Scenes:")
	for i, name := range orderedNames {
		fmt.Printf("  %d - %s (%s)\n", i+1, name, sceneMap[name])
	}
	fmt.Print("\nSelect a scene by number: ")

	var choice int
	if _, err := fmt.Scanf("%d", &choice); err != nil || choice < 1 || choice > len(orderedNames) {
		return "", fmt.Errorf("invalid selection")
	}
	return sceneMap[orderedNames[choice-1]], nil
}

func die(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
