package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jwebster45206/dialogue-engine/pkg/scene"
)

// Scene operations (filesystem-backed)

func (r *RedisStorage) ListScenes(ctx context.Context) (map[string]string, error) {
	scenes := make(map[string]string)

	err := filepath.WalkDir(r.sceneDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || filepath.Ext(path) != ".json" {
			return nil
		}

		file, err := os.ReadFile(path)
		if err != nil {
			r.logger.Warn("Failed to read scene file", "path", path, "error", err)
			return nil
		}

		var s scene.Scene
		if err := json.Unmarshal(file, &s); err != nil {
			r.logger.Warn("Failed to unmarshal scene file", "path", path, "error", err)
			return nil
		}

		filename := filepath.Base(path)
		scenes[s.Name] = filename
		return nil
	})

	if err != nil {
		r.logger.Error("Failed to walk scenes directory", "error", err)
		return nil, fmt.Errorf("failed to list scenes: %w", err)
	}

	return scenes, nil
}

func (r *RedisStorage) GetScene(ctx context.Context, filename string) (*scene.Scene, error) {
	path := filepath.Join(r.sceneDir, filename)

	file, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("scene not found: %s", filename)
		}
		return nil, fmt.Errorf("failed to read scene file: %w", err)
	}

	var s scene.Scene
	if err := json.Unmarshal(file, &s); err != nil {
		return nil, fmt.Errorf("failed to unmarshal scene: %w", err)
	}

	// Filename overrides any value in the JSON
	s.FileName = filename

	return &s, nil
}
