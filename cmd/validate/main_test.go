package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "LOG_LEVEL", "REDIS_URL", "SCENE_LINT_ROOT", "SCENE_LINT_SCENES_DIR",
		"SCENE_LINT_ITEMS", "SCENE_LINT_ENDINGS", "SCENE_LINT_AUDIO", "SCENE_LINT_PUBLIC_DIR",
		"SCENE_LINT_CONFIG", "SCENE_LINT_EXTERNAL_FLAGS", "SCENE_LINT_FORMAT",
	} {
		t.Setenv(key, "")
	}
	t.Setenv("LOG_LEVEL", "error")
}

// writeProject lays out a game in the default directory structure
func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	defaults := map[string]string{
		"app/lib/items.ts":       `export const ITEMS = {};`,
		"app/lib/endings.ts":     `export const ENDINGS = [];`,
		"app/hooks/useAudio.tsx": `const AUDIO_MANIFEST = {};`,
	}
	for rel, body := range defaults {
		if _, ok := files[rel]; !ok {
			files[rel] = body
		}
	}
	for rel, body := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
	require.NoError(t, os.MkdirAll(filepath.Join(root, "data", "scenes"), 0o755))
	return root
}

func TestExecute_MissingNavigationTarget(t *testing.T) {
	clearEnv(t)
	root := writeProject(t, map[string]string{
		"data/scenes/a.json": `{"id": "A", "navigation": [{"targetSceneId": "B"}]}`,
		"data/scenes/b.json": `{"id": "B", "navigation": [{"targetSceneId": "C"}]}`,
	})

	var stdout, stderr bytes.Buffer
	code := execute([]string{"--root", root, "--external-flag", ""}, &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Equal(t, "Errors:\n- b.json: navigation target missing scene: C\n", stdout.String())
}

func TestExecute_CleanProjectWithWarnings(t *testing.T) {
	clearEnv(t)
	root := writeProject(t, map[string]string{
		"data/scenes/study.json": `{
			"id": "study",
			"interactables": [{"id": "desk", "rect": {"x": 0, "y": 0, "width": 5, "height": 5}, "setsFlag": "found_key"}]
		}`,
		"app/lib/endings.ts": `export const ENDINGS = [{ conditions: { requiredFlags: ["found_key"] } }];`,
	})

	var stdout, stderr bytes.Buffer
	code := execute([]string{"--root", root}, &stdout, &stderr)

	assert.Equal(t, 0, code, "warnings never fail the run")
	assert.Equal(t, "Warnings:\n- flag set but never used: survived_until_dawn\n", stdout.String())
	assert.NotContains(t, stdout.String(), "found_key")
}

func TestExecute_ConfigFileAndJSON(t *testing.T) {
	clearEnv(t)
	root := writeProject(t, map[string]string{
		"content/hall.yaml": "id: hall\nambientAudio: /audio/hall.mp3\n",
		"scene-lint.yaml":   "scenesDir: content\nexternalFlags: []\nformat: json\n",
	})

	var stdout, stderr bytes.Buffer
	code := execute([]string{"--root", root}, &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())

	var decoded map[string][]string
	require.NoError(t, json.Unmarshal(stdout.Bytes(), &decoded))
	assert.Empty(t, decoded["errors"])
	assert.Equal(t, []string{"hall.yaml: raw audio path used: /audio/hall.mp3"}, decoded["warnings"])
}

func TestExecute_UsageErrors(t *testing.T) {
	clearEnv(t)
	root := writeProject(t, map[string]string{})

	var stdout, stderr bytes.Buffer
	assert.Equal(t, 2, execute([]string{"--root", root, "--format", "xml"}, &stdout, &stderr))
	assert.Equal(t, 2, execute([]string{"--root", root, "--config", filepath.Join(root, "nope.yaml")}, &stdout, &stderr))
	assert.Equal(t, 2, execute([]string{"unexpected-arg"}, &stdout, &stderr))
	assert.Empty(t, stdout.String())
}

func TestExecute_ReportCache(t *testing.T) {
	clearEnv(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	root := writeProject(t, map[string]string{
		"data/scenes/a.json": `{"id": "a", "events": [{"id": "t", "trigger": "on_timer"}]}`,
	})
	args := []string{"--root", root, "--cache", "redis://" + mr.Addr(), "--external-flag", ""}

	var first, second bytes.Buffer
	assert.Equal(t, 0, execute(args, &first, &bytes.Buffer{}))
	assert.Len(t, mr.Keys(), 1)

	assert.Equal(t, 0, execute(args, &second, &bytes.Buffer{}))
	assert.Equal(t, first.String(), second.String())
	assert.Equal(t, "Warnings:\n- a.json: on_timer event missing timerDuration: t\n", second.String())
}

func TestExecute_UnreachableCacheIsNotFatal(t *testing.T) {
	clearEnv(t)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	root := writeProject(t, map[string]string{
		"data/scenes/a.json": `{"id": "a", "navigation": [{"targetSceneId": "zz"}]}`,
	})

	var stdout bytes.Buffer
	code := execute([]string{"--root", root, "--cache", "redis://" + addr, "--external-flag", ""}, &stdout, &bytes.Buffer{})
	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "navigation target missing scene: zz")
}
