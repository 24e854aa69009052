package loader

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jwebster45206/scene-lint/pkg/content"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLoader() *Loader {
	return New(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError})))
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScenes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a_hall.json", `{"id": "hall"}`)
	writeFile(t, dir, "b_broken.json", `{"id": "broken",`)
	writeFile(t, dir, "c_noid.json", `{"name": "No Id"}`)
	writeFile(t, dir, "d_hall_again.json", `{"id": "hall", "name": "Second"}`)
	writeFile(t, dir, "e_cellar.yaml", "id: cellar\nambientAudio: drip\n")
	writeFile(t, dir, "notes.txt", "not a scene")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "nested.json"), 0o755))

	set, errs := testLoader().LoadScenes(dir)

	require.Len(t, errs, 3)
	assert.True(t, strings.HasPrefix(errs[0], "JSON parse error: b_broken.json: "), errs[0])
	assert.Equal(t, "Invalid scene file: c_noid.json: missing id", errs[1])
	assert.Equal(t, "Duplicate scene id: hall in d_hall_again.json", errs[2])

	require.Len(t, set.Docs, 3, "duplicate documents are kept for checking")
	assert.Equal(t, "a_hall.json", set.Docs[0].Source)
	assert.Equal(t, "d_hall_again.json", set.Docs[1].Source)
	assert.Equal(t, "e_cellar.yaml", set.Docs[2].Source)

	assert.True(t, set.Has("hall"))
	assert.True(t, set.Has("cellar"))
	assert.False(t, set.Has("broken"))
	assert.Equal(t, "a_hall.json", set.ByID["hall"].Source, "first document wins the id")
	assert.Equal(t, content.StringValue("drip"), set.ByID["cellar"].Scene.AmbientAudio)
}

func TestLoadScenes_YAMLParseError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bad.yml", "id: [unclosed\n")

	set, errs := testLoader().LoadScenes(dir)
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "YAML parse error: bad.yml: "), errs[0])
	assert.Empty(t, set.Docs)
}

func TestLoadScenes_MistypedFieldsStillLoad(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.json", `{"id": "B", "events": [{"id": "t", "trigger": "on_timer", "timerDuration": "30"}], "interactables": [{"id": "x", "rect": null}]}`)
	writeFile(t, dir, "c.yaml", "id: 7\nevents: stray\nnavigation: nowhere\n")

	set, errs := testLoader().LoadScenes(dir)
	assert.Empty(t, errs)
	assert.True(t, set.Has("B"))
	assert.True(t, set.Has("7"), "numeric ids keep their literal form")
	assert.True(t, set.ByID["B"].Scene.Interactables[0].HasRect)
}

func TestLoadScenes_UnreadableFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Symlink(filepath.Join(dir, "gone.json"), filepath.Join(dir, "dangling.json")))
	writeFile(t, dir, "hall.json", `{"id": "hall"}`)

	set, errs := testLoader().LoadScenes(dir)
	require.Len(t, errs, 1)
	assert.True(t, strings.HasPrefix(errs[0], "cannot read scene file dangling.json: "), errs[0])
	assert.NotContains(t, errs[0], "parse error")
	assert.True(t, set.Has("hall"))
}

func TestLoadScenes_MissingDirectory(t *testing.T) {
	set, errs := testLoader().LoadScenes(filepath.Join(t.TempDir(), "missing"))
	require.Len(t, errs, 1)
	assert.Contains(t, errs[0], "cannot read scene directory")
	assert.Empty(t, set.Docs)
}

func TestLoadScenes_ByteOrderMark(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "bom.json", "\ufeff"+`{"id": "bom_scene"}`)

	set, errs := testLoader().LoadScenes(dir)
	assert.Empty(t, errs)
	assert.True(t, set.Has("bom_scene"))
}

const itemsSource = `export interface ItemData {
    id: string;
    onInspectFlag?: string;
}

export const ITEMS: Record<string, ItemData> = {
    grandmother_letter: {
        id: "grandmother_letter",
        name: "Grandmother's Letter",
        content: ` + "`" + `
      "My dearest, leave now."
    ` + "`" + `,
        onInspectFlag: "read_letter"
    },
    car_keys: { name: "Keys", id: 'car_keys' },
};
`

func TestParseItems(t *testing.T) {
	items := ParseItems([]byte(itemsSource))
	assert.Equal(t, []string{"car_keys", "grandmother_letter"}, items.IDs.Sorted())
	assert.Equal(t, []string{"read_letter"}, items.InspectFlags.Sorted())
}

const endingsSource = `export const ENDINGS: Ending[] = [
    {
        id: "escape_true",
        conditions: {
            sanityRange: [40, 100],
            requiredFlags: ["found_car_keys",
                            "got_outside"],
            requiredItems: [ "car_keys" ]
        },
    },
    {
        id: "escape_broken",
        conditions: {
            requiredFlags: ['found_car_keys'],
            forbiddenFlags: ["read_forbidden_book"],
        },
    },
    {
        id: "consumed",
        conditions: { sanityRange: [0, 0], requiredFlags: [] },
    },
];
`

func TestParseEndings(t *testing.T) {
	refs := ParseEndings([]byte(endingsSource))
	assert.Equal(t, []string{"found_car_keys", "got_outside"}, refs.RequiredFlags.Sorted())
	assert.Equal(t, []string{"read_forbidden_book"}, refs.ForbiddenFlags.Sorted())
	assert.Equal(t, []string{"car_keys"}, refs.RequiredItems.Sorted())
	assert.Equal(t, []string{"found_car_keys", "got_outside", "read_forbidden_book"}, refs.Flags().Sorted())
}

const audioSource = `const AUDIO_MANIFEST: Record<string, { file: string; fallback: 'silence' | 'beep' }> = {
    // Ambient
    "entry_rain": { file: "/audio/ambient/rain_light.mp3", fallback: "noise" },
    'dripping_water': {
        fallback: "noise",
        file: '/audio/ambient/drip_loop.mp3'
    },
    "no_file": { fallback: "beep" },
};
`

func TestParseAudioManifest(t *testing.T) {
	manifest := ParseAudioManifest([]byte(audioSource))
	assert.Len(t, manifest, 2)
	assert.Equal(t, "/audio/ambient/rain_light.mp3", manifest["entry_rain"])
	assert.Equal(t, "/audio/ambient/drip_loop.mp3", manifest["dripping_water"])
	assert.False(t, manifest.Has("no_file"))
}

func TestParseAudioManifest_NestedEntryObject(t *testing.T) {
	src := `export const AUDIO_MANIFEST = {
    "storm": { file: "/audio/storm.mp3", opts: { loop: true, volume: 0.4 } },
    "door_creak": {
        opts: { loop: false },
        file: "/audio/sfx/creak.mp3",
    },
    "thunder": { file: "/audio/thunder.mp3" },
};
`
	manifest := ParseAudioManifest([]byte(src))
	assert.Equal(t, content.AudioManifest{
		"storm":      "/audio/storm.mp3",
		"door_creak": "/audio/sfx/creak.mp3",
		"thunder":    "/audio/thunder.mp3",
	}, manifest)
}

func TestLoadCatalogs_MissingFiles(t *testing.T) {
	l := testLoader()
	dir := t.TempDir()

	items, err := l.LoadItems(filepath.Join(dir, "items.ts"))
	assert.Error(t, err)
	assert.Empty(t, items.IDs)

	endings, err := l.LoadEndings(filepath.Join(dir, "endings.ts"))
	assert.Error(t, err)
	assert.Empty(t, endings.RequiredFlags)

	audio, err := l.LoadAudioManifest(filepath.Join(dir, "useAudio.tsx"))
	assert.Error(t, err)
	assert.Empty(t, audio)
}

func TestLoadCatalogs(t *testing.T) {
	l := testLoader()
	dir := t.TempDir()

	items, err := l.LoadItems(writeFile(t, dir, "items.ts", itemsSource))
	require.NoError(t, err)
	assert.True(t, items.IDs.Has("car_keys"))

	endings, err := l.LoadEndings(writeFile(t, dir, "endings.ts", endingsSource))
	require.NoError(t, err)
	assert.True(t, endings.RequiredItems.Has("car_keys"))

	audio, err := l.LoadAudioManifest(writeFile(t, dir, "useAudio.tsx", audioSource))
	require.NoError(t, err)
	assert.True(t, audio.Has("entry_rain"))
}
