package main

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"map-scraper/config"
	"map-scraper/resolver"

	"github.com/blang/semver"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestLoadMap(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "de_test.vmf", `"material" "metal/floor"`)
	writeFile(t, dir, "de_test.bsp", "bsp")

	content, name, err := loadMap(filepath.Join(dir, "de_test.vmf"))
	require.NoError(t, err)
	assert.Equal(t, "de_test", name)
	assert.Equal(t, `"material" "metal/floor"`, content)

	_, _, err = loadMap(filepath.Join(dir, "de_test.bsp"))
	assert.Error(t, err)

	_, _, err = loadMap(filepath.Join(dir, "missing.VMF"))
	assert.Error(t, err)
}

func TestCheckOutputSafe(t *testing.T) {
	root := t.TempDir()
	game := filepath.Join(root, "hl2")

	assert.NoError(t, checkOutputSafe(filepath.Join(root, "out"), game))
	assert.NoError(t, checkOutputSafe(filepath.Join(root, "hl2_out"), game))
	assert.NoError(t, checkOutputSafe(filepath.Join(root, "..hl2"), game))
	assert.Error(t, checkOutputSafe(game, game))
	assert.Error(t, checkOutputSafe(root, game))

	// 游戏目录内部的任何位置都不能作为输出目录
	assert.Error(t, checkOutputSafe(filepath.Join(game, "out"), game))
	assert.Error(t, checkOutputSafe(filepath.Join(game, "materials"), game))
}

func TestResetOutput(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	writeFile(t, dir, "materials/old.vmt", "old")

	require.NoError(t, resetOutput(dir, false))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries)

	fresh := filepath.Join(t.TempDir(), "fresh")
	require.NoError(t, resetOutput(fresh, false))
	assert.True(t, exists(fresh))
}

func TestResolveGameDir(t *testing.T) {
	store := &config.Store{Path: filepath.Join(t.TempDir(), "config.json")}

	_, err := resolveGameDir(store, "")
	assert.Error(t, err)

	game, err := resolveGameDir(store, "/games/hl2")
	require.NoError(t, err)
	assert.Equal(t, "/games/hl2", game)

	// 第二次不传参数时使用记住的目录
	game, err = resolveGameDir(store, "")
	require.NoError(t, err)
	assert.Equal(t, "/games/hl2", game)
}

func TestCheckUpdate(t *testing.T) {
	original := latestRelease
	defer func() { latestRelease = original }()

	latestRelease = func(repo string) (semver.Version, string, bool, error) {
		assert.Equal(t, GithubRepo, repo)
		return semver.MustParse("1.2.0"), "https://example.com/release", true, nil
	}
	info := CheckUpdate()
	assert.True(t, info.HasUpdate)
	assert.Equal(t, "1.2.0", info.LatestVer)
	assert.Equal(t, "https://example.com/release", info.URL)

	latestRelease = func(string) (semver.Version, string, bool, error) {
		return semver.Version{}, "", false, nil
	}
	info = CheckUpdate()
	assert.False(t, info.HasUpdate)
	assert.NotEmpty(t, info.Error)

	latestRelease = func(string) (semver.Version, string, bool, error) {
		return semver.Version{}, "", false, errors.New("rate limited")
	}
	info = CheckUpdate()
	assert.Equal(t, "rate limited", info.Error)
}

func TestPrintSummary(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &Summary{
		MapName:   "testmap",
		OutputDir: "/tmp/testmap",
		Phases: []resolver.PhaseReport{
			{Phase: "sounds", References: 3, Extracted: 2, Copied: 2},
			{Phase: "materials", References: 12, Extracted: 9, Copied: 30},
		},
		Textures:  18,
		PackError: "bspzip not found",
	})

	out := buf.String()
	// 标题数字只算主文件复制成功的引用
	assert.Contains(t, out, "2 sounds have been extracted")
	assert.Contains(t, out, "9 materials have been extracted")
	assert.NotContains(t, out, "12 materials")
	assert.Contains(t, out, "(30 files copied)")
	assert.Contains(t, out, "distinct textures referenced")
	assert.Contains(t, out, "bspzip not found")
	assert.Contains(t, out, "/tmp/testmap")
	assert.NotContains(t, out, "have been packed")
}

func TestAppRun(t *testing.T) {
	root := t.TempDir()
	game := filepath.Join(root, "hl2")

	writeFile(t, game, "materials/metal/floor.vmt", `"LightmappedGeneric"
{
	"$basetexture" "metal/floor"
}`)
	writeFile(t, game, "materials/metal/floor.vtf", "vtf")
	writeFile(t, game, "sound/ambient/wind.wav", "wind")
	writeFile(t, game, "maps/testmap.nav", "nav")

	mapFile := filepath.Join(root, "src", "testmap.vmf")
	writeFile(t, filepath.Dir(mapFile), "testmap.vmf", `world
{
	"classname" "worldspawn"
}
entity
{
	"classname" "ambient_generic"
	"message" "ambient/wind.wav"
}
side
{
	"material" "metal/floor"
}`)

	out := filepath.Join(root, "out")
	writeFile(t, out, "stale.txt", "stale")

	app := NewApp(context.Background(), Options{
		MapFile:   mapFile,
		GameDir:   game,
		OutputDir: out,
		Sounds:    true,
		Materials: true,
		Models:    true,
		Publish:   true,
		Offline:   true,
		Workers:   2,
	}, zerolog.Nop())
	defer app.Close()

	summary, err := app.Run()
	require.NoError(t, err)

	assert.Equal(t, "testmap", summary.MapName)
	require.Len(t, summary.Phases, 4)
	assert.Equal(t, "sounds", summary.Phases[0].Phase)
	assert.Equal(t, "publish", summary.Phases[3].Phase)
	assert.Equal(t, 1, summary.Textures)
	assert.Equal(t, 1, summary.Phases[1].Extracted)

	assert.False(t, exists(filepath.Join(out, "stale.txt")))
	assert.True(t, exists(filepath.Join(out, "materials", "metal", "floor.vmt")))
	assert.True(t, exists(filepath.Join(out, "materials", "metal", "floor.vtf")))
	assert.True(t, exists(filepath.Join(out, "sound", "ambient", "wind.wav")))
	assert.True(t, exists(filepath.Join(out, "maps", "testmap.nav")))
}

func TestAppRunSkipsPhases(t *testing.T) {
	root := t.TempDir()
	game := filepath.Join(root, "hl2")
	writeFile(t, game, "materials/metal/floor.vmt", `$basetexture "metal/floor"`)
	writeFile(t, game, "sound/ambient/wind.wav", "wind")

	mapFile := filepath.Join(root, "testmap.vmf")
	writeFile(t, root, "testmap.vmf", `"message" "ambient/wind.wav"
"material" "metal/floor"`)

	out := filepath.Join(root, "out")
	app := NewApp(context.Background(), Options{
		MapFile:   mapFile,
		GameDir:   game,
		OutputDir: out,
		Sounds:    true,
		Offline:   true,
	}, zerolog.Nop())
	defer app.Close()

	summary, err := app.Run()
	require.NoError(t, err)

	require.Len(t, summary.Phases, 1)
	assert.True(t, exists(filepath.Join(out, "sound", "ambient", "wind.wav")))
	assert.False(t, exists(filepath.Join(out, "materials")))
}

func TestAppRunRefusesGameDirAsOutput(t *testing.T) {
	root := t.TempDir()
	game := filepath.Join(root, "hl2")
	writeFile(t, game, "materials/metal/floor.vmt", "x")
	writeFile(t, root, "testmap.vmf", "")

	app := NewApp(context.Background(), Options{
		MapFile:   filepath.Join(root, "testmap.vmf"),
		GameDir:   game,
		OutputDir: root,
		Offline:   true,
	}, zerolog.Nop())
	defer app.Close()

	_, err := app.Run()
	assert.Error(t, err)
	assert.True(t, exists(filepath.Join(game, "materials", "metal", "floor.vmt")))
}

func TestAppRunRefusesOutputInsideGameDir(t *testing.T) {
	root := t.TempDir()
	game := filepath.Join(root, "hl2")
	writeFile(t, game, "materials/metal/floor.vmt", `$basetexture "metal/floor"`)
	writeFile(t, root, "testmap.vmf", `"material" "metal/floor"`)

	app := NewApp(context.Background(), Options{
		MapFile:   filepath.Join(root, "testmap.vmf"),
		GameDir:   game,
		OutputDir: filepath.Join(game, "materials"),
		Materials: true,
		Offline:   true,
	}, zerolog.Nop())
	defer app.Close()

	_, err := app.Run()
	assert.Error(t, err)
	assert.True(t, exists(filepath.Join(game, "materials", "metal", "floor.vmt")))
}

func TestRunOfflineSkipsUpdateCheck(t *testing.T) {
	root := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(root, "config"))
	t.Setenv("HOME", root)
	t.Setenv("AppData", filepath.Join(root, "config"))

	original := latestRelease
	defer func() { latestRelease = original }()
	latestRelease = func(string) (semver.Version, string, bool, error) {
		t.Error("version check must not run in offline mode")
		return semver.Version{}, "", false, nil
	}

	game := filepath.Join(root, "hl2")
	writeFile(t, game, "materials/metal/floor.vmt", `$basetexture "metal/floor"`)
	writeFile(t, root, "testmap.vmf", `"material" "metal/floor"`)

	saved := CLI
	defer func() { CLI = saved }()
	CLI.Map = filepath.Join(root, "testmap.vmf")
	CLI.Game = game
	CLI.Output = filepath.Join(root, "out")
	CLI.Materials = true
	CLI.Offline = true
	CLI.NoPack = true

	require.NoError(t, run(context.Background()))
	assert.True(t, exists(filepath.Join(root, "out", "materials", "metal", "floor.vmt")))
}
