package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/dec-go/internal/ingestion"
	"github.com/Benny93/dec-go/internal/storage"
)

// testWorkspace holds a config file pointing at folders under one temp dir.
type testWorkspace struct {
	root      string
	config    string
	inputDir  string
	outputDir string
	storeDir  string
}

func newTestWorkspace(t *testing.T) *testWorkspace {
	t.Helper()

	root := t.TempDir()
	ws := &testWorkspace{
		root:      root,
		config:    filepath.Join(root, "dec.yaml"),
		inputDir:  filepath.Join(root, "intervals"),
		outputDir: filepath.Join(root, "dec_vals"),
		storeDir:  filepath.Join(root, "store"),
	}
	require.NoError(t, os.MkdirAll(ws.inputDir, 0o755))

	yaml := fmt.Sprintf(`window: 3
top_k: 3
input_dir: %s
output_dir: %s
store_path: %s
log_level: error
centrality:
  max_iterations: 1000
`, ws.inputDir, ws.outputDir, ws.storeDir)
	require.NoError(t, os.WriteFile(ws.config, []byte(yaml), 0o644))
	return ws
}

func (ws *testWorkspace) globals() *Globals {
	return &Globals{Config: ws.config, Quiet: true}
}

func (ws *testWorkspace) writeInterval(t *testing.T, n int, texts ...string) {
	t.Helper()

	f, err := os.Create(filepath.Join(ws.inputDir, ingestion.IntervalFileName("", n)))
	require.NoError(t, err)
	defer f.Close()

	w := csv.NewWriter(f)
	for i, text := range texts {
		require.NoError(t, w.Write([]string{"2013-04-15 14:00:00-04:00", text, strconv.Itoa(i)}))
	}
	w.Flush()
	require.NoError(t, w.Error())
}

func (ws *testWorkspace) writeBoston(t *testing.T) {
	t.Helper()
	ws.writeInterval(t, 1, "boston marathon runners", "marathon finish line")
	ws.writeInterval(t, 2, "boston marathon explosion", "explosion finish line", "marathon runners")
	ws.writeInterval(t, 3, "explosion boston", "explosion marathon", "explosion runners", "explosion finish")
}

func (ws *testWorkspace) runs(t *testing.T) []*storage.RunInfo {
	t.Helper()

	store := storage.NewBadgerBackend()
	require.NoError(t, store.Initialize(ws.storeDir, true))
	defer func() { _ = store.Close() }()

	runs, err := store.ListRuns(context.Background())
	require.NoError(t, err)
	return runs
}

func TestGlobals_Load(t *testing.T) {
	ws := newTestWorkspace(t)

	t.Run("ConfigFile", func(t *testing.T) {
		cfg, err := (&Globals{Config: ws.config}).load()
		require.NoError(t, err)
		assert.Equal(t, 3, cfg.Window)
		assert.Equal(t, ws.storeDir, cfg.StorePath)
		assert.Equal(t, 1000, cfg.Centrality.MaxIterations)
	})

	t.Run("Overrides", func(t *testing.T) {
		cfg, err := (&Globals{Config: ws.config, Store: "/tmp/other", Verbose: true}).load()
		require.NoError(t, err)
		assert.Equal(t, "/tmp/other", cfg.StorePath)
		assert.Equal(t, "debug", cfg.LogLevel)
	})

	t.Run("QuietKeepsError", func(t *testing.T) {
		cfg, err := (&Globals{Config: ws.config, Quiet: true}).load()
		require.NoError(t, err)
		assert.Equal(t, "error", cfg.LogLevel)

		cfg, err = (&Globals{Config: ws.config, LogLevel: "info", Quiet: true}).load()
		require.NoError(t, err)
		assert.Equal(t, "warn", cfg.LogLevel)
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := (&Globals{Config: filepath.Join(ws.root, "missing.yaml")}).load()
		assert.Error(t, err)
	})
}

func TestRunCmd_Run(t *testing.T) {
	ws := newTestWorkspace(t)
	ws.writeBoston(t)
	g := ws.globals()

	cmd := &RunCmd{Name: "boston"}
	require.NoError(t, cmd.Run(g))

	for i := 1; i <= 3; i++ {
		_, err := os.Stat(filepath.Join(ws.outputDir, fmt.Sprintf("ecentrality%d.txt", i)))
		assert.NoError(t, err)
	}

	runs := ws.runs(t)
	require.Len(t, runs, 1)
	run := runs[0]
	assert.Equal(t, "boston", run.Name)
	assert.Equal(t, ws.inputDir, run.Source)
	assert.Equal(t, 3, run.Intervals)
	assert.Equal(t, 3, run.Window)

	t.Run("Top", func(t *testing.T) {
		assert.NoError(t, (&TopCmd{}).Run(g))
		assert.NoError(t, (&TopCmd{Interval: 2, RunID: run.ID, Limit: 1}).Run(g))
		assert.NoError(t, (&TopCmd{JSON: true}).Run(g))
	})

	t.Run("TopMissingInterval", func(t *testing.T) {
		err := (&TopCmd{Interval: 9}).Run(g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "interval 9 not found")
	})

	t.Run("TopUnknownRun", func(t *testing.T) {
		err := (&TopCmd{RunID: "nope"}).Run(g)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run nope not found")
	})

	t.Run("History", func(t *testing.T) {
		assert.NoError(t, (&HistoryCmd{Keyword: "Explosion"}).Run(g))
		assert.NoError(t, (&HistoryCmd{Keyword: "never", RunID: run.ID}).Run(g))
	})

	t.Run("HistoryEmptyKeyword", func(t *testing.T) {
		assert.Error(t, (&HistoryCmd{Keyword: "  "}).Run(g))
	})

	t.Run("Runs", func(t *testing.T) {
		assert.NoError(t, (&RunsCmd{}).Run(g))
	})

	t.Run("SecondRunIsLatest", func(t *testing.T) {
		require.NoError(t, (&RunCmd{Name: "again", NoOutput: true}).Run(g))

		runs := ws.runs(t)
		require.Len(t, runs, 2)
		assert.Equal(t, "again", runs[0].Name)
	})

	t.Run("CleanRun", func(t *testing.T) {
		require.NoError(t, (&CleanCmd{RunID: run.ID, Force: true}).Run(g))

		runs := ws.runs(t)
		require.Len(t, runs, 1)
		assert.NotEqual(t, run.ID, runs[0].ID)

		err := (&CleanCmd{RunID: run.ID, Force: true}).Run(g)
		assert.Error(t, err)
	})
}

func TestRunCmd_Errors(t *testing.T) {
	t.Run("NoFiles", func(t *testing.T) {
		ws := newTestWorkspace(t)
		err := (&RunCmd{}).Run(ws.globals())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no interval files")
	})

	t.Run("InvalidWindow", func(t *testing.T) {
		ws := newTestWorkspace(t)
		ws.writeBoston(t)
		err := (&RunCmd{Window: 1}).Run(ws.globals())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Window must be at least 2")
	})

	t.Run("MissingInputDir", func(t *testing.T) {
		ws := newTestWorkspace(t)
		err := (&RunCmd{Input: filepath.Join(ws.root, "missing")}).Run(ws.globals())
		assert.Error(t, err)
	})
}

func TestSplitCmd_Run(t *testing.T) {
	ws := newTestWorkspace(t)

	raw := filepath.Join(ws.root, "tweets.csv")
	require.NoError(t, os.WriteFile(raw, []byte(strings.Join([]string{
		`2013-04-15 14:05:00-04:00,boston marathon,1`,
		`2013-04-15 14:30:00-04:00,finish line,2`,
		`2013-04-15 15:00:00-04:00,explosion,3`,
	}, "\n")), 0o644))

	require.NoError(t, (&SplitCmd{Input: raw}).Run(ws.globals()))

	files, err := ingestion.ListIntervalFiles(ws.inputDir, "")
	require.NoError(t, err)
	assert.Len(t, files, 2)

	t.Run("QuarterHour", func(t *testing.T) {
		out := filepath.Join(ws.root, "quarters")
		require.NoError(t, (&SplitCmd{Input: raw, Output: out, Minutes: 15}).Run(ws.globals()))

		files, err := ingestion.ListIntervalFiles(out, "")
		require.NoError(t, err)
		assert.Len(t, files, 3)
	})

	t.Run("MissingInput", func(t *testing.T) {
		assert.Error(t, (&SplitCmd{Input: filepath.Join(ws.root, "missing.csv")}).Run(ws.globals()))
	})
}

func TestCleanCmd_Run(t *testing.T) {
	t.Run("CleanWithNoStore", func(t *testing.T) {
		ws := newTestWorkspace(t)
		err := (&CleanCmd{Force: true}).Run(ws.globals())
		assert.Error(t, err)
	})

	t.Run("CleanWithStore", func(t *testing.T) {
		ws := newTestWorkspace(t)
		ws.writeBoston(t)
		require.NoError(t, (&RunCmd{}).Run(ws.globals()))

		require.NoError(t, (&CleanCmd{Force: true, Outputs: true}).Run(ws.globals()))

		_, err := os.Stat(ws.storeDir)
		assert.True(t, os.IsNotExist(err))
		_, err = os.Stat(ws.outputDir)
		assert.True(t, os.IsNotExist(err))
	})
}

func TestStorageHelpers(t *testing.T) {
	t.Run("OpenStoreWithNoPath", func(t *testing.T) {
		store, err := openStore("", false)
		assert.Error(t, err)
		assert.Nil(t, store)
	})

	t.Run("OpenReadOnlyWithNoStore", func(t *testing.T) {
		store, err := openStore(filepath.Join(t.TempDir(), "missing"), true)
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "Run 'dec-go run' first")
	})

	t.Run("OpenCreatesStore", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "store")
		store, err := openStore(path, false)
		require.NoError(t, err)
		require.NoError(t, store.Close())

		store, err = openStore(path, true)
		require.NoError(t, err)
		assert.NoError(t, store.Close())
	})

	t.Run("ResolveRun", func(t *testing.T) {
		ctx := context.Background()
		store := storage.NewMemoryBackend()
		require.NoError(t, store.Initialize("", false))

		_, err := resolveRun(ctx, store, "")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no runs stored yet")

		require.NoError(t, store.SaveRun(ctx, &storage.RunInfo{ID: "r1"}))

		run, err := resolveRun(ctx, store, "latest")
		require.NoError(t, err)
		assert.Equal(t, "r1", run.ID)

		run, err = resolveRun(ctx, store, "r1")
		require.NoError(t, err)
		assert.Equal(t, "r1", run.ID)

		_, err = resolveRun(ctx, store, "r2")
		assert.Error(t, err)
	})
}

func TestCLI_Execute(t *testing.T) {
	t.Run("RunsWithoutStore", func(t *testing.T) {
		ws := newTestWorkspace(t)
		err := NewCLI().Execute([]string{"--config", ws.config, "runs"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no results found")
	})

	t.Run("RunThenTop", func(t *testing.T) {
		ws := newTestWorkspace(t)
		ws.writeBoston(t)

		require.NoError(t, NewCLI().Execute([]string{"--config", ws.config, "-q", "run", "--name", "cli"}))
		require.NoError(t, NewCLI().Execute([]string{"--config", ws.config, "-q", "top", "3", "-n", "2"}))

		runs := ws.runs(t)
		require.Len(t, runs, 1)
		assert.Equal(t, "cli", runs[0].Name)

		require.NoError(t, NewCLI().Execute([]string{"--config", ws.config, "-q", "top", "--run", runs[0].ID}))
		require.NoError(t, NewCLI().Execute([]string{"--config", ws.config, "-q", "history", "boston", "-r", "latest"}))

		err := NewCLI().Execute([]string{"--config", ws.config, "-q", "top", "--run", "missing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "run missing not found")
	})

	t.Run("UnknownCommand", func(t *testing.T) {
		assert.Error(t, NewCLI().Execute([]string{"bogus"}))
	})
}
