package ezark

import (
	"bytes"
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/ezark/internal/testutil"
)

func TestPack(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"proj/readme.txt": "hello",
		"proj/src/a.txt":  "abc",
	})

	m, err := Pack(context.Background(), []string{filepath.Join(dir, "proj")})
	require.NoError(t, err)

	want := Tree{
		DirNode("proj",
			FileNode("readme.txt", 0, 5),
			DirNode("src", FileNode("a.txt", 5, 8)),
		),
	}
	if diff := cmp.Diff(want, m.Index, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, uint64(8), m.Size)
	require.Len(t, m.Sources, 2)
	assert.Equal(t, filepath.Join(dir, "proj", "readme.txt"), m.Sources[0].Path)
	assert.Equal(t, uint64(5), m.Sources[0].Size)
	assert.False(t, m.Sources[0].FollowLinks)
	assert.Equal(t, filepath.Join(dir, "proj", "src", "a.txt"), m.Sources[1].Path)
}

func TestPackMultipleInputs(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"notes.txt":  "note",
		"docs/b.txt": "bb",
		"docs/a.txt": "a",
		"empty/":     "",
	})

	inputs := []string{
		filepath.Join(dir, "notes.txt"),
		filepath.Join(dir, "docs"),
		filepath.Join(dir, "empty"),
	}
	m, err := Pack(context.Background(), inputs)
	require.NoError(t, err)

	want := Tree{
		FileNode("notes.txt", 0, 4),
		DirNode("docs",
			FileNode("a.txt", 4, 5),
			FileNode("b.txt", 5, 7),
		),
		DirNode("empty"),
	}
	if diff := cmp.Diff(want, m.Index, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	assert.True(t, m.Sources[0].FollowLinks, "top-level files are opened through links")
}

func TestPackEmptyInputs(t *testing.T) {
	t.Parallel()

	m, err := Pack(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, m.Index)
	assert.Empty(t, m.Sources)
	assert.Zero(t, m.Size)
}

func TestPackOffsetsAreContiguous(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"root/a":         "1",
		"root/b/c":       "22",
		"root/b/d/e":     "",
		"root/b/d/f":     "4444",
		"root/g":         "55555",
		"root/h/i/j/k/l": "666666",
	})

	m, err := Pack(context.Background(), []string{filepath.Join(dir, "root")})
	require.NoError(t, err)

	ranges := m.Index.Ranges()
	require.Len(t, ranges, len(m.Sources))

	var next uint64
	for i, r := range ranges {
		assert.Equal(t, next, r.Start, "range %d start", i)
		assert.Equal(t, m.Sources[i].Size, r.Len(), "range %d length", i)
		next = r.End
	}
	assert.Equal(t, m.Size, next)
}

func TestPackCycleGuard(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"a/top.txt":   "top",
		"a/b/low.txt": "low",
	})
	a := filepath.Join(dir, "a")
	ab := filepath.Join(dir, "a", "b")

	tests := []struct {
		name   string
		inputs []string
		want   Tree
	}{
		{
			name:   "parent first",
			inputs: []string{a, ab},
			want: Tree{
				DirNode("a",
					DirNode("b", FileNode("low.txt", 0, 3)),
					FileNode("top.txt", 3, 6),
				),
				DirNode("b"),
			},
		},
		{
			name:   "child first",
			inputs: []string{ab, a},
			want: Tree{
				DirNode("b", FileNode("low.txt", 0, 3)),
				DirNode("a",
					DirNode("b"),
					FileNode("top.txt", 3, 6),
				),
			},
		},
		{
			name:   "same directory twice",
			inputs: []string{a, a},
			want: Tree{
				DirNode("a",
					DirNode("b", FileNode("low.txt", 0, 3)),
					FileNode("top.txt", 3, 6),
				),
				DirNode("a"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			m, err := Pack(context.Background(), tt.inputs)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, m.Index, cmpopts.EquateEmpty()); diff != "" {
				t.Errorf("index mismatch (-want +got):\n%s", diff)
			}
			assert.Equal(t, uint64(6), m.Size, "each file is stored once")
		})
	}
}

func TestPackSkipsNestedSymlinks(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"root/real.txt":   "real",
		"root/sub/x.txt":  "x",
		"outside/big.txt": "not archived",
	})
	root := filepath.Join(dir, "root")
	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	require.NoError(t, os.Symlink(filepath.Join(dir, "outside"), filepath.Join(root, "linkdir")))

	m, err := Pack(context.Background(), []string{root})
	require.NoError(t, err)

	want := Tree{
		DirNode("root",
			FileNode("real.txt", 0, 4),
			DirNode("sub", FileNode("x.txt", 4, 5)),
		),
	}
	if diff := cmp.Diff(want, m.Index, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestPackFollowsTopLevelSymlink(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"target/f.txt": "data",
		"file.txt":     "12345",
	})
	dirLink := filepath.Join(dir, "dirlink")
	if err := os.Symlink(filepath.Join(dir, "target"), dirLink); err != nil {
		t.Skipf("symlinks not supported: %v", err)
	}
	fileLink := filepath.Join(dir, "filelink")
	require.NoError(t, os.Symlink(filepath.Join(dir, "file.txt"), fileLink))

	m, err := Pack(context.Background(), []string{dirLink, fileLink})
	require.NoError(t, err)

	want := Tree{
		DirNode("dirlink", FileNode("f.txt", 0, 4)),
		FileNode("filelink", 4, 9),
	}
	if diff := cmp.Diff(want, m.Index, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestPackMissingInput(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"ok.txt": "ok"})
	missing := filepath.Join(dir, "nope")

	_, err := Pack(context.Background(), []string{filepath.Join(dir, "ok.txt"), missing})
	require.ErrorIs(t, err, ErrMissingInput)

	var pe *fs.PathError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, missing, pe.Path)
	assert.Equal(t, "pack", pe.Op)
}

func TestPackInvalidInput(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" {
		t.Skip("filesystem root differs on windows")
	}

	_, err := Pack(context.Background(), []string{"/"})
	require.ErrorIs(t, err, ErrInvalidInput)
}

func TestPackExclude(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"root/keep.txt": "keep",
		"root/skip.txt": "skip",
		"root/skipdir/": "",
	})
	root := filepath.Join(dir, "root")

	m, err := Pack(context.Background(), []string{root},
		WithExclude(filepath.Join(root, "skip.txt"), filepath.Join(root, "skipdir")),
	)
	require.NoError(t, err)

	want := Tree{DirNode("root", FileNode("keep.txt", 0, 4))}
	if diff := cmp.Diff(want, m.Index, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
}

func TestPackUnreadableEntriesDegrade(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits are not enforced")
	}

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"root/secret.txt": "secret",
		"root/locked/x":   "x",
		"root/open.txt":   "open",
	})
	root := filepath.Join(dir, "root")
	require.NoError(t, os.Chmod(filepath.Join(root, "secret.txt"), 0))
	require.NoError(t, os.Chmod(filepath.Join(root, "locked"), 0))
	t.Cleanup(func() {
		_ = os.Chmod(filepath.Join(root, "locked"), 0o755)
	})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	m, err := Pack(context.Background(), []string{root}, WithLogger(logger))
	require.NoError(t, err)

	want := Tree{
		DirNode("root",
			DirNode("locked"),
			FileNode("open.txt", 0, 4),
			FileNode("secret.txt", 4, 4),
		),
	}
	if diff := cmp.Diff(want, m.Index, cmpopts.EquateEmpty()); diff != "" {
		t.Errorf("index mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, logs.String(), "cannot read file")
	assert.Contains(t, logs.String(), "cannot list directory")
}

func TestPackLogsMapping(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"root/f.txt": "f"})

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	_, err := Pack(context.Background(), []string{filepath.Join(dir, "root")}, WithLogger(logger))
	require.NoError(t, err)

	assert.Contains(t, logs.String(), `msg="mapping directory"`)
	assert.Contains(t, logs.String(), `msg="mapping file"`)
}

func TestPackProgress(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{
		"root/a": "aa",
		"root/b": "bbb",
	})

	var events []ProgressEvent
	_, err := Pack(context.Background(), []string{filepath.Join(dir, "root")},
		WithProgress(func(ev ProgressEvent) { events = append(events, ev) }),
	)
	require.NoError(t, err)

	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, StageMapping, ev.Stage)
	}
	last := events[len(events)-1]
	assert.Equal(t, uint64(5), last.BytesDone)
	assert.Equal(t, 2, last.FilesDone)
}

func TestPackCanceled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	testutil.WriteTree(t, dir, map[string]string{"root/a": "a"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Pack(ctx, []string{filepath.Join(dir, "root")})
	require.ErrorIs(t, err, context.Canceled)
}

func TestInputLabel(t *testing.T) {
	t.Parallel()

	wd, err := os.Getwd()
	require.NoError(t, err)
	dir := t.TempDir()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: filepath.Join(dir, "proj"), want: "proj"},
		{name: "trailing separator", input: filepath.Join(dir, "proj") + string(filepath.Separator), want: "proj"},
		{name: "parent reference", input: filepath.Join(dir, "proj", ".."), want: filepath.Base(dir)},
		{name: "current directory", input: ".", want: filepath.Base(wd)},
		{name: "relative", input: filepath.Join("x", "y.txt"), want: "y.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := inputLabel(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
