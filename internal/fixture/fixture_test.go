package fixture_test

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/unbound-force/smelltest/internal/fixture"
)

// makeTree creates files (relative paths) under a fresh root.
func makeTree(t *testing.T, files ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, f := range files {
		path := filepath.Join(root, filepath.FromSlash(f))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("FROM alpine\n"), 0o644))
	}
	return root
}

func names(cats []fixture.Category) []string {
	var out []string
	for _, c := range cats {
		out = append(out, c.Name)
	}
	return out
}

func bases(fs []fixture.Fixture) []string {
	var out []string
	for _, f := range fs {
		out = append(out, filepath.Base(f.Path))
	}
	return out
}

func TestDiscover_CategoriesAndFixtures(t *testing.T) {
	root := makeTree(t,
		"no-user/Dockerfile.bad",
		"no-user/Dockerfile.clean",
		"pinned-version/Dockerfile",
		"README.md",
	)

	cats, err := fixture.Collect(root, "")
	require.NoError(t, err)
	require.Equal(t, []string{"no-user", "pinned-version"}, names(cats))

	nu := cats[0]
	assert.Equal(t, filepath.Join(root, "no-user"), nu.Dir)
	assert.Equal(t, []string{"Dockerfile.bad", "Dockerfile.clean"}, bases(nu.Fixtures))
	for _, f := range nu.Fixtures {
		assert.Equal(t, "no-user", f.Category)
		assert.True(t, filepath.IsAbs(f.Path), "path %q should be absolute", f.Path)
	}
}

func TestDiscover_ExcludesArtifactsAndHidden(t *testing.T) {
	root := makeTree(t,
		"DL3008/apt-unpinned",
		"DL3008/apt-unpinned-fixed",
		"DL3008/apt-unpinned-log.html",
		"DL3008/.swp",
		"DL3008/nested/ignored",
		".git/HEAD",
	)

	cats, err := fixture.Collect(root, "")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, []string{"apt-unpinned"}, bases(cats[0].Fixtures))
}

func TestDiscover_Filter(t *testing.T) {
	root := makeTree(t,
		"no-user/a",
		"pinned-version/b",
		"DL3008/c",
		"DL3009/d",
	)

	tests := []struct {
		filter string
		want   []string
	}{
		{"", []string{"DL3008", "DL3009", "no-user", "pinned-version"}},
		{"no-user", []string{"no-user"}},
		{"DL300", []string{"DL3008", "DL3009"}},
		{"version", []string{"pinned-version"}},
		{"DL30*", nil},
		{"missing", nil},
	}

	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			cats, err := fixture.Collect(root, tt.filter)
			require.NoError(t, err)
			got := names(cats)
			sort.Strings(got)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDiscover_EmptyCategory(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(root, "DL4000"), 0o755))

	cats, err := fixture.Collect(root, "")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Empty(t, cats[0].Fixtures)
}

func TestDiscover_MissingRoot(t *testing.T) {
	_, err := fixture.Collect(filepath.Join(t.TempDir(), "nope"), "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading fixture root")
}

func TestDiscover_StopsEarly(t *testing.T) {
	root := makeTree(t, "a/x", "b/y", "c/z")

	seen := 0
	for cat, err := range fixture.Discover(root, "") {
		require.NoError(t, err)
		seen++
		if cat.Name == "a" {
			break
		}
	}
	assert.Equal(t, 1, seen)
}

func TestDiscover_Rescans(t *testing.T) {
	root := makeTree(t, "a/x")
	seq := fixture.Discover(root, "")

	count := func() int {
		n := 0
		for cat, err := range seq {
			require.NoError(t, err)
			n += len(cat.Fixtures)
		}
		return n
	}

	assert.Equal(t, 1, count())
	require.NoError(t, os.WriteFile(filepath.Join(root, "a", "y"), nil, 0o644))
	assert.Equal(t, 2, count())
}

func TestMatch(t *testing.T) {
	assert.True(t, fixture.Match("DL3008", ""))
	assert.True(t, fixture.Match("DL3008", "3008"))
	assert.False(t, fixture.Match("DL3008", "dl3008"))
	assert.False(t, fixture.Match("DL3008", "DL3008x"))
}

func TestFixturePaths(t *testing.T) {
	f := fixture.Fixture{Path: "/t/DL3008/apt", Category: "DL3008"}
	assert.Equal(t, "/t/DL3008/apt-fixed", f.FixedPath())
	assert.Equal(t, "/t/DL3008/apt-log.html", f.LogPath())
}

// ---------------------------------------------------------------------------
// Clean
// ---------------------------------------------------------------------------

func TestClean_RemovesArtifacts(t *testing.T) {
	root := makeTree(t,
		"DL3008/apt",
		"DL3008/apt-fixed",
		"DL3008/apt-log.html",
		"DL3006/from",
		"DL3006/from-fixed",
		"deep/er/x-fixed",
	)

	removed, err := fixture.Clean(root)
	require.NoError(t, err)
	assert.Equal(t, 4, removed)

	for _, f := range []string{"DL3008/apt-fixed", "DL3008/apt-log.html", "DL3006/from-fixed", "deep/er/x-fixed"} {
		_, err := os.Stat(filepath.Join(root, f))
		assert.True(t, os.IsNotExist(err), "%s should be removed", f)
	}
	for _, f := range []string{"DL3008/apt", "DL3006/from"} {
		_, err := os.Stat(filepath.Join(root, f))
		assert.NoError(t, err, "%s should be kept", f)
	}
}

func TestClean_Idempotent(t *testing.T) {
	root := makeTree(t, "DL3008/apt", "DL3008/apt-fixed", "DL3008/apt-log.html")

	first, err := fixture.Clean(root)
	require.NoError(t, err)
	assert.Equal(t, 2, first)

	second, err := fixture.Clean(root)
	require.NoError(t, err)
	assert.Equal(t, 0, second)

	cats, err := fixture.Collect(root, "")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, []string{"apt"}, bases(cats[0].Fixtures))
}

func TestClean_SkipsHiddenDirs(t *testing.T) {
	root := makeTree(t, ".cache/x-fixed")

	removed, err := fixture.Clean(root)
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestClean_MissingRoot(t *testing.T) {
	_, err := fixture.Clean(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
}

// symlinkOrSkip creates link pointing at target, skipping the test on
// platforms that do not allow it.
func symlinkOrSkip(t *testing.T, target, link string) {
	t.Helper()
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
}

func TestClean_SymlinkedRoot(t *testing.T) {
	target := makeTree(t, "DL1/f", "DL1/f-fixed", "DL1/f-log.html")
	root := filepath.Join(t.TempDir(), "fixtures")
	symlinkOrSkip(t, target, root)

	removed, err := fixture.Clean(root)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.NoFileExists(t, filepath.Join(target, "DL1", "f-fixed"))
	assert.NoFileExists(t, filepath.Join(target, "DL1", "f-log.html"))
	assert.FileExists(t, filepath.Join(target, "DL1", "f"))

	cats, err := fixture.Collect(root, "")
	require.NoError(t, err)
	require.Len(t, cats, 1)
	assert.Equal(t, []string{"f"}, bases(cats[0].Fixtures))
}

func TestSymlinkedCategory(t *testing.T) {
	elsewhere := makeTree(t, "f", "f-fixed")
	root := makeTree(t, "DL3006/from")
	symlinkOrSkip(t, elsewhere, filepath.Join(root, "DL1"))

	cats, err := fixture.Collect(root, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"DL1", "DL3006"}, names(cats))
	assert.Equal(t, []string{"f"}, bases(cats[0].Fixtures))

	removed, err := fixture.Clean(root)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.NoFileExists(t, filepath.Join(elsewhere, "f-fixed"))
	assert.FileExists(t, filepath.Join(elsewhere, "f"))
}
