package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoBlanks = "a\n: b\n\n\n    c\n"

func writeFiles(t *testing.T, files map[string]string) string {
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
	return dir
}

func runArgs(t *testing.T, stdin string, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	err = run(args, strings.NewReader(stdin), &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestRun(t *testing.T) {
	stdout, _, err := runArgs(t, "a\n: b\n")
	require.NoError(t, err)
	assert.Equal(t, "<dl>\n<dt>a</dt>\n<dd>b</dd>\n</dl>\n", stdout)

	stdout, _, err = runArgs(t, "a\n: b\n", "--events")
	require.NoError(t, err)
	assert.Contains(t, stdout, "enter defList #")
	assert.Contains(t, stdout, `enter data #`)

	_, _, err = runArgs(t, "", "--blank-policy", "never")
	assert.EqualError(t, err, `invalid blank_policy "never"`)

	_, _, err = runArgs(t, "", "--reference", "pandoc")
	assert.EqualError(t, err, `invalid reference "pandoc", want one of [goldmark blackfriday]`)

	_, _, err = runArgs(t, "", "--log-level", "loud")
	assert.EqualError(t, err, `invalid log_level "loud"`)
}

func TestRun_blankPolicy(t *testing.T) {
	stdout, _, err := runArgs(t, twoBlanks)
	require.NoError(t, err)
	assert.NotContains(t, stdout, "<pre>")

	stdout, _, err = runArgs(t, twoBlanks, "--blank-policy", "two-blanks")
	require.NoError(t, err)
	assert.Contains(t, stdout, "</dl>\n<pre><code>c\n</code></pre>\n")
}

func TestRun_config(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"scandl.yaml": "blank_policy: two-blanks\nstats: true\n",
		"in.md":       twoBlanks,
	})

	stdout, stderr, err := runArgs(t, "",
		"--config", filepath.Join(dir, "scandl.yaml"),
		filepath.Join(dir, "in.md"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "<pre><code>c\n</code></pre>")
	assert.Regexp(t, `^.*in\.md: 14 B, \d+ events over \d+ tokens, 1 term and 1 description in 1 definition list\n$`, stderr)

	t.Setenv("SCANDL_BLANK_POLICY", "blank-start")
	stdout, _, err = runArgs(t, "",
		"--config", filepath.Join(dir, "scandl.yaml"),
		filepath.Join(dir, "in.md"))
	require.NoError(t, err)
	assert.NotContains(t, stdout, "<pre>", "environment overrides the config file")

	stdout, _, err = runArgs(t, "",
		"--config", filepath.Join(dir, "scandl.yaml"),
		"--blank-policy", "two-blanks",
		filepath.Join(dir, "in.md"))
	require.NoError(t, err)
	assert.Contains(t, stdout, "<pre>", "flags override the environment")

	_, _, err = runArgs(t, "", "--config", filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
}

func TestRun_reference(t *testing.T) {
	for _, ref := range references {
		t.Run(ref, func(t *testing.T) {
			stdout, _, err := runArgs(t, "a\n: b\n", "--reference", ref)
			require.NoError(t, err)
			assert.Contains(t, stdout, "<dt>a</dt>")
			assert.Contains(t, stdout, "<dd>b</dd>")
		})
	}

	t.Setenv("SCANDL_REFERENCE", "goldmark")
	_, _, err := runArgs(t, "", "--events")
	assert.EqualError(t, err, "events may only be dumped without a reference converter")
}

func TestRun_output(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"docs/a.md":     "a\n: 1\n",
		"docs/sub/b.md": "b\n: 2\n",
		"docs/c.txt":    "c\n: 3\n",
	})
	outPath := filepath.Join(dir, "out.html")

	stdout, _, err := runArgs(t, "", "-o", outPath, filepath.Join(dir, "docs/**/*.md"))
	require.NoError(t, err)
	assert.Empty(t, stdout)

	out, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t,
		"<dl>\n<dt>a</dt>\n<dd>1</dd>\n</dl>\n"+
			"<dl>\n<dt>b</dt>\n<dd>2</dd>\n</dl>\n",
		string(out))

	_, _, err = runArgs(t, "", filepath.Join(dir, "nope/*.md"))
	assert.EqualError(t, err, `no inputs match "`+filepath.Join(dir, "nope/*.md")+`"`)
}

func TestExpandInputs(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"a.md":     "",
		"b/c.md":   "",
		"b/d/e.md": "",
	})

	names, err := expandInputs(nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"-"}, names)

	names, err = expandInputs([]string{
		filepath.Join(dir, "b/c.md"),
		filepath.Join(dir, "**/*.md"),
		"-",
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "b/c.md"), names[0], "explicit names keep their place")
	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "b/c.md"),
		filepath.Join(dir, "b/d/e.md"),
		"-",
	}, names)
}

func TestParseLogLevel(t *testing.T) {
	for _, s := range []string{"disabled", "error", "warn", "info", "debug", "TRACE"} {
		_, ok := parseLogLevel(s)
		assert.True(t, ok, "%q", s)
	}
	_, ok := parseLogLevel("verbose")
	assert.False(t, ok)
}
