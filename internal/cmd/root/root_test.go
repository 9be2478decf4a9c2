package root

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCmdRoot_Subcommands(t *testing.T) {
	cmd := NewCmdRoot()

	var names []string
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	for _, want := range []string{"cook", "tokens", "uncook", "init", "config", "completion"} {
		assert.Contains(t, names, want)
	}
}

func TestNewCmdRoot_Version(t *testing.T) {
	var out bytes.Buffer
	cmd := NewCmdRoot()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--version"})

	require.NoError(t, cmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "dmd version dev (commit: "))
}

func TestNewCmdRoot_CookWithGlobalFlags(t *testing.T) {
	t.Setenv("DMD_TYPOGRAPHER", "")

	var out bytes.Buffer
	cmd := NewCmdRoot()
	cmd.SetIn(strings.NewReader("[b]bold[/b]"))
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"cook", "--config", filepath.Join(t.TempDir(), "config.yml"), "-o", "json", "--no-color"})

	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"cooked": "<p><span class=\"bbcode-b\">bold</span></p>\n"`)
}

func TestNewCmdRoot_InvalidOutput(t *testing.T) {
	cmd := NewCmdRoot()
	cmd.SetIn(strings.NewReader("hi"))
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetArgs([]string{"tokens", "--config", filepath.Join(t.TempDir(), "config.yml"), "-o", "xml"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid output format")
}
