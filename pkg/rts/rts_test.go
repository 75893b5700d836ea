package rts

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveTool_FlagWins(t *testing.T) {
	tool, err := ResolveTool(ToolEkstazi, ToolOpenClover, "jvm")
	require.NoError(t, err)
	assert.Equal(t, ToolEkstazi, tool)
}

func TestResolveTool_ProjectModeBeatsDefault(t *testing.T) {
	tool, err := ResolveTool("", ToolOpenClover, "jvm")
	require.NoError(t, err)
	assert.Equal(t, ToolOpenClover, tool)
}

func TestResolveTool_LanguageDefaults(t *testing.T) {
	tool, err := ResolveTool("", "", "jvm")
	require.NoError(t, err)
	assert.Equal(t, ToolJcgEks, tool)

	tool, err = ResolveTool("", "", "c")
	require.NoError(t, err)
	assert.Equal(t, ToolBinaryRTS, tool)

	tool, err = ResolveTool("", "", "c++")
	require.NoError(t, err)
	assert.Equal(t, ToolBinaryRTS, tool)

	tool, err = ResolveTool("", "", "rust")
	require.NoError(t, err)
	assert.Equal(t, ToolNone, tool)
}

func TestResolveTool_NoneIsAlwaysValid(t *testing.T) {
	tool, err := ResolveTool(ToolNone, "", "jvm")
	require.NoError(t, err)
	assert.Equal(t, ToolNone, tool)

	tool, err = ResolveTool(ToolNone, "", "rust")
	require.NoError(t, err)
	assert.Equal(t, ToolNone, tool)
}

func TestResolveTool_RejectsLanguageMismatch(t *testing.T) {
	_, err := ResolveTool(ToolBinaryRTS, "", "jvm")
	require.Error(t, err)

	_, err = ResolveTool(ToolEkstazi, "", "c")
	require.Error(t, err)

	_, err = ResolveTool("mysteryrts", "", "jvm")
	require.Error(t, err)
}

func TestToolsForLanguage(t *testing.T) {
	assert.Equal(t, []string{ToolJcgEks, ToolEkstazi, ToolOpenClover}, ToolsForLanguage("jvm"))
	assert.Equal(t, []string{ToolBinaryRTS}, ToolsForLanguage("c"))
	assert.Empty(t, ToolsForLanguage("rust"))
}

func TestIsMavenTool(t *testing.T) {
	assert.True(t, IsMavenTool(ToolJcgEks))
	assert.True(t, IsMavenTool(ToolEkstazi))
	assert.True(t, IsMavenTool(ToolOpenClover))
	assert.False(t, IsMavenTool(ToolBinaryRTS))
	assert.False(t, IsMavenTool(ToolNone))
}
