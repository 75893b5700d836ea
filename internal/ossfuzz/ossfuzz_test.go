package ossfuzz

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/team-atlanta/incbench/util/testutil"
)

func newTestProject(t *testing.T, name string) *Project {
	project := NewProject(t.TempDir(), name)
	require.NoError(t, os.MkdirAll(project.Dir(), 0o755))
	return project
}

func writeProjectFile(t *testing.T, project *Project, relPath, content string) {
	testutil.WriteFileTree(t, project.Dir(), map[string]string{relPath: content})
}

func TestProjectPaths(t *testing.T) {
	project := NewProject("/oss-fuzz", "zookeeper")
	assert.Equal(t, filepath.Join("/oss-fuzz", "projects", "zookeeper"), project.Dir())
	assert.Equal(t, filepath.Join(project.Dir(), "Dockerfile"), project.Dockerfile())
	assert.Equal(t, filepath.Join(project.Dir(), ".aixcc"), project.AIXCCDir())
	assert.Equal(t, filepath.Join("/oss-fuzz", "build", "out", "zookeeper"), project.OutDir())
	assert.Equal(t, filepath.Join("/oss-fuzz", "infra", "helper.py"), project.HelperScript())
}

func TestSimpleName(t *testing.T) {
	assert.Equal(t, "zookeeper", NewProject("/oss-fuzz", "zookeeper").SimpleName())
	assert.Equal(t, "fuzzy", NewProject("/oss-fuzz", "aixcc/jvm/fuzzy").SimpleName())
}

func TestValidate(t *testing.T) {
	project := newTestProject(t, "json-c")
	assert.NoError(t, project.Validate())

	missingProject := NewProject(project.OSSFuzzDir, "no-such-project")
	err := missingProject.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no-such-project")

	missingCheckout := NewProject(filepath.Join(project.OSSFuzzDir, "nonexistent"), "json-c")
	assert.Error(t, missingCheckout.Validate())
}
