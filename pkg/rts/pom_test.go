package rts

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/beevik/etree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const basicPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <groupId>com.example</groupId>
  <artifactId>demo</artifactId>
  <version>1.0.0</version>
  <build>
    <plugins>
      <plugin>
        <groupId>org.apache.maven.plugins</groupId>
        <artifactId>maven-compiler-plugin</artifactId>
        <version>3.8.1</version>
      </plugin>
    </plugins>
  </build>
</project>
`

const noBuildPOM = `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <artifactId>demo</artifactId>
</project>
`

func writePOMFile(t *testing.T, dir, content string) string {
	pomPath := filepath.Join(dir, "pom.xml")
	err := os.WriteFile(pomPath, []byte(content), 0644)
	require.NoError(t, err)
	return pomPath
}

func readPluginsElement(t *testing.T, pomPath string) *etree.Element {
	doc := etree.NewDocument()
	require.NoError(t, doc.ReadFromFile(pomPath))
	plugins := buildPlugins(doc)
	require.NotNil(t, plugins)
	return plugins
}

func countPlugins(plugins *etree.Element, artifactID string) int {
	count := 0
	for _, plugin := range plugins.SelectElements("plugin") {
		artifact := plugin.SelectElement("artifactId")
		if artifact != nil && artifact.Text() == artifactID {
			count++
		}
	}
	return count
}

func TestInjectPOM_AddsSurefireAndToolPlugin(t *testing.T) {
	pomPath := writePOMFile(t, t.TempDir(), basicPOM)

	err := InjectPOM(pomPath, "demo", ToolJcgEks)
	require.NoError(t, err)

	plugins := readPluginsElement(t, pomPath)

	surefire := findPlugin(plugins, "maven-surefire-plugin")
	require.NotNil(t, surefire)
	assert.Equal(t, surefireVersion, surefire.SelectElement("version").Text())
	excludesFile := surefire.FindElement("configuration/excludesFile")
	require.NotNil(t, excludesFile)
	assert.Equal(t, "/tmp/demo_jcgeksExcludes", excludesFile.Text())

	tool := findPlugin(plugins, "jcgeks-maven-plugin")
	require.NotNil(t, tool)
	assert.Equal(t, "org.jcgeks", tool.SelectElement("groupId").Text())
	assert.Equal(t, "1.0.0", tool.SelectElement("version").Text())

	goals := tool.FindElements("executions/execution/goals/goal")
	require.Len(t, goals, 2)
	assert.Equal(t, "select", goals[0].Text())
	assert.Equal(t, "restore", goals[1].Text())
}

func TestInjectPOM_Idempotent(t *testing.T) {
	pomPath := writePOMFile(t, t.TempDir(), basicPOM)

	require.NoError(t, InjectPOM(pomPath, "demo", ToolEkstazi))
	require.NoError(t, InjectPOM(pomPath, "demo", ToolEkstazi))

	plugins := readPluginsElement(t, pomPath)
	assert.Equal(t, 1, countPlugins(plugins, "maven-surefire-plugin"))
	assert.Equal(t, 1, countPlugins(plugins, "ekstazi-maven-plugin"))

	surefire := findPlugin(plugins, "maven-surefire-plugin")
	excludesFiles := surefire.FindElements("configuration/excludesFile")
	require.Len(t, excludesFiles, 1)
	assert.Equal(t, "/tmp/demo_ekstaziExcludes", excludesFiles[0].Text())
}

func TestInjectPOM_ReusesExistingSurefire(t *testing.T) {
	pom := `<?xml version="1.0" encoding="UTF-8"?>
<project xmlns="http://maven.apache.org/POM/4.0.0">
  <modelVersion>4.0.0</modelVersion>
  <artifactId>demo</artifactId>
  <build>
    <plugins>
      <plugin>
        <groupId>org.apache.maven.plugins</groupId>
        <artifactId>maven-surefire-plugin</artifactId>
        <version>3.0.0-M5</version>
        <configuration>
          <skipAfterFailureCount>1</skipAfterFailureCount>
        </configuration>
      </plugin>
    </plugins>
  </build>
</project>
`
	pomPath := writePOMFile(t, t.TempDir(), pom)

	require.NoError(t, InjectPOM(pomPath, "demo", ToolJcgEks))

	plugins := readPluginsElement(t, pomPath)
	require.Equal(t, 1, countPlugins(plugins, "maven-surefire-plugin"))

	// The existing surefire version and configuration are kept.
	surefire := findPlugin(plugins, "maven-surefire-plugin")
	assert.Equal(t, "3.0.0-M5", surefire.SelectElement("version").Text())
	assert.NotNil(t, surefire.FindElement("configuration/skipAfterFailureCount"))
	excludesFile := surefire.FindElement("configuration/excludesFile")
	require.NotNil(t, excludesFile)
	assert.Equal(t, "/tmp/demo_jcgeksExcludes", excludesFile.Text())
}

func TestInjectPOM_OpenClover(t *testing.T) {
	pomPath := writePOMFile(t, t.TempDir(), basicPOM)

	require.NoError(t, InjectPOM(pomPath, "demo", ToolOpenClover))

	plugins := readPluginsElement(t, pomPath)

	clover := findPlugin(plugins, "clover-maven-plugin")
	require.NotNil(t, clover)
	snapshot := clover.FindElement("configuration/snapshot")
	require.NotNil(t, snapshot)
	assert.Equal(t, "${user.home}/.clover/clover.snapshot", snapshot.Text())
	assert.Nil(t, clover.FindElement("executions"))

	// OpenClover selects tests internally, no surefire excludes file is
	// configured.
	assert.Equal(t, 0, countPlugins(plugins, "maven-surefire-plugin"))
}

func TestInjectPOM_SkipsDescriptorWithoutPlugins(t *testing.T) {
	pomPath := writePOMFile(t, t.TempDir(), noBuildPOM)

	err := InjectPOM(pomPath, "demo", ToolJcgEks)
	require.NoError(t, err)

	content, err := os.ReadFile(pomPath)
	require.NoError(t, err)
	assert.Equal(t, noBuildPOM, string(content))
}

func TestInjectPOM_WithoutNamespace(t *testing.T) {
	pom := `<?xml version="1.0" encoding="UTF-8"?>
<project>
  <modelVersion>4.0.0</modelVersion>
  <artifactId>demo</artifactId>
  <build>
    <plugins>
    </plugins>
  </build>
</project>
`
	pomPath := writePOMFile(t, t.TempDir(), pom)

	require.NoError(t, InjectPOM(pomPath, "demo", ToolJcgEks))

	plugins := readPluginsElement(t, pomPath)
	assert.Equal(t, 1, countPlugins(plugins, "maven-surefire-plugin"))
	assert.Equal(t, 1, countPlugins(plugins, "jcgeks-maven-plugin"))
}

func TestAddSurefireIncludes_CreatesSurefirePlugin(t *testing.T) {
	pomPath := writePOMFile(t, t.TempDir(), basicPOM)

	err := AddSurefireIncludes(pomPath, []string{"**/SmokeTest.java"})
	require.NoError(t, err)

	plugins := readPluginsElement(t, pomPath)
	surefire := findPlugin(plugins, "maven-surefire-plugin")
	require.NotNil(t, surefire)
	assert.Equal(t, surefireVersion, surefire.SelectElement("version").Text())

	includes := surefire.FindElements("configuration/includes/include")
	require.Len(t, includes, 1)
	assert.Equal(t, "**/SmokeTest.java", includes[0].Text())
}

func TestAddSurefireExcludes_DeduplicatesPatterns(t *testing.T) {
	pomPath := writePOMFile(t, t.TempDir(), basicPOM)

	err := AddSurefireExcludes(pomPath, []string{"**/Flaky.java", "**/Slow.java"})
	require.NoError(t, err)
	err = AddSurefireExcludes(pomPath, []string{"**/Flaky.java", "**/Broken.java"})
	require.NoError(t, err)

	plugins := readPluginsElement(t, pomPath)
	surefire := findPlugin(plugins, "maven-surefire-plugin")
	excludes := surefire.FindElements("configuration/excludes/exclude")
	require.Len(t, excludes, 3)
	assert.Equal(t, "**/Flaky.java", excludes[0].Text())
	assert.Equal(t, "**/Slow.java", excludes[1].Text())
	assert.Equal(t, "**/Broken.java", excludes[2].Text())
}

func TestAddSurefirePatterns_EmptyListIsNoop(t *testing.T) {
	pomPath := writePOMFile(t, t.TempDir(), basicPOM)

	require.NoError(t, AddSurefireIncludes(pomPath, nil))

	content, err := os.ReadFile(pomPath)
	require.NoError(t, err)
	assert.Equal(t, basicPOM, string(content))
}

func TestFindPOMFiles(t *testing.T) {
	dir := t.TempDir()
	for _, sub := range []string{
		"pom.xml",
		"module/pom.xml",
		"module/target/classes/pom.xml",
		".hidden/pom.xml",
	} {
		path := filepath.Join(dir, filepath.FromSlash(sub))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(basicPOM), 0644))
	}

	pomFiles, err := FindPOMFiles(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "module", "pom.xml"),
		filepath.Join(dir, "pom.xml"),
	}, pomFiles)
}
