package rts

import (
	"strings"

	"github.com/beevik/etree"
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/log"
)

const (
	surefireArtifactID = "maven-surefire-plugin"
	surefireVersion    = "2.22.2"
)

// OpenClover instruments code by generating inner classes next to each
// covered class (e.g. TestUtils$__CLR2_6_3...). Surefire must never pick
// those up as tests.
const openCloverExcludePattern = "**/*$__CLR*"

// excludesFilePath returns the file the selection plugins write the
// excluded tests to and which surefire is pointed at. It is unique per
// project and tool so concurrent runs don't clobber each other.
func excludesFilePath(project, tool string) string {
	return "/tmp/" + project + "_" + tool + "Excludes"
}

// InjectPOM rewrites a single Maven build descriptor so the test phase
// runs under the selection tool: surefire gets an excludesFile entry and
// the tool's plugin is appended to the build plugins. Descriptors
// without a <build><plugins> section are left alone. The operation is
// idempotent, existing elements are updated instead of duplicated.
func InjectPOM(pomPath, project, tool string) error {
	doc, err := loadPOM(pomPath)
	if err != nil {
		return err
	}
	plugins := buildPlugins(doc)
	if plugins == nil {
		log.Warnf("No <build><plugins> element found in %s, skipping", pomPath)
		return nil
	}

	// OpenClover selects tests internally and doesn't read an excludes
	// file.
	if tool != ToolOpenClover {
		surefire := findPlugin(plugins, surefireArtifactID)
		if surefire == nil {
			surefire = createPlugin(plugins, "org.apache.maven.plugins", surefireArtifactID, surefireVersion)
			log.Debugf("Created surefire plugin in %s", pomPath)
		}
		excludesFile := findOrCreate(findOrCreate(surefire, "configuration"), "excludesFile")
		excludesFile.SetText(excludesFilePath(project, tool))
	}

	info := mavenTools[tool]
	if findPlugin(plugins, info.ArtifactID) == nil {
		plugin := createPlugin(plugins, info.GroupID, info.ArtifactID, info.Version)
		if tool == ToolOpenClover {
			snapshot := plugin.CreateElement("configuration").CreateElement("snapshot")
			snapshot.SetText("${user.home}/.clover/clover.snapshot")
		} else {
			execution := plugin.CreateElement("executions").CreateElement("execution")
			execution.CreateElement("id").SetText(tool)
			goals := execution.CreateElement("goals")
			goals.CreateElement("goal").SetText("select")
			goals.CreateElement("goal").SetText("restore")
		}
		log.Debugf("Added %s plugin to %s", tool, pomPath)
	}

	return writePOM(doc, pomPath)
}

// AddSurefireIncludes merges test include patterns into the surefire
// configuration, skipping patterns which are already present.
func AddSurefireIncludes(pomPath string, patterns []string) error {
	return addSurefirePatterns(pomPath, patterns, "includes", "include")
}

// AddSurefireExcludes merges test exclude patterns into the surefire
// configuration, skipping patterns which are already present.
func AddSurefireExcludes(pomPath string, patterns []string) error {
	return addSurefirePatterns(pomPath, patterns, "excludes", "exclude")
}

func addSurefirePatterns(pomPath string, patterns []string, listTag, entryTag string) error {
	if len(patterns) == 0 {
		return nil
	}

	doc, err := loadPOM(pomPath)
	if err != nil {
		return err
	}
	plugins := buildPlugins(doc)
	if plugins == nil {
		log.Warnf("No <build><plugins> element found in %s, skipping %s", pomPath, listTag)
		return nil
	}

	surefire := findPlugin(plugins, surefireArtifactID)
	if surefire == nil {
		surefire = createPlugin(plugins, "org.apache.maven.plugins", surefireArtifactID, surefireVersion)
	}
	list := findOrCreate(findOrCreate(surefire, "configuration"), listTag)

	existing := make(map[string]struct{})
	for _, entry := range list.SelectElements(entryTag) {
		if text := strings.TrimSpace(entry.Text()); text != "" {
			existing[text] = struct{}{}
		}
	}

	added := 0
	for _, pattern := range patterns {
		if _, ok := existing[pattern]; ok {
			continue
		}
		list.CreateElement(entryTag).SetText(pattern)
		existing[pattern] = struct{}{}
		added++
	}
	if added == 0 {
		return nil
	}

	log.Debugf("Added %d %s pattern(s) to %s", added, entryTag, pomPath)
	return writePOM(doc, pomPath)
}

func loadPOM(pomPath string) (*etree.Document, error) {
	doc := etree.NewDocument()
	err := doc.ReadFromFile(pomPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if doc.Root() == nil {
		return nil, errors.Errorf("%s: no root element", pomPath)
	}
	return doc, nil
}

func writePOM(doc *etree.Document, pomPath string) error {
	doc.Indent(2)
	err := doc.WriteToFile(pomPath)
	return errors.WithStack(err)
}

// buildPlugins returns the <build><plugins> element or nil when the
// descriptor has none. Maven POMs use a default namespace, so child
// elements carry plain local names.
func buildPlugins(doc *etree.Document) *etree.Element {
	build := doc.Root().SelectElement("build")
	if build == nil {
		return nil
	}
	return build.SelectElement("plugins")
}

func findPlugin(plugins *etree.Element, artifactID string) *etree.Element {
	for _, plugin := range plugins.SelectElements("plugin") {
		artifact := plugin.SelectElement("artifactId")
		if artifact != nil && strings.TrimSpace(artifact.Text()) == artifactID {
			return plugin
		}
	}
	return nil
}

func createPlugin(plugins *etree.Element, groupID, artifactID, version string) *etree.Element {
	plugin := plugins.CreateElement("plugin")
	plugin.CreateElement("groupId").SetText(groupID)
	plugin.CreateElement("artifactId").SetText(artifactID)
	plugin.CreateElement("version").SetText(version)
	return plugin
}

func findOrCreate(parent *etree.Element, tag string) *etree.Element {
	if child := parent.SelectElement(tag); child != nil {
		return child
	}
	return parent.CreateElement(tag)
}
