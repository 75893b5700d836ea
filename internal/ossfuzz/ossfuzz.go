package ossfuzz

import (
	"path/filepath"
	"strings"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/util/fileutil"
)

// DefaultSanitizer is assumed whenever a project or CPV doesn't declare
// a sanitizer of its own.
const DefaultSanitizer = "address"

// Project identifies a single project inside an OSS-Fuzz checkout. All
// paths the benchmark touches for that project are derived from here.
type Project struct {
	// OSSFuzzDir is the root of the OSS-Fuzz checkout.
	OSSFuzzDir string
	// Name is the project name as used below projects/, which can
	// contain slashes (e.g. "aixcc/jvm/fuzzy").
	Name string
}

func NewProject(ossFuzzDir, name string) *Project {
	return &Project{OSSFuzzDir: ossFuzzDir, Name: name}
}

// Validate checks that the OSS-Fuzz checkout and the project directory
// exist before any Docker work starts.
func (p *Project) Validate() error {
	if !fileutil.IsDir(p.OSSFuzzDir) {
		return errors.Errorf("OSS-Fuzz directory %s does not exist", p.OSSFuzzDir)
	}
	if !fileutil.IsDir(p.Dir()) {
		return errors.Errorf("project %q not found in %s", p.Name, filepath.Join(p.OSSFuzzDir, "projects"))
	}
	return nil
}

// Dir returns the project directory, i.e. projects/<name> below the
// OSS-Fuzz checkout.
func (p *Project) Dir() string {
	return filepath.Join(p.OSSFuzzDir, "projects", p.Name)
}

// Dockerfile returns the path of the project's builder Dockerfile.
func (p *Project) Dockerfile() string {
	return filepath.Join(p.Dir(), "Dockerfile")
}

// AIXCCDir returns the project's .aixcc directory, which holds the
// benchmark configuration, PoV inputs and reference patches.
func (p *Project) AIXCCDir() string {
	return filepath.Join(p.Dir(), ".aixcc")
}

// OutDir returns the directory the OSS-Fuzz helper places build
// artifacts in. Its contents are root-owned after a containerized
// build.
func (p *Project) OutDir() string {
	return filepath.Join(p.OSSFuzzDir, "build", "out", p.Name)
}

// HelperScript returns the path of the OSS-Fuzz helper script used for
// building fuzzers and reproducing PoVs.
func (p *Project) HelperScript() string {
	return filepath.Join(p.OSSFuzzDir, "infra", "helper.py")
}

// SimpleName returns the last path segment of the project name.
// Registry image names must not contain the "aixcc/<lang>/" prefix
// some projects carry.
func (p *Project) SimpleName() string {
	parts := strings.Split(p.Name, "/")
	return parts[len(parts)-1]
}

// Config loads the project's project.yaml.
func (p *Project) Config() (*ProjectConfig, error) {
	return LoadProjectConfig(p.Dir())
}
