package ossfuzz

import (
	"fmt"
	"os"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

var workdirPattern = regexp.MustCompile(`^\s*WORKDIR\s*(\S+)`)

// BuilderImageName returns the name of the project's builder image.
// There is no uniform naming scheme across OSS-Fuzz flavors, so the
// base image in the project's Dockerfile decides: the stock
// gcr.io/oss-fuzz-base images map to gcr.io/oss-fuzz/<project>, the
// AIxCC finals images to aixcc-afc/<project>. Anything else is an
// error.
func (p *Project) BuilderImageName() (string, error) {
	content, err := os.ReadFile(p.Dockerfile())
	if err != nil {
		return "", errors.WithStack(err)
	}

	dockerfile := string(content)
	switch {
	case strings.Contains(dockerfile, "gcr.io/oss-fuzz-base"):
		return fmt.Sprintf("gcr.io/oss-fuzz/%s", p.Name), nil
	case strings.Contains(dockerfile, "aixcc-finals"):
		return fmt.Sprintf("aixcc-afc/%s", p.Name), nil
	default:
		return "", errors.Errorf("cannot determine builder image name from %s: unknown base image", p.Dockerfile())
	}
}

// IncrementalImageName returns the tag the incremental build snapshot
// for the given sanitizer is committed to.
func (p *Project) IncrementalImageName(sanitizer string) (string, error) {
	builderImage, err := p.BuilderImageName()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:inc-%s", builderImage, sanitizer), nil
}

// Workdir returns the working directory the project's Dockerfile ends
// up in, i.e. where compile runs. Defaults to /src/<project> when no
// WORKDIR instruction is present.
func (p *Project) Workdir() (string, error) {
	content, err := os.ReadFile(p.Dockerfile())
	if err != nil {
		return "", errors.WithStack(err)
	}
	return workdirFromLines(strings.Split(string(content), "\n"), path.Join("/src", p.Name)), nil
}

// workdirFromLines returns the last WORKDIR instruction in the given
// Dockerfile lines, with $SRC expanded and relative paths anchored at
// /src.
func workdirFromLines(lines []string, defaultDir string) string {
	for i := len(lines) - 1; i >= 0; i-- {
		match := workdirPattern.FindStringSubmatch(lines[i])
		if match == nil {
			continue
		}
		workdir := strings.ReplaceAll(match[1], "$SRC", "/src")
		if !path.IsAbs(workdir) {
			workdir = path.Join("/src", workdir)
		}
		return path.Clean(workdir)
	}
	return defaultDir
}
