package dependencies

import (
	"os/exec"

	"github.com/Masterminds/semver"
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/log"
)

type Key string

const (
	DOCKER Key = "docker"
	GIT    Key = "git"
	MAVEN  Key = "mvn"
	RSYNC  Key = "rsync"

	MESSAGE_VERSION = "incbench requires %s %s or higher, have %s"
	MESSAGE_MISSING = "incbench requires %s, but it is not installed"
)

// Dependency represents a single external binary the tool drives.
type Dependency struct {
	Key        Key
	MinVersion semver.Version
	// these fields are used to implement custom logic to retrieve
	// version or installation information for the specific dependency
	GetVersion func(*Dependency) (*semver.Version, error)
	Installed  func(*Dependency) bool
}

// Compares MinVersion against GetVersion
func (dep *Dependency) CheckVersion() bool {
	currentVersion, err := dep.GetVersion(dep)
	if err != nil {
		log.Warnf("Unable to get current version for %s, message: %v", dep.Key, err)
		// we want to be lenient if we were not able to extract the version
		return true
	}

	if currentVersion.Compare(&dep.MinVersion) == -1 {
		log.Warnf(MESSAGE_VERSION, dep.Key, dep.MinVersion.String(), currentVersion.String())
		return false
	}
	return true
}

func (dep *Dependency) Ok() bool {
	if !dep.Installed(dep) {
		log.Warnf(MESSAGE_MISSING, dep.Key)
		return false
	}

	if !dep.CheckVersion() {
		return false
	}

	return true
}

func inPath(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}

// Check reports whether all the given dependencies are fulfilled, so
// configuration problems surface before any container work starts.
func Check(keys []Key, deps Dependencies) (bool, error) {
	allFine := true
	for _, key := range keys {
		dep, found := deps[key]
		if !found {
			return false, errors.Errorf("Undefined dependency %s", key)
		}

		if dep.MinVersion.Equal(semver.MustParse("0.0.0")) {
			log.Debugf("Checking dependency: %s", dep.Key)
		} else {
			log.Debugf("Checking dependency: %s version >= %s", dep.Key, dep.MinVersion.String())
		}

		if !dep.Ok() {
			allFine = false
		}
	}
	return allFine, nil
}
