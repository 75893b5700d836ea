package rts

import (
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"time"

	"github.com/mattn/go-zglob"
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/internal/progress"
	"github.com/team-atlanta/incbench/pkg/cmdutils"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/fileutil"
)

// Release hosting the prebuilt selection plugin jars. The Ekstazi 5.3.0
// artifacts are published under the JcgEks release as well.
const artifactBaseURL = "https://github.com/acorn421/JcgEks/releases/download/1.0.0/"

type mavenArtifact struct {
	ArtifactID string
	// Jar is empty for parent POMs, which install without a jar file.
	Jar string
	Pom string
}

// Install order matters: the parent POM first, then the core library,
// then the plugin depending on both.
var mavenArtifactsByTool = map[string][]mavenArtifact{
	ToolJcgEks: {
		{ArtifactID: "org.jcgeks.parent", Pom: "org.jcgeks.parent-1.0.0.pom"},
		{ArtifactID: "org.jcgeks.core", Jar: "org.jcgeks.core-1.0.0.jar", Pom: "org.jcgeks.core-1.0.0.pom"},
		{ArtifactID: "jcgeks-maven-plugin", Jar: "jcgeks-maven-plugin-1.0.0.jar", Pom: "jcgeks-maven-plugin-1.0.0.pom"},
	},
	ToolEkstazi: {
		{ArtifactID: "org.ekstazi.parent", Pom: "org.ekstazi.parent-5.3.0.pom"},
		{ArtifactID: "org.ekstazi.core", Jar: "org.ekstazi.core-5.3.0.jar", Pom: "org.ekstazi.core-5.3.0.pom"},
		{ArtifactID: "ekstazi-maven-plugin", Jar: "ekstazi-maven-plugin-5.3.0.jar", Pom: "ekstazi-maven-plugin-5.3.0.pom"},
	},
}

var downloadClient = &http.Client{Timeout: 2 * time.Minute}

// InstallMavenArtifacts downloads the plugin artifacts of the tool and
// installs them into the local Maven repository. Tools which resolve
// from Maven Central (OpenClover) need no local install.
func InstallMavenArtifacts(tool string) error {
	artifacts, ok := mavenArtifactsByTool[tool]
	if !ok {
		return nil
	}

	mvn, err := findMavenExecutable()
	if err != nil {
		return err
	}

	tempDir, err := os.MkdirTemp("", "incbench-rts-")
	if err != nil {
		return errors.WithStack(err)
	}
	defer fileutil.Cleanup(tempDir)

	for _, artifact := range artifacts {
		log.Infof("Installing %s...", artifact.ArtifactID)

		pomPath := filepath.Join(tempDir, artifact.Pom)
		err = downloadFile(artifactBaseURL+artifact.Pom, pomPath)
		if err != nil {
			return err
		}

		var installArgs []string
		if artifact.Jar == "" {
			installArgs = []string{
				"install:install-file",
				"-Dfile=" + pomPath,
				"-DpomFile=" + pomPath,
				"-Dpackaging=pom",
			}
		} else {
			jarPath := filepath.Join(tempDir, artifact.Jar)
			err = downloadFile(artifactBaseURL+artifact.Jar, jarPath)
			if err != nil {
				return err
			}
			installArgs = []string{
				"install:install-file",
				"-Dfile=" + jarPath,
				"-DpomFile=" + pomPath,
				"-DgeneratePom=true",
			}
		}

		cmd := exec.Command(mvn, installArgs...)
		log.Debugf("Command: %s", cmd.String())
		output, err := cmd.CombinedOutput()
		if err != nil {
			log.Print(string(output))
			return cmdutils.WrapExecError(errors.WithStack(err), cmd)
		}
	}

	return nil
}

// findMavenExecutable locates mvn: the MVN environment variable wins,
// then a Maven wrapper bundled with the project source below SRC, then
// the system installation.
func findMavenExecutable() (string, error) {
	if mvn := os.Getenv("MVN"); mvn != "" && isExecutable(mvn) {
		return mvn, nil
	}

	srcDir := os.Getenv("SRC")
	if srcDir == "" {
		srcDir = "/src"
	}
	if fileutil.IsDir(srcDir) {
		matches, err := zglob.Glob(filepath.Join(srcDir, "**", "mvn"))
		if err == nil {
			sort.Strings(matches)
			for _, match := range matches {
				if isExecutable(match) {
					return match, nil
				}
			}
		}
	}

	if isExecutable("/usr/bin/mvn") {
		return "/usr/bin/mvn", nil
	}
	if mvn, err := exec.LookPath("mvn"); err == nil {
		return mvn, nil
	}

	return "", errors.New("maven executable not found (checked $MVN, $SRC, /usr/bin/mvn, $PATH)")
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular() && info.Mode()&0111 != 0
}

func downloadFile(url, destPath string) error {
	log.Debugf("Downloading %s", url)

	resp, err := downloadClient.Get(url)
	if err != nil {
		return errors.WithStack(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("downloading %s: %s", url, resp.Status)
	}

	file, err := os.Create(destPath)
	if err != nil {
		return errors.WithStack(err)
	}
	defer file.Close()

	reader := progress.NewReader(resp.Body, resp.ContentLength, "Downloaded "+filepath.Base(destPath))
	_, err = io.Copy(file, reader)
	return errors.WithStack(err)
}
