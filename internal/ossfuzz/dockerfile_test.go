package ossfuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderImageName_OSSFuzzBase(t *testing.T) {
	project := newTestProject(t, "json-c")
	writeProjectFile(t, project, "Dockerfile", "FROM gcr.io/oss-fuzz-base/base-builder\nRUN apt-get update\n")

	name, err := project.BuilderImageName()
	require.NoError(t, err)
	assert.Equal(t, "gcr.io/oss-fuzz/json-c", name)
}

func TestBuilderImageName_AIXCCFinals(t *testing.T) {
	project := newTestProject(t, "aixcc/jvm/fuzzy")
	writeProjectFile(t, project, "Dockerfile", "FROM ghcr.io/aixcc-finals/base-builder-jvm:v1.2.0\n")

	name, err := project.BuilderImageName()
	require.NoError(t, err)
	assert.Equal(t, "aixcc-afc/aixcc/jvm/fuzzy", name)
}

func TestBuilderImageName_UnknownBase(t *testing.T) {
	project := newTestProject(t, "weird")
	writeProjectFile(t, project, "Dockerfile", "FROM ubuntu:22.04\n")

	_, err := project.BuilderImageName()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown base image")
}

func TestBuilderImageName_MissingDockerfile(t *testing.T) {
	project := newTestProject(t, "empty")

	_, err := project.BuilderImageName()
	assert.Error(t, err)
}

func TestIncrementalImageName(t *testing.T) {
	project := newTestProject(t, "json-c")
	writeProjectFile(t, project, "Dockerfile", "FROM gcr.io/oss-fuzz-base/base-builder\n")

	name, err := project.IncrementalImageName("address")
	require.NoError(t, err)
	assert.Equal(t, "gcr.io/oss-fuzz/json-c:inc-address", name)
}

func TestWorkdir(t *testing.T) {
	project := newTestProject(t, "zookeeper")
	writeProjectFile(t, project, "Dockerfile", `FROM gcr.io/oss-fuzz-base/base-builder-jvm
RUN git clone https://github.com/apache/zookeeper.git
WORKDIR /tmp/build
WORKDIR $SRC/zookeeper
COPY build.sh $SRC/
`)

	workdir, err := project.Workdir()
	require.NoError(t, err)
	assert.Equal(t, "/src/zookeeper", workdir)
}

func TestWorkdir_Default(t *testing.T) {
	project := newTestProject(t, "json-c")
	writeProjectFile(t, project, "Dockerfile", "FROM gcr.io/oss-fuzz-base/base-builder\nRUN apt-get update\n")

	workdir, err := project.Workdir()
	require.NoError(t, err)
	assert.Equal(t, "/src/json-c", workdir)
}

func TestWorkdirFromLines(t *testing.T) {
	testCases := map[string]struct {
		lines    []string
		expected string
	}{
		"absolute":       {[]string{"WORKDIR /src/zookeeper"}, "/src/zookeeper"},
		"src variable":   {[]string{"WORKDIR $SRC/json-c"}, "/src/json-c"},
		"relative":       {[]string{"WORKDIR json-c"}, "/src/json-c"},
		"last one wins":  {[]string{"WORKDIR /first", "WORKDIR second"}, "/src/second"},
		"leading space":  {[]string{"  WORKDIR /padded"}, "/padded"},
		"trailing slash": {[]string{"WORKDIR /src/proj/"}, "/src/proj"},
		"commented out":  {[]string{"# WORKDIR /nope"}, "/src/fallback"},
		"no instruction": {[]string{"FROM scratch"}, "/src/fallback"},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			assert.Equal(t, tc.expected, workdirFromLines(tc.lines, "/src/fallback"))
		})
	}
}
