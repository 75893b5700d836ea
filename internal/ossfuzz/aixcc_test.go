package ossfuzz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const zookeeperAIXCCConfig = `full_mode:
  base_commit: 17e94f665e8e86337e942c2a0cab0b800f4fa7d9
harness_files:
  - name: MessageTrackerPeekReceivedFuzzer
    path: $PROJECT/fuzz/MessageTrackerPeekReceivedFuzzer.java
    cpvs:
      - name: cpv_0
        sanitizer: address
        error_token: MessageTracker
      - name: cpv_1
  - name: SerializeFuzzer
    path: $PROJECT/fuzz/SerializeFuzzer.java
    cpvs:
      - name: cpv_0
        sanitizer: memory
`

func TestLoadAIXCCConfig(t *testing.T) {
	project := newTestProject(t, "zookeeper")
	writeProjectFile(t, project, ".aixcc/config.yaml", zookeeperAIXCCConfig)

	config, err := LoadAIXCCConfig(project.Dir())
	require.NoError(t, err)
	require.NotNil(t, config)
	assert.Equal(t, "17e94f665e8e86337e942c2a0cab0b800f4fa7d9", config.FullMode.BaseCommit)
	require.Len(t, config.HarnessFiles, 2)
	assert.Equal(t, "MessageTrackerPeekReceivedFuzzer", config.HarnessFiles[0].Name)
	assert.Len(t, config.HarnessFiles[0].CPVs, 2)
}

func TestLoadAIXCCConfig_MissingFile(t *testing.T) {
	project := newTestProject(t, "plain")

	config, err := LoadAIXCCConfig(project.Dir())
	require.NoError(t, err)
	assert.Nil(t, config)
}

func TestCPVLookup(t *testing.T) {
	project := newTestProject(t, "zookeeper")
	writeProjectFile(t, project, ".aixcc/config.yaml", zookeeperAIXCCConfig)

	cpv := project.CPV("MessageTrackerPeekReceivedFuzzer", "cpv_0")
	require.NotNil(t, cpv)
	assert.Equal(t, "address", cpv.Sanitizer)
	assert.Equal(t, "MessageTracker", cpv.ErrorToken)

	// harnesses with the same CPV name must not shadow each other
	cpv = project.CPV("SerializeFuzzer", "cpv_0")
	require.NotNil(t, cpv)
	assert.Equal(t, "memory", cpv.Sanitizer)
	assert.Empty(t, cpv.ErrorToken)
}

func TestCPVLookup_DefaultsSanitizer(t *testing.T) {
	project := newTestProject(t, "zookeeper")
	writeProjectFile(t, project, ".aixcc/config.yaml", zookeeperAIXCCConfig)

	cpv := project.CPV("MessageTrackerPeekReceivedFuzzer", "cpv_1")
	require.NotNil(t, cpv)
	assert.Equal(t, "address", cpv.Sanitizer)
	assert.Empty(t, cpv.ErrorToken)
}

func TestCPVLookup_Unknown(t *testing.T) {
	project := newTestProject(t, "zookeeper")
	writeProjectFile(t, project, ".aixcc/config.yaml", zookeeperAIXCCConfig)

	assert.Nil(t, project.CPV("MessageTrackerPeekReceivedFuzzer", "cpv_9"))
	assert.Nil(t, project.CPV("NoSuchFuzzer", "cpv_0"))
}

func TestCPVLookup_MalformedConfig(t *testing.T) {
	project := newTestProject(t, "broken")
	writeProjectFile(t, project, ".aixcc/config.yaml", "harness_files: [unbalanced\n")

	assert.Nil(t, project.CPV("Fuzzer", "cpv_0"))
}
