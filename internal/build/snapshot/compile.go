package snapshot

import (
	"strings"

	"github.com/pkg/errors"
)

// compileDivider is the echo line the stock OSS-Fuzz compile script
// prints before it starts the actual build. The replay snippet is
// inserted right after it.
const compileDivider = `echo "---------------------------------------------------------------"` + "\n"

// replaySnippet re-applies the mounted checkout's uncommitted diff to
// the built source copy. It runs on every build from the snapshot
// image, which is what makes one snapshot reusable across patches: the
// caller just leaves the candidate patch uncommitted in the checkout.
const replaySnippet = `
#################### incbench: replay working-tree diff ####################
# PWD is below /built-src, the bind-mounted checkout is below /src.
export MOUNTED_SRC_DIR=$(echo $PWD | sed 's/built-src/src/')
pushd $MOUNTED_SRC_DIR

git config --global --add safe.directory $MOUNTED_SRC_DIR
git diff HEAD > /tmp/patch.diff

popd
if [ -s /tmp/patch.diff ]; then
    git apply /tmp/patch.diff
else
    echo "No patch file found at /tmp/patch.diff or it is empty. Skipping git apply."
fi
#################### incbench: replay working-tree diff ####################
`

// patchCompileScript inserts the replay snippet into the stock compile
// script. The divider line has been stable across OSS-Fuzz releases,
// its absence means the base image layout changed and the snapshot
// mechanism needs a closer look rather than a silent pass-through.
func patchCompileScript(content string) (string, error) {
	index := strings.Index(content, compileDivider)
	if index == -1 {
		return "", errors.New("compile script has an unexpected format: divider line not found")
	}
	insertAt := index + len(compileDivider)
	return content[:insertAt] + replaySnippet + content[insertAt:], nil
}
