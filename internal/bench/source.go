package bench

import (
	"context"
	"os"

	"github.com/team-atlanta/incbench/internal/docker"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/vcs"
	"github.com/team-atlanta/incbench/util/fileutil"
)

// SourceControl covers the operations the benchmark performs on the
// project checkout between PoVs. The checkout is written to by root
// inside build containers, so every reset starts with an ownership
// fix-up.
type SourceControl interface {
	// Reset discards all uncommitted changes in the checkout.
	Reset(ctx context.Context) error
	// Apply applies the given patch file to the checkout.
	Apply(ctx context.Context, patchPath string) error
}

type gitSourceControl struct {
	project   *ossfuzz.Project
	sourceDir string
}

func (s *gitSourceControl) Reset(ctx context.Context) error {
	err := docker.FixOwnership(ctx, s.sourceDir)
	if err != nil {
		log.Warnf("Failed to fix ownership of %s: %v", s.sourceDir, err)
	}
	s.cleanOutDir(ctx)
	return vcs.ResetHard(s.sourceDir, "HEAD")
}

func (s *gitSourceControl) Apply(ctx context.Context, patchPath string) error {
	return vcs.Apply(s.sourceDir, patchPath)
}

// cleanOutDir removes stale build artifacts below build/out so a
// reproduce run can't pick up fuzzers from a previous build. The
// directory is root-owned after a containerized build.
func (s *gitSourceControl) cleanOutDir(ctx context.Context) {
	outDir := s.project.OutDir()
	if !fileutil.IsDir(outDir) {
		return
	}
	err := docker.FixOwnership(ctx, outDir)
	if err != nil {
		log.Warnf("Failed to fix ownership of %s: %v", outDir, err)
	}
	err = os.RemoveAll(outDir)
	if err != nil {
		log.Warnf("Failed to clean %s: %v", outDir, err)
	}
}
