package ossfuzz

import (
	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/pkg/vcs"
)

// PullSource clones the project's upstream repository into destDir and
// pins it to the base commit declared in .aixcc/config.yaml.
func (p *Project) PullSource(destDir string, useGitCache bool) error {
	config, err := p.Config()
	if err != nil {
		return err
	}
	if config.MainRepo == "" {
		return errors.Errorf("project.yaml of %s does not declare a main_repo", p.Name)
	}

	log.Infof("Cloning the project repository from %q to %q", config.MainRepo, destDir)
	err = vcs.Clone(config.MainRepo, destDir, useGitCache)
	if err != nil {
		return err
	}

	return p.CheckoutBaseCommit(destDir)
}

// CheckoutBaseCommit resets the checkout at dir to the base commit
// from .aixcc/config.yaml. Projects without an .aixcc configuration
// are left at the default branch.
func (p *Project) CheckoutBaseCommit(dir string) error {
	aixcc, err := LoadAIXCCConfig(p.Dir())
	if err != nil {
		return err
	}
	if aixcc == nil {
		return nil
	}
	if aixcc.FullMode.BaseCommit == "" {
		return errors.Errorf("config.yaml of %s does not declare full_mode.base_commit", p.Name)
	}
	return vcs.ResetHard(dir, aixcc.FullMode.BaseCommit)
}
