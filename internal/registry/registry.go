package registry

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/internal/docker"
	"github.com/team-atlanta/incbench/internal/ossfuzz"
	"github.com/team-atlanta/incbench/pkg/log"
)

// DefaultRegistry is where snapshots are published unless overridden
// via --registry or INCBENCH_REGISTRY.
const DefaultRegistry = "ghcr.io/team-atlanta"

// PushMode selects which images Publish uploads.
type PushMode string

const (
	// PushBase publishes only the plain builder image.
	PushBase PushMode = "base"
	// PushInc publishes only the incremental snapshot images.
	PushInc PushMode = "inc"
	// PushBoth publishes the builder image and all snapshots.
	PushBoth PushMode = "both"
)

// ParsePushMode validates a --push flag value.
func ParsePushMode(value string) (PushMode, error) {
	switch PushMode(value) {
	case PushBase, PushInc, PushBoth:
		return PushMode(value), nil
	default:
		return "", errors.Errorf("invalid push mode %q (supported: base, inc, both)", value)
	}
}

// SnapshotImageRef returns the registry tag an image of the given
// project is published under. Project names are flattened to their
// last segment, registries don't accept the "aixcc/<lang>/" prefix as
// part of a repository path we control.
func SnapshotImageRef(registry, projectName, tag string) string {
	parts := strings.Split(projectName, "/")
	return fmt.Sprintf("%s/crsbench/%s:%s", registry, parts[len(parts)-1], tag)
}

// target is one local-to-remote image pair Publish handles.
type target struct {
	source string
	remote string
}

// Publisher pushes builder and snapshot images of one project to a
// registry.
type Publisher struct {
	Project  *ossfuzz.Project
	Registry string
	// Sanitizers selects the snapshot images to publish. Defaults to
	// the project.yaml sanitizers when empty.
	Sanitizers []string
	Stdout     io.Writer
	Stderr     io.Writer
}

func (p *Publisher) targets(mode PushMode) ([]target, error) {
	baseImage, err := p.Project.BuilderImageName()
	if err != nil {
		return nil, err
	}

	sanitizers := p.Sanitizers
	if len(sanitizers) == 0 {
		config, err := p.Project.Config()
		if err != nil {
			return nil, err
		}
		sanitizers = config.Sanitizers
	}

	var targets []target
	if mode == PushBase || mode == PushBoth {
		targets = append(targets, target{
			source: baseImage,
			remote: SnapshotImageRef(p.Registry, p.Project.Name, "base"),
		})
	}
	if mode == PushInc || mode == PushBoth {
		for _, sanitizer := range sanitizers {
			targets = append(targets, target{
				source: fmt.Sprintf("%s:inc-%s", baseImage, sanitizer),
				remote: SnapshotImageRef(p.Registry, p.Project.Name, "inc-"+sanitizer),
			})
		}
	}
	return targets, nil
}

// Publish tags and pushes the images selected by mode. Images that
// already exist in the registry are skipped unless force is set. Every
// target is attempted even when an earlier one fails, so a single
// broken push doesn't hide the state of the others.
func (p *Publisher) Publish(ctx context.Context, mode PushMode, force bool) error {
	targets, err := p.targets(mode)
	if err != nil {
		return err
	}

	var failed []string
	for _, t := range targets {
		err = p.publish(ctx, t, force)
		if err != nil {
			log.Errorf(err, "Failed to publish %s", t.remote)
			failed = append(failed, t.remote)
		}
	}
	if len(failed) > 0 {
		return errors.Errorf("failed to publish %d image(s): %s (authentication failed? try: docker login %s)",
			len(failed), strings.Join(failed, ", "), p.Registry)
	}
	return nil
}

func (p *Publisher) publish(ctx context.Context, t target, force bool) error {
	if !docker.ImageExists(ctx, t.source) {
		return errors.Errorf("image %s does not exist locally, build it first", t.source)
	}

	if !force && docker.RemoteImageExists(ctx, t.remote) {
		log.Infof("Image already published, skipping: %s (use --force to overwrite)", t.remote)
		return nil
	}

	log.Infof("Tagging image: %s -> %s", t.source, t.remote)
	err := docker.Tag(ctx, t.source, t.remote)
	if err != nil {
		return err
	}

	log.Infof("Pushing image: %s", t.remote)
	err = docker.Push(ctx, t.remote, p.Stdout, p.Stderr)
	if err != nil {
		return err
	}

	log.Successf("Successfully pushed: %s", t.remote)
	return nil
}
