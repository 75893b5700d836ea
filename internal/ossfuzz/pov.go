package ossfuzz

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"github.com/team-atlanta/incbench/pkg/log"
	"github.com/team-atlanta/incbench/util/fileutil"
)

// PoV couples a proof-of-vulnerability input with the reference patch
// that is supposed to fix it.
type PoV struct {
	// Harness is the fuzz harness the input is fed to.
	Harness string
	// Name is the PoV file name, which doubles as the CPV name in
	// .aixcc/config.yaml (e.g. "cpv_0").
	Name string
	// Path is the PoV input file.
	Path string
	// PatchPath is the reference patch below .aixcc/patches.
	PatchPath string
	// Sanitizer is the sanitizer the PoV needs to trigger its crash.
	Sanitizer string
	// ErrorToken optionally identifies the crash in fuzzer output.
	// Empty when the CPV doesn't declare one.
	ErrorToken string
}

// ID returns "<harness>/<name>", the form PoVs are referred to in logs
// and the run summary.
func (p *PoV) ID() string {
	return fmt.Sprintf("%s/%s", p.Harness, p.Name)
}

// FindPoVs enumerates the PoV inputs below .aixcc/povs, one
// subdirectory per harness, and resolves each one's sanitizer and
// error token from config.yaml. Every PoV must come with a patch at
// .aixcc/patches/<harness>/<name>.diff, a missing one is a
// configuration error.
func (p *Project) FindPoVs() ([]*PoV, error) {
	if !fileutil.IsDir(p.AIXCCDir()) {
		return nil, errors.Errorf("%q directory does not exist in %s", ".aixcc", p.Dir())
	}

	povsDir := filepath.Join(p.AIXCCDir(), "povs")
	harnessDirs, err := os.ReadDir(povsDir)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	var povs []*PoV
	for _, harnessDir := range harnessDirs {
		if !harnessDir.IsDir() {
			continue
		}
		harnessName := harnessDir.Name()

		entries, err := os.ReadDir(filepath.Join(povsDir, harnessName))
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for _, entry := range entries {
			if entry.IsDir() {
				continue
			}
			povName := entry.Name()

			pov := &PoV{
				Harness:   harnessName,
				Name:      povName,
				Path:      filepath.Join(povsDir, harnessName, povName),
				PatchPath: filepath.Join(p.AIXCCDir(), "patches", harnessName, povName+".diff"),
				Sanitizer: DefaultSanitizer,
			}
			if cpv := p.CPV(harnessName, povName); cpv != nil {
				pov.Sanitizer = cpv.Sanitizer
				pov.ErrorToken = cpv.ErrorToken
			} else {
				log.Infof("No CPV config found for %s, using defaults", pov.ID())
			}

			exists, err := fileutil.Exists(pov.PatchPath)
			if err != nil {
				return nil, err
			}
			if !exists {
				return nil, errors.Errorf("patch for PoV %q does not exist: %s", pov.ID(), pov.PatchPath)
			}

			povs = append(povs, pov)
		}
	}
	return povs, nil
}

// SnapshotSanitizer picks the sanitizer the incremental snapshot is
// built with. When every PoV needs the same sanitizer that one is
// used, otherwise the snapshot falls back to "address" and PoVs with a
// different sanitizer are flagged later.
func SnapshotSanitizer(povs []*PoV) string {
	sanitizers := map[string]struct{}{}
	for _, pov := range povs {
		sanitizers[pov.Sanitizer] = struct{}{}
	}

	if len(sanitizers) == 1 {
		for sanitizer := range sanitizers {
			return sanitizer
		}
	}
	if len(sanitizers) > 1 {
		log.Warnf("Multiple sanitizers required by PoVs. Using %q for the snapshot.", DefaultSanitizer)
	}
	return DefaultSanitizer
}
