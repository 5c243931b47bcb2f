// Package lockfile records the fingerprint of a composed configuration so a
// later run can detect that provider upgrades or document edits changed the
// effective rules.
package lockfile

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/cockroachdb/errors"

	errUtils "github.com/dotcommander/lintcompose/internal/errors"
	"github.com/dotcommander/lintcompose/internal/scope"
)

// Version is the lockfile format version.
const Version = "1.0"

// Lockfile is a snapshot of a composed configuration.
type Lockfile struct {
	Version     string        `json:"version"`
	Fingerprint string        `json:"fingerprint"`
	Plugins     []string      `json:"plugins,omitempty"`
	Segments    []SegmentLock `json:"segments"`
}

// SegmentLock fingerprints a single segment.
type SegmentLock struct {
	Label       string `json:"label"`
	Fingerprint string `json:"fingerprint"`
}

// Create builds a lockfile from cfg.
func Create(cfg *scope.Configuration) (*Lockfile, error) {
	fp, err := cfg.Fingerprint()
	if err != nil {
		return nil, err
	}

	lock := &Lockfile{
		Version:     Version,
		Fingerprint: fp,
		Plugins:     cfg.Global().Plugins,
		Segments:    make([]SegmentLock, 0, len(cfg.Segments)),
	}
	for i, seg := range cfg.Segments {
		segFP, err := fingerprint(seg)
		if err != nil {
			return nil, err
		}
		lock.Segments = append(lock.Segments, SegmentLock{Label: segmentKey(i, seg), Fingerprint: segFP})
	}
	return lock, nil
}

// Load reads a lockfile from path.
func Load(path string) (*Lockfile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read lockfile: %w", err)
	}

	var lock Lockfile
	if err := json.Unmarshal(data, &lock); err != nil {
		return nil, fmt.Errorf("failed to parse lockfile: %w", err)
	}
	if lock.Version != Version {
		return nil, errors.WithHint(
			errors.Newf("unsupported lockfile version %q", lock.Version),
			"regenerate it with --lock",
		)
	}
	return &lock, nil
}

// Save writes the lockfile to path.
func (l *Lockfile) Save(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal lockfile: %w", err)
	}

	if err := os.WriteFile(path, append(data, '\n'), 0644); err != nil {
		return fmt.Errorf("failed to write lockfile: %w", err)
	}
	return nil
}

// Diff returns the labels of segments that were added, removed or changed
// between l and other, sorted.
func (l *Lockfile) Diff(other *Lockfile) []string {
	mine := make(map[string]string, len(l.Segments))
	for _, s := range l.Segments {
		mine[s.Label] = s.Fingerprint
	}

	var changed []string
	seen := make(map[string]bool, len(other.Segments))
	for _, s := range other.Segments {
		seen[s.Label] = true
		if fp, ok := mine[s.Label]; !ok || fp != s.Fingerprint {
			changed = append(changed, s.Label)
		}
	}
	for label := range mine {
		if !seen[label] {
			changed = append(changed, label)
		}
	}
	sort.Strings(changed)
	return changed
}

// Check fails with ErrLockMismatch when cfg differs from the lockfile.
func (l *Lockfile) Check(cfg *scope.Configuration) error {
	current, err := Create(cfg)
	if err != nil {
		return err
	}
	if current.Fingerprint == l.Fingerprint {
		return nil
	}

	err = errors.Wrapf(errUtils.ErrLockMismatch, "expected %s, got %s", short(l.Fingerprint), short(current.Fingerprint))
	if changed := l.Diff(current); len(changed) > 0 {
		err = errors.WithHintf(err, "changed segments: %v", changed)
	}
	return errors.WithHint(err, "review the change and regenerate the lockfile with --lock")
}

// segmentKey identifies a segment by position and label so that two unnamed
// override segments stay distinct.
func segmentKey(i int, seg scope.Segment) string {
	return fmt.Sprintf("%d:%s", i, seg.Label())
}

func fingerprint(seg scope.Segment) (string, error) {
	data, err := json.Marshal(seg)
	if err != nil {
		return "", errors.Wrap(err, "encoding segment")
	}
	return fmt.Sprintf("%x", sha256.Sum256(data)), nil
}

func short(fp string) string {
	if len(fp) > 12 {
		return fp[:12]
	}
	return fp
}
