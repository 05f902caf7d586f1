// Package runid establishes the identity of a run across the peers of a
// group: rank 0 mints the run timestamp and every peer derives the same run
// directory from it.
package runid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/jonboulle/clockwork"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"github.com/replicasync/replicasync/common/types"
	"github.com/replicasync/replicasync/group"
)

// ArgsFile is written by rank 0 into the run directory.
const ArgsFile = "args.json"

var (
	// ErrBootstrapFailed is returned by every peer when rank 0 could not
	// create the run directory or any peer could not create its rank
	// directory.
	ErrBootstrapFailed = errors.New("run identity bootstrap failed")
	// ErrRunExists is returned at rank 0 when the run directory exists.
	ErrRunExists = errors.New("run directory already exists")
)

const banner = `
 ____  ____  ____  __    __  ___   __   ____  _  _  __ _   ___
(  _ \(  __)(  _ \(  )  (  )/ __) / _\ / ___)( \/ )(  ( \ / __)
 )   / ) _)  ) __// (_/\ )(( (__ /    \\___ \ )  / /    /( (__
(__\_)(____)(__)  \____/(__)\___)\_/\_/(____/(__/  \_)__) \___)
`

// Opt for configuring Bootstrapper.
type Opt func(*Bootstrapper)

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Opt {
	return func(b *Bootstrapper) {
		b.logger = logger
	}
}

// WithFs sets the filesystem the run directories are created on.
func WithFs(fs afero.Fs) Opt {
	return func(b *Bootstrapper) {
		b.fs = fs
	}
}

// WithClock sets the clock used to mint the timestamp.
func WithClock(clock clockwork.Clock) Opt {
	return func(b *Bootstrapper) {
		b.clock = clock
	}
}

// WithBanner sets where rank 0 prints the banner. Nil disables it.
func WithBanner(w io.Writer) Opt {
	return func(b *Bootstrapper) {
		b.banner = w
	}
}

// WithArgs sets the run arguments rank 0 records in ArgsFile.
func WithArgs(args any) Opt {
	return func(b *Bootstrapper) {
		b.args = args
	}
}

// Bootstrapper runs the identity bootstrap on one peer.
type Bootstrapper struct {
	logger *zap.Logger
	fs     afero.Fs
	clock  clockwork.Clock
	banner io.Writer
	args   any

	group group.Group
	cfg   Config
}

// New creates a Bootstrapper for the local peer of g.
func New(g group.Group, cfg Config, opts ...Opt) *Bootstrapper {
	b := &Bootstrapper{
		logger: zap.NewNop(),
		fs:     afero.NewOsFs(),
		clock:  clockwork.NewRealClock(),
		banner: os.Stdout,
		group:  g,
		cfg:    cfg,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Bootstrap must be called by every peer of the group. It returns the same
// timestamp and root directory on every peer, and returns only after every
// peer created its rank directory.
//
// When rank 0 fails to create the run directory, or any peer fails to
// create its rank directory, every peer returns ErrBootstrapFailed.
func (b *Bootstrapper) Bootstrap(ctx context.Context) (Identity, error) {
	rank := types.Rank(b.group.Rank())
	var (
		ann     Announcement
		rootErr error
	)
	if rank == types.SourceRank {
		ann.Timestamp = b.clock.Now().Format(TimestampFormat)
		id := Derive(b.cfg, ann.Timestamp, rank)
		rootErr = b.createRoot(id.RootDir)
		ann.OK = rootErr == nil
		if rootErr != nil {
			ann.Reason = truncate(rootErr.Error(), maxField)
			b.logger.Error("failed to create run directory",
				zap.String("dir", id.RootDir),
				zap.Error(rootErr),
			)
		} else if b.banner != nil {
			fmt.Fprint(b.banner, banner)
		}
	}
	if err := group.BroadcastValue(ctx, b.group, &ann, int(types.SourceRank)); err != nil {
		return Identity{}, fmt.Errorf("broadcast run timestamp: %w", err)
	}
	if !ann.OK {
		if rootErr != nil {
			return Identity{}, fmt.Errorf("%w: %w", ErrBootstrapFailed, rootErr)
		}
		return Identity{}, fmt.Errorf("%w: rank 0: %s", ErrBootstrapFailed, ann.Reason)
	}
	id := Derive(b.cfg, ann.Timestamp, rank)
	// every peer reports its rank directory and enters the barrier, also
	// when the directory could not be created
	dirErr := b.fs.MkdirAll(id.RankDir, 0o755)
	if dirErr != nil {
		b.logger.Error("failed to create rank directory",
			zap.String("dir", id.RankDir),
			zap.Error(dirErr),
		)
	}
	missing, err := group.AllReady(ctx, b.group, dirErr == nil)
	if err != nil {
		return Identity{}, fmt.Errorf("share rank directory status: %w", err)
	}
	if err := b.group.Barrier(ctx); err != nil {
		return Identity{}, fmt.Errorf("run directory barrier: %w", err)
	}
	if dirErr != nil {
		return Identity{}, fmt.Errorf("%w: create rank directory %s: %w", ErrBootstrapFailed, id.RankDir, dirErr)
	}
	if len(missing) > 0 {
		return Identity{}, fmt.Errorf("%w: rank directories missing at ranks %v", ErrBootstrapFailed, missing)
	}
	if rank == types.SourceRank && b.args != nil {
		if err := WriteArgs(b.fs, id.RootDir, b.args); err != nil {
			return Identity{}, err
		}
	}
	b.logger.Info("run identity established",
		zap.Int("rank", int(rank)),
		zap.Inline(id),
	)
	return id, nil
}

func (b *Bootstrapper) createRoot(dir string) error {
	exists, err := afero.DirExists(b.fs, dir)
	if err != nil {
		return fmt.Errorf("stat %s: %w", dir, err)
	}
	if exists {
		return fmt.Errorf("%w: %s", ErrRunExists, dir)
	}
	if err := b.fs.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}

// WriteArgs records args as indented JSON in the run directory. The file is
// written to a temporary name and renamed, so readers never observe a
// partial file.
func WriteArgs(fs afero.Fs, dir string, args any) error {
	data, err := json.MarshalIndent(args, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal args: %w", err)
	}
	path := filepath.Join(dir, ArgsFile)
	tmp, err := afero.TempFile(fs, dir, ArgsFile+".*")
	if err != nil {
		return fmt.Errorf("create temp args file: %w", err)
	}
	_, err = tmp.Write(data)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		fs.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fs.Rename(tmp.Name(), path); err != nil {
		fs.Remove(tmp.Name())
		return fmt.Errorf("rename %s: %w", path, err)
	}
	return nil
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
