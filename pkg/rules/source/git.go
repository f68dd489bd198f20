package source

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/transport"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	gitssh "github.com/go-git/go-git/v5/plumbing/transport/ssh"

	"aoss-hq/sentinel/pkg/rules/ast"
)

// GitConfig configures the GitOps rule source.
type GitConfig struct {
	// URL is the repository URL (HTTPS or SSH).
	URL string

	// Branch is the branch to track. Default: "main".
	Branch string

	// Path is the subdirectory within the repository holding rule
	// files. Empty means the repository root.
	Path string

	// CloneDir is the local directory the repository is cloned into.
	CloneDir string

	// PollInterval is how often to check for new commits. Default: 1 minute.
	PollInterval time.Duration

	// Token is a personal access token for HTTPS authentication.
	Token string

	// SSHKeyPath is the path to a private key for SSH authentication.
	SSHKeyPath string

	// SSHPassphrase is the optional passphrase for the SSH key.
	SSHPassphrase string
}

// GitSource loads rules from a Git repository. The repository is cloned
// once and pulled on every Load; Poll emits an event whenever HEAD
// advances so the manager can reload.
type GitSource struct {
	config *GitConfig
	repo   *git.Repository
	logger *slog.Logger
}

// NewGitSource creates a GitOps rule source.
func NewGitSource(config *GitConfig, logger *slog.Logger) (*GitSource, error) {
	if config == nil || config.URL == "" {
		return nil, fmt.Errorf("git source requires a repository URL")
	}
	if config.CloneDir == "" {
		return nil, fmt.Errorf("git source requires a clone directory")
	}
	if config.Branch == "" {
		config.Branch = "main"
	}
	if config.PollInterval <= 0 {
		config.PollInterval = time.Minute
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &GitSource{
		config: config,
		logger: logger.With("component", "rules.source.git"),
	}, nil
}

// Load clones the repository if needed, pulls the tracked branch, and
// parses the rule files it contains.
func (s *GitSource) Load(ctx context.Context) ([]*ast.PolicyRule, error) {
	if err := s.sync(ctx); err != nil {
		return nil, err
	}

	rulePath := s.config.CloneDir
	if s.config.Path != "" {
		rulePath = filepath.Join(s.config.CloneDir, s.config.Path)
	}

	return NewFileSource(rulePath, s.logger).Load(ctx)
}

// Poll starts polling the remote for new commits. An event is emitted
// whenever HEAD advances. The channel is closed when the context is
// cancelled.
func (s *GitSource) Poll(ctx context.Context) (<-chan Event, error) {
	if err := s.sync(ctx); err != nil {
		return nil, err
	}

	last, err := s.head()
	if err != nil {
		return nil, err
	}

	events := make(chan Event, 1)
	go func() {
		defer close(events)

		ticker := time.NewTicker(s.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := s.sync(ctx); err != nil {
					s.logger.Warn("git poll failed", "error", err)
					continue
				}
				head, err := s.head()
				if err != nil {
					s.logger.Warn("failed to resolve HEAD", "error", err)
					continue
				}
				if head != last {
					s.logger.Info("rule repository updated",
						"old_commit", last.String()[:8],
						"new_commit", head.String()[:8],
					)
					last = head
					select {
					case events <- Event{Path: s.config.URL}:
					default:
					}
				}
			}
		}
	}()

	return events, nil
}

// sync opens or clones the repository and fast-forwards the tracked branch.
func (s *GitSource) sync(ctx context.Context) error {
	auth, err := s.auth()
	if err != nil {
		return err
	}

	if s.repo == nil {
		repo, err := git.PlainOpen(s.config.CloneDir)
		if errors.Is(err, git.ErrRepositoryNotExists) {
			s.logger.Info("cloning rule repository",
				"url", s.config.URL,
				"branch", s.config.Branch,
			)
			repo, err = git.PlainCloneContext(ctx, s.config.CloneDir, false, &git.CloneOptions{
				URL:           s.config.URL,
				ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
				SingleBranch:  true,
				Auth:          auth,
			})
		}
		if err != nil {
			return fmt.Errorf("failed to open rule repository: %w", err)
		}
		s.repo = repo
	}

	worktree, err := s.repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		ReferenceName: plumbing.NewBranchReferenceName(s.config.Branch),
		SingleBranch:  true,
		Auth:          auth,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull rule repository: %w", err)
	}

	return nil
}

// head returns the current HEAD commit hash.
func (s *GitSource) head() (plumbing.Hash, error) {
	ref, err := s.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	return ref.Hash(), nil
}

// auth builds the transport auth method from the configured
// credentials. Token auth wins when both are set; anonymous access is
// used when neither is.
func (s *GitSource) auth() (transport.AuthMethod, error) {
	if s.config.Token != "" {
		return &githttp.BasicAuth{
			Username: "git", // Can be anything for token auth
			Password: s.config.Token,
		}, nil
	}
	if s.config.SSHKeyPath != "" {
		keys, err := gitssh.NewPublicKeysFromFile("git", s.config.SSHKeyPath, s.config.SSHPassphrase)
		if err != nil {
			return nil, fmt.Errorf("failed to load SSH key: %w", err)
		}
		return keys, nil
	}
	return nil, nil
}
