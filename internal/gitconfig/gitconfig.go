// Package gitconfig reads .git/config and audits remotes for embedded credentials.
package gitconfig

import (
	"fmt"
	"net/url"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/ini.v1"
)

type RemoteSection struct {
	URL   string `ini:"url"`
	Fetch string `ini:"fetch"`
}

type BranchSection struct {
	Remote string `ini:"remote"`
	Merge  string `ini:"merge"`
}

// GitConfig is the subset of .git/config this tool cares about.
type GitConfig struct {
	Remote map[string]RemoteSection `ini:"remote"`
	Branch map[string]BranchSection `ini:"branch"`
}

// Path returns the config file location for a repository root.
func Path(repoRoot string) string {
	return filepath.Join(repoRoot, ".git", "config")
}

// Load parses a git config file.
func Load(path string) (*GitConfig, error) {
	cfg, err := ini.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load git config %s: %w", path, err)
	}

	gitConfig := GitConfig{
		Remote: make(map[string]RemoteSection),
		Branch: make(map[string]BranchSection),
	}

	for _, sec := range cfg.Sections() {
		if name, ok := subsectionName(sec.Name(), "remote"); ok && sec.HasKey("url") {
			var remote RemoteSection

			if err := sec.MapTo(&remote); err != nil {
				return nil, err
			}

			gitConfig.Remote[name] = remote
		}

		if name, ok := subsectionName(sec.Name(), "branch"); ok && sec.HasKey("merge") {
			var branch BranchSection

			if err := sec.MapTo(&branch); err != nil {
				return nil, err
			}

			gitConfig.Branch[name] = branch
		}
	}

	return &gitConfig, nil
}

// subsectionName extracts "origin" from `remote "origin"`.
func subsectionName(section, kind string) (string, bool) {
	prefix := kind + ` "`
	if !strings.HasPrefix(section, prefix) || !strings.HasSuffix(section, `"`) || len(section) <= len(prefix) {
		return "", false
	}

	return section[len(prefix) : len(section)-1], true
}

// BranchUpstream returns the upstream of a local branch as "<remote>/<branch>".
func (c *GitConfig) BranchUpstream(name string) (string, bool) {
	if c == nil {
		return "", false
	}

	branch, ok := c.Branch[name]
	if !ok {
		return "", false
	}

	merge := strings.TrimPrefix(branch.Merge, "refs/heads/")
	if branch.Remote == "" || branch.Remote == "." {
		return merge, true
	}

	return branch.Remote + "/" + merge, true
}

// RemoteFinding is a remote whose URL carries a credential.
type RemoteFinding struct {
	Remote string
	URL    string // Redacted
}

// AuditRemotes returns remotes whose URL embeds a password or token, sorted by name.
func AuditRemotes(cfg *GitConfig) []RemoteFinding {
	if cfg == nil {
		return nil
	}

	var findings []RemoteFinding

	for name, remote := range cfg.Remote {
		if redacted, ok := credentialURL(remote.URL); ok {
			findings = append(findings, RemoteFinding{Remote: name, URL: redacted})
		}
	}

	sort.Slice(findings, func(i, j int) bool {
		return findings[i].Remote < findings[j].Remote
	})

	return findings
}

// credentialURL reports whether raw carries userinfo with a password and
// returns the redacted form.
func credentialURL(raw string) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return "", false
	}

	if _, hasPassword := u.User.Password(); !hasPassword {
		return "", false
	}

	return u.Redacted(), true
}
