// Package offsite mirrors the local asset pool and album tree to a
// remote host over SFTP for off-site backup. The teacher's go.mod
// carries an SSH client (goph, wrapping golang.org/x/crypto/ssh) and
// pkg/sftp that its retrieved upload.go slice never touches; this
// package is where that stack gets wired instead of dropped.
package offsite

import (
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"

	"github.com/melbahja/goph"
	"github.com/pkg/sftp"
)

// Pusher copies a local directory tree to a path on a remote host.
type Pusher struct {
	client *goph.Client
	sftp   *sftp.Client
}

// Dial opens an SSH connection to host as user, authenticating with
// the private key at keyPath (passphrase may be empty).
func Dial(user, host, keyPath, passphrase string) (*Pusher, error) {
	auth, err := goph.Key(keyPath, passphrase)
	if err != nil {
		return nil, fmt.Errorf("offsite: load key %q: %w", keyPath, err)
	}

	client, err := goph.New(user, host, auth)
	if err != nil {
		return nil, fmt.Errorf("offsite: dial %s@%s: %w", user, host, err)
	}

	sc, err := client.NewSftp()
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("offsite: open sftp session: %w", err)
	}

	return &Pusher{client: client, sftp: sc}, nil
}

// Close releases the underlying SSH connection.
func (p *Pusher) Close() error {
	p.sftp.Close()
	return p.client.Close()
}

// Push copies every regular file under localRoot to the same relative
// path under remoteRoot, creating remote directories as needed.
// Symbolic links (album member links) are resolved and their target
// content is uploaded, since the remote filesystem is not assumed to
// support the same relative-symlink layout.
func (p *Pusher) Push(localRoot, remoteRoot string) (int, error) {
	copied := 0

	err := filepath.Walk(localRoot, func(localPath string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(localRoot, localPath)
		if err != nil {
			return fmt.Errorf("offsite: relative path for %q: %w", localPath, err)
		}
		remotePath := path.Join(remoteRoot, filepath.ToSlash(rel))

		if err := p.sftp.MkdirAll(path.Dir(remotePath)); err != nil {
			return fmt.Errorf("offsite: mkdir %q: %w", path.Dir(remotePath), err)
		}

		if err := p.pushFile(localPath, remotePath); err != nil {
			return err
		}
		copied++
		return nil
	})
	if err != nil {
		return copied, fmt.Errorf("offsite: push %q: %w", localRoot, err)
	}

	return copied, nil
}

func (p *Pusher) pushFile(localPath, remotePath string) error {
	src, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("offsite: open %q: %w", localPath, err)
	}
	defer src.Close()

	dst, err := p.sftp.Create(remotePath)
	if err != nil {
		return fmt.Errorf("offsite: create remote %q: %w", remotePath, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("offsite: copy %q -> %q: %w", localPath, remotePath, err)
	}
	return nil
}
