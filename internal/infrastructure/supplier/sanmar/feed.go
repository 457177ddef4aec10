package sanmar

import (
	"archive/zip"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/sftp"
	"go.uber.org/zap"
	"golang.org/x/crypto/ssh"

	"github.com/printshop/catalog/internal/domain/catalog"
)

// Fetcher downloads the bulk feed over SFTP and hands back a local CSV
// path, extracting .zip/.gz archives transparently.
type Fetcher struct {
	config *Config
	log    *zap.Logger
}

func NewFetcher(config *Config, log *zap.Logger) *Fetcher {
	return &Fetcher{config: config, log: log}
}

func (f *Fetcher) addr() string {
	port := f.config.Port
	if port <= 0 {
		port = 22
	}
	return net.JoinHostPort(f.config.Host, fmt.Sprintf("%d", port))
}

func (f *Fetcher) connect(ctx context.Context) (*ssh.Client, *sftp.Client, error) {
	timeout := time.Duration(f.config.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	sshConfig := &ssh.ClientConfig{
		User:            f.config.Username,
		Auth:            []ssh.AuthMethod{ssh.Password(f.config.Password)},
		HostKeyCallback: ssh.InsecureIgnoreHostKey(),
		Timeout:         timeout,
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", f.addr())
	if err != nil {
		return nil, nil, &catalog.TransientError{Op: "sanmar sftp dial", Err: err}
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(conn, f.addr(), sshConfig)
	if err != nil {
		conn.Close()
		return nil, nil, &catalog.AuthError{Supplier: catalog.SupplierSanMar, Err: err}
	}
	sshClient := ssh.NewClient(sshConn, chans, reqs)

	sftpClient, err := sftp.NewClient(sshClient)
	if err != nil {
		sshClient.Close()
		return nil, nil, &catalog.TransientError{Op: "sanmar sftp session", Err: err}
	}
	return sshClient, sftpClient, nil
}

// Ping verifies the remote feed file exists and is reachable.
func (f *Fetcher) Ping(ctx context.Context) error {
	sshClient, sftpClient, err := f.connect(ctx)
	if err != nil {
		return err
	}
	defer sshClient.Close()
	defer sftpClient.Close()

	remote := filepath.ToSlash(filepath.Join(f.config.RemoteDir, f.config.fileName()))
	if _, err := sftpClient.Stat(remote); err != nil {
		return &catalog.TransientError{Op: "sanmar sftp stat " + remote, Err: err}
	}
	return nil
}

// Fetch downloads the remote feed into LocalDir and returns the path of
// the extracted CSV.
func (f *Fetcher) Fetch(ctx context.Context) (string, error) {
	sshClient, sftpClient, err := f.connect(ctx)
	if err != nil {
		return "", err
	}
	defer sshClient.Close()
	defer sftpClient.Close()

	name := f.config.fileName()
	remote := filepath.ToSlash(filepath.Join(f.config.RemoteDir, name))
	src, err := sftpClient.Open(remote)
	if err != nil {
		return "", &catalog.TransientError{Op: "sanmar sftp open " + remote, Err: err}
	}
	defer src.Close()

	localDir := f.config.LocalDir
	if localDir == "" {
		localDir = os.TempDir()
	}
	if err := os.MkdirAll(localDir, 0o755); err != nil {
		return "", err
	}

	local := filepath.Join(localDir, name)
	dst, err := os.Create(local)
	if err != nil {
		return "", err
	}
	written, err := io.Copy(dst, src)
	if cerr := dst.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", &catalog.TransientError{Op: "sanmar sftp download " + remote, Err: err}
	}
	f.log.Info("downloaded supplier feed",
		zap.String("remote", remote),
		zap.String("local", local),
		zap.Int64("bytes", written))

	return ExtractFeed(local)
}

// ExtractFeed resolves an archive to the CSV inside it. Plain CSV paths
// pass through untouched.
func ExtractFeed(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return extractZip(path)
	case ".gz":
		return extractGzip(path)
	default:
		return path, nil
	}
}

func extractZip(path string) (string, error) {
	archive, err := zip.OpenReader(path)
	if err != nil {
		return "", fmt.Errorf("sanmar: open archive %s: %w", path, err)
	}
	defer archive.Close()

	for _, file := range archive.File {
		if strings.ToLower(filepath.Ext(file.Name)) != ".csv" {
			continue
		}
		src, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("sanmar: extract %s: %w", file.Name, err)
		}
		target := filepath.Join(filepath.Dir(path), filepath.Base(file.Name))
		out, err := os.Create(target)
		if err != nil {
			src.Close()
			return "", err
		}
		_, err = io.Copy(out, src)
		src.Close()
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return "", fmt.Errorf("sanmar: extract %s: %w", file.Name, err)
		}
		return target, nil
	}
	return "", fmt.Errorf("sanmar: archive %s contains no CSV file", path)
}

func extractGzip(path string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer src.Close()

	unzipped, err := gzip.NewReader(src)
	if err != nil {
		return "", fmt.Errorf("sanmar: open archive %s: %w", path, err)
	}
	defer unzipped.Close()

	target := strings.TrimSuffix(path, filepath.Ext(path))
	out, err := os.Create(target)
	if err != nil {
		return "", err
	}
	_, err = io.Copy(out, unzipped)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", fmt.Errorf("sanmar: extract %s: %w", path, err)
	}
	return target, nil
}
