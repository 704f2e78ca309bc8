// Package checksum writes checksum sidecar files next to artifacts.
package checksum

import (
	"crypto/md5"
	"crypto/sha1"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/oarkflow/stagepack/internal/artifact"
	"github.com/oarkflow/stagepack/internal/config"
)

// Algorithm represents a checksum algorithm.
type Algorithm string

const (
	AlgorithmMD5    Algorithm = "md5"
	AlgorithmSHA1   Algorithm = "sha1"
	AlgorithmSHA256 Algorithm = "sha256"
	AlgorithmSHA512 Algorithm = "sha512"
)

// Generator generates checksums for artifacts.
type Generator struct {
	config config.Checksum
}

// NewGenerator creates a new checksum generator.
func NewGenerator(cfg config.Checksum) *Generator {
	return &Generator{config: cfg}
}

func (g *Generator) algorithm() Algorithm {
	if g.config.Algorithm == "" {
		return AlgorithmSHA256
	}
	return Algorithm(strings.ToLower(g.config.Algorithm))
}

// Write computes the digest of h and writes "<digest>  <name>" to
// "<path>.<algorithm>". It returns h with Checksum set and the sidecar
// handle. Directory artifacts are returned unchanged with ok false.
func (g *Generator) Write(h artifact.Handle) (updated artifact.Handle, sidecar artifact.Handle, ok bool, err error) {
	if g.config.Disable {
		log.Info("Skipping checksum generation")
		return h, artifact.Handle{}, false, nil
	}
	if !h.IsFile() {
		log.Debug("Not checksumming directory artifact", "path", h.Path)
		return h, artifact.Handle{}, false, nil
	}

	algo := g.algorithm()
	sum, err := CalculateForFile(h.Path, algo)
	if err != nil {
		return h, artifact.Handle{}, false, fmt.Errorf("failed to calculate checksum for %s: %w", h.Name, err)
	}

	path := h.Path + "." + string(algo)
	line := fmt.Sprintf("%s  %s\n", sum, filepath.Base(h.Path))
	if err := os.WriteFile(path, []byte(line), 0o644); err != nil {
		return h, artifact.Handle{}, false, fmt.Errorf("failed to write checksum file: %w", err)
	}

	h.Checksum = sum
	sidecar = artifact.NewHandle(path, artifact.KindChecksum, h.Platform)
	sidecar.RunID = h.RunID
	sidecar.Extra = map[string]interface{}{"algorithm": string(algo)}

	log.Info("Checksum written", "file", path, "algorithm", algo)
	return h, sidecar, true, nil
}

func newHash(algorithm Algorithm) (hash.Hash, error) {
	switch algorithm {
	case AlgorithmMD5:
		return md5.New(), nil
	case AlgorithmSHA1:
		return sha1.New(), nil
	case AlgorithmSHA256:
		return sha256.New(), nil
	case AlgorithmSHA512:
		return sha512.New(), nil
	}
	return nil, fmt.Errorf("unsupported algorithm: %s", algorithm)
}

// CalculateForFile calculates checksum for a single file.
func CalculateForFile(path string, algorithm Algorithm) (string, error) {
	h, err := newHash(algorithm)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}

	return fmt.Sprintf("%x", h.Sum(nil)), nil
}

// VerifyChecksum verifies a file against an expected checksum.
func VerifyChecksum(path string, expected string, algorithm Algorithm) (bool, error) {
	actual, err := CalculateForFile(path, algorithm)
	if err != nil {
		return false, err
	}
	return strings.EqualFold(actual, expected), nil
}
