package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"hash"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/jwebster45206/scene-lint/internal/validator"
)

// Key digests every input that can change a report: option values, the bytes of
// each source, and the set of files under the managed image tree.
func Key(src validator.Sources, opts validator.Options) (string, error) {
	h := sha256.New()

	optsJSON, err := json.Marshal(opts)
	if err != nil {
		return "", fmt.Errorf("failed to encode options: %w", err)
	}
	fmt.Fprintf(h, "options\x00%s\x00", optsJSON)

	entries, err := os.ReadDir(src.ScenesDir)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to list scenes: %w", err)
	}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if err := hashFile(h, filepath.Join(src.ScenesDir, e.Name())); err != nil {
			return "", err
		}
	}

	for _, path := range []string{src.ItemsPath, src.EndingsPath, src.AudioPath} {
		if err := hashFile(h, path); err != nil {
			return "", err
		}
	}

	images, err := listTree(filepath.Join(opts.PublicDir, filepath.FromSlash(strings.Trim(opts.ImagePrefix, "/"))))
	if err != nil {
		return "", err
	}
	for _, rel := range images {
		fmt.Fprintf(h, "image\x00%s\x00", rel)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func hashFile(h hash.Hash, path string) error {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			fmt.Fprintf(h, "missing\x00%s\x00", path)
			return nil
		}
		return fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	fmt.Fprintf(h, "file\x00%s\x00", path)
	if _, err := io.Copy(h, f); err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	h.Write([]byte{0})
	return nil
}

func listTree(root string) ([]string, error) {
	var out []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		out = append(out, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list images: %w", err)
	}
	sort.Strings(out)
	return out, nil
}
