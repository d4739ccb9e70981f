package dirsync

import (
	"context"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jingkaihe/pluginkit/pkg/logger"
	"github.com/pkg/errors"
)

// copyTree recursively copies src into dst, which must not exist yet, and
// returns the number of files and symlinks written. Symlinks are recreated as
// links rather than followed.
func copyTree(ctx context.Context, src, dst string) (int, error) {
	files := 0

	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		destPath := filepath.Join(dst, relPath)

		info, err := d.Info()
		if err != nil {
			return err
		}

		switch mode := info.Mode(); {
		case mode.IsDir():
			// owner write is kept so the directory can be populated
			return os.MkdirAll(destPath, mode.Perm()|0o700)
		case mode&fs.ModeSymlink != 0:
			target, err := os.Readlink(path)
			if err != nil {
				return err
			}
			files++
			return os.Symlink(target, destPath)
		case mode.IsRegular():
			files++
			return copyFile(path, destPath, mode.Perm())
		default:
			logger.G(ctx).WithField("path", path).Debug("skipping special file")
			return nil
		}
	})
	if err != nil {
		return files, errors.Wrapf(err, "failed to copy %s to %s", src, dst)
	}

	return files, nil
}

func copyFile(src, dst string, perm fs.FileMode) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}

	if _, err := io.Copy(dstFile, srcFile); err != nil {
		dstFile.Close()
		return err
	}
	if err := dstFile.Close(); err != nil {
		return err
	}

	// OpenFile applies the umask
	return os.Chmod(dst, perm)
}
