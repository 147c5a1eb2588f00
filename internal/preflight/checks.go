// Package preflight runs startup sanity checks: directory access and free
// scratch space for audio handed to the engine.
package preflight

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"

	"github.com/hirelala/audio2vtt/internal/config"
)

// Result captures the outcome of one preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// minScratchBytes is the free-space floor for the temp directory; uploads and
// engine output both land there.
const minScratchBytes = 256 << 20

// CheckDirectoryAccess verifies that the directory exists and is
// readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckScratchSpace verifies the temp directory has room for audio payloads.
func CheckScratchSpace(path string) Result {
	const name = "Scratch space"
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: statfs: %v)", path, err)}
	}
	free := stat.Bavail * uint64(stat.Bsize)
	if free < minScratchBytes {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %d MiB free)", path, free>>20)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d MiB free)", path, free>>20)}
}

// Run evaluates all directory and space checks for the configuration.
func Run(cfg *config.Config) []Result {
	results := []Result{
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Temp directory", cfg.Paths.TempDir),
		CheckDirectoryAccess("Model directory", cfg.Whisper.ModelDir),
	}
	results = append(results, CheckScratchSpace(cfg.Paths.TempDir))
	return results
}
