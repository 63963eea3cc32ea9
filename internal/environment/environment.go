// Package environment is the Environment Manager (spec §4.2): it owns
// the on-disk layout under the data root, slug uniqueness, and Python
// virtualenv provisioning for each Script. It is grounded on the
// original backend's VirtualEnvironmentManager, translated from
// asyncio subprocesses into os/exec.
package environment

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/matt-ortiz/PyScheduler/internal/common"
)

// Manager provisions and tears down the filesystem state backing each
// Script: its source file, requirements file, and virtualenv.
type Manager struct {
	dataRoot string
}

func NewManager(dataRoot string) *Manager {
	return &Manager{dataRoot: dataRoot}
}

// Layout is the resolved set of paths for one script.
type Layout struct {
	ScriptDir        string
	SourceFile       string
	RequirementsFile string
	VenvDir          string
	StateFile        string
}

// PathsFor resolves the directory layout for a script given its slug
// and an optional folder path segment ("" for the root folder),
// mirroring data/scripts/<folder?>/<slug>/... from the original.
func (m *Manager) PathsFor(slug, folderPath string) Layout {
	dir := filepath.Join(m.dataRoot, "scripts")
	if folderPath != "" {
		dir = filepath.Join(dir, folderPath)
	}
	dir = filepath.Join(dir, slug)
	return Layout{
		ScriptDir:        dir,
		SourceFile:       filepath.Join(dir, slug+".py"),
		RequirementsFile: filepath.Join(dir, "requirements.txt"),
		VenvDir:          filepath.Join(dir, ".venv"),
		StateFile:        filepath.Join(dir, ".env-state.json"),
	}
}

// InstallOutcome reports what happened during provisioning; Prepare
// returns it to the caller alongside the Layout.
type InstallOutcome struct {
	VenvCreated      bool
	RequirementsHash string
	Reinstalled      bool
	Stdout           string
	Stderr           string
	Success          bool
}

// Prepare ensures the script's directory, source file, and virtualenv
// exist and are up to date before a run: the venv is created once and
// kept; requirements are reinstalled only when their content changes
// (hash comparison against the last-known state), and the source file
// is rewritten fresh on every call so edits always take effect.
func (m *Manager) Prepare(ctx context.Context, slug, folderPath, pythonVersion, content, requirements string) (Layout, InstallOutcome, error) {
	layout := m.PathsFor(slug, folderPath)
	var outcome InstallOutcome

	if err := os.MkdirAll(layout.ScriptDir, 0o755); err != nil {
		return layout, outcome, common.Wrap(common.KindEnvironment, "create script directory: %v", err)
	}
	if err := os.WriteFile(layout.SourceFile, []byte(content), 0o644); err != nil {
		return layout, outcome, common.Wrap(common.KindEnvironment, "write script source: %v", err)
	}

	if !m.venvExists(layout) {
		if err := m.createVenv(ctx, layout, pythonVersion); err != nil {
			return layout, outcome, err
		}
		outcome.VenvCreated = true
	}

	hash := hashRequirements(requirements)
	outcome.RequirementsHash = hash
	prevHash := m.readState(layout)

	if strings.TrimSpace(requirements) != "" && hash != prevHash {
		if err := os.WriteFile(layout.RequirementsFile, []byte(requirements), 0o644); err != nil {
			return layout, outcome, common.Wrap(common.KindEnvironment, "write requirements: %v", err)
		}
		stdout, stderr, err := m.pipInstall(ctx, layout)
		outcome.Stdout, outcome.Stderr = stdout, stderr
		outcome.Reinstalled = true
		if err != nil {
			outcome.Success = false
			return layout, outcome, common.Wrap(common.KindEnvironment, "install requirements: %v", err)
		}
	}
	// Recorded even for an empty manifest: provisioning still happened
	// and a future Prepare needs prevHash to detect "requirements added".
	m.writeState(layout, pythonVersion, hash)
	outcome.Success = true
	return layout, outcome, nil
}

func hashRequirements(requirements string) string {
	sum := sha256.Sum256([]byte(requirements))
	return hex.EncodeToString(sum[:])
}

// stateRecord is the on-disk shape of .env-state.json (spec §4.3):
// version pins the interpreter a script's venv was built against,
// requirements_hash drives reinstall-on-change detection, and
// installed_at is surfaced by the venv-info endpoint.
type stateRecord struct {
	Version          string    `json:"version"`
	RequirementsHash string    `json:"requirements_hash"`
	InstalledAt      time.Time `json:"installed_at"`
}

func (m *Manager) readState(layout Layout) string {
	b, err := os.ReadFile(layout.StateFile)
	if err != nil {
		return ""
	}
	var rec stateRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		return ""
	}
	return rec.RequirementsHash
}

func (m *Manager) writeState(layout Layout, pythonVersion, hash string) {
	rec := stateRecord{Version: pythonVersion, RequirementsHash: hash, InstalledAt: time.Now().UTC()}
	b, err := json.Marshal(rec)
	if err != nil {
		return
	}
	_ = os.WriteFile(layout.StateFile, b, 0o644)
}

func (m *Manager) venvExists(layout Layout) bool {
	_, err := os.Stat(m.pythonBin(layout))
	return err == nil
}

func (m *Manager) pythonBin(layout Layout) string {
	return filepath.Join(layout.VenvDir, "bin", "python")
}

func (m *Manager) pipBin(layout Layout) string {
	return filepath.Join(layout.VenvDir, "bin", "pip")
}

// resolveInterpreter finds a `pythonX.Y` on PATH, falling back to
// plain `python3` when the specific minor version isn't installed —
// same fallback the original virtualenv manager applies.
func resolveInterpreter(version string) string {
	candidate := "python" + version
	if _, err := exec.LookPath(candidate); err == nil {
		return candidate
	}
	return "python3"
}

func (m *Manager) createVenv(ctx context.Context, layout Layout, pythonVersion string) error {
	interpreter := resolveInterpreter(pythonVersion)
	cmd := exec.CommandContext(ctx, interpreter, "-m", "venv", layout.VenvDir)
	if out, err := cmd.CombinedOutput(); err != nil {
		return common.Wrap(common.KindEnvironment, "create virtualenv: %v: %s", err, string(out))
	}

	upgrade := exec.CommandContext(ctx, m.pipBin(layout), "install", "--upgrade", "pip")
	_ = upgrade.Run() // best-effort, matching the original's fire-and-forget pip upgrade

	return nil
}

func (m *Manager) pipInstall(ctx context.Context, layout Layout) (stdout, stderr string, err error) {
	cmd := exec.CommandContext(ctx, m.pipBin(layout), "install", "-r", layout.RequirementsFile)
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err = cmd.Run()
	return outBuf.String(), errBuf.String(), err
}

// Cleanup removes a script's entire directory tree (spec §4.3: deleting
// a Script removes its directory tree), mirroring the original
// VirtualEnvironmentManager.cleanup()'s unconditional shutil.rmtree.
func (m *Manager) Cleanup(layout Layout) error {
	return m.removeUnderRoot(layout.ScriptDir)
}

// CleanupFolder removes every script directory nested under folderPath
// in one sweep. Deleting a folder cascades into all scripts it
// (transitively) contains, so their directories go with it.
func (m *Manager) CleanupFolder(folderPath string) error {
	if folderPath == "" {
		return nil
	}
	return m.removeUnderRoot(filepath.Join(m.dataRoot, "scripts", folderPath))
}

// removeUnderRoot refuses to operate outside the data root, guarding
// against a malformed slug or folder path ever reaching rm -rf territory.
func (m *Manager) removeUnderRoot(dir string) error {
	absRoot, err := filepath.Abs(m.dataRoot)
	if err != nil {
		return err
	}
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	if !strings.HasPrefix(absDir, absRoot+string(filepath.Separator)) {
		return common.NewErrNo(common.KindInternal, "refusing to remove directory outside data root")
	}
	return os.RemoveAll(absDir)
}

// Info is the venv-info introspection surface (spec §4.2).
type Info struct {
	Exists             bool       `json:"exists"`
	InterpreterVersion string     `json:"interpreter_version"`
	Packages           []string   `json:"packages"`
	LastInstallAt      *time.Time `json:"last_install_at"`
}

func (m *Manager) Inspect(ctx context.Context, layout Layout) Info {
	info := Info{Exists: m.venvExists(layout)}
	if !info.Exists {
		return info
	}
	if fi, err := os.Stat(layout.StateFile); err == nil {
		t := fi.ModTime()
		info.LastInstallAt = &t
	}
	out, err := exec.CommandContext(ctx, m.pipBin(layout), "freeze").Output()
	if err == nil {
		for _, line := range strings.Split(strings.TrimSpace(string(out)), "\n") {
			if line != "" {
				info.Packages = append(info.Packages, line)
			}
		}
	}
	versionOut, err := exec.CommandContext(ctx, m.pythonBin(layout), "--version").Output()
	if err == nil {
		info.InterpreterVersion = strings.TrimSpace(string(versionOut))
	}
	return info
}

// InterpreterPath is what the Execution Engine actually spawns.
func (m *Manager) InterpreterPath(layout Layout) string {
	return m.pythonBin(layout)
}
