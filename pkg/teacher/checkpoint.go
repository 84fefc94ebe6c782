package teacher

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/theoremlab/bootstrap/pkg/core"
	"github.com/theoremlab/bootstrap/pkg/errors"
	"github.com/theoremlab/bootstrap/pkg/logging"
)

const (
	rollingAgentFile = "model.bin"
	modelInfoFile    = "model_info.yaml"
)

// ModelInfo is the rolling-mode metadata record. Its iteration field
// always names the last iteration whose checkpoint was fully written;
// resume starts at the next one.
type ModelInfo struct {
	Iteration int `yaml:"iteration"`
}

// CheckpointManager persists and restores agent state plus the
// per-iteration artifacts under one run directory. Two mutually
// exclusive modes:
//
//   - per-iteration: one "<i>.bin" agent file per round; resume loads
//     the largest contiguous index and re-executes that iteration.
//   - rolling: a single "model.bin" plus "model_info.yaml" pair
//     overwritten each round; resume starts at iteration+1.
//
// All files are written to a temp name and renamed into place, so a
// crash mid-write never leaves a half-written file where resume would
// find it.
type CheckpointManager struct {
	dir          string
	perIteration bool
	logger       *logging.Logger
}

// NewCheckpointManager creates a manager rooted at dir.
func NewCheckpointManager(dir string, perIteration bool) *CheckpointManager {
	return &CheckpointManager{
		dir:          dir,
		perIteration: perIteration,
		logger:       logging.GetLogger(),
	}
}

// Dir returns the run directory.
func (m *CheckpointManager) Dir() string {
	return m.dir
}

// SaveAgent persists the agent after iteration i completed.
func (m *CheckpointManager) SaveAgent(agent core.Agent, iteration int) error {
	snapshot, err := agent.Snapshot()
	if err != nil {
		return errors.Wrap(err, errors.CheckpointWriteFailed, "serializing agent")
	}

	if m.perIteration {
		path := filepath.Join(m.dir, fmt.Sprintf("%d.bin", iteration))
		if err := writeFileAtomic(path, snapshot); err != nil {
			return errors.Wrap(err, errors.CheckpointWriteFailed, "writing iteration checkpoint")
		}
		return nil
	}

	// Rolling mode: blob first, metadata second. The metadata rename is
	// the commit point; until it lands, resume still sees the previous
	// iteration.
	if err := writeFileAtomic(filepath.Join(m.dir, rollingAgentFile), snapshot); err != nil {
		return errors.Wrap(err, errors.CheckpointWriteFailed, "writing agent checkpoint")
	}

	info, err := yaml.Marshal(ModelInfo{Iteration: iteration})
	if err != nil {
		return errors.Wrap(err, errors.CheckpointWriteFailed, "encoding model info")
	}
	if err := writeFileAtomic(filepath.Join(m.dir, modelInfoFile), info); err != nil {
		return errors.Wrap(err, errors.CheckpointWriteFailed, "writing model info")
	}

	return nil
}

// SaveArtifacts writes the iteration's training example set and proven
// conjectures. Immutable once written; never read back by the loop.
func (m *CheckpointManager) SaveArtifacts(iteration int, examples, proven []string) error {
	if err := writeJSON(filepath.Join(m.dir, fmt.Sprintf("examples_%d.json", iteration)), examples); err != nil {
		return errors.Wrap(err, errors.CheckpointWriteFailed, "writing examples artifact")
	}
	if err := writeJSON(filepath.Join(m.dir, fmt.Sprintf("proven_conj_%d.json", iteration)), proven); err != nil {
		return errors.Wrap(err, errors.CheckpointWriteFailed, "writing proven-conjectures artifact")
	}
	return nil
}

// Resume restores the agent from the run directory and returns the
// iteration the loop should start at. Missing or malformed state is
// fatal; a run asked to continue never silently starts fresh.
func (m *CheckpointManager) Resume(agent core.Agent) (int, error) {
	if m.perIteration {
		return m.resumePerIteration(agent)
	}
	return m.resumeRolling(agent)
}

// resumePerIteration finds the largest contiguous index i with an
// existing checkpoint, loads it, and resumes at i itself: the last
// detected iteration is re-executed.
func (m *CheckpointManager) resumePerIteration(agent core.Agent) (int, error) {
	last := -1
	for i := 0; ; i++ {
		if _, err := os.Stat(filepath.Join(m.dir, fmt.Sprintf("%d.bin", i))); err != nil {
			break
		}
		last = i
	}
	if last < 0 {
		return 0, errors.WithFields(
			errors.New(errors.ResumeStateInvalid, "no iteration checkpoint found"),
			errors.Fields{"dir": m.dir},
		)
	}

	path := filepath.Join(m.dir, fmt.Sprintf("%d.bin", last))
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, errors.Wrap(err, errors.ResumeStateInvalid, "reading iteration checkpoint")
	}
	if err := agent.Restore(data); err != nil {
		return 0, errors.Wrap(err, errors.ResumeStateInvalid, "restoring agent")
	}

	m.logger.Info(nil, "Loaded agent from %s", path)
	return last, nil
}

func (m *CheckpointManager) resumeRolling(agent core.Agent) (int, error) {
	infoData, err := os.ReadFile(filepath.Join(m.dir, modelInfoFile))
	if err != nil {
		return 0, errors.Wrap(err, errors.ResumeStateInvalid, "reading model info")
	}

	var info ModelInfo
	if err := yaml.Unmarshal(infoData, &info); err != nil {
		return 0, errors.Wrap(err, errors.ResumeStateInvalid, "parsing model info")
	}

	data, err := os.ReadFile(filepath.Join(m.dir, rollingAgentFile))
	if err != nil {
		return 0, errors.Wrap(err, errors.ResumeStateInvalid, "reading agent checkpoint")
	}
	if err := agent.Restore(data); err != nil {
		return 0, errors.Wrap(err, errors.ResumeStateInvalid, "restoring agent")
	}

	m.logger.Info(nil, "Loaded agent from %s", filepath.Join(m.dir, rollingAgentFile))
	return info.Iteration + 1, nil
}

// writeFileAtomic writes data to a temp file in the target's directory,
// syncs it, and renames it into place.
func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), path)
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return writeFileAtomic(path, data)
}
