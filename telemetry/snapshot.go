package telemetry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pthm-cable/ecosystem/components"
	"github.com/pthm-cable/ecosystem/neural"
)

// SnapshotVersion is incremented when the format changes.
const SnapshotVersion = 1

// Snapshot holds the complete simulation state for replay.
type Snapshot struct {
	Version int   `json:"version"`
	RNGSeed int64 `json:"rng_seed"`

	WorldWidth  float32 `json:"world_width"`
	WorldHeight float32 `json:"world_height"`
	Capacity    int     `json:"capacity"`

	Tick   int32  `json:"tick"`
	NextID uint32 `json:"next_id"`
	Births int    `json:"births"`
	Deaths int    `json:"deaths"`

	Organisms []OrganismState `json:"organisms"`
	Food      []FoodState     `json:"food"`
}

// OrganismState holds one organism's complete state.
type OrganismState struct {
	ID          uint32          `json:"id"`
	ParentID    uint32          `json:"parent_id,omitempty"`
	Kind        components.Kind `json:"kind"`
	ArchetypeID uint8           `json:"archetype_id"`
	Generation  uint32          `json:"generation"`

	// Position and movement
	X       float32 `json:"x"`
	Y       float32 `json:"y"`
	VelX    float32 `json:"vel_x"`
	VelY    float32 `json:"vel_y"`
	Heading float32 `json:"heading"`

	// Organism state
	Energy         float32 `json:"energy"`
	Age            float32 `json:"age"`
	ReproCooldown  float32 `json:"repro_cooldown"`
	DigestCooldown float32 `json:"digest_cooldown"`

	// Brain weights
	Brain neural.BrainWeights `json:"brain"`
}

// FoodState holds one food item.
type FoodState struct {
	X         float32 `json:"x"`
	Y         float32 `json:"y"`
	Energy    float32 `json:"energy"`
	MaxEnergy float32 `json:"max_energy"`
	Age       float32 `json:"age"`
}

// SaveSnapshot writes a snapshot to dir.
// Returns the filepath where it was saved.
func SaveSnapshot(snapshot *Snapshot, dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create snapshot dir: %w", err)
	}

	path := filepath.Join(dir, fmt.Sprintf("snapshot_%d.json", snapshot.Tick))

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("write snapshot: %w", err)
	}

	return path, nil
}

// LoadSnapshot reads a snapshot from disk.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var snapshot Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	if snapshot.Version != SnapshotVersion {
		return nil, fmt.Errorf("snapshot version %d not supported (want %d)", snapshot.Version, SnapshotVersion)
	}

	return &snapshot, nil
}
