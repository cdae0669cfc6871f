package storage

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// VectorItem is one persisted embedding.
type VectorItem struct {
	Hash      string    `json:"hash"`
	Model     string    `json:"model"`
	Vector    []float32 `json:"vector"`
	CreatedAt time.Time `json:"created_at"`
}

// VectorFile keeps embeddings for one model in a JSON file.
type VectorFile struct {
	filePath string
	model    string
	items    map[string]VectorItem
	dirty    bool
	mu       sync.RWMutex
	saveMu   sync.Mutex // serializes snapshot and write so the newest snapshot lands last
}

// NewVectorFile creates a store at dir/<model>.json. The directory is created
// if missing; an error means the directory is unusable.
func NewVectorFile(dir, model string) (*VectorFile, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating cache dir: %w", err)
	}
	return &VectorFile{
		filePath: filepath.Join(dir, fileNameFor(model)),
		model:    model,
		items:    make(map[string]VectorItem),
	}, nil
}

func (vf *VectorFile) Path() string {
	return vf.filePath
}

// Load loads existing vectors from file
func (vf *VectorFile) Load() error {
	vf.mu.Lock()
	defer vf.mu.Unlock()

	if _, err := os.Stat(vf.filePath); os.IsNotExist(err) {
		return nil
	}

	data, err := os.ReadFile(vf.filePath)
	if err != nil {
		return fmt.Errorf("failed to read vector file: %w", err)
	}

	if len(data) == 0 {
		return nil
	}

	var items []VectorItem
	if err := json.Unmarshal(data, &items); err != nil {
		return fmt.Errorf("failed to unmarshal vectors: %w", err)
	}

	for _, item := range items {
		if item.Model == vf.model && len(item.Vector) > 0 {
			vf.items[item.Hash] = item
		}
	}

	return nil
}

// Save writes the vectors if anything changed since the last save.
func (vf *VectorFile) Save() error {
	vf.saveMu.Lock()
	defer vf.saveMu.Unlock()

	vf.mu.Lock()
	if !vf.dirty {
		vf.mu.Unlock()
		return nil
	}
	items := make([]VectorItem, 0, len(vf.items))
	for _, item := range vf.items {
		items = append(items, item)
	}
	vf.dirty = false
	vf.mu.Unlock()

	if err := vf.write(items); err != nil {
		vf.mu.Lock()
		vf.dirty = true
		vf.mu.Unlock()
		return err
	}
	return nil
}

func (vf *VectorFile) write(items []VectorItem) error {
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal vectors: %w", err)
	}

	tmp := vf.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("failed to write vector file: %w", err)
	}
	if err := os.Rename(tmp, vf.filePath); err != nil {
		return fmt.Errorf("failed to replace vector file: %w", err)
	}
	return nil
}

// HashText creates a stable key for text under model.
func HashText(model, text string) string {
	h := sha256.New()
	h.Write([]byte(model + "|" + text))
	return hex.EncodeToString(h.Sum(nil))
}

func (vf *VectorFile) Get(text string) ([]float32, bool) {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	item, exists := vf.items[HashText(vf.model, text)]
	if !exists {
		return nil, false
	}
	return item.Vector, true
}

func (vf *VectorFile) Put(text string, vector []float32) {
	vf.mu.Lock()
	defer vf.mu.Unlock()

	hash := HashText(vf.model, text)
	vf.items[hash] = VectorItem{
		Hash:      hash,
		Model:     vf.model,
		Vector:    vector,
		CreatedAt: time.Now(),
	}
	vf.dirty = true
}

func (vf *VectorFile) Len() int {
	vf.mu.RLock()
	defer vf.mu.RUnlock()

	return len(vf.items)
}

// fileNameFor turns a model name such as "models/text-embedding-004" into a file name.
func fileNameFor(model string) string {
	r := strings.NewReplacer("/", "_", "\\", "_", ":", "_", " ", "_")
	return r.Replace(model) + ".json"
}
