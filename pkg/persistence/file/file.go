// Package file provides a file-system flow repository for development and
// single-node setups. Each flow is one JSON document under <root>/flows.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/botfluent/botfluent/pkg/models"
	"github.com/botfluent/botfluent/pkg/persistence"
)

// Repository implements persistence.FlowRepository on the file system.
type Repository struct {
	root string
}

// NewRepository creates a repository rooted at the given directory. A
// file:// prefix is stripped so the same URL works for both adapters.
func NewRepository(root string) *Repository {
	return &Repository{root: strings.Replace(root, "file://", "", 1)}
}

// Flows loads every flow document, sorted by name.
func (r *Repository) Flows(ctx context.Context) ([]*models.Flow, error) {
	root := os.DirFS(path.Join(r.root, "flows"))

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list flow files: %w", err)
	}

	flows := make([]*models.Flow, 0, len(jsonFiles))

	for _, name := range jsonFiles {
		flowID := name[:len(name)-5]

		flow, err := r.FlowByID(ctx, flowID)
		if err != nil {
			return nil, fmt.Errorf("failed to load flow %s: %w", flowID, err)
		}

		flows = append(flows, flow)
	}

	sort.Slice(flows, func(i, j int) bool {
		return flows[i].Name < flows[j].Name
	})

	return flows, nil
}

// FlowByID reads one flow document.
func (r *Repository) FlowByID(_ context.Context, id string) (*models.Flow, error) {
	filePath := filepath.Clean(path.Join(r.root, "flows", id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, persistence.NewFlowError("FlowByID", id, persistence.ErrFlowNotFound)
		}

		return nil, fmt.Errorf("failed to read flow %s: %w", id, err)
	}

	var flow models.Flow

	err = json.Unmarshal(body, &flow)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal flow %s: %w", id, err)
	}

	return &flow, nil
}

// SaveFlow writes the flow document, creating the directory on first use.
func (r *Repository) SaveFlow(_ context.Context, flow *models.Flow) error {
	dir := path.Join(r.root, "flows")

	err := os.MkdirAll(dir, 0750)
	if err != nil {
		return fmt.Errorf("failed to create flows directory: %w", err)
	}

	data, err := json.MarshalIndent(flow, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal flow %s: %w", flow.ID, err)
	}

	return os.WriteFile(path.Join(dir, flow.ID+".json"), data, 0600)
}

// DeleteFlow removes a flow document. Deleting a missing flow is not an
// error.
func (r *Repository) DeleteFlow(_ context.Context, id string) error {
	err := os.Remove(path.Join(r.root, "flows", id+".json"))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete flow %s: %w", id, err)
	}

	return nil
}

// HealthCheck verifies the root directory exists.
func (r *Repository) HealthCheck(_ context.Context) error {
	_, err := os.Stat(r.root)
	if os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return err
}

// Close is a no-op for the file repository.
func (r *Repository) Close(_ context.Context) error {
	return nil
}
