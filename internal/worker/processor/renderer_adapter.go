package processor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	contracts "cosmos/internal/contracts/renderer/v0"
	"cosmos/internal/worker/glb"
	"cosmos/internal/worker/renderer"
)

// RendererAdapter produces the model file for a job, either through an
// external renderer or with the built-in GLB encoder. Both write to
// storageRoot/OutputKey.
type RendererAdapter struct {
	client      renderer.Client
	storageRoot string
}

// NewRendererAdapter uses the built-in encoder when client is nil.
func NewRendererAdapter(client renderer.Client, storageRoot string) *RendererAdapter {
	return &RendererAdapter{client: client, storageRoot: storageRoot}
}

type RenderRequest struct {
	JobID     int64
	ParsedJob *ParsedJob
	OutputKey string
}

func (ra *RendererAdapter) Render(ctx context.Context, req RenderRequest) error {
	localPath := filepath.Join(ra.storageRoot, filepath.FromSlash(req.OutputKey))

	if ra.client == nil {
		return ra.renderBuiltin(localPath, req)
	}
	if err := ra.renderRemote(ctx, req); err != nil {
		return err
	}
	return verifyModel(localPath)
}

func (ra *RendererAdapter) renderRemote(ctx context.Context, req RenderRequest) error {
	spec := contracts.RendererSpec{
		JobID:  req.JobID,
		Params: req.ParsedJob.RendererParams(),
	}
	spec.Output.ModelObjectKey = req.OutputKey

	return ra.client.Render(ctx, spec)
}

func (ra *RendererAdapter) renderBuiltin(localPath string, req RenderRequest) error {
	data, err := glb.Encode(req.ParsedJob.Scene())
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return err
	}
	tmp := localPath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, localPath)
}

// verifyModel checks that the external renderer left a readable GLB behind.
func verifyModel(localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("renderer output missing: %w", err)
	}
	if _, err := glb.Parse(data); err != nil {
		return fmt.Errorf("renderer output invalid: %w", err)
	}
	return nil
}
