package executor

import (
	"context"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// dispatchKey identifies one remediation path. The handler table is
// resolved at startup, so an unsupported combination is a visible gap
// in this file rather than a runtime string-match miss.
type dispatchKey struct {
	Provider types.Provider
	Resource types.ResourceKind
	Kind     types.RecommendationKind
}

// handler performs the remediation and returns the payload needed to
// reverse it. Delete-type handlers return an empty payload: those
// actions cannot be undone.
type handler func(ctx context.Context, cap providers.Capability, rec *types.Recommendation) (types.RollbackPayload, error)

// supportedProviders are the providers the dispatch table is built
// for. Adding a provider here wires every generic handler to it.
var supportedProviders = []types.Provider{types.ProviderAWS, types.ProviderAzure}

// buildDispatchTable registers every supported remediation path.
func buildDispatchTable() map[dispatchKey]handler {
	table := make(map[dispatchKey]handler)
	for _, p := range supportedProviders {
		table[dispatchKey{p, types.KindCompute, types.RecommendStop}] = stopCompute
		table[dispatchKey{p, types.KindCompute, types.RecommendSchedule}] = stopCompute
		table[dispatchKey{p, types.KindCompute, types.RecommendRightSize}] = resizeCompute
		table[dispatchKey{p, types.KindVolume, types.RecommendDelete}] = deleteResource
		table[dispatchKey{p, types.KindAddress, types.RecommendDelete}] = releaseAddress
		table[dispatchKey{p, types.KindDatabase, types.RecommendStop}] = stopDatabase
		table[dispatchKey{p, types.KindSnapshot, types.RecommendDelete}] = deleteResource
	}
	return table
}

func stopCompute(ctx context.Context, cap providers.Capability, rec *types.Recommendation) (types.RollbackPayload, error) {
	if err := cap.StopResource(ctx, types.KindCompute, rec.ResourceID); err != nil {
		return types.RollbackPayload{}, err
	}
	return types.RollbackPayload{
		Kind:       types.RollbackRestart,
		ResourceID: rec.ResourceID,
	}, nil
}

func resizeCompute(ctx context.Context, cap providers.Capability, rec *types.Recommendation) (types.RollbackPayload, error) {
	target := rec.RecommendedSpec.Compute
	if target == nil {
		// Generic downsize recommendation with no concrete size.
		return types.RollbackPayload{}, ErrUnsupportedAction
	}
	if err := cap.ResizeResource(ctx, rec.ResourceID, *target); err != nil {
		return types.RollbackPayload{}, err
	}
	return types.RollbackPayload{
		Kind:         types.RollbackResize,
		ResourceID:   rec.ResourceID,
		OriginalSpec: rec.CurrentSpec,
	}, nil
}

func stopDatabase(ctx context.Context, cap providers.Capability, rec *types.Recommendation) (types.RollbackPayload, error) {
	if err := cap.StopResource(ctx, types.KindDatabase, rec.ResourceID); err != nil {
		return types.RollbackPayload{}, err
	}
	return types.RollbackPayload{
		Kind:       types.RollbackResume,
		ResourceID: rec.ResourceID,
	}, nil
}

func deleteResource(ctx context.Context, cap providers.Capability, rec *types.Recommendation) (types.RollbackPayload, error) {
	if err := cap.DeleteResource(ctx, rec.ResourceKind, rec.ResourceID); err != nil {
		return types.RollbackPayload{}, err
	}
	// Deletion is non-reversible: no payload even on success.
	return types.RollbackPayload{}, nil
}

func releaseAddress(ctx context.Context, cap providers.Capability, rec *types.Recommendation) (types.RollbackPayload, error) {
	if err := cap.ReleaseAddress(ctx, rec.ResourceID); err != nil {
		return types.RollbackPayload{}, err
	}
	return types.RollbackPayload{}, nil
}
