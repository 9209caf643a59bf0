package engine

import (
	"context"
	"errors"

	"github.com/frugalops/frugal/providers"
	"github.com/frugalops/frugal/types"
)

// Feature names a gated engine capability.
type Feature string

const (
	FeatureApply    Feature = "apply"
	FeatureRollback Feature = "rollback"
	FeatureBudgets  Feature = "budgets"
)

// ErrNotEntitled is returned when the workspace's plan does not
// include the requested feature.
var ErrNotEntitled = errors.New("workspace plan does not include this feature")

// CredentialResolver returns decrypted connection parameters for a
// workspace's provider account. ok is false when the provider is not
// configured for the workspace; that is not an error.
type CredentialResolver interface {
	Resolve(ctx context.Context, workspaceID string, provider types.Provider) (cfg providers.Config, ok bool, err error)
}

// AuditLogger records who did what to which resource. Best-effort:
// the engine logs failures and proceeds.
type AuditLogger interface {
	Record(ctx context.Context, workspaceID, actor, operation, resourceID string) error
}

// Entitlements answers whether a workspace's subscription covers a
// feature. The engine never inspects billing state itself.
type Entitlements interface {
	Check(ctx context.Context, workspaceID string, feature Feature) (bool, error)
}

// AllowAll grants every feature. Used by the CLI, where entitlement
// enforcement happens upstream.
type AllowAll struct{}

func (AllowAll) Check(context.Context, string, Feature) (bool, error) { return true, nil }

// NopAudit discards audit records.
type NopAudit struct{}

func (NopAudit) Record(context.Context, string, string, string, string) error { return nil }
