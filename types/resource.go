package types

import "time"

// Provider identifies a supported cloud provider.
type Provider string

const (
	ProviderAWS   Provider = "aws"
	ProviderAzure Provider = "azure"

	// ProviderAll is a budget scope, never a real provider.
	ProviderAll Provider = "all"
)

// ResourceKind is the class of cloud resource a rule or action targets.
type ResourceKind string

const (
	KindCompute  ResourceKind = "compute"
	KindVolume   ResourceKind = "volume"
	KindAddress  ResourceKind = "address"
	KindDatabase ResourceKind = "database"
	KindSnapshot ResourceKind = "snapshot"
)

// Resource describes one discovered cloud resource.
// It is provider-neutral: adapters map SDK shapes into this.
type Resource struct {
	ID          string            `json:"id"`
	Name        string            `json:"name"`
	Kind        ResourceKind      `json:"kind"`
	Provider    Provider          `json:"provider"`
	Region      string            `json:"region"`
	State       string            `json:"state"`
	Size        string            `json:"size,omitempty"`    // instance type / SKU
	SizeGB      int32             `json:"size_gb,omitempty"` // volumes and snapshots
	AttachedTo  string            `json:"attached_to,omitempty"`
	MonthlyCost float64           `json:"monthly_cost"`
	CreatedAt   time.Time         `json:"created_at"`
	Tags        map[string]string `json:"tags,omitempty"`
}

// IsRunning reports whether a compute or database resource is up.
func (r Resource) IsRunning() bool {
	switch r.State {
	case "running", "available", "online":
		return true
	}
	return false
}

// IsDetached reports whether a volume has no attachment.
func (r Resource) IsDetached() bool {
	return r.AttachedTo == "" && (r.State == "available" || r.State == "unattached")
}
