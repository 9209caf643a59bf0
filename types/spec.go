package types

// SpecDoc is a closed set of typed resource specifications with an
// opaque fallback for providers we have not modeled yet. Exactly one
// variant should be set.
type SpecDoc struct {
	Compute  *ComputeSpec      `json:"compute,omitempty"`
	Disk     *DiskSpec         `json:"disk,omitempty"`
	Database *DatabaseSpec     `json:"database,omitempty"`
	Opaque   map[string]string `json:"opaque,omitempty"`
}

// ComputeSpec captures the sizing of an instance or VM.
type ComputeSpec struct {
	InstanceType string `json:"instance_type"`
}

// DiskSpec captures the sizing of a volume or managed disk.
type DiskSpec struct {
	SizeGB int32  `json:"size_gb"`
	SKU    string `json:"sku,omitempty"`
}

// DatabaseSpec captures the sizing of a managed database.
type DatabaseSpec struct {
	InstanceClass string `json:"instance_class"`
	Engine        string `json:"engine,omitempty"`
}

// IsZero reports whether no variant is set.
func (s SpecDoc) IsZero() bool {
	return s.Compute == nil && s.Disk == nil && s.Database == nil && len(s.Opaque) == 0
}

// ComputeOf builds a SpecDoc holding a ComputeSpec.
func ComputeOf(instanceType string) SpecDoc {
	return SpecDoc{Compute: &ComputeSpec{InstanceType: instanceType}}
}

// DiskOf builds a SpecDoc holding a DiskSpec.
func DiskOf(sizeGB int32, sku string) SpecDoc {
	return SpecDoc{Disk: &DiskSpec{SizeGB: sizeGB, SKU: sku}}
}

// DatabaseOf builds a SpecDoc holding a DatabaseSpec.
func DatabaseOf(class, engine string) SpecDoc {
	return SpecDoc{Database: &DatabaseSpec{InstanceClass: class, Engine: engine}}
}

// OpaqueOf builds a SpecDoc from loose key-value pairs.
func OpaqueOf(kv map[string]string) SpecDoc {
	return SpecDoc{Opaque: kv}
}
