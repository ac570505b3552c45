// Package presetvars builds the variable set exposed to tariff activation
// rules: who owns the resource, where it runs, and what the resource looks
// like at the time the usage was metered.
package presetvars

import (
	"encoding/json"
	"fmt"

	accountdomain "github.com/smallbiznis/quotaledger/internal/account/domain"
	usagedomain "github.com/smallbiznis/quotaledger/internal/usage/domain"
	"github.com/smallbiznis/quotaledger/internal/usagetype"
)

// GenericVariable is the id/name pair shape shared by account, domain,
// project and zone variables.
type GenericVariable struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ComputeOffering describes the service offering of a VM-shaped resource.
type ComputeOffering struct {
	ID         string `json:"id,omitempty"`
	Name       string `json:"name,omitempty"`
	Customized bool   `json:"customized,omitempty"`
	CPUNumber  int64  `json:"cpuNumber,omitempty"`
	CPUSpeed   int64  `json:"cpuSpeed,omitempty"`
	MemoryMB   int64  `json:"memory,omitempty"`
}

// DiskOffering describes the disk offering of a volume-shaped resource.
type DiskOffering struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name,omitempty"`
}

// Value carries the resource-specific fields. Which fields are populated
// depends on the record's usage type; rules must tolerate absent fields.
type Value struct {
	ID               string            `json:"id,omitempty"`
	Name             string            `json:"name,omitempty"`
	HostName         string            `json:"hostName,omitempty"`
	OSName           string            `json:"osName,omitempty"`
	ComputeOffering  *ComputeOffering  `json:"computeOffering,omitempty"`
	DiskOffering     *DiskOffering     `json:"diskOffering,omitempty"`
	Template         *GenericVariable  `json:"template,omitempty"`
	ProvisioningType string            `json:"provisioningType,omitempty"`
	VolumeFormat     string            `json:"volumeFormat,omitempty"`
	SnapshotType     string            `json:"snapshotType,omitempty"`
	Size             int64             `json:"size,omitempty"`
	VirtualSize      int64             `json:"virtualSize,omitempty"`
	State            string            `json:"state,omitempty"`
	Tags             map[string]string `json:"tags,omitempty"`
}

// Variables is the full set injected into the rule sandbox for one record.
type Variables struct {
	Account      *GenericVariable `json:"account,omitempty"`
	Domain       *GenericVariable `json:"domain,omitempty"`
	Project      *GenericVariable `json:"project,omitempty"`
	Zone         *GenericVariable `json:"zone,omitempty"`
	ResourceType string           `json:"resourceType,omitempty"`
	Value        *Value           `json:"value,omitempty"`
}

// ToMap flattens the variables into sandbox globals. The JSON round-trip
// keeps the shapes rules see identical to the documented wire names.
func (v Variables) ToMap() (map[string]any, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal preset variables: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("unmarshal preset variables: %w", err)
	}
	return out, nil
}

// Build assembles the variables for one usage record. Construction is lazy
// at the call site: rating only invokes it when at least one tariff of the
// record's type carries an activation rule.
func Build(account accountdomain.Account, record usagedomain.UsageRecord) Variables {
	vars := Variables{
		Account: &GenericVariable{
			ID:   account.ID.String(),
			Name: account.AccountName,
		},
		Domain: &GenericVariable{
			ID: record.DomainID.String(),
		},
		ResourceType: record.UsageType.String(),
	}
	if record.ZoneID != 0 {
		vars.Zone = &GenericVariable{ID: record.ZoneID.String()}
	}
	vars.Value = buildValue(record)
	return vars
}

// BuildForQuote assembles variables for a hypothetical resource that has no
// usage record yet, from client-supplied metadata only.
func BuildForQuote(usageType usagetype.UsageType, meta map[string]any) Variables {
	return Variables{
		ResourceType: usageType.String(),
		Value: buildValue(usagedomain.UsageRecord{
			UsageType:        usageType,
			ResourceMetadata: meta,
		}),
	}
}

func buildValue(record usagedomain.UsageRecord) *Value {
	value := &Value{}
	if record.Size != nil {
		value.Size = *record.Size
	}

	meta := record.ResourceMetadata
	if meta == nil {
		return value
	}

	value.ID = stringField(meta, "resourceId")
	value.Name = stringField(meta, "resourceName")
	value.State = stringField(meta, "state")
	value.Tags = tagField(meta, "tags")

	switch record.UsageType {
	case usagetype.RunningVM, usagetype.AllocatedVM:
		value.HostName = stringField(meta, "hostName")
		value.OSName = stringField(meta, "osName")
		value.ComputeOffering = computeOfferingField(meta)
		if id := stringField(meta, "templateId"); id != "" {
			value.Template = &GenericVariable{ID: id, Name: stringField(meta, "templateName")}
		}
	case usagetype.Volume, usagetype.VolumeSecondary:
		value.ProvisioningType = stringField(meta, "provisioningType")
		value.VolumeFormat = stringField(meta, "volumeFormat")
		if id := stringField(meta, "diskOfferingId"); id != "" {
			value.DiskOffering = &DiskOffering{ID: id, Name: stringField(meta, "diskOfferingName")}
		}
	case usagetype.Snapshot, usagetype.VMSnapshot, usagetype.VMSnapshotOnPrimary:
		value.SnapshotType = stringField(meta, "snapshotType")
		value.VirtualSize = intField(meta, "virtualSize")
	case usagetype.Template, usagetype.ISO:
		value.OSName = stringField(meta, "osName")
		value.VirtualSize = intField(meta, "virtualSize")
	}
	return value
}

func computeOfferingField(meta map[string]any) *ComputeOffering {
	id := stringField(meta, "computeOfferingId")
	if id == "" {
		return nil
	}
	return &ComputeOffering{
		ID:         id,
		Name:       stringField(meta, "computeOfferingName"),
		Customized: boolField(meta, "computeOfferingCustomized"),
		CPUNumber:  intField(meta, "cpuNumber"),
		CPUSpeed:   intField(meta, "cpuSpeed"),
		MemoryMB:   intField(meta, "memory"),
	}
}

func stringField(meta map[string]any, key string) string {
	if s, ok := meta[key].(string); ok {
		return s
	}
	return ""
}

func boolField(meta map[string]any, key string) bool {
	b, _ := meta[key].(bool)
	return b
}

func intField(meta map[string]any, key string) int64 {
	switch n := meta[key].(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	default:
		return 0
	}
}

func tagField(meta map[string]any, key string) map[string]string {
	raw, ok := meta[key].(map[string]any)
	if !ok {
		return nil
	}
	tags := make(map[string]string, len(raw))
	for k, v := range raw {
		if s, ok := v.(string); ok {
			tags[k] = s
		}
	}
	if len(tags) == 0 {
		return nil
	}
	return tags
}
