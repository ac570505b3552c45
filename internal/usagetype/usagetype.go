// Package usagetype enumerates the metered resource types and the usage
// units their tariffs are priced in.
package usagetype

// UsageType identifies the kind of metered resource a usage record refers to.
type UsageType int

const (
	RunningVM            UsageType = 1
	AllocatedVM          UsageType = 2
	IPAddress            UsageType = 3
	NetworkBytesSent     UsageType = 4
	NetworkBytesReceived UsageType = 5
	Volume               UsageType = 6
	Template             UsageType = 7
	ISO                  UsageType = 8
	Snapshot             UsageType = 9
	SecurityGroup        UsageType = 10
	LoadBalancerPolicy   UsageType = 11
	PortForwardingRule   UsageType = 12
	NetworkOffering      UsageType = 13
	VPNUsers             UsageType = 14
	VMDiskIORead         UsageType = 21
	VMDiskIOWrite        UsageType = 22
	VMDiskBytesRead      UsageType = 23
	VMDiskBytesWrite     UsageType = 24
	VMSnapshot           UsageType = 25
	VolumeSecondary      UsageType = 26
	VMSnapshotOnPrimary  UsageType = 27
	Backup               UsageType = 28
)

// Unit is the pricing dimension of a tariff.
type Unit string

const (
	UnitComputeMonth Unit = "Compute-Month"
	UnitIPMonth      Unit = "IP-Month"
	UnitPolicyMonth  Unit = "Policy-Month"
	UnitGB           Unit = "GB"
	UnitGBMonth      Unit = "GB-Month"
	UnitBytes        Unit = "Bytes"
	UnitIOPS         Unit = "IOPS"
)

// Info describes one usage type: its wire name and the unit its tariffs use.
type Info struct {
	Type UsageType
	Name string
	Unit Unit
}

var registry = map[UsageType]Info{
	RunningVM:            {RunningVM, "RUNNING_VM", UnitComputeMonth},
	AllocatedVM:          {AllocatedVM, "ALLOCATED_VM", UnitComputeMonth},
	IPAddress:            {IPAddress, "IP_ADDRESS", UnitIPMonth},
	NetworkBytesSent:     {NetworkBytesSent, "NETWORK_BYTES_SENT", UnitGB},
	NetworkBytesReceived: {NetworkBytesReceived, "NETWORK_BYTES_RECEIVED", UnitGB},
	Volume:               {Volume, "VOLUME", UnitGBMonth},
	Template:             {Template, "TEMPLATE", UnitGBMonth},
	ISO:                  {ISO, "ISO", UnitGBMonth},
	Snapshot:             {Snapshot, "SNAPSHOT", UnitGBMonth},
	SecurityGroup:        {SecurityGroup, "SECURITY_GROUP", UnitPolicyMonth},
	LoadBalancerPolicy:   {LoadBalancerPolicy, "LOAD_BALANCER_POLICY", UnitPolicyMonth},
	PortForwardingRule:   {PortForwardingRule, "PORT_FORWARDING_RULE", UnitPolicyMonth},
	NetworkOffering:      {NetworkOffering, "NETWORK_OFFERING", UnitPolicyMonth},
	VPNUsers:             {VPNUsers, "VPN_USERS", UnitPolicyMonth},
	VMDiskIORead:         {VMDiskIORead, "VM_DISK_IO_READ", UnitIOPS},
	VMDiskIOWrite:        {VMDiskIOWrite, "VM_DISK_IO_WRITE", UnitIOPS},
	VMDiskBytesRead:      {VMDiskBytesRead, "VM_DISK_BYTES_READ", UnitBytes},
	VMDiskBytesWrite:     {VMDiskBytesWrite, "VM_DISK_BYTES_WRITE", UnitBytes},
	VMSnapshot:           {VMSnapshot, "VM_SNAPSHOT", UnitGBMonth},
	VolumeSecondary:      {VolumeSecondary, "VOLUME_SECONDARY", UnitGBMonth},
	VMSnapshotOnPrimary:  {VMSnapshotOnPrimary, "VM_SNAPSHOT_ON_PRIMARY", UnitGBMonth},
	Backup:               {Backup, "BACKUP", UnitGBMonth},
}

// notYetPriceable lists types whose rating has not been implemented. Records of
// these types are marked calculated without producing a cost.
var notYetPriceable = map[UsageType]bool{
	VMDiskIORead:     true,
	VMDiskIOWrite:    true,
	VMDiskBytesRead:  true,
	VMDiskBytesWrite: true,
}

// All returns every known usage type.
func All() []Info {
	out := make([]Info, 0, len(registry))
	for _, info := range registry {
		out = append(out, info)
	}
	return out
}

// Lookup returns the Info for a usage type and whether it is known.
func Lookup(t UsageType) (Info, bool) {
	info, ok := registry[t]
	return info, ok
}

// LookupByName resolves a usage type from its wire name.
func LookupByName(name string) (Info, bool) {
	for _, info := range registry {
		if info.Name == name {
			return info, true
		}
	}
	return Info{}, false
}

// SkipCalculation reports whether the type is on the not-yet-priceable list.
func SkipCalculation(t UsageType) bool {
	return notYetPriceable[t]
}

func (t UsageType) String() string {
	if info, ok := registry[t]; ok {
		return info.Name
	}
	return "UNKNOWN"
}
