package daemon

import (
	"github.com/dcm2610/StellarStack-sub000/allocation"
	"github.com/dcm2610/StellarStack-sub000/server"
)

const mib = 1024 * 1024

// BuildSettings carries a server's resource limits across the agent
// boundary. Memory, swap and disk are bytes here; the panel's own
// model keeps them in MiB, so these structs are built at call time
// and never stored.
type BuildSettings struct {
	MemoryLimit int64  `json:"memory_limit"`
	Swap        int64  `json:"swap"`
	CpuLimit    int64  `json:"cpu_limit"` // percent units, 100 = one core
	DiskSpace   int64  `json:"disk_space"`
	Threads     string `json:"threads,omitempty"` // cpuset pinning
	OOMDisabled bool   `json:"oom_disabled"`
}

type AllocationMappings struct {
	Default  EndpointRef      `json:"default"`
	Mappings map[string][]int `json:"mappings"` // ip -> ports
}

type EndpointRef struct {
	IP   string `json:"ip"`
	Port int    `json:"port"`
}

type ProcessConfiguration struct {
	Startup StartupDetection `json:"startup"`
	Stop    string           `json:"stop"`
}

type StartupDetection struct {
	Done []string `json:"done"`
}

// ProvisionPayload is the agent's server-creation request body.
type ProvisionPayload struct {
	UUID       string        `json:"uuid"`
	Invocation string        `json:"invocation"`
	Build      BuildSettings `json:"build"`
	Container  struct {
		Image string `json:"image"`
	} `json:"container"`
	Allocations AllocationMappings `json:"allocations"`
	Egg         struct {
		ID string `json:"id"`
	} `json:"egg"`
	ProcessConfiguration ProcessConfiguration `json:"process_configuration"`
	Environment          map[string]string    `json:"environment,omitempty"`
	StartOnCompletion    bool                 `json:"start_on_completion"`
}

// TransferRequest instructs a source agent to begin archiving a
// server toward another node.
type TransferRequest struct {
	ServerID string        `json:"server_id"`
	URL      string        `json:"url"`   // target agent base URL
	Token    string        `json:"token"` // target agent bearer credential
	Endpoint EndpointRef   `json:"endpoint"`
	Build    BuildSettings `json:"build"`
}

// NewBuildSettings converts a reservation from the panel's MiB/percent
// model into agent bytes. Unlimited swap (-1) crosses unchanged.
func NewBuildSettings(r server.Resources) BuildSettings {
	swap := r.Swap
	if swap > 0 {
		swap = swap * mib
	}
	return BuildSettings{
		MemoryLimit: r.Memory * mib,
		Swap:        swap,
		CpuLimit:    r.CPU,
		DiskSpace:   r.Disk * mib,
		Threads:     r.Pinning,
		OOMDisabled: r.OOMDisabled,
	}
}

// NewProvisionPayload assembles the creation request for a server.
// allocs is the server's ordered endpoint set; the one matching
// s.PrimaryAllocationID becomes the default endpoint.
func NewProvisionPayload(s *server.Server, bp *server.Blueprint, invocation string, vars map[string]string, allocs []*allocation.Allocation) ProvisionPayload {
	p := ProvisionPayload{
		UUID:       s.ID.String(),
		Invocation: invocation,
		Build:      NewBuildSettings(s.Resources),
		ProcessConfiguration: ProcessConfiguration{
			Startup: StartupDetection{Done: bp.StartupDone},
			Stop:    bp.StopCommand,
		},
		Environment: vars,
	}
	p.Container.Image = s.Image
	p.Egg.ID = bp.ID

	p.Allocations.Mappings = make(map[string][]int)
	for _, a := range allocs {
		if a.ID == s.PrimaryAllocationID {
			p.Allocations.Default = EndpointRef{IP: a.IP, Port: a.Port}
		}
		p.Allocations.Mappings[a.IP] = append(p.Allocations.Mappings[a.IP], a.Port)
	}
	return p
}
