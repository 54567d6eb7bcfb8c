package server

// Status is the lifecycle state of a provisioned server as tracked by
// the control plane. Runtime power state (the process inside the
// container) is owned by the node daemon; this enum only covers what
// the panel itself is responsible for.
type Status int

const (
	Installing Status = iota // record created, daemon provisioning in flight
	InstallFailed
	Stopped
	Starting
	Running
	Stopping
	Suspended
)

var statusTransitionMap = map[Status][]Status{
	Installing:    {Installing, Stopped, InstallFailed, Suspended},
	InstallFailed: {Installing, Suspended},
	Stopped:       {Installing, Starting, Stopped, Suspended},
	Starting:      {Running, Stopped},
	Running:       {Running, Stopping, Stopped, Suspended},
	Stopping:      {Stopped, Suspended},
	Suspended:     {Suspended, Stopped},
}

var statusNames = map[Status]string{
	Installing:    "INSTALLING",
	InstallFailed: "INSTALL_FAILED",
	Stopped:       "STOPPED",
	Starting:      "STARTING",
	Running:       "RUNNING",
	Stopping:      "STOPPING",
	Suspended:     "SUSPENDED",
}

func (s Status) String() string {
	return statusNames[s]
}

// ParseStatus maps the wire name back to a Status. The second return
// is false for unknown names.
func ParseStatus(name string) (Status, bool) {
	for s, n := range statusNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

func Contains(states []Status, status Status) bool {
	for _, s := range states {
		if s == status {
			return true
		}
	}
	return false
}

func ValidStatusTransition(src Status, dst Status) bool {
	return Contains(statusTransitionMap[src], dst)
}
