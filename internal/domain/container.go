package domain

import "time"

// Container is a monitored workload instance reported by a node agent or the
// Docker collector.
type Container struct {
	ID           string
	Name         string
	Image        string
	Status       string
	CPUPercent   float64
	MemoryMB     int
	Node         string
	StartedAt    time.Time
	CreatedAt    time.Time
	RestartCount int
	UpdatedAt    time.Time
}

const (
	ContainerRunning = "running"
	ContainerStopped = "stopped"
	ContainerFailed  = "failed"
)

// Node is a cluster member with its most recent resource sample.
type Node struct {
	Name          string
	IP            string
	Role          string
	Status        string
	CPUCores      int
	CPUUsage      float64
	MemoryTotalGB int
	MemoryUsage   float64
	DiskTotalGB   int
	DiskUsage     float64
	Containers    int
	BootedAt      time.Time
	LastHeartbeat time.Time
}

const (
	NodeReady    = "Ready"
	NodeNotReady = "NotReady"
	NodeWarning  = "Warning"
	NodeUnknown  = "Unknown"
)
