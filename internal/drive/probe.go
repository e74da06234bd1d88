package drive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Probe tuning constants, grounded on original_source's ProbeConsts.
const (
	probeNumFiles        = 50
	probeFileSize        = 1024 // bytes per probe file
	probeIOPSHDDThresh   = 150.0
	probeLatencySamples  = 20
	probeLatencyHighMs   = 10.0
	probeLatencyMediumMs = 5.0
	probeDirName         = ".nefaxer_probe"
)

// DiskTypeInfo is the permanently-cacheable half of a network probe
// result: the coarse classification and the IOPS measurement it was
// derived from.
type DiskTypeInfo struct {
	DriveType  string  `json:"drive_type"`
	RandomIOPS float64 `json:"random_iops"`
	TestedAt   int64   `json:"tested_at"`
}

// NetworkInfo is the per-run half of a network probe result: current
// latency, always remeasured since network conditions change run to run.
type NetworkInfo struct {
	LatencyMs float64 `json:"latency_ms"`
	MeasuredAt int64  `json:"measured_at"`
}

// Info is the full cacheable probe record, as persisted in the store's
// diskinfo table keyed by root path.
type Info struct {
	DiskType          DiskTypeInfo `json:"disk_type"`
	Network           *NetworkInfo `json:"network,omitempty"`
	RecommendedWorkers int         `json:"recommended_workers"`
}

// Cache is the persistence collaborator for probe results, implemented by
// internal/store. Kept as an interface here so this package does not
// depend on the store's SQL machinery.
type Cache interface {
	LoadDiskInfo(rootPath string) (*Info, error)
	SaveDiskInfo(rootPath string, info *Info) error
}

// nowUnix is overridable in tests; production code always uses wall time.
var nowUnix = func() int64 { return time.Now().Unix() }

// DetectOptimalWorkers returns the worker count and whether the caller
// should use the parallel (work-stealing) walker for a path already
// classified as baseType. Non-network drives are resolved immediately
// from limits; network drives are probed (or read from cache) and re-
// measured for current latency on every call.
func DetectOptimalWorkers(path string, baseType Type, availableThreads int, limits Limits, cache Cache) (int, bool, error) {
	if !baseType.IsNetwork() {
		return baseType.WorkerThreads(availableThreads, limits), false, nil
	}

	var cached *Info
	if cache != nil {
		if info, err := cache.LoadDiskInfo(path); err == nil {
			cached = info
		}
	}

	diskType := DiskTypeInfo{}
	if cached != nil {
		diskType = cached.DiskType
	} else {
		probed, err := probeDiskType(path)
		if err != nil {
			return availableThreads, false, err
		}
		diskType = probed
	}

	netInfo, err := measureNetworkLatency(path)
	if err != nil {
		return availableThreads, false, err
	}

	workers := calculateWorkers(diskType, netInfo, limits)
	useParallelWalk := FromDiskTypeString(diskType.DriveType) == SSD

	if cache != nil {
		_ = cache.SaveDiskInfo(path, &Info{
			DiskType:           diskType,
			Network:            &netInfo,
			RecommendedWorkers: workers,
		})
	}

	return workers, useParallelWalk, nil
}

// probeDiskType measures random I/O throughput in a scratch directory
// under path to estimate whether the remote disk behaves like an HDD or
// an SSD. The probe directory and its contents are removed before
// returning.
func probeDiskType(path string) (DiskTypeInfo, error) {
	probeDir := filepath.Join(path, probeDirName)
	if err := os.MkdirAll(probeDir, 0o755); err != nil {
		return DiskTypeInfo{}, fmt.Errorf("create probe directory: %w", err)
	}
	defer os.RemoveAll(probeDir)

	data := make([]byte, probeFileSize)
	files := make([]string, 0, probeNumFiles)

	start := time.Now()
	for i := 0; i < probeNumFiles; i++ {
		p := filepath.Join(probeDir, fmt.Sprintf("test_%d.dat", i))
		if err := os.WriteFile(p, data, 0o644); err != nil {
			return DiskTypeInfo{}, err
		}
		files = append(files, p)
	}
	createElapsed := time.Since(start)

	start = time.Now()
	for _, p := range files {
		if _, err := os.ReadFile(p); err != nil {
			return DiskTypeInfo{}, err
		}
	}
	readElapsed := time.Since(start)

	totalOps := float64(probeNumFiles * 2)
	totalSecs := (createElapsed + readElapsed).Seconds()
	var iops float64
	if totalSecs > 0 {
		iops = totalOps / totalSecs
	}

	driveType := "Network+SSD"
	if iops < probeIOPSHDDThresh {
		driveType = "Network+HDD"
	}

	return DiskTypeInfo{
		DriveType:  driveType,
		RandomIOPS: iops,
		TestedAt:   nowUnix(),
	}, nil
}

// measureNetworkLatency stats path repeatedly and averages the elapsed
// time, as a lightweight proxy for round-trip latency to the remote share.
func measureNetworkLatency(path string) (NetworkInfo, error) {
	start := time.Now()
	for i := 0; i < probeLatencySamples; i++ {
		if _, err := os.Stat(path); err != nil {
			return NetworkInfo{}, err
		}
	}
	elapsed := time.Since(start)
	avgMs := elapsed.Seconds() * 1000.0 / float64(probeLatencySamples)

	return NetworkInfo{
		LatencyMs:  avgMs,
		MeasuredAt: nowUnix(),
	}, nil
}

// calculateWorkers applies the HDD/SSD x latency decision matrix from
// original_source's probe.rs.
func calculateWorkers(diskType DiskTypeInfo, net NetworkInfo, limits Limits) int {
	isHDD := FromDiskTypeString(diskType.DriveType) == HDD
	latency := net.LatencyMs

	switch {
	case isHDD && latency > probeLatencyHighMs:
		return limits.Floor
	case isHDD && latency > probeLatencyMediumMs:
		if limits.HDDMax > 0 {
			return limits.HDDMax - 1
		}
		return 0
	case isHDD:
		return limits.HDDMax
	case latency > probeLatencyHighMs:
		return limits.HDDMax
	case latency > probeLatencyMediumMs:
		return limits.UnknownMax
	default:
		return limits.NetworkMax
	}
}
