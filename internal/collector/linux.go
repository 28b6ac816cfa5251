//go:build linux

package collector

import (
	"context"
	"fmt"

	"github.com/prometheus/procfs"
	"github.com/prometheus/procfs/sysfs"

	"github.com/prabalesh/netoverlay/internal/models"
)

const (
	DefaultProcMount = procfs.DefaultMountPoint
	DefaultSysMount  = sysfs.DefaultMountPoint
)

// ProcfsSource parses /proc/net/dev.
type ProcfsSource struct {
	fs procfs.FS
}

func NewProcfsSource(mount string) (*ProcfsSource, error) {
	fs, err := procfs.NewFS(mount)
	if err != nil {
		return nil, fmt.Errorf("open procfs at %s: %w", mount, err)
	}
	return &ProcfsSource{fs: fs}, nil
}

func (p *ProcfsSource) Read(context.Context) ([]models.InterfaceCounters, error) {
	dev, err := p.fs.NetDev()
	if err != nil {
		return nil, err
	}

	counters := make([]models.InterfaceCounters, 0, len(dev))
	for name, line := range dev {
		counters = append(counters, models.InterfaceCounters{
			Name:          name,
			BytesReceived: line.RxBytes,
			BytesSent:     line.TxBytes,
		})
	}
	return counters, nil
}

// SysfsLinkLookup reads operstate and speed from /sys/class/net.
func SysfsLinkLookup(mount string) LinkLookup {
	return func(name string) (LinkInfo, error) {
		fs, err := sysfs.NewFS(mount)
		if err != nil {
			return LinkInfo{}, err
		}
		iface, err := fs.NetClassByIface(name)
		if err != nil {
			return LinkInfo{}, err
		}

		info := LinkInfo{Status: iface.OperState}
		if iface.Speed != nil && *iface.Speed > 0 {
			info.SpeedMbps = *iface.Speed
		}
		return info, nil
	}
}

// DefaultLinkLookup is the platform link lookup.
func DefaultLinkLookup() LinkLookup {
	return SysfsLinkLookup(DefaultSysMount)
}
