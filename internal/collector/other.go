//go:build !linux

package collector

import (
	"context"
	"errors"

	"github.com/prabalesh/netoverlay/internal/models"
)

const DefaultProcMount = "/proc"

var errNoProcfs = errors.New("procfs counter source is only available on linux")

type ProcfsSource struct{}

func NewProcfsSource(string) (*ProcfsSource, error) {
	return nil, errNoProcfs
}

func (p *ProcfsSource) Read(context.Context) ([]models.InterfaceCounters, error) {
	return nil, errNoProcfs
}

// DefaultLinkLookup reports every link as unknown.
func DefaultLinkLookup() LinkLookup {
	return func(string) (LinkInfo, error) {
		return LinkInfo{Status: "unknown"}, nil
	}
}
