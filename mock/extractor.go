package mock

import (
	"context"

	"github.com/lotscan/lotscan"
)

var _ lotscan.ResponseExtractor = (*ResponseExtractor)(nil)

// ResponseExtractor is a mock implementation of lotscan.ResponseExtractor.
type ResponseExtractor struct {
	ExtractFn func(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error)
}

func (e *ResponseExtractor) Extract(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error) {
	if e.ExtractFn == nil {
		return nil, nil
	}
	return e.ExtractFn(snapshot)
}

var _ lotscan.StructuredExtractor = (*StructuredExtractor)(nil)

// StructuredExtractor is a mock implementation of lotscan.StructuredExtractor.
type StructuredExtractor struct {
	ExtractFn func(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error)
}

func (e *StructuredExtractor) Extract(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error) {
	if e.ExtractFn == nil {
		return nil, nil
	}
	return e.ExtractFn(snapshot)
}

var _ lotscan.SelectorExtractor = (*SelectorExtractor)(nil)

// SelectorExtractor is a mock implementation of lotscan.SelectorExtractor.
type SelectorExtractor struct {
	ExtractFn            func(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error)
	ExtractWithPatternFn func(snapshot *lotscan.Snapshot, pattern *lotscan.SelectorPattern) []lotscan.VehicleRecord
}

func (e *SelectorExtractor) Extract(snapshot *lotscan.Snapshot) (*lotscan.ExtractionResult, error) {
	if e.ExtractFn == nil {
		return nil, nil
	}
	return e.ExtractFn(snapshot)
}

func (e *SelectorExtractor) ExtractWithPattern(snapshot *lotscan.Snapshot, pattern *lotscan.SelectorPattern) []lotscan.VehicleRecord {
	if e.ExtractWithPatternFn == nil {
		return nil
	}
	return e.ExtractWithPatternFn(snapshot, pattern)
}

var _ lotscan.VisionExtractor = (*VisionExtractor)(nil)

// VisionExtractor is a mock implementation of lotscan.VisionExtractor.
type VisionExtractor struct {
	ExtractFn        func(ctx context.Context, snapshot *lotscan.Snapshot, screenshot []byte) (*lotscan.ExtractionResult, error)
	LearnSelectorsFn func(ctx context.Context, snapshot *lotscan.Snapshot, recordCount int) (*lotscan.SelectorPattern, error)
}

func (e *VisionExtractor) Extract(ctx context.Context, snapshot *lotscan.Snapshot, screenshot []byte) (*lotscan.ExtractionResult, error) {
	if e.ExtractFn == nil {
		return nil, nil
	}
	return e.ExtractFn(ctx, snapshot, screenshot)
}

func (e *VisionExtractor) LearnSelectors(ctx context.Context, snapshot *lotscan.Snapshot, recordCount int) (*lotscan.SelectorPattern, error) {
	if e.LearnSelectorsFn == nil {
		return nil, lotscan.Errorf(lotscan.EINTERNAL, "LearnSelectorsFn not set")
	}
	return e.LearnSelectorsFn(ctx, snapshot, recordCount)
}
