// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package services

import (
	"context"
	"time"
)

// GCService periodically invokes a garbage collection function. It backs the
// Badger value-log GC loop for the adaptive weight store: Badger only
// reclaims value-log space when GC is driven explicitly.
type GCService struct {
	name     string
	interval time.Duration
	collect  func()
}

// NewGCService runs collect every interval until the context is canceled.
func NewGCService(name string, interval time.Duration, collect func()) *GCService {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &GCService{name: name, interval: interval, collect: collect}
}

// Serve implements suture.Service.
func (g *GCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(g.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			g.collect()
		}
	}
}

// String identifies the service in suture logs.
func (g *GCService) String() string {
	return g.name
}
