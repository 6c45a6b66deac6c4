// Focalis - Personal Productivity Analytics and Forecasting
// Copyright 2026 Focal Labs (focalhq)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/focalhq/focalis

package services

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"testing"
	"time"
)

// mockServer simulates http.Server lifecycle behavior.
type mockServer struct {
	serveErr    error
	shutdownErr error
	closed      chan struct{}
}

func newMockServer(serveErr, shutdownErr error) *mockServer {
	return &mockServer{serveErr: serveErr, shutdownErr: shutdownErr, closed: make(chan struct{})}
}

func (m *mockServer) ListenAndServe() error {
	if m.serveErr != nil {
		return m.serveErr
	}
	<-m.closed
	return http.ErrServerClosed
}

func (m *mockServer) Shutdown(ctx context.Context) error {
	close(m.closed)
	return m.shutdownErr
}

func TestHTTPServiceGracefulShutdown(t *testing.T) {
	t.Parallel()

	svc := NewHTTPService(newMockServer(nil, nil), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled after graceful shutdown, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestHTTPServiceStartFailure(t *testing.T) {
	t.Parallel()

	bindErr := errors.New("listen tcp: address already in use")
	svc := NewHTTPService(newMockServer(bindErr, nil), time.Second)

	err := svc.Serve(context.Background())
	if err == nil || !errors.Is(err, bindErr) {
		t.Errorf("expected wrapped bind error, got %v", err)
	}
}

func TestHTTPServiceShutdownFailure(t *testing.T) {
	t.Parallel()

	shutdownErr := errors.New("connections still draining")
	svc := NewHTTPService(newMockServer(nil, shutdownErr), time.Second)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err == nil || !errors.Is(err, shutdownErr) {
			t.Errorf("expected shutdown error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop")
	}
}

func TestGCServiceRunsPeriodically(t *testing.T) {
	t.Parallel()

	var runs atomic.Int32
	svc := NewGCService("badger-gc", 10*time.Millisecond, func() { runs.Add(1) })

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	err := svc.Serve(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline error, got %v", err)
	}
	if runs.Load() < 2 {
		t.Errorf("expected at least 2 GC runs, got %d", runs.Load())
	}
}

func TestGCServiceStringNames(t *testing.T) {
	t.Parallel()

	if got := NewGCService("badger-gc", time.Minute, func() {}).String(); got != "badger-gc" {
		t.Errorf("unexpected service name %q", got)
	}
	if got := NewHTTPService(newMockServer(nil, nil), time.Second).String(); got != "http-server" {
		t.Errorf("unexpected service name %q", got)
	}
}
