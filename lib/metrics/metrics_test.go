// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestObserveRequest(t *testing.T) {
	m := New("router")
	m.ObserveRequest("uploadf", nil, time.Now())
	m.ObserveRequest("uploadf", errors.New("boom"), time.Now())
	m.ObserveRequest("uploadf", nil, time.Now())

	if got := testutil.ToFloat64(m.Requests.WithLabelValues("uploadf", ResultOK)); got != 2 {
		t.Errorf("ok count = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.Requests.WithLabelValues("uploadf", ResultError)); got != 1 {
		t.Errorf("error count = %v, want 1", got)
	}
}

func TestAddBytesIgnoresEmpty(t *testing.T) {
	m := New("pdf")
	m.AddBytes("in", 1000)
	m.AddBytes("in", 0)
	m.AddBytes("out", -1)
	if got := testutil.ToFloat64(m.Bytes.WithLabelValues("in")); got != 1000 {
		t.Errorf("in bytes = %v, want 1000", got)
	}
	if got := testutil.CollectAndCount(m.Bytes); got != 1 {
		t.Errorf("series = %d, want 1", got)
	}
}

func TestHandlerExposesRoleLabel(t *testing.T) {
	m := New("text")
	m.ForwardFailures.WithLabelValues("text", "rejected").Inc()

	recorder := httptest.NewRecorder()
	m.Handler().ServeHTTP(recorder, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(recorder.Body)
	if !strings.Contains(string(body), `shardfs_forward_failures_total{node="text",reason="rejected",role="text"} 1`) {
		t.Errorf("exposition missing forward failure series:\n%s", body)
	}
}

func TestSeparateRegistries(t *testing.T) {
	first := New("router")
	second := New("router")
	first.Connections.Inc()
	if got := testutil.ToFloat64(second.Connections); got != 0 {
		t.Errorf("second registry saw %v connections", got)
	}
}
