package prometheus

import (
	"context"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fluxorio/threadpool/pkg/core"
)

func startTestServer(t *testing.T, path string) (*fasthttp.Client, *PoolMetrics) {
	t.Helper()

	registry := prometheus.NewRegistry()
	m := NewPoolMetrics(registry)
	srv := NewServer(path, registry, core.NewNopLogger())

	ln := fasthttputil.NewInmemoryListener()
	go func() {
		_ = srv.Serve(ln)
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	})

	client := &fasthttp.Client{
		Dial: func(addr string) (net.Conn, error) {
			return ln.Dial()
		},
	}
	return client, m
}

func get(t *testing.T, client *fasthttp.Client, path string) (int, string) {
	t.Helper()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI("http://metrics.test" + path)
	if err := client.DoTimeout(req, resp, 2*time.Second); err != nil {
		t.Fatalf("GET %s error = %v", path, err)
	}
	return resp.StatusCode(), string(resp.Body())
}

func TestServer_Metrics(t *testing.T) {
	client, m := startTestServer(t, "/metrics")
	m.ItemSubmitted()
	m.QueueDepth(4)

	status, body := get(t, client, "/metrics")
	if status != fasthttp.StatusOK {
		t.Fatalf("status = %d, want 200", status)
	}
	for _, want := range []string{
		"threadpool_tasks_submitted_total 1",
		"threadpool_queue_depth 4",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("body missing %q", want)
		}
	}
}

func TestServer_CustomPath(t *testing.T) {
	client, _ := startTestServer(t, "/internal/prom")

	if status, _ := get(t, client, "/internal/prom"); status != fasthttp.StatusOK {
		t.Errorf("custom path status = %d, want 200", status)
	}
	if status, _ := get(t, client, "/metrics"); status != fasthttp.StatusNotFound {
		t.Errorf("default path status = %d, want 404", status)
	}
}

func TestServer_Live(t *testing.T) {
	client, _ := startTestServer(t, "")

	status, body := get(t, client, "/live")
	if status != fasthttp.StatusOK || body != "ok" {
		t.Errorf("GET /live = %d %q, want 200 \"ok\"", status, body)
	}
}
