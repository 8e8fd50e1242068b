package records

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/klauspost/pgzip"
)

func withFastRetries(t *testing.T) {
	t.Helper()
	prev := retryBase
	retryBase = time.Millisecond
	t.Cleanup(func() { retryBase = prev })
}

func TestOpenHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	tbl, err := Open(context.Background(), srv.URL+"/providers.csv", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(tbl.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(tbl.Records))
	}
}

func TestOpenHTTPGzipWithQueryString(t *testing.T) {
	var buf bytes.Buffer
	zw := pgzip.NewWriter(&buf)
	zw.Write([]byte(sampleCSV))
	zw.Close()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(buf.Bytes())
	}))
	defer srv.Close()

	tbl, err := Open(context.Background(), srv.URL+"/providers.csv.gz?X-Amz-Signature=abc", Options{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if len(tbl.Records) != 2 {
		t.Errorf("expected 2 records, got %d", len(tbl.Records))
	}
}

func TestDownloadRetriesServerErrors(t *testing.T) {
	withFastRetries(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(sampleCSV))
	}))
	defer srv.Close()

	body, err := download(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("download: %v", err)
	}
	body.Close()
	if calls.Load() != 3 {
		t.Errorf("expected 3 attempts, got %d", calls.Load())
	}
}

func TestDownloadDoesNotRetryClientErrors(t *testing.T) {
	withFastRetries(t)
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	_, err := download(context.Background(), srv.URL+"/x.csv?sig=secret")
	if err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 attempt, got %d", calls.Load())
	}
	if bytes.Contains([]byte(err.Error()), []byte("secret")) {
		t.Errorf("error leaks query string: %v", err)
	}
}

func TestGzipped(t *testing.T) {
	tests := map[string]bool{
		"a.csv.gz":                          true,
		"A.CSV.GZ":                          true,
		"a.csv":                             false,
		"https://h/a.csv.gz?sig=1":          true,
		"https://h/a.csv?name=b.gz":         false,
		"s3://bucket/path/providers.csv.gz": true,
	}
	for in, want := range tests {
		if got := gzipped(in); got != want {
			t.Errorf("gzipped(%q) = %v, want %v", in, got, want)
		}
	}
}
