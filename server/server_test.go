package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/anner-rdf/annotation"
	"github.com/c360studio/anner-rdf/export"
	"github.com/c360studio/anner-rdf/resolver"
)

const rawDoc = `{"annotations": [[null, "Hello world", {"entities": [[null, 0, 5, [["MATERIAL", "Candidate", "2024-01-01T00:00:00Z", "alice"]]]]}]]}`

var testTime = time.Date(2024, time.March, 5, 14, 7, 9, 0, time.UTC)

func newTestServer(t *testing.T, cfg Config) *httptest.Server {
	t.Helper()
	s := New(cfg, WithResolver(resolver.New(resolver.WithClock(resolver.FixedClock(testTime)))))
	ts := httptest.NewServer(s.Handler())
	t.Cleanup(ts.Close)
	return ts
}

func post(t *testing.T, url, body string) *http.Response {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func readBody(t *testing.T, resp *http.Response) string {
	t.Helper()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(data)
}

func TestResolveEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp := post(t, ts.URL+"/api/v1/resolve", rawDoc)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "AnNER-RDF_240305140709", resp.Header.Get(HeaderDocumentID))
	assert.Equal(t, "0", resp.Header.Get(HeaderReviewVersion))
	assert.Equal(t, "raw", resp.Header.Get(HeaderProvenance))

	doc, err := annotation.Parse([]byte(readBody(t, resp)))
	require.NoError(t, err)
	assert.Equal(t, "AnNER-RDF_240305140709_p1", *doc.Annotations[0].ID)
	assert.Equal(t, "AnNER-RDF_240305140709_p1_e1", *doc.Annotations[0].Entities[0].ID)
}

func TestResolveEndpoint_ReviewVersion(t *testing.T) {
	ts := newTestServer(t, Config{})

	body := `{"annotations": [["AnNER-RDF_240101000000_p1", "abcdef", {"entities": [
		["AnNER-RDF_240101000000_p1_e1_Rv2", 0, 1, []],
		[null, 2, 3, []]
	]}]]}`
	resp := post(t, ts.URL+"/api/v1/resolve", body)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "3", resp.Header.Get(HeaderReviewVersion))
	assert.Contains(t, readBody(t, resp), "AnNER-RDF_240101000000_p1_e2_Rv3")
}

func TestRDFEndpoint(t *testing.T) {
	ts := newTestServer(t, Config{})

	t.Run("turtle by default", func(t *testing.T) {
		resp := post(t, ts.URL+"/api/v1/rdf", rawDoc)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/turtle; charset=utf-8", resp.Header.Get("Content-Type"))
		body := readBody(t, resp)
		assert.True(t, strings.HasPrefix(body, "@prefix onner:"))
		assert.Contains(t, body, "data:Publication_AnNER-RDF_240305140709")
	})

	t.Run("ntriples", func(t *testing.T) {
		resp := post(t, ts.URL+"/api/v1/rdf?format=ntriples", rawDoc)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/n-triples; charset=utf-8", resp.Header.Get("Content-Type"))
		assert.NotContains(t, readBody(t, resp), "@prefix")
	})
}

func TestErrorStatus(t *testing.T) {
	ts := newTestServer(t, Config{MaxBodyBytes: 512})

	tests := []struct {
		name   string
		path   string
		body   string
		status int
	}{
		{"malformed json", "/api/v1/resolve", `{"annotations": [`, http.StatusBadRequest},
		{"no paragraphs", "/api/v1/resolve", `{"annotations": []}`, http.StatusBadRequest},
		{"offset invariant", "/api/v1/resolve", `{"annotations": [[null, "ab", {"entities": [[null, 1, 0, []]]}]]}`, http.StatusBadRequest},
		{"non-string first id", "/api/v1/resolve", `{"annotations": [[42, "ab", {"entities": []}]]}`, http.StatusBadRequest},
		{"malformed review suffix", "/api/v1/resolve", `{"annotations": [["AnNER-RDF_240101000000_p1", "ab", {"entities": [["AnNER-RDF_240101000000_p1_e1_Rvxx", 0, 1, []], [null, 1, 2, []]]}]]}`, http.StatusUnprocessableEntity},
		{"unknown label", "/api/v1/rdf", `{"annotations": [[null, "ab", {"entities": [[null, 0, 1, [["NOPE", "Candidate", "t", "a"]]]]}]]}`, http.StatusUnprocessableEntity},
		{"unsupported format", "/api/v1/rdf?format=rdfxml", rawDoc, http.StatusBadRequest},
		{"body too large", "/api/v1/resolve", `{"annotations": [[null, "` + strings.Repeat("x", 1024) + `", {"entities": []}]]}`, http.StatusRequestEntityTooLarge},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp := post(t, ts.URL+tc.path, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode)

			var er ErrorResponse
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&er))
			assert.NotEmpty(t, er.Error)
			assert.NotEmpty(t, er.RequestID)
		})
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, StatusFor(fmt.Errorf("wrap: %w", &resolver.ValidationError{Message: "x"})))
	assert.Equal(t, http.StatusUnprocessableEntity, StatusFor(fmt.Errorf("wrap: %w", export.ErrParagraphPosition)))
	assert.Equal(t, http.StatusInternalServerError, StatusFor(errors.New("boom")))
}

func TestHealthzAndMetrics(t *testing.T) {
	ts := newTestServer(t, Config{})

	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	post(t, ts.URL+"/api/v1/rdf", rawDoc)

	resp, err = http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := readBody(t, resp)
	assert.Contains(t, body, "anner_rdf_http_requests_total")
	assert.Contains(t, body, `anner_rdf_documents_total{operation="rdf",provenance="raw"} 1`)
	assert.Contains(t, body, "anner_rdf_triples_total")
}

func TestConcurrentRequests(t *testing.T) {
	s := New(Config{})
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	const n = 8
	ids := make([]string, n)
	statuses := make([]int, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			resp, err := http.Post(ts.URL+"/api/v1/resolve", "application/json", strings.NewReader(rawDoc))
			if err != nil {
				return
			}
			defer resp.Body.Close()
			statuses[i] = resp.StatusCode
			ids[i] = resp.Header.Get(HeaderDocumentID)
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		assert.Equal(t, http.StatusOK, statuses[i])
		assert.Regexp(t, `^AnNER-RDF_\d{12}$`, ids[i])
	}
}
