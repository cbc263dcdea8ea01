package httpapi

import (
	"encoding/json"
	"net/http"
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "grocery/docs"
)

var ginParam = regexp.MustCompile(`:(\w+)`)

func TestSwaggerCoversEveryRoute(t *testing.T) {
	s := setupServer(t)
	w := doJSON(t, s, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, w.Code)

	doc := decode[struct {
		BasePath string                                `json:"basePath"`
		Paths    map[string]map[string]json.RawMessage `json:"paths"`
	}](t, w)
	require.Equal(t, "/api/v1", doc.BasePath)

	documented := 0
	for _, r := range s.Engine().Routes() {
		if !strings.HasPrefix(r.Path, doc.BasePath+"/") {
			continue
		}
		path := ginParam.ReplaceAllString(strings.TrimPrefix(r.Path, doc.BasePath), "{$1}")
		ops, ok := doc.Paths[path]
		if assert.True(t, ok, "undocumented path %s", path) {
			_, ok = ops[strings.ToLower(r.Method)]
			assert.True(t, ok, "undocumented %s %s", r.Method, path)
		}
		documented++
	}
	assert.Positive(t, documented)
}
