package reflection

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/tasks"
)

var errEmptyReflection = errors.New("reflection: empty note or next")

// maxResponseBytes caps how much of a generator response is read.
const maxResponseBytes = 64 << 10

// HTTPGenerator calls a remote reflection endpoint. The request body is
// {"task": {...}, "text": "..."}; the response must contain a JSON object
// with non-empty "note" and "next", optionally surrounded by prose.
type HTTPGenerator struct {
	URL    string
	Client *http.Client
}

type httpRequest struct {
	Task tasks.Task `json:"task"`
	Text string     `json:"text"`
}

// Generate POSTs the task and text and decodes the reflection.
func (g *HTTPGenerator) Generate(ctx context.Context, task tasks.Task, normalized string) (domain.Reflection, error) {
	body, err := json.Marshal(httpRequest{Task: task, Text: normalized})
	if err != nil {
		return domain.Reflection{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return domain.Reflection{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	client := g.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return domain.Reflection{}, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.Reflection{}, err
	}
	if resp.StatusCode/100 != 2 {
		return domain.Reflection{}, fmt.Errorf("reflection: upstream status %d", resp.StatusCode)
	}
	return Decode(raw)
}

// Decode extracts a Reflection from raw. It first tries the whole payload,
// then the span between the first '{' and the last '}'.
func Decode(raw []byte) (domain.Reflection, error) {
	var r domain.Reflection
	if err := json.Unmarshal(raw, &r); err != nil {
		s := string(raw)
		start, end := strings.Index(s, "{"), strings.LastIndex(s, "}")
		if start < 0 || end <= start {
			return domain.Reflection{}, fmt.Errorf("reflection: no JSON object in response")
		}
		if err := json.Unmarshal([]byte(s[start:end+1]), &r); err != nil {
			return domain.Reflection{}, fmt.Errorf("reflection: decode: %w", err)
		}
	}
	r = Clip(domain.Reflection{Note: strings.TrimSpace(r.Note), Next: strings.TrimSpace(r.Next)})
	if r.Note == "" || r.Next == "" {
		return domain.Reflection{}, errEmptyReflection
	}
	return r, nil
}
