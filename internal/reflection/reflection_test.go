package reflection

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tbourn/alive28-ledger/internal/domain"
	"github.com/tbourn/alive28-ledger/internal/tasks"
)

func TestTemplate_Golden(t *testing.T) {
	cat := tasks.MustDefault()
	cases := []struct {
		name string
		day  int
		text string
	}{
		{"short_entry", 1, "hello"},
		{"day6_tired", 6, "I am tired today but okay"},
		{"procrastination", 3, "I keep procrastinating on the report"},
		{"anxious_thinking", 2, "I think I was anxious about work all day"},
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r, err := Template{}.Generate(context.Background(), cat.ByDay(tc.day), tc.text)
			require.NoError(t, err)
			assert.LessOrEqual(t, utf8.RuneCountInString(r.Note), MaxNoteRunes)
			assert.LessOrEqual(t, utf8.RuneCountInString(r.Next), MaxNextRunes)

			js, err := json.MarshalIndent(r, "", "  ")
			require.NoError(t, err)
			g.Assert(t, "template_"+tc.name, js)
		})
	}
}

func TestTemplate_Deterministic(t *testing.T) {
	task := tasks.MustDefault().ByDay(4)
	a, _ := Template{}.Generate(context.Background(), task, "a quiet day")
	b, _ := Template{}.Generate(context.Background(), task, "a quiet day")
	assert.Equal(t, a, b)
}

func TestDecode(t *testing.T) {
	r, err := Decode([]byte(`{"note":"well done","next":"breathe"}`))
	require.NoError(t, err)
	assert.Equal(t, domain.Reflection{Note: "well done", Next: "breathe"}, r)

	r, err = Decode([]byte("Sure! Here it is:\n{\"note\":\"n\",\"next\":\"x\"}\nHope it helps."))
	require.NoError(t, err)
	assert.Equal(t, "n", r.Note)

	_, err = Decode([]byte(`{"note":"","next":"x"}`))
	assert.Error(t, err)

	_, err = Decode([]byte("no json here"))
	assert.Error(t, err)

	long := strings.Repeat("n", 400)
	r, err = Decode([]byte(`{"note":"` + long + `","next":"x"}`))
	require.NoError(t, err)
	assert.Equal(t, MaxNoteRunes, utf8.RuneCountInString(r.Note))
}

func TestHTTPGenerator(t *testing.T) {
	var got httpRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"note":"remote note","next":"remote next"}`))
	}))
	defer srv.Close()

	g := &HTTPGenerator{URL: srv.URL, Client: srv.Client()}
	r, err := g.Generate(context.Background(), tasks.MustDefault().ByDay(2), "hello")
	require.NoError(t, err)
	assert.Equal(t, "remote note", r.Note)
	assert.Equal(t, "hello", got.Text)
	assert.Equal(t, 2, got.Task.DayIndex)
}

func TestHTTPGenerator_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := (&HTTPGenerator{URL: srv.URL}).Generate(context.Background(), tasks.Task{DayIndex: 1}, "x")
	assert.ErrorContains(t, err, "502")
}

func TestWithFallback(t *testing.T) {
	task := tasks.MustDefault().ByDay(1)
	want, _ := Template{}.Generate(context.Background(), task, "hello")

	failing := GeneratorFunc(func(context.Context, tasks.Task, string) (domain.Reflection, error) {
		return domain.Reflection{}, errors.New("down")
	})
	r, err := WithFallback(failing, Template{}, time.Second).Generate(context.Background(), task, "hello")
	require.NoError(t, err)
	assert.Equal(t, want, r)

	slow := GeneratorFunc(func(ctx context.Context, _ tasks.Task, _ string) (domain.Reflection, error) {
		<-ctx.Done()
		return domain.Reflection{}, ctx.Err()
	})
	start := time.Now()
	r, err = WithFallback(slow, Template{}, 20*time.Millisecond).Generate(context.Background(), task, "hello")
	require.NoError(t, err)
	assert.Equal(t, want, r)
	assert.Less(t, time.Since(start), time.Second)

	empty := GeneratorFunc(func(context.Context, tasks.Task, string) (domain.Reflection, error) {
		return domain.Reflection{Note: "only note"}, nil
	})
	r, _ = WithFallback(empty, Template{}, time.Second).Generate(context.Background(), task, "hello")
	assert.Equal(t, want, r)

	ok := GeneratorFunc(func(context.Context, tasks.Task, string) (domain.Reflection, error) {
		return domain.Reflection{Note: "fine", Next: "go"}, nil
	})
	r, _ = WithFallback(ok, Template{}, time.Second).Generate(context.Background(), task, "hello")
	assert.Equal(t, "fine", r.Note)

	assert.Equal(t, Template{}, WithFallback(nil, Template{}, time.Second))
}
