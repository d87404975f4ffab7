package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mind-engage/mindengage-psy/internal/auth"
	"github.com/mind-engage/mindengage-psy/internal/bank"
	"github.com/mind-engage/mindengage-psy/internal/formats"
	"github.com/mind-engage/mindengage-psy/internal/scoring"
	"github.com/mind-engage/mindengage-psy/internal/session"
)

const testBank = `{"items": [
  {"id": "ag1", "domain": "agreeableness", "text": "I sympathize with others", "difficulty": 2, "scale": {"min": 1, "max": 5}},
  {"id": "ag2", "domain": "agreeableness", "text": "I take time out for others", "difficulty": 4, "scale": {"min": 1, "max": 5}},
  {"id": "es1", "domain": "emotional_stability", "text": "I get stressed out easily", "valence": "reverse", "difficulty": 3, "scale": {"min": 1, "max": 5}},
  {"id": "es2", "domain": "emotional_stability", "text": "I am relaxed most of the time", "difficulty": 1, "scale": {"min": 1, "max": 5}}
]}`

func writeBank(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
	return p
}

// execute runs the root command with fresh flag values and captured output.
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	bankDomainsFile, bankStatsJSON = "", false
	runTarget, runAlpha, runDomains, runJSON = session.DefaultTarget, scoring.DefaultAlpha, "", false
	tokenSecret, tokenRole, tokenTTL = "", "operator", 8*time.Hour

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version")

	require.NoError(t, err)
	assert.Equal(t, "psyctl version dev\n", out)
}

func TestBankValidate(t *testing.T) {
	out, err := execute(t, "", "bank", "validate", writeBank(t, "bank.json", testBank))

	require.NoError(t, err)
	assert.Contains(t, out, "ok: 4 items in 2 domains")
}

func TestBankValidate_Malformed(t *testing.T) {
	body := `[{"id": "x", "domain": "d", "text": "t", "valence": "sideways", "difficulty": 1, "scale": {"min": 1, "max": 5}}]`

	_, err := execute(t, "", "bank", "validate", writeBank(t, "bank.json", body))

	assert.ErrorIs(t, err, bank.ErrMalformedItem)
}

func TestBankStats(t *testing.T) {
	path := writeBank(t, "bank.json", testBank)

	t.Run("text", func(t *testing.T) {
		out, err := execute(t, "", "bank", "stats", path)
		require.NoError(t, err)
		assert.Contains(t, out, "Total Items: 4")
		assert.Contains(t, out, "- agreeableness: 2 items (scale 1..5)")
		assert.Contains(t, out, "- emotional_stability: 2 items (scale 1..5)")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, "", "bank", "stats", "--json", path)
		require.NoError(t, err)

		var got struct {
			Total   int            `json:"total"`
			Domains map[string]int `json:"domains"`
		}
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, 4, got.Total)
		assert.Equal(t, 2, got.Domains["agreeableness"])
	})
}

func TestBankConvert(t *testing.T) {
	in := writeBank(t, "bank.json", testBank)
	out := filepath.Join(t.TempDir(), "bank.yaml")

	stdout, err := execute(t, "", "bank", "convert", in, out)
	require.NoError(t, err)
	assert.Contains(t, stdout, "wrote 4 items to")

	bf, err := formats.ReadFile(out)
	require.NoError(t, err)
	items, err := bf.ItemList()
	require.NoError(t, err)
	assert.Len(t, items, 4)

	_, err = execute(t, "", "bank", "convert", in, filepath.Join(t.TempDir(), "bank.csv"))
	assert.ErrorContains(t, err, "unsupported output format")
}

func TestRun_CompletesAtTarget(t *testing.T) {
	path := writeBank(t, "bank.json", testBank)

	out, err := execute(t, "abc\n9\n5\n2\n", "run", "-n", "2", path)

	require.NoError(t, err)
	assert.Contains(t, out, "Question 1 of 2\nI sympathize with others")
	assert.Contains(t, out, "3 = Neutral")
	assert.Contains(t, out, "Please enter a number.")
	assert.Contains(t, out, "Please answer between 1 and 5.")
	assert.Contains(t, out, "Question 2 of 2\nI get stressed out easily")
	assert.Contains(t, out, "Overall Score: 4.50")
	assert.Contains(t, out, "- Agreeableness: 5.00 (High level, 1 responses)")
	assert.Contains(t, out, "- Emotional Stability: 4.00 (High level, 1 responses)")
	assert.Contains(t, out, "2. [Emotional Stability] I get stressed out easily -> 2 (Disagree)")
}

func TestRun_ExhaustsBank(t *testing.T) {
	path := writeBank(t, "bank.json", testBank)

	out, err := execute(t, "3\n3\n3\n3\n", "run", "--json", path)
	require.NoError(t, err)
	assert.Contains(t, out, "No more items available.")

	start := strings.Index(out, "{")
	require.GreaterOrEqual(t, start, 0)
	var res session.Result
	require.NoError(t, json.Unmarshal([]byte(out[start:]), &res))
	assert.Len(t, res.Responses, 4)
	assert.InDelta(t, 3.0, res.Overall, 1e-9)
	assert.Equal(t, "moderate", res.Domains["agreeableness"].Interpretation)
}

func TestRun_InputEndsEarly(t *testing.T) {
	path := writeBank(t, "bank.json", testBank)

	out, err := execute(t, "4\n", "run", path)
	require.NoError(t, err)
	assert.Contains(t, out, "Overall Score: 4.00")

	_, err = execute(t, "", "run", path)
	assert.ErrorContains(t, err, "input ended before any response")
}

func TestRun_RejectsBadAlpha(t *testing.T) {
	_, err := execute(t, "", "run", "--alpha", "1.5", writeBank(t, "bank.json", testBank))

	assert.Error(t, err)
}

func TestDisplayName(t *testing.T) {
	assert.Equal(t, "Emotional Stability", displayName("emotional_stability"))
	assert.Equal(t, "Openness", displayName("openness"))
	assert.Equal(t, "", displayName(""))
}

func TestTokenCommand(t *testing.T) {
	t.Setenv("AUTH_JWT_SECRET", "")

	_, err := execute(t, "", "token", "alice")
	assert.ErrorContains(t, err, "no signing secret")

	out, err := execute(t, "", "token", "--secret", "s3cret", "--role", "author", "alice")
	require.NoError(t, err)
	c, err := auth.NewService("s3cret", 0).Parse(strings.TrimSpace(out))
	require.NoError(t, err)
	assert.Equal(t, "author", c.Role)
	assert.Equal(t, "alice", c.Subject)

	_, err = execute(t, "", "token", "--secret", "s3cret", "--role", "student", "bob")
	assert.ErrorContains(t, err, "unknown role")
}
