package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("veyra-test", false, &buf)

	buf.Reset()
	Info().Str("wallet", "0xabc").Msg("score lookup")
	Debug().Msg("hidden at info level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "veyra-test", entry["service"])
	assert.Equal(t, "score lookup", entry["message"])
	assert.Equal(t, "0xabc", entry["wallet"])
	assert.Contains(t, entry, "timestamp")
}

func TestInitWithWriterDebugConsole(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("veyra-test", true, &buf)

	buf.Reset()
	Debug().Msg("visible")
	assert.Contains(t, buf.String(), "| visible")
}

func TestForUserTagsLines(t *testing.T) {
	var buf bytes.Buffer
	InitWithWriter("veyra-test", false, &buf)

	buf.Reset()
	ForUser(12345).Warn().Msg("Invalid admin code")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, float64(12345), entry[UserIDField])
	assert.Equal(t, "warn", entry["level"])
}
