package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nadzzz/ordertaker/internal/delivery"
	"github.com/nadzzz/ordertaker/internal/locale"
	"github.com/nadzzz/ordertaker/internal/session"
)

const recordedCall = `# pickup order
Bom dia, queria dois frangos do churrasco
assistant: Anotado, 2x Frango do Churrasco. Mais alguma coisa?
customer: com molho da casa e picante
dtmf: 3
é tudo, em nome de Ana Lopes para as 19h
customer: confirmo
`

func newKit(t *testing.T) *session.Kit {
	t.Helper()
	color.NoColor = true
	b, err := locale.Default()
	require.NoError(t, err)
	now := time.Date(2024, 7, 1, 18, 0, 0, 0, time.UTC)
	return session.NewKit(b, session.Options{Location: time.UTC, Clock: func() time.Time { return now }})
}

func TestReplaySummary(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, replay(strings.NewReader(recordedCall), &out, newKit(t), false))

	text := out.String()
	assert.Contains(t, text, "customer>  Bom dia, queria dois frangos do churrasco")
	assert.Contains(t, text, "assistant> Anotado, 2x Frango do Churrasco.")
	assert.Contains(t, text, "[dtmf 3]")
	assert.Contains(t, text, "[summarize]")
	assert.Contains(t, text, "[confirm]")
	assert.Contains(t, text, "- 2x Frango do Churrasco (molho da casa, picante)")
	assert.Contains(t, text, "phase: closed")
}

func TestReplayJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, replay(strings.NewReader(recordedCall), &out, newKit(t), true))

	var p delivery.Payload
	require.NoError(t, json.Unmarshal(out.Bytes()[bytes.IndexByte(out.Bytes(), '{'):], &p))
	assert.True(t, p.Closed)
	assert.Equal(t, "Ana Lopes", p.OrderDetails.CustomerName)
	assert.Equal(t, "19:00", p.OrderDetails.PickupTime)
	require.Len(t, p.OrderDetails.Items, 1)
	assert.Equal(t, 2, p.OrderDetails.Items[0].Quantity)
}

func TestPrintMenu(t *testing.T) {
	color.NoColor = true
	b, err := locale.Default()
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, printMenu(&out, b))
	text := out.String()
	assert.Contains(t, text, "Churrascaria Quitanda")
	assert.Contains(t, text, "Frango do Churrasco")
	assert.Contains(t, text, "7.90€")
	assert.Contains(t, text, "asks sauce, spice_level")
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	versionCmd.SetOut(&out)
	versionCmd.Run(versionCmd, nil)
	assert.Equal(t, "ordertaker dev\n", out.String())
}
