package report_test

import (
	"bytes"
	"testing"
	"unicode/utf8"

	"github.com/srg/blepoll/internal/device"
	"github.com/srg/blepoll/internal/report"
	"github.com/srg/blepoll/internal/testutils"
	"github.com/stretchr/testify/require"
)

func TestWriteScanTable(t *testing.T) {
	devices := []device.Info{
		{Name: "ESP32", Address: "AA:BB:CC:DD:EE:FF", RSSI: -42, AdvertisedServices: []string{"180f", "1800"}},
		{Address: "11:22:33:44:55:66", RSSI: -80, AdvertisedServices: []string{}},
		{Name: "A very long device name indeed", Address: "99:88:77:66:55:44", RSSI: -60},
	}

	var out bytes.Buffer
	require.NoError(t, report.WriteScanTable(&out, devices))

	expected := `NAME                  ADDRESS            RSSI     SERVICES
----                  -------            ----     --------
ESP32                 AA:BB:CC:DD:EE:FF  -42 dBm  180f,1800
(unknown)             11:22:33:44:55:66  -80 dBm
A very long devic...  99:88:77:66:55:44  -60 dBm
`
	testutils.NewTextAsserter(t).Assert(out.String(), expected)
}

func TestWriteScanTable_TruncatesByRune(t *testing.T) {
	devices := []device.Info{
		{Name: "Датчик температуры кухни", Address: "AA:BB:CC:DD:EE:FF", RSSI: -42},
	}

	var out bytes.Buffer
	require.NoError(t, report.WriteScanTable(&out, devices))

	require.True(t, utf8.ValidString(out.String()), "truncated names MUST stay valid UTF-8")
	require.Contains(t, out.String(), "Датчик температур...  AA:BB:CC:DD:EE:FF")
}

func TestWriteScanTable_Empty(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, report.WriteScanTable(&out, nil))
	require.Equal(t, "No devices discovered\n", out.String())
}

func TestWriteScanJSON(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, report.WriteScanJSON(&out, nil))
	require.Equal(t, "[]\n", out.String(), "an empty scan MUST be an empty array, not null")

	out.Reset()
	require.NoError(t, report.WriteScanJSON(&out, []device.Info{espDevice}))
	require.Contains(t, out.String(), `"address": "AA:BB:CC:DD:EE:FF"`)
}
