package version

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    string
		wantErr bool
	}{
		{"three segments", "7.10.0", "7.10.0", false},
		{"two segments", "7.10", "7.10", false},
		{"one segment", "7", "7", false},
		{"four segments", "1.2.3.4", "1.2.3.4", false},
		{"surrounding whitespace", " 9.11.1\n", "9.11.1", false},
		{"empty", "", "", true},
		{"v prefix", "v7.10.0", "", true},
		{"prerelease", "7.10.0-rc1", "", true},
		{"build metadata", "7.10.0+abc", "", true},
		{"trailing dot", "7.10.", "", true},
		{"double dot", "7..10", "", true},
		{"letters", "latest", "", true},
		{"negative", "-1.0.0", "", true},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			v, err := Parse(test.input)
			if test.wantErr {
				require.ErrorIs(t, err, ErrParse)
				assert.False(t, v.IsValid())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, test.want, v.String())
			assert.True(t, v.IsValid())
		})
	}
}

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"10.0.0", "9.9.9", 1},
		{"7.10", "7.10.0", 0},
		{"7.10.0", "7.10", 0},
		{"1.2.3", "1.2.10", -1},
		{"1.2.3.4", "1.2.3", 1},
		{"1.2.3.0", "1.2.3", 0},
		{"0.0.0", "0.0.1", -1},
		{"7.9.0", "7.10.0", -1},
	}

	for _, test := range tests {
		t.Run(test.a+"_vs_"+test.b, func(t *testing.T) {
			a := MustParse(test.a)
			b := MustParse(test.b)
			assert.Equal(t, test.want, a.Compare(b))
			assert.Equal(t, -test.want, b.Compare(a))
			assert.Equal(t, test.want == 0, a.Equal(b))
		})
	}
}

func TestOrderingHelpers(t *testing.T) {
	low := MustParse("7.9.0")
	high := MustParse("7.10.0")

	assert.True(t, low.LessThan(high))
	assert.True(t, low.LessThanOrEqual(high))
	assert.True(t, high.LessThanOrEqual(MustParse("7.10")))
	assert.True(t, high.GreaterThan(low))
	assert.False(t, high.LessThan(high))
}

func TestZero(t *testing.T) {
	assert.Equal(t, "0.0.0", Zero().String())
	assert.True(t, Zero().LessThan(MustParse("0.0.1")))
}

func TestTextRoundTrip(t *testing.T) {
	var payload struct {
		Version Version `json:"version"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"version":"9.11.1"}`), &payload))
	assert.Equal(t, "9.11.1", payload.Version.String())

	err := json.Unmarshal([]byte(`{"version":"nine"}`), &payload)
	assert.ErrorIs(t, err, ErrParse)
}
