package tracker

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDate_AddDays(t *testing.T) {
	d := NewDate(2024, time.March, 1)
	assert.Equal(t, NewDate(2024, time.February, 29), d.AddDays(-1))
	assert.Equal(t, NewDate(2024, time.February, 23), d.AddDays(-7))
	assert.Equal(t, NewDate(2025, time.January, 1), NewDate(2024, time.December, 31).AddDays(1))
}

func TestDate_Compare(t *testing.T) {
	a := NewDate(2024, time.March, 1)
	b := NewDate(2024, time.March, 2)
	assert.True(t, a.Before(b))
	assert.False(t, b.Before(a))
	assert.True(t, b.After(a))
	assert.False(t, a.After(a))
	assert.False(t, a.Before(a))
}

func TestDate_DateOfUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+10", 10*60*60)
	ts := time.Date(2024, time.March, 14, 20, 0, 0, 0, time.UTC)
	assert.Equal(t, NewDate(2024, time.March, 14), DateOf(ts))
	assert.Equal(t, NewDate(2024, time.March, 15), DateOf(ts.In(loc)))
}

func TestDate_JSON(t *testing.T) {
	type wrapper struct {
		Date Date `json:"date"`
	}

	out, err := json.Marshal(wrapper{Date: NewDate(2024, time.January, 5)})
	require.NoError(t, err)
	assert.JSONEq(t, `{"date":"2024-01-05"}`, string(out))

	var w wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"date":"2023-12-31"}`), &w))
	assert.Equal(t, NewDate(2023, time.December, 31), w.Date)

	require.NoError(t, json.Unmarshal([]byte(`{"date":""}`), &w))
	assert.True(t, w.Date.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"date":"31/12/2023"}`), &w))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())

	_, err = ParseDate("2023-02-29")
	assert.Error(t, err)
	assert.Equal(t, "", Date{}.String())
}
