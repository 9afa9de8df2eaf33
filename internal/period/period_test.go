package period_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MrJamesThe3rd/ledgerly/internal/period"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

func TestResolveAt(t *testing.T) {
	type testCase struct {
		name      string
		now       time.Time
		token     period.Token
		custom    *period.Range
		wantStart time.Time
		wantEnd   time.Time
		wantErr   error
	}

	tests := []testCase{
		{
			name:      "current month in leap february",
			now:       time.Date(2024, 2, 14, 15, 30, 0, 0, time.UTC),
			token:     period.CurrentMonth,
			wantStart: date(2024, 2, 1),
			wantEnd:   date(2024, 2, 29),
		},
		{
			name:      "current month in common february",
			now:       time.Date(2023, 2, 3, 8, 0, 0, 0, time.UTC),
			token:     period.CurrentMonth,
			wantStart: date(2023, 2, 1),
			wantEnd:   date(2023, 2, 28),
		},
		{
			name:      "last month across year boundary",
			now:       time.Date(2024, 1, 31, 23, 59, 0, 0, time.UTC),
			token:     period.LastMonth,
			wantStart: date(2023, 12, 1),
			wantEnd:   date(2023, 12, 31),
		},
		{
			name:      "last month from the 31st",
			now:       time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC),
			token:     period.LastMonth,
			wantStart: date(2024, 2, 1),
			wantEnd:   date(2024, 2, 29),
		},
		{
			name:      "current year",
			now:       time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			token:     period.CurrentYear,
			wantStart: date(2024, 1, 1),
			wantEnd:   date(2024, 12, 31),
		},
		{
			name:      "last year",
			now:       time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC),
			token:     period.LastYear,
			wantStart: date(2023, 1, 1),
			wantEnd:   date(2023, 12, 31),
		},
		{
			name:      "custom",
			now:       time.Now(),
			token:     period.Custom,
			custom:    &period.Range{Start: "2024-03-01", End: "2024-03-31"},
			wantStart: date(2024, 3, 1),
			wantEnd:   date(2024, 3, 31),
		},
		{
			name:      "custom reversed is kept as is",
			now:       time.Now(),
			token:     period.Custom,
			custom:    &period.Range{Start: "2024-03-31", End: "2024-03-01"},
			wantStart: date(2024, 3, 31),
			wantEnd:   date(2024, 3, 1),
		},
		{
			name:    "custom without range",
			now:     time.Now(),
			token:   period.Custom,
			wantErr: period.ErrInvalidConfiguration,
		},
		{
			name:    "custom missing end",
			now:     time.Now(),
			token:   period.Custom,
			custom:  &period.Range{Start: "2024-03-01"},
			wantErr: period.ErrInvalidConfiguration,
		},
		{
			name:    "custom unparsable start",
			now:     time.Now(),
			token:   period.Custom,
			custom:  &period.Range{Start: "March", End: "2024-03-31"},
			wantErr: period.ErrInvalidConfiguration,
		},
		{
			name:    "unknown token",
			now:     time.Now(),
			token:   period.Token("fortnight"),
			wantErr: period.ErrUnknownPeriod,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := period.ResolveAt(tt.now, tt.token, tt.custom)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.wantStart, got.Start)
			assert.Equal(t, tt.wantEnd, got.End)
		})
	}
}

func TestResolveAt_CurrentMonthShape(t *testing.T) {
	for month := 1; month <= 12; month++ {
		now := time.Date(2024, time.Month(month), 17, 10, 0, 0, 0, time.UTC)

		got, err := period.ResolveAt(now, period.CurrentMonth, nil)
		require.NoError(t, err)

		assert.Equal(t, 1, got.Start.Day())
		assert.Equal(t, got.Start.Month(), got.End.Month())
		assert.Equal(t, 1, got.End.AddDate(0, 0, 1).Day())
		assert.GreaterOrEqual(t, got.End.Day(), 28)
		assert.LessOrEqual(t, got.End.Day(), 31)
	}
}

func TestResolveAt_IsPure(t *testing.T) {
	now := time.Date(2024, 5, 9, 9, 0, 0, 0, time.UTC)

	for _, token := range []period.Token{period.CurrentMonth, period.LastMonth, period.CurrentYear, period.LastYear} {
		first, err := period.ResolveAt(now, token, nil)
		require.NoError(t, err)

		second, err := period.ResolveAt(now, token, nil)
		require.NoError(t, err)

		assert.Equal(t, first, second, token)
	}
}

func TestInterval_Contains(t *testing.T) {
	iv, err := period.ResolveAt(time.Now(), period.Custom, &period.Range{Start: "2024-01-01", End: "2024-01-31"})
	require.NoError(t, err)

	assert.True(t, iv.Contains(date(2024, 1, 1)))
	assert.True(t, iv.Contains(date(2024, 1, 31)))
	assert.True(t, iv.Contains(time.Date(2024, 1, 31, 23, 59, 59, 0, time.UTC)))
	assert.False(t, iv.Contains(date(2023, 12, 31)))
	assert.False(t, iv.Contains(date(2024, 2, 1)))
	assert.False(t, iv.Contains(time.Time{}))
}

func TestParseToken(t *testing.T) {
	got, err := period.ParseToken(" Last-Month ")
	require.NoError(t, err)
	assert.Equal(t, period.LastMonth, got)

	_, err = period.ParseToken("quarter")
	assert.ErrorIs(t, err, period.ErrUnknownPeriod)
}

func TestFormatLabel(t *testing.T) {
	now := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)

	month, err := period.ResolveAt(now, period.CurrentMonth, nil)
	require.NoError(t, err)
	assert.Equal(t, "March 2024", period.FormatLabel(period.CurrentMonth, month))

	lastYear, err := period.ResolveAt(now, period.LastYear, nil)
	require.NoError(t, err)
	assert.Equal(t, "2023", period.FormatLabel(period.LastYear, lastYear))

	custom, err := period.ResolveAt(now, period.Custom, &period.Range{Start: "2024-03-01", End: "2024-03-31"})
	require.NoError(t, err)
	assert.Equal(t, "Mar 1, 2024 - Mar 31, 2024", period.FormatLabel(period.Custom, custom))
	assert.Equal(t, "Mar 1, 2024 - Mar 31, 2024", period.FormatLabel(period.Token("bogus"), custom))
}
