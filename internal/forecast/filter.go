package forecast

import (
	"time"
)

// FilterByDate keeps the entries whose timestamp falls on date, in input
// order. Entries with an unparseable timestamp are passed to skipped, which
// may be nil.
func FilterByDate(entries []ProviderEntry, date time.Time, skipped func(ProviderEntry, error)) []HourlyEntry {
	out := make([]HourlyEntry, 0, 8)

	for _, e := range entries {
		ts, err := time.Parse(EntryTimeLayout, e.DtTxt)
		if err != nil {
			if skipped != nil {
				skipped(e, err)
			}
			continue
		}

		if ts.Year() != date.Year() || ts.Month() != date.Month() || ts.Day() != date.Day() {
			continue
		}

		entry := HourlyEntry{
			Time:     ts.Format("15:04"),
			Temp:     e.Main.Temp,
			Humidity: e.Main.Humidity,
		}
		if len(e.Weather) > 0 {
			entry.Description = e.Weather[0].Description
			entry.Icon = e.Weather[0].Icon
		}

		out = append(out, entry)
	}

	return out
}
