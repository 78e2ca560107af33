// Package forecast holds the gateway's domain types: the inbound request,
// the provider's 3-hour forecast series and the per-date response.
package forecast

import (
	"encoding/json"
	"strconv"
)

// DateLayout is the only accepted format for the requested date.
const DateLayout = "2006-01-02"

// EntryTimeLayout is the layout of ProviderEntry.DtTxt.
const EntryTimeLayout = "2006-01-02 15:04:05"

// SuccessCode is the provider's in-body success code.
const SuccessCode = "200"

// Request is one inbound forecast query.
type Request struct {
	City string `form:"city" json:"city" validate:"required"`
	Date string `form:"date" json:"date" validate:"required"`
}

// HourlyEntry is one filtered 3-hour sample.
type HourlyEntry struct {
	Time        string  `json:"time"`
	Temp        float64 `json:"temp"`
	Description string  `json:"description"`
	Icon        string  `json:"icon"`
	Humidity    int     `json:"humidity"`
}

// Response is the filtered forecast for a single date.
type Response struct {
	City       string        `json:"city"`
	Country    string        `json:"country"`
	Date       string        `json:"date"`
	HourlyData []HourlyEntry `json:"hourly_data"`
}

// ProviderForecast mirrors the subset of the provider's 5 day / 3 hour
// forecast document that the gateway reads.
type ProviderForecast struct {
	Cod     Code            `json:"cod"`
	Message json.RawMessage `json:"message,omitempty"`
	City    ProviderCity    `json:"city"`
	List    []ProviderEntry `json:"list"`
}

type ProviderCity struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

type ProviderEntry struct {
	DtTxt   string              `json:"dt_txt"`
	Main    ProviderMain        `json:"main"`
	Weather []ProviderCondition `json:"weather"`
}

type ProviderMain struct {
	Temp     float64 `json:"temp"`
	Humidity int     `json:"humidity"`
}

type ProviderCondition struct {
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// MessageText returns the provider message as text. On success the provider
// sends a number in this field, on failure a string.
func (f *ProviderForecast) MessageText() string {
	if len(f.Message) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(f.Message, &s); err == nil {
		return s
	}
	return ""
}

// Code is the provider status code, sent as either "404" or 401.
type Code string

func (c *Code) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*c = ""
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*c = Code(s)
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return err
	}
	if _, err := strconv.ParseInt(n.String(), 10, 64); err != nil {
		return err
	}
	*c = Code(n.String())
	return nil
}
