package dialog

// AmountPreset is a selectable deposit amount.
type AmountPreset struct {
	Value int    `json:"value"`
	Label string `json:"label"`
}

// DepositPresets are the amounts offered in the deposit dialog.
var DepositPresets = []AmountPreset{
	{Value: 50, Label: "$50"},
	{Value: 100, Label: "$100"},
	{Value: 200, Label: "$200"},
	{Value: 500, Label: "$500"},
	{Value: 1000, Label: "$1,000"},
	{Value: 2000, Label: "$2,000"},
	{Value: 5000, Label: "$5,000"},
}

// Timezones offered when provisioning an ad account.
var Timezones = []string{
	"America/Los_Angeles",
	"America/Denver",
	"America/Chicago",
	"America/New_York",
	"America/Sao_Paulo",
	"Europe/London",
	"Europe/Berlin",
	"Europe/Moscow",
	"Asia/Dubai",
	"Asia/Karachi",
	"Asia/Dhaka",
	"Asia/Kolkata",
	"Asia/Bangkok",
	"Asia/Shanghai",
	"Asia/Singapore",
	"Asia/Tokyo",
	"Australia/Sydney",
	"Pacific/Auckland",
	"UTC",
}

// ValidTimezone reports whether tz is one of the offered time zones.
func ValidTimezone(tz string) bool {
	for _, t := range Timezones {
		if t == tz {
			return true
		}
	}
	return false
}
