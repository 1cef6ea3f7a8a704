package panel

import "github.com/kahiteam/hwmond/internal/monitor"

// LogoName is the record name of the logo page.
const LogoName = "logo"

// Logo returns the static record shown before the monitor pages.
func Logo() *monitor.Record {
	r := monitor.NewRecord(LogoName, nil, monitor.WithTitle("hwmond"))
	r.Publish(monitor.Status{Lower: "Free Your NAS!"})
	return r
}
