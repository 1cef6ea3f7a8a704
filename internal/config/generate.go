package config

// DefaultConfigTOML is a complete, commented sample hwmond.toml.
const DefaultConfigTOML = `# hwmond configuration file
# Every value shown is the built-in default.

[daemon]
# log_level = "info"            # debug, info, warn, error
# log_format = "json"           # json, text
# log_file = ""                 # empty sends daemon logs to syslog
# pidfile = "/run/hwmond.pid"   # locked for the daemon's lifetime
# display_interval = 3          # seconds each panel page is shown
# metrics_listen = ""           # e.g. "127.0.0.1:9105"; empty disables /metrics
# panel_device = ""             # file the panel pages are written to; empty logs them
# shutdown_timeout = 30         # seconds to wait for monitors on shutdown

# RAID member disks, 1 to 5 entries. Without any [[disks]] table the
# defaults are /dev/sdb through /dev/sdf on ports 2 through 6.
# [[disks]]
# device = "/dev/sdb"           # /dev/sd[a-z]
# port = 2                      # SATA port 2-6; selects the disk status LED
# temp_warn = 45                # defaults to monitors.hddtemp.warn
# temp_crit = 50                # defaults to monitors.hddtemp.crit
# hddtemp_ignore = false
# smart_ignore = false

[alerts]
# enabled = true
# led_dir = "/sys/class/leds"
# leds = [
#   "n5550:orange:busy", "n5550:red:fail",
#   "n5550:red:disk-stat-0", "n5550:red:disk-stat-1", "n5550:red:disk-stat-2",
#   "n5550:red:disk-stat-3", "n5550:red:disk-stat-4",
# ]

[pwm]
# enabled = true
# file = "/sys/devices/platform/it87.656/pwm3"
# normal = 170                  # 0-255
# high = 215
# maximum = 255

[monitors.loadavg]
# enabled = true
# interval = 30
# path = "/proc/loadavg"
# warn = [12.0, 12.0, 12.0]     # 1, 5 and 15 minute averages
# crit = [16.0, 16.0, 16.0]

[monitors.cputemp]
# enabled = true
# interval = 30
# inputs = [
#   "/sys/devices/platform/coretemp.0/hwmon/hwmon1/temp2_input",
#   "/sys/devices/platform/coretemp.0/hwmon/hwmon1/temp3_input",
# ]
# warn = 47.0                   # degrees Celsius
# crit = 52.0
# fan_max_on = 42.0
# fan_max_hyst = 39.0
# fan_high_on = 40.0
# fan_high_hyst = 37.0

[monitors.hddtemp]
# enabled = true
# interval = 30
# command = "/usr/sbin/hddtemp"
# timeout = 5                   # seconds
# max_output = 1000             # bytes
# warn = 45
# crit = 50

[monitors.smart]
# enabled = true
# interval = 1800
# command = "/usr/sbin/smartctl"
# timeout = 2                   # seconds, per disk

[monitors.raid]
# enabled = true
# interval = 30
# mdstat = "/proc/mdstat"
# mdadm_conf = "/etc/mdadm.conf"  # ARRAY lines with a UUID must be running
# sysfs_dir = "/sys/devices/virtual/block"
# command = "/sbin/mdadm"
# timeout = 2                   # seconds

# Webhook definitions
# [webhooks.ops]
# url = "https://hooks.slack.com/..."
# events = ["ALERT_RAISED", "ALERT_CLEARED", "MONITOR_DISABLED"]
# template = "slack"            # generic, slack, pagerduty
# routing_key = ""              # pagerduty only
# timeout = 5
# retries = 3
# [webhooks.ops.headers]
# Authorization = "Bearer ${HWMOND_WEBHOOK_TOKEN}"
`
