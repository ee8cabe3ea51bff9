package monitoring

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/barleygate/barleygate/internal/services"
)

// alertCooldown limits how often the watchdog raises the same alert.
const alertCooldown = 15 * time.Minute

// Watchdog periodically summarizes failed login attempts and raises an
// alert event when they spike. It observes and logs only; it never locks
// accounts or throttles requests.
type Watchdog struct {
	events    services.EventServiceProvider
	schedule  cron.Schedule
	threshold int

	ticker        *time.Ticker
	done          chan bool
	lastRun       time.Time
	nextRun       time.Time
	lastAlertTime time.Time
}

// NewWatchdog creates a watchdog firing on the given standard cron
// expression. threshold is the failed-attempt count per interval that
// triggers an alert.
func NewWatchdog(events services.EventServiceProvider, cronExpr string, threshold int) (*Watchdog, error) {
	schedule, err := cron.ParseStandard(cronExpr)
	if err != nil {
		return nil, fmt.Errorf("invalid watchdog schedule %q: %w", cronExpr, err)
	}
	now := time.Now()
	return &Watchdog{
		events:    events,
		schedule:  schedule,
		threshold: threshold,
		done:      make(chan bool),
		lastRun:   now,
		nextRun:   schedule.Next(now),
	}, nil
}

// Run starts the watchdog's ticking loop.
func (w *Watchdog) Run() {
	log.Info().Time("next_run", w.nextRun).Msg("Starting failed-login watchdog...")
	w.ticker = time.NewTicker(30 * time.Second)
	defer w.ticker.Stop()

	for {
		select {
		case <-w.done:
			log.Info().Msg("Stopping failed-login watchdog.")
			return
		case <-w.ticker.C:
			now := time.Now()
			if now.After(w.nextRun) {
				w.summarize(now)
				w.lastRun = now
				w.nextRun = w.schedule.Next(now)
			}
		}
	}
}

// Stop halts the watchdog.
func (w *Watchdog) Stop() {
	w.done <- true
}

// summarize counts failures since the last run and alerts on spikes.
func (w *Watchdog) summarize(now time.Time) {
	failed := w.events.CountSince("auth.login.fail", w.lastRun)
	snapshot, err := Snapshot()
	if err != nil {
		log.Warn().Err(err).Msg("Watchdog: could not read host stats")
	}

	log.Info().
		Int("failed_logins", failed).
		Float64("cpu_percent", snapshot.CPUPercent).
		Float64("mem_percent", snapshot.MemoryPercent).
		Msg("Watchdog summary")

	if failed >= w.threshold && now.Sub(w.lastAlertTime) >= alertCooldown {
		msg := fmt.Sprintf("%d failed login attempts since %s", failed, w.lastRun.Format(time.RFC3339))
		w.events.CreateEvent("system.alert.failed_logins", "warn", msg, nil)
		w.lastAlertTime = now
	}
}

// HostSnapshot is a point-in-time view of the host for the status endpoint.
type HostSnapshot struct {
	CPUPercent    float64 `json:"cpuPercent"`
	MemoryPercent float64 `json:"memoryPercent"`
	UptimeSeconds uint64  `json:"uptimeSeconds"`
}

// Snapshot reads current host CPU, memory, and uptime.
func Snapshot() (HostSnapshot, error) {
	var snapshot HostSnapshot

	percents, err := cpu.Percent(0, false)
	if err != nil {
		return snapshot, fmt.Errorf("reading cpu stats: %w", err)
	}
	if len(percents) > 0 {
		snapshot.CPUPercent = percents[0]
	}

	vm, err := mem.VirtualMemory()
	if err != nil {
		return snapshot, fmt.Errorf("reading memory stats: %w", err)
	}
	snapshot.MemoryPercent = vm.UsedPercent

	uptime, err := host.Uptime()
	if err != nil {
		return snapshot, fmt.Errorf("reading host uptime: %w", err)
	}
	snapshot.UptimeSeconds = uptime

	return snapshot, nil
}
