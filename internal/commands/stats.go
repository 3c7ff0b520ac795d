package commands

import (
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"go-logbot/internal/logging"
	"go-logbot/internal/metrics"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/net"
	"github.com/shirou/gopsutil/v3/process"
)

// handleStats shows bot, pipeline and host statistics
func (h *Handler) handleStats(s *discordgo.Session, i *discordgo.InteractionCreate) error {
	// Defer response to allow time for gathering stats
	if err := deferEphemeral(s, i); err != nil {
		return err
	}

	stats := gatherSystemStats()
	h.gatherBotStats(stats)

	return editEmbeds(s, i, createStatsEmbeds(stats)...)
}

// SystemStats holds all system statistics
type SystemStats struct {
	// Host Information
	Hostname     string
	OS           string
	Platform     string
	Architecture string
	Uptime       time.Duration

	// CPU Information
	CPUModel   string
	CPUCores   int
	CPUThreads int
	CPUUsage   float64

	// Memory Information
	TotalMemory   uint64
	UsedMemory    uint64
	MemoryPercent float64
	ProcessRSS    uint64

	// Disk Information
	DiskTotal   uint64
	DiskUsed    uint64
	DiskPercent float64

	// Network Information
	NetworkSent uint64
	NetworkRecv uint64

	// Go Runtime
	GoVersion  string
	GoRoutines int
	MemAlloc   uint64
	NumGC      uint32

	// Bot Stats
	BotUptime      time.Duration
	BotID          string
	Guilds         int
	TotalUsers     int
	Commands       int
	Environment    string
	Debug          bool
	LoggingServers int
	Actions        int
	Latency        time.Duration
	Pipeline       metrics.Snapshot
}

// gatherSystemStats collects host figures. Any probe that fails leaves its
// fields zero.
func gatherSystemStats() *SystemStats {
	stats := &SystemStats{}

	if hostInfo, err := host.Info(); err == nil {
		stats.Hostname = hostInfo.Hostname
		stats.OS = hostInfo.OS
		stats.Platform = hostInfo.Platform
		stats.Architecture = hostInfo.KernelArch
		stats.Uptime = time.Duration(hostInfo.Uptime) * time.Second
	}

	if cpuInfo, err := cpu.Info(); err == nil && len(cpuInfo) > 0 {
		stats.CPUModel = cpuInfo[0].ModelName
		stats.CPUCores = int(cpuInfo[0].Cores)
	}
	stats.CPUThreads = runtime.NumCPU()

	if cpuPercent, err := cpu.Percent(time.Second, false); err == nil && len(cpuPercent) > 0 {
		stats.CPUUsage = cpuPercent[0]
	}

	if memInfo, err := mem.VirtualMemory(); err == nil {
		stats.TotalMemory = memInfo.Total
		stats.UsedMemory = memInfo.Used
		stats.MemoryPercent = memInfo.UsedPercent
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if info, err := proc.MemoryInfo(); err == nil {
			stats.ProcessRSS = info.RSS
		}
	}

	if diskInfo, err := disk.Usage("/"); err == nil {
		stats.DiskTotal = diskInfo.Total
		stats.DiskUsed = diskInfo.Used
		stats.DiskPercent = diskInfo.UsedPercent
	}

	if netIO, err := net.IOCounters(false); err == nil && len(netIO) > 0 {
		stats.NetworkSent = netIO[0].BytesSent
		stats.NetworkRecv = netIO[0].BytesRecv
	}

	stats.GoVersion = runtime.Version()
	stats.GoRoutines = runtime.NumGoroutine()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	stats.MemAlloc = m.Alloc
	stats.NumGC = m.NumGC

	return stats
}

func (h *Handler) gatherBotStats(stats *SystemStats) {
	guilds := h.deps.Session.Guilds()

	stats.BotUptime = time.Since(h.deps.Session.StartedAt())
	stats.BotID = h.deps.Session.BotID
	stats.Guilds = len(guilds)
	for _, g := range guilds {
		stats.TotalUsers += g.MemberCount
	}
	stats.Commands = len(h.commands)
	stats.Environment = h.deps.Security.Environment()
	stats.Debug = h.deps.Security.Debug()
	stats.LoggingServers = h.deps.Store.Len()
	stats.Latency = h.deps.Session.HeartbeatLatency()
	stats.Pipeline = h.deps.Dispatcher.Counters().Snapshot()

	if h.deps.DB != nil {
		n, err := h.deps.DB.CountActions("")
		if err != nil {
			logging.Warn("Failed to count moderation actions: %v", err)
		}
		stats.Actions = n
	}
}

// createStatsEmbeds creates formatted embeds for stats display
func createStatsEmbeds(stats *SystemStats) []*discordgo.MessageEmbed {
	botEmbed := &discordgo.MessageEmbed{
		Title: "📊 Bot Statistics",
		Color: 0x0099FF,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "🕒 Uptime", Value: formatDuration(stats.BotUptime), Inline: true},
			{Name: "🏠 Servers", Value: fmt.Sprintf("%d", stats.Guilds), Inline: true},
			{Name: "👥 Total Users", Value: formatCount(stats.TotalUsers), Inline: true},
			{Name: "⚙️ Commands", Value: fmt.Sprintf("%d", stats.Commands), Inline: true},
			{Name: "🌍 Environment", Value: capitalize(stats.Environment), Inline: true},
			{Name: "🐛 Debug Mode", Value: onOff(stats.Debug, "On", "Off"), Inline: true},
			{Name: "📋 Logging Servers", Value: fmt.Sprintf("%d", stats.LoggingServers), Inline: true},
			{Name: "⚖️ Moderation Cases", Value: fmt.Sprintf("%d", stats.Actions), Inline: true},
			{Name: "💾 Memory Usage", Value: fmt.Sprintf("%.1f MB", float64(stats.ProcessRSS)/1024/1024), Inline: true},
		},
		Footer: &discordgo.MessageEmbedFooter{
			Text: "Bot ID: " + stats.BotID,
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}

	p := stats.Pipeline
	pipelineEmbed := &discordgo.MessageEmbed{
		Title: "📨 Logging Pipeline",
		Color: 0x9370DB,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "📥 Events",
				Value: fmt.Sprintf("**Received:** `%d`\n**Records:** `%d`\n**Rate:** `%.2f/s`",
					p.EventsReceived,
					p.RecordsProduced,
					p.Rate(time.Now())),
				Inline: true,
			},
			{
				Name: "📤 Delivery",
				Value: fmt.Sprintf("**Delivered:** `%d`\n**Failed:** `%d`\n**Unrouted:** `%d`",
					p.Delivered,
					p.Failed,
					p.Unrouted),
				Inline: true,
			},
			{
				Name: "⏱️ Latency",
				Value: fmt.Sprintf("**Avg:** `%s`\n**Max:** `%s`\n**Gateway:** `%dms`",
					p.Latency.Avg.Round(time.Microsecond),
					p.Latency.Max.Round(time.Microsecond),
					stats.Latency.Milliseconds()),
				Inline: true,
			},
		},
	}

	hostEmbed := &discordgo.MessageEmbed{
		Title: "🖥️ Host & Runtime",
		Color: 0x32CD32,
		Fields: []*discordgo.MessageEmbedField{
			{
				Name: "🖥️ Host Information",
				Value: fmt.Sprintf("**Hostname:** `%s`\n**OS:** `%s`\n**Platform:** `%s`\n**Architecture:** `%s`\n**Uptime:** `%s`",
					stats.Hostname,
					stats.OS,
					stats.Platform,
					stats.Architecture,
					formatDuration(stats.Uptime)),
			},
			{
				Name: "⚡ CPU",
				Value: fmt.Sprintf("**Model:** `%s`\n**Cores:** `%d` / `%d` threads\n**Usage:** `%.2f%%`\n%s",
					truncateString(stats.CPUModel, 40),
					stats.CPUCores,
					stats.CPUThreads,
					stats.CPUUsage,
					createProgressBar(stats.CPUUsage, 100)),
				Inline: true,
			},
			{
				Name: "🗂️ RAM",
				Value: fmt.Sprintf("**Used:** `%s` of `%s`\n**Usage:** `%.2f%%`\n%s",
					formatBytes(stats.UsedMemory),
					formatBytes(stats.TotalMemory),
					stats.MemoryPercent,
					createProgressBar(stats.MemoryPercent, 100)),
				Inline: true,
			},
			{
				Name: "📀 Disk",
				Value: fmt.Sprintf("**Used:** `%s` of `%s`\n%s",
					formatBytes(stats.DiskUsed),
					formatBytes(stats.DiskTotal),
					createProgressBar(stats.DiskPercent, 100)),
				Inline: true,
			},
			{
				Name: "🌐 Network I/O",
				Value: fmt.Sprintf("**Sent:** `%s`\n**Received:** `%s`",
					formatBytes(stats.NetworkSent),
					formatBytes(stats.NetworkRecv)),
				Inline: true,
			},
			{
				Name: "🔷 Go Runtime",
				Value: fmt.Sprintf("**Version:** `%s`\n**Goroutines:** `%d`\n**Heap:** `%s`\n**GC Cycles:** `%d`",
					stats.GoVersion,
					stats.GoRoutines,
					formatBytes(stats.MemAlloc),
					stats.NumGC),
				Inline: true,
			},
		},
	}

	return []*discordgo.MessageEmbed{botEmbed, pipelineEmbed, hostEmbed}
}

// Helper functions

func formatBytes(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.2f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	}
	return fmt.Sprintf("%dm", minutes)
}

// formatCount renders n with thousands separators.
func formatCount(n int) string {
	s := fmt.Sprintf("%d", n)
	if n < 0 {
		return "-" + formatCount(-n)
	}
	var b strings.Builder
	for idx, r := range s {
		if idx > 0 && (len(s)-idx)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return b.String()
}

func createProgressBar(value, max float64) string {
	percent := (value / max) * 100
	filled := int(percent / 10)
	if filled < 0 {
		filled = 0
	}
	if filled > 10 {
		filled = 10
	}
	return "`" + strings.Repeat("█", filled) + strings.Repeat("░", 10-filled) + "`"
}

func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
