package handlers

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"time"

	"demote-bot/bot"
	"demote-bot/commands"
	"demote-bot/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"
	"go.uber.org/zap"
)

var startedAt = time.Now()

func SystemInfoHandler(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	ctx, cancel := context.WithTimeout(b.Context(), 10*time.Second)
	defer cancel()

	fields := []*discordgo.MessageEmbedField{}
	if hostInfo, err := host.InfoWithContext(ctx); err == nil {
		fields = append(fields,
			&discordgo.MessageEmbedField{Name: "💻 OS", Value: fmt.Sprintf("%s %s", hostInfo.Platform, hostInfo.PlatformVersion), Inline: true},
			&discordgo.MessageEmbedField{Name: "🔧 Kernel", Value: hostInfo.KernelVersion, Inline: true},
		)
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "🐹 Go", Value: runtime.Version(), Inline: true})

	if cpuCount, err := cpu.CountsWithContext(ctx, true); err == nil {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "🔼 CPUs", Value: fmt.Sprintf("%d", cpuCount), Inline: true})
	}
	if cpuPercent, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(cpuPercent) > 0 {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "🔥 CPU usage", Value: fmt.Sprintf("%.1f%%", cpuPercent[0]), Inline: true})
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		fields = append(fields, &discordgo.MessageEmbedField{
			Name:   "🧠 Memory",
			Value:  fmt.Sprintf("%.1f%% (%d MB / %d MB)", vm.UsedPercent, vm.Used/1024/1024, vm.Total/1024/1024),
			Inline: true,
		})
	}

	active := "unavailable"
	if count, err := b.Store.CountActive(ctx); err == nil {
		active = fmt.Sprintf("%d", count)
	} else {
		b.Logger.Warn("Failed to count active demotions", zap.Error(err))
	}

	fields = append(fields,
		&discordgo.MessageEmbedField{Name: "🗃️ Store", Value: b.GetConfig().Database.Driver, Inline: true},
		&discordgo.MessageEmbedField{Name: "⬇️ Active demotions", Value: active, Inline: true},
		&discordgo.MessageEmbedField{Name: "⏱️ Gateway latency", Value: s.HeartbeatLatency().String(), Inline: true},
		&discordgo.MessageEmbedField{Name: "🚀 Goroutines", Value: fmt.Sprintf("%d", runtime.NumGoroutine()), Inline: true},
		&discordgo.MessageEmbedField{Name: "🌍 Guilds", Value: fmt.Sprintf("%d", len(s.State.Guilds)), Inline: true},
		&discordgo.MessageEmbedField{Name: "⌛ Uptime", Value: time.Since(startedAt).Truncate(time.Second).String(), Inline: true},
	)

	embed := &discordgo.MessageEmbed{
		Title:  "System Info",
		Color:  0x5865F2,
		Fields: fields,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "System monitor • " + time.Now().Format("15:04"),
		},
	}
	if err := utils.SendEmbedResponse(s, i, embed); err != nil {
		b.Logger.Warn("Failed to send system info", zap.Error(err))
	}
}

// CommandListHandler lists the registered commands.
func CommandListHandler(s *discordgo.Session, i *discordgo.InteractionCreate, b *bot.Bot) {
	cmds := b.RegisteredCommands
	if len(cmds) == 0 {
		cmds = commands.GenerateCommands()
	}

	embed := &discordgo.MessageEmbed{
		Title:       "🤖 Bot Commands",
		Description: commandList(cmds),
		Color:       0x5865F2,
		Footer:      &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("%d commands available", len(cmds))},
		Timestamp:   time.Now().Format(time.RFC3339),
	}
	if err := utils.SendEmbedResponse(s, i, embed); err != nil {
		b.Logger.Warn("Failed to send command list", zap.Error(err))
	}
}

func commandList(cmds []*discordgo.ApplicationCommand) string {
	lines := make([]string, len(cmds))
	for idx, cmd := range cmds {
		lines[idx] = fmt.Sprintf("**/%s** - %s", cmd.Name, cmd.Description)
	}
	return strings.Join(lines, "\n")
}
