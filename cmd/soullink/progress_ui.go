package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/John-Robertt/soullink/internal/app/run"
	"github.com/John-Robertt/soullink/internal/config"
)

var _ run.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// - 所有过程信息写到 stderr，不污染 stdout 的报告
// - 事件驱动：run 层只发事件，CLI 决定如何展示
// - keepalive：搜索阶段长时间没有新结果时也会定期输出一行
type progressUI struct {
	w io.Writer

	title lipgloss.Style
	label lipgloss.Style
	phase lipgloss.Style

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	searching bool
	accepted  int
	offered   int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	// 按目标 writer 探测颜色能力：非终端时样式退化为纯文本。
	r := lipgloss.NewRenderer(w)
	return &progressUI{
		w:                  w,
		title:              r.NewStyle().Bold(true).Foreground(lipgloss.Color("#2CD7C7")),
		label:              r.NewStyle().Foreground(lipgloss.Color("#6C8A94")),
		phase:              r.NewStyle().Foreground(lipgloss.Color("#20B9B4")),
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	mode := "dry-run"
	modeHint := " (不写入文件)"
	if eff.Apply {
		mode = "apply"
		modeHint = ""
	}

	fmt.Fprintln(p.w, p.title.Render(fmt.Sprintf("[%s] soullink match (%s)", now.Format("15:04:05"), mode)))
	fmt.Fprintln(p.w, p.label.Render("配置（生效）:"))
	if eff.ConfigPath != "" {
		fmt.Fprintf(p.w, "  config: %s\n", eff.ConfigPath)
	}
	fmt.Fprintf(p.w, "  pairs: %s (header=%s)\n", truncate(eff.Pairs, 120), onOff(eff.Header))
	fmt.Fprintf(p.w, "  mode: %s\n", eff.Mode)
	fmt.Fprintf(p.w, "  players: %s / %s\n", eff.Players[0], eff.Players[1])
	fmt.Fprintf(p.w, "  min_size: %d\n", eff.MinSize)
	fmt.Fprintf(p.w, "  run: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	if eff.Apply {
		fmt.Fprintln(p.w, p.label.Render("输出:"))
		fmt.Fprintf(p.w, "  out: %s\n", eff.Out)
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	var line string
	switch name {
	case "load":
		line = fmt.Sprintf("读取: pairs=%d (%s)", intField(fields, "pairs"), formatShortDuration(dur))
		// 下一阶段（index/search）可能很久没有输出。
		p.searching = true
		if !p.tickerStarted {
			p.startTickerLocked()
		}
	case "index":
		line = fmt.Sprintf("索引: cells=%d (%s)", intField(fields, "cells"), formatShortDuration(dur))
	case "search":
		line = fmt.Sprintf("搜索: results=%d offered=%d (%s)", intField(fields, "results"), p.offered, formatShortDuration(dur))
		p.searching = false
		p.stopTickerLocked()
	case "render":
		line = fmt.Sprintf("渲染: bytes=%d (%s)", intField(fields, "bytes"), formatShortDuration(dur))
	case "write":
		line = fmt.Sprintf("写入: %v (%s)", fields["out"], formatShortDuration(dur))
	default:
		// 未知阶段也不要静默。
		line = fmt.Sprintf("%s (%s)", name, formatShortDuration(dur))
	}
	fmt.Fprintln(p.w, p.phase.Render(line))

	p.lastPrinted = time.Now()
}

// OnProgress 每提交一个候选都会调用，频率很高：这里只记数，由 ticker 负责输出。
func (p *progressUI) OnProgress(accepted, offered int, _ time.Duration) {
	p.mu.Lock()
	p.accepted = accepted
	p.offered = offered
	p.mu.Unlock()
}

// Stop 停止 keepalive（运行中途失败时 search 阶段不会结束，需要调用方兜底）。
func (p *progressUI) Stop() {
	p.mu.Lock()
	p.searching = false
	p.stopTickerLocked()
	p.mu.Unlock()
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stopCh := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.searching && time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: accepted=%d offered=%d elapsed=%s\n",
						p.accepted, p.offered, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func (p *progressUI) stopTickerLocked() {
	if !p.tickerStarted {
		return
	}
	close(p.stopCh)
	p.tickerStarted = false
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

func intField(fields map[string]any, key string) int {
	if fields == nil {
		return 0
	}
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint64:
		return int(x)
	default:
		return 0
	}
}
