package run

import (
	"time"

	"github.com/John-Robertt/soullink/internal/config"
)

// Observer 用于把“运行进度/阶段”从核心执行流程中解耦出来。
//
// 约束：
// - run 包只负责发事件，不做任何输出（stdout 留给报告）。
// - 事件在 Execute 所在 goroutine 上同步发出；实现若另起 goroutine 读取状态需自行加锁。
type Observer interface {
	// OnStart 在 ExecuteWithObserver 开始时调用。
	OnStart(eff config.EffectiveConfig)
	// OnPhaseDone 在阶段结束时调用（用于打印阶段统计与耗时）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnProgress 在搜索阶段每提交一个候选时调用：accepted 为已接受结果数，offered 为已提交候选数。
	OnProgress(accepted, offered int, elapsed time.Duration)
}

// searchRelay 把 match.Observer 的事件转发为 Observer.OnProgress。
type searchRelay struct {
	obs     Observer
	started time.Time
}

func (r searchRelay) OnAccept(accepted, offered int) {
	r.obs.OnProgress(accepted, offered, time.Since(r.started))
}
