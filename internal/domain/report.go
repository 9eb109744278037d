package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	ModeType    = "type"
	ModePokemon = "pokemon"
)

const (
	ErrCodeConfigNotFound     = "config_not_found"
	ErrCodeConfigInvalid      = "config_invalid"
	ErrCodeConfigMissingPairs = "config_missing_pairs"
	ErrCodePairsReadFailed    = "pairs_read_failed"
	ErrCodePairsInvalid       = "pairs_invalid"
	ErrCodeWriteFailed        = "write_failed"
	ErrCodeCanceled           = "canceled"
)

// RunReport 是对外稳定输出（report.json / --json）的结构，与文本报告一一对应。
type RunReport struct {
	RunID   string    `json:"run_id"`
	Source  string    `json:"source"`
	Mode    string    `json:"mode"`
	Players [2]string `json:"players"`
	DryRun  bool      `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Groups  []SizeGroup   `json:"groups"`
	Results []ResultEntry `json:"results"`

	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`
}

type ReportSummary struct {
	Pairs         int `json:"pairs"`
	Results       int `json:"results"`
	PossibleTeams int `json:"possible_teams"`
	MaxTeamSize   int `json:"max_team_size"`
}

// SizeGroup 对应文本报告中的一个 "Pokemon Team Sizes: N" 区段。
type SizeGroup struct {
	Size          int `json:"size"`
	Results       int `json:"results"`
	PossibleTeams int `json:"possible_teams"`
}

type ResultEntry struct {
	Size  int           `json:"size"`
	Count int           `json:"count"`
	Teams [2][]SlotView `json:"teams"`
}

// SlotView 是一个队伍位置的可序列化视图（按宝可梦模式时 Names 只有一个元素）。
type SlotView struct {
	Type  Type     `json:"type"`
	Names []string `json:"names"`
}

// Failed 报告本次运行是否以错误结束。
func (r RunReport) Failed() bool { return r.ErrorCode != "" }

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) results 稳定排序：按队伍大小降序，同大小保持生成顺序
// 3) groups/summary 由 results 计算得出
func (r *RunReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	if r.Results == nil {
		r.Results = []ResultEntry{}
	}
	sort.SliceStable(r.Results, func(i, j int) bool {
		return r.Results[i].Size > r.Results[j].Size
	})

	groups := make([]SizeGroup, 0, MaxTeamSize)
	s := ReportSummary{Pairs: r.Summary.Pairs}
	for _, it := range r.Results {
		if n := len(groups); n == 0 || groups[n-1].Size != it.Size {
			groups = append(groups, SizeGroup{Size: it.Size})
		}
		g := &groups[len(groups)-1]
		g.Results++
		g.PossibleTeams += it.Count

		s.Results++
		s.PossibleTeams += it.Count
		if it.Size > s.MaxTeamSize {
			s.MaxTeamSize = it.Size
		}
	}
	r.Groups = groups
	r.Summary = s
}

// MarshalJSON 仅用于集中约束输出的稳定性。
func (r RunReport) MarshalJSON() ([]byte, error) {
	type Alias RunReport
	return json.Marshal(Alias(r))
}
