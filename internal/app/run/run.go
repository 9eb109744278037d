package run

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/John-Robertt/soullink/internal/config"
	"github.com/John-Robertt/soullink/internal/domain"
	"github.com/John-Robertt/soullink/internal/infra/httpx"
	"github.com/John-Robertt/soullink/internal/infra/store"
	"github.com/John-Robertt/soullink/internal/logger"
	"github.com/John-Robertt/soullink/internal/match"
	"github.com/John-Robertt/soullink/internal/pairs"
	"github.com/John-Robertt/soullink/internal/render"
)

// Result 是一次 run 的产物：结构化报告与文本报告（两者描述同一组结果）。
type Result struct {
	Report domain.RunReport
	Text   string
}

// Execute 执行一次 run（dry-run/apply）。
// 错误不会以 error 返回，而是降级为 Report.ErrorCode/ErrorMsg。
func Execute(ctx context.Context, eff config.EffectiveConfig) Result {
	return ExecuteWithObserver(ctx, eff, nil)
}

// ExecuteWithObserver 与 Execute 相同，但允许传入 Observer 以输出进度/阶段信息。
//
// 阶段：load → index（仅 type 模式）→ search → render → write（仅 apply）。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, obs Observer) Result {
	if obs != nil {
		obs.OnStart(eff)
	}

	rr := domain.RunReport{
		RunID:     uuid.NewString(),
		Source:    eff.Pairs,
		Mode:      eff.Mode,
		Players:   eff.Players,
		DryRun:    !eff.Apply,
		StartedAt: time.Now().UTC(),
	}
	ctx = logger.WithRunID(ctx, *logger.From(ctx), rr.RunID)
	log := logger.From(ctx)

	fail := func(code string, err error) Result {
		log.Error().Str("error_code", code).Err(err).Msg("run failed")
		rr.ErrorCode = code
		rr.ErrorMsg = err.Error()
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		return Result{Report: rr}
	}
	phase := func(name string, fields map[string]any, started time.Time) error {
		dur := time.Since(started)
		ev := log.Debug().Str("phase", name).Dur("dur", dur)
		for k, v := range fields {
			ev = ev.Interface(k, v)
		}
		ev.Msg("phase done")
		if obs != nil {
			obs.OnPhaseDone(name, fields, dur)
		}
		return ctx.Err()
	}

	client, err := httpx.NewClient(eff.ProxyURL)
	if err != nil {
		return fail(domain.ErrCodeConfigInvalid, fmt.Errorf("proxy.url 无效：%w", err))
	}

	started := time.Now()
	ps, err := pairs.Load(ctx, eff.Pairs, pairs.Options{Header: eff.Header, Client: client})
	if err != nil {
		return fail(loadErrorCode(err), err)
	}
	rr.Summary.Pairs = len(ps)
	if err := phase("load", map[string]any{"pairs": len(ps)}, started); err != nil {
		return fail(domain.ErrCodeCanceled, err)
	}

	var relay match.Observer
	if obs != nil {
		relay = searchRelay{obs: obs, started: time.Now()}
	}

	ropt := render.Options{
		Players:   eff.Players,
		MinSize:   eff.MinSize,
		NameWidth: eff.NameWidth,
		TypeWidth: eff.TypeWidth,
	}

	var text string
	switch eff.Mode {
	case domain.ModePokemon:
		started = time.Now()
		results := match.TeamsWithObserver(ps, relay)
		if err := phase("search", map[string]any{"results": len(results)}, started); err != nil {
			return fail(domain.ErrCodeCanceled, err)
		}

		started = time.Now()
		text = render.Teams(results, ropt)
		rr.Results = pokemonEntries(render.Visible(results, eff.MinSize))

	default:
		started = time.Now()
		idx := match.BuildIndex(ps)
		if err := phase("index", map[string]any{"cells": filledCells(idx)}, started); err != nil {
			return fail(domain.ErrCodeCanceled, err)
		}

		started = time.Now()
		tmpls := match.TypeTemplatesWithObserver(idx, relay)
		results := make([]domain.TeamPair[domain.Slot], len(tmpls))
		for i, t := range tmpls {
			results[i] = match.Expand(idx, t)
		}
		if err := phase("search", map[string]any{"results": len(results)}, started); err != nil {
			return fail(domain.ErrCodeCanceled, err)
		}

		started = time.Now()
		text = render.TypeTeams(results, ropt)
		rr.Results = slotEntries(render.Visible(results, eff.MinSize))
	}
	if err := phase("render", map[string]any{"bytes": len(text)}, started); err != nil {
		return fail(domain.ErrCodeCanceled, err)
	}

	rr.FinishedAt = time.Now().UTC()
	rr.Finalize()

	if eff.Apply {
		started = time.Now()
		if err := write(store.New(eff.Out, false), rr, text); err != nil {
			res := fail(domain.ErrCodeWriteFailed, err)
			res.Text = text
			return res
		}
		_ = phase("write", map[string]any{"out": eff.Out}, started)
	}

	log.Info().
		Int("pairs", rr.Summary.Pairs).
		Int("results", rr.Summary.Results).
		Int("possible_teams", rr.Summary.PossibleTeams).
		Msg("run done")
	return Result{Report: rr, Text: text}
}

// loadErrorCode 把配对表加载错误映射为 error_code。
func loadErrorCode(err error) string {
	var fe *pairs.FetchError
	if errors.As(err, &fe) {
		return domain.ErrCodePairsReadFailed
	}
	return domain.ErrCodePairsInvalid
}

func write(s store.Store, rr domain.RunReport, text string) error {
	b, err := json.MarshalIndent(rr, "", "  ")
	if err != nil {
		return err
	}
	if err := s.Write(store.ReportText, []byte(text)); err != nil {
		return err
	}
	return s.Write(store.ReportJSON, append(b, '\n'))
}

func filledCells(idx *match.Index) int {
	n := 0
	for _, l := range domain.AllTypes() {
		for _, r := range domain.AllTypes() {
			if idx.Has(l, r) {
				n++
			}
		}
	}
	return n
}

func pokemonEntries(results []domain.TeamPair[domain.Pokemon]) []domain.ResultEntry {
	out := make([]domain.ResultEntry, 0, len(results))
	for _, r := range results {
		e := domain.ResultEntry{Size: r.Size(), Count: 1}
		for side, team := range r {
			e.Teams[side] = make([]domain.SlotView, 0, team.Len())
			for _, p := range team.Members() {
				e.Teams[side] = append(e.Teams[side], domain.SlotView{Type: p.Type(), Names: []string{p.Name()}})
			}
		}
		out = append(out, e)
	}
	return out
}

func slotEntries(results []domain.TeamPair[domain.Slot]) []domain.ResultEntry {
	out := make([]domain.ResultEntry, 0, len(results))
	for _, r := range results {
		e := domain.ResultEntry{Size: r.Size(), Count: render.TeamCount(r)}
		for side, team := range r {
			e.Teams[side] = make([]domain.SlotView, 0, team.Len())
			for _, s := range team.Members() {
				e.Teams[side] = append(e.Teams[side], domain.SlotView{Type: s.Type, Names: s.Names()})
			}
		}
		out = append(out, e)
	}
	return out
}
