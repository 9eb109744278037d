package run

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/soullink/internal/config"
	"github.com/John-Robertt/soullink/internal/domain"
	"github.com/John-Robertt/soullink/internal/logger"
)

const samplePairs = "Player 1,Type,Player 2,Type\n" +
	"Charmander,Fire,Squirtle,Water\n" +
	"Vulpix,Fire,Psyduck,Water\n" +
	"Bulbasaur,Grass,Pikachu,Electric\n"

func setup(t *testing.T, body string) config.EffectiveConfig {
	t.Helper()
	root := t.TempDir()
	src := filepath.Join(root, "pairs.csv")
	if err := os.WriteFile(src, []byte(body), 0o644); err != nil {
		t.Fatalf("写入配对表失败：%v", err)
	}
	return config.EffectiveConfig{
		Pairs:     src,
		Header:    true,
		Players:   [2]string{"Ray", "Shen"},
		Mode:      domain.ModeType,
		NameWidth: config.DefaultNameWidth,
		TypeWidth: config.DefaultTypeWidth,
		Out:       filepath.Join(root, "out"),
	}
}

type recordObserver struct {
	startCalls int
	phases     []string
	progress   int
	accepted   int
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig) { o.startCalls++ }

func (o *recordObserver) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	o.phases = append(o.phases, name)
}

func (o *recordObserver) OnProgress(accepted, offered int, elapsed time.Duration) {
	o.progress++
	o.accepted = accepted
}

func TestExecute_TypeMode(t *testing.T) {
	eff := setup(t, samplePairs)

	res := Execute(context.Background(), eff)
	rr := res.Report
	if rr.Failed() {
		t.Fatalf("不期望失败：%s %s", rr.ErrorCode, rr.ErrorMsg)
	}
	if rr.RunID == "" || !rr.DryRun || rr.Mode != domain.ModeType {
		t.Fatalf("报告元信息不正确：%+v", rr)
	}
	if rr.Summary.Pairs != 3 || rr.Summary.Results != 1 || rr.Summary.PossibleTeams != 2 || rr.Summary.MaxTeamSize != 2 {
		t.Fatalf("summary 不正确：%+v", rr.Summary)
	}
	e := rr.Results[0]
	if e.Count != 2 || len(e.Teams[0]) != 2 || !reflect.DeepEqual(e.Teams[0][0].Names, []string{"Charmander", "Vulpix"}) {
		t.Fatalf("结果条目不正确：%+v", e)
	}
	if !strings.Contains(res.Text, "Ray\nFire    : Charmander | Vulpix    \n") {
		t.Fatalf("文本报告不符合预期：\n%s", res.Text)
	}
	if !strings.Contains(res.Text, "Total Possible Teams: 2\n") {
		t.Fatalf("文本报告缺少统计：\n%s", res.Text)
	}

	// dry-run 不落盘。
	if _, err := os.Stat(eff.Out); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应创建输出目录：%v", err)
	}
}

func TestExecute_PokemonMode(t *testing.T) {
	eff := setup(t, samplePairs)
	eff.Mode = domain.ModePokemon

	res := Execute(context.Background(), eff)
	rr := res.Report
	if rr.Failed() {
		t.Fatalf("不期望失败：%s %s", rr.ErrorCode, rr.ErrorMsg)
	}
	if rr.Summary.Results != 2 || rr.Summary.PossibleTeams != 2 {
		t.Fatalf("summary 不正确：%+v", rr.Summary)
	}
	for _, e := range rr.Results {
		if e.Count != 1 || len(e.Teams[1]) != e.Size {
			t.Fatalf("结果条目不正确：%+v", e)
		}
	}
	if strings.Count(res.Text, "Team Size: 2\n") != 4 || !strings.HasSuffix(res.Text, "Total Count: 2\n"+strings.Repeat("-", 32)+"\n") {
		t.Fatalf("文本报告不符合预期：\n%s", res.Text)
	}
}

func TestExecute_ApplyWritesReports(t *testing.T) {
	eff := setup(t, samplePairs)
	eff.Apply = true

	res := Execute(context.Background(), eff)
	if res.Report.Failed() {
		t.Fatalf("不期望失败：%s %s", res.Report.ErrorCode, res.Report.ErrorMsg)
	}

	txt, err := os.ReadFile(filepath.Join(eff.Out, "report.txt"))
	if err != nil {
		t.Fatalf("读取 report.txt 失败：%v", err)
	}
	if string(txt) != res.Text {
		t.Fatalf("report.txt 与返回文本不一致")
	}

	b, err := os.ReadFile(filepath.Join(eff.Out, "report.json"))
	if err != nil {
		t.Fatalf("读取 report.json 失败：%v", err)
	}
	var got struct {
		RunID   string `json:"run_id"`
		DryRun  bool   `json:"dry_run"`
		Summary struct {
			Results int `json:"results"`
		} `json:"summary"`
	}
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("report.json 不是合法 JSON：%v", err)
	}
	if got.RunID != res.Report.RunID || got.DryRun || got.Summary.Results != 1 {
		t.Fatalf("report.json 内容不正确：%+v", got)
	}
}

func TestExecute_ErrorCodes(t *testing.T) {
	eff := setup(t, samplePairs)
	eff.Pairs = filepath.Join(t.TempDir(), "missing.csv")
	if rr := Execute(context.Background(), eff).Report; rr.ErrorCode != domain.ErrCodePairsReadFailed {
		t.Fatalf("期望 %q，实际 %q（%s）", domain.ErrCodePairsReadFailed, rr.ErrorCode, rr.ErrorMsg)
	}

	eff = setup(t, "A,Fire,B,Sound\n")
	eff.Header = false
	rr := Execute(context.Background(), eff).Report
	if rr.ErrorCode != domain.ErrCodePairsInvalid {
		t.Fatalf("期望 %q，实际 %q（%s）", domain.ErrCodePairsInvalid, rr.ErrorCode, rr.ErrorMsg)
	}
	if !strings.Contains(rr.ErrorMsg, "第 1 行第 4 列") {
		t.Fatalf("错误信息应指出行列：%s", rr.ErrorMsg)
	}

	eff = setup(t, samplePairs)
	eff.Apply = true
	if err := os.MkdirAll(filepath.Join(eff.Out, "report.txt"), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	res := Execute(context.Background(), eff)
	if res.Report.ErrorCode != domain.ErrCodeWriteFailed || res.Text == "" {
		t.Fatalf("期望 %q 且保留文本，实际 %q", domain.ErrCodeWriteFailed, res.Report.ErrorCode)
	}
}

func TestExecute_Canceled(t *testing.T) {
	eff := setup(t, samplePairs)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rr := Execute(ctx, eff).Report
	if rr.ErrorCode != domain.ErrCodeCanceled {
		t.Fatalf("期望 %q，实际 %q", domain.ErrCodeCanceled, rr.ErrorCode)
	}
}

func TestExecute_EmptyPairs(t *testing.T) {
	eff := setup(t, "Player 1,Type,Player 2,Type\n")

	res := Execute(context.Background(), eff)
	if res.Report.Failed() {
		t.Fatalf("不期望失败：%s", res.Report.ErrorMsg)
	}
	if res.Text != "" || len(res.Report.Results) != 0 {
		t.Fatalf("空输入应得到空报告：%q %+v", res.Text, res.Report.Results)
	}
}

func TestExecuteWithObserver_EmitsPhaseEvents(t *testing.T) {
	eff := setup(t, samplePairs)
	eff.Apply = true

	obs := &recordObserver{}
	res := ExecuteWithObserver(context.Background(), eff, obs)

	if obs.startCalls != 1 {
		t.Fatalf("期望 OnStart 调用 1 次，实际 %d", obs.startCalls)
	}
	wantPhases := []string{"load", "index", "search", "render", "write"}
	if !reflect.DeepEqual(obs.phases, wantPhases) {
		t.Fatalf("阶段事件不符合预期：got=%v want=%v", obs.phases, wantPhases)
	}
	if obs.progress == 0 || obs.accepted != res.Report.Summary.Results {
		t.Fatalf("进度事件不符合预期：progress=%d accepted=%d", obs.progress, obs.accepted)
	}
}

func TestExecuteWithObserver_NilObserver_SameResultAsExecute(t *testing.T) {
	eff := setup(t, samplePairs)

	a := Execute(context.Background(), eff)
	b := ExecuteWithObserver(context.Background(), eff, nil)

	// 时间与 run_id 每次都不同；对比时归零。
	for _, r := range []*Result{&a, &b} {
		r.Report.StartedAt, r.Report.FinishedAt = time.Time{}, time.Time{}
		r.Report.RunID = ""
	}
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("nil observer 不应改变结果：\nExecute=%+v\nWithObs=%+v", a, b)
	}
}

func TestExecute_LogsCarryRunID(t *testing.T) {
	eff := setup(t, samplePairs)
	var buf bytes.Buffer
	l := logger.New(&buf, logger.Options{Level: "info", NoColor: true})

	rr := Execute(l.WithContext(context.Background()), eff).Report
	if rr.Failed() {
		t.Fatalf("不期望失败：%s %s", rr.ErrorCode, rr.ErrorMsg)
	}
	out := buf.String()
	if !strings.Contains(out, "run done") || !strings.Contains(out, "run_id="+rr.RunID) {
		t.Fatalf("日志缺少 run_id=%s：%q", rr.RunID, out)
	}
}
