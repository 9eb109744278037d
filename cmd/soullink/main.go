package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/soullink/internal/app/run"
	"github.com/John-Robertt/soullink/internal/config"
	"github.com/John-Robertt/soullink/internal/domain"
	"github.com/John-Robertt/soullink/internal/infra/store"
	"github.com/John-Robertt/soullink/internal/logger"
	"github.com/John-Robertt/soullink/internal/search"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if code != 0 {
		os.Exit(code)
	}
}

// exitError 携带进程退出码：1 为运行失败，2 为参数错误。
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func usageError(format string, args ...any) error {
	return &exitError{code: 2, err: fmt.Errorf(format, args...)}
}

func failed(err error) error {
	return &exitError{code: 1, err: err}
}

// execute 运行命令行并返回退出码；stdout 只输出报告，其余一律写 stderr。
func execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(args)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var ee *exitError
	if errors.As(err, &ee) {
		switch {
		case ee.err == nil:
		case ee.code == 2:
			fmt.Fprintf(stderr, "参数错误：%v\n\n", ee.err)
			fmt.Fprint(stderr, root.UsageString())
		default:
			fmt.Fprintf(stderr, "错误：%v\n", ee.err)
		}
		return ee.code
	}
	// cobra 自身的错误（未知命令等）都属于用法错误。
	fmt.Fprintf(stderr, "参数错误：%v\n", err)
	return 2
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "soullink",
		Short:         "Soul Link 队伍枚举",
		Long:          "根据 Soul Link 绑定表，枚举两位玩家属性互不冲突的最大队伍组合。",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			l := logger.Init(stderr, logger.Options{Level: logLevel, NoColor: !isTTY(stderr)})
			cmd.SetContext(l.WithContext(cmd.Context()))
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &exitError{code: 2, err: err}
	})
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别：debug|info|warn|error（默认读 LOG_LEVEL，最终 info）")

	root.AddCommand(newMatchCmd(stdout, stderr), newSearchCmd(stdout, stderr))
	return root
}

type matchFlags struct {
	config  string
	mode    string
	players []string
	minSize int
	header  bool
	out     string
	apply   bool
	json    bool
}

func newMatchCmd(stdout, stderr io.Writer) *cobra.Command {
	var f matchFlags

	cmd := &cobra.Command{
		Use:   "match [pairs]",
		Short: "枚举队伍并输出报告（默认 dry-run）",
		Long: `枚举队伍并输出报告（默认 dry-run）。

pairs 可以是本地 CSV/TSV/HTML 文件或 http(s) URL；未给出时读取配置文件中的 pairs。
--apply 会把 report.txt 与 report.json 写入 --out 目录。`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cli, err := f.cliArgs(cmd, args)
			if err != nil {
				return err
			}
			return runMatch(cmd.Context(), cli, f.json, stdout, stderr)
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.config, "config", "c", "", "配置文件路径（默认在当前目录查找 soullink.json/.yaml/.yml）")
	fl.StringVarP(&f.mode, "mode", "m", config.DefaultMode, "搜索模式：type|pokemon")
	fl.StringSliceVar(&f.players, "players", nil, "两位玩家名，逗号分隔，例如 Ray,Shen")
	fl.IntVar(&f.minSize, "min-size", 0, "只输出不小于该大小的区段（首个区段总会输出）")
	fl.BoolVar(&f.header, "header", false, "配对表首行为表头")
	fl.StringVarP(&f.out, "out", "o", config.DefaultOutDir, "输出目录")
	fl.BoolVar(&f.apply, "apply", false, "写入报告文件；支持 --apply=false 覆盖配置中的 apply=true")
	fl.BoolVar(&f.json, "json", false, "stdout 输出 RunReport JSON 而非文本报告")
	return cmd
}

// cliArgs 只把显式给出的参数标记为 Set，保证配置文件的值不被 flag 默认值覆盖。
func (f matchFlags) cliArgs(cmd *cobra.Command, args []string) (config.CLIArgs, error) {
	fl := cmd.Flags()
	cli := config.CLIArgs{
		ConfigPath: f.config,
		Header:     f.header,
		HeaderSet:  fl.Changed("header"),
		Mode:       f.mode,
		ModeSet:    fl.Changed("mode"),
		MinSize:    f.minSize,
		MinSizeSet: fl.Changed("min-size"),
		Out:        f.out,
		OutSet:     fl.Changed("out"),
		Apply:      f.apply,
		ApplySet:   fl.Changed("apply"),
	}
	if len(args) == 1 {
		cli.Pairs = args[0]
	}

	if cli.ModeSet {
		switch strings.ToLower(strings.TrimSpace(f.mode)) {
		case domain.ModeType, domain.ModePokemon:
		default:
			return config.CLIArgs{}, usageError("--mode 只能是 type 或 pokemon，实际是 %q", f.mode)
		}
	}
	if cli.MinSizeSet && (f.minSize < 0 || f.minSize > domain.MaxTeamSize) {
		return config.CLIArgs{}, usageError("--min-size 只能在 0..%d 之间，实际是 %d", domain.MaxTeamSize, f.minSize)
	}
	if fl.Changed("players") {
		if len(f.players) != 2 || strings.TrimSpace(f.players[0]) == "" || strings.TrimSpace(f.players[1]) == "" {
			return config.CLIArgs{}, usageError("--players 需要恰好两个非空名字，实际是 %q", strings.Join(f.players, ","))
		}
		cli.Players = [2]string{f.players[0], f.players[1]}
		cli.PlayersSet = true
	}
	return cli, nil
}

func runMatch(ctx context.Context, cli config.CLIArgs, asJSON bool, stdout, stderr io.Writer) error {
	cwd, err := os.Getwd()
	if err != nil {
		return failed(fmt.Errorf("读取当前目录失败：%w", err))
	}

	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		rr := reportForConfigError(cli, err)
		emitReport(stdout, stderr, run.Result{Report: rr}, asJSON)
		return &exitError{code: 1}
	}

	var (
		obs run.Observer
		ui  *progressUI
	)
	if isTTY(stderr) {
		ui = newProgressUI(stderr)
		obs = ui
	}

	res := run.ExecuteWithObserver(ctx, eff, obs)
	if ui != nil {
		ui.Stop()
	}

	emitReport(stdout, stderr, res, asJSON)
	if ui != nil {
		emitLocations(stderr, eff)
	}
	if res.Report.Failed() {
		return &exitError{code: 1}
	}
	return nil
}

// emitReport 把报告写到 stdout：文本模式输出文本报告，--json 时只输出一个 RunReport JSON。
// 摘要与错误信息写 stderr。
func emitReport(stdout, stderr io.Writer, res run.Result, asJSON bool) {
	rr := res.Report
	if asJSON {
		enc := json.NewEncoder(stdout)
		_ = enc.Encode(rr)
	} else {
		fmt.Fprint(stdout, res.Text)
	}

	if rr.Failed() {
		fmt.Fprintf(stderr, "失败：%s：%s\n", rr.ErrorCode, rr.ErrorMsg)
		return
	}
	fmt.Fprintf(stderr, "完成：pairs=%d results=%d possible_teams=%d max_team_size=%d\n",
		rr.Summary.Pairs, rr.Summary.Results, rr.Summary.PossibleTeams, rr.Summary.MaxTeamSize,
	)
}

func reportForConfigError(cli config.CLIArgs, err error) domain.RunReport {
	now := time.Now().UTC()
	rr := domain.RunReport{
		Source:     strings.TrimSpace(cli.Pairs),
		Mode:       strings.ToLower(strings.TrimSpace(cli.Mode)),
		Players:    cli.Players,
		DryRun:     !(cli.ApplySet && cli.Apply),
		StartedAt:  now,
		FinishedAt: now,
		ErrorCode:  config.Code(err),
		ErrorMsg:   err.Error(),
	}
	if rr.ErrorCode == "" {
		rr.ErrorCode = domain.ErrCodeConfigInvalid
	}
	rr.Finalize()
	return rr
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if !eff.Apply {
		return
	}
	fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.Out, store.ReportText))
	fmt.Fprintf(w, "json: %s\n", filepath.Join(eff.Out, store.ReportJSON))
}

type searchFlags struct {
	queries []string
	file    string
	out     string
	apply   bool
}

func newSearchCmd(stdout, stderr io.Writer) *cobra.Command {
	var f searchFlags

	cmd := &cobra.Command{
		Use:   "search",
		Short: "在文本报告中查找包含指定宝可梦的结果",
		Long: `在文本报告中查找包含指定宝可梦的结果。

每个 -p 是一个查询："玩家,宝可梦1,宝可梦2,..."；结果必须同时满足全部查询。
名字整体匹配，忽略大小写。--apply 会把命中结果写入 <out>/search.txt。`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runSearch(cmd, f, stdout, stderr)
		},
	}

	fl := cmd.Flags()
	fl.StringArrayVarP(&f.queries, "player", "p", nil, `查询，例如 -p "Ray,Charmander,Vulpix"（可重复）`)
	fl.StringVarP(&f.file, "file", "f", "", "要搜索的文本报告（默认 <out>/report.txt）")
	fl.StringVarP(&f.out, "out", "o", config.DefaultOutDir, "输出目录")
	fl.BoolVar(&f.apply, "apply", false, "把命中结果写入 <out>/search.txt")
	return cmd
}

func runSearch(cmd *cobra.Command, f searchFlags, stdout, stderr io.Writer) error {
	if len(f.queries) == 0 {
		return usageError("%v", search.ErrNoQuery)
	}
	queries := make([]search.Query, 0, len(f.queries))
	for _, s := range f.queries {
		q, err := search.ParseQuery(s)
		if err != nil {
			return usageError("%v", err)
		}
		queries = append(queries, q)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return failed(fmt.Errorf("读取当前目录失败：%w", err))
	}
	out := absFrom(cwd, f.out)

	src := filepath.Join(out, store.ReportText)
	if strings.TrimSpace(f.file) != "" {
		src = absFrom(cwd, f.file)
	}
	b, ok, err := store.New(filepath.Dir(src), true).Read(filepath.Base(src))
	if err != nil {
		return failed(fmt.Errorf("读取报告失败：%s：%w", src, err))
	}
	if !ok {
		return failed(fmt.Errorf("报告不存在：%s（先运行 soullink match --apply）", src))
	}

	matches, err := search.Find(string(b), queries)
	if err != nil {
		return usageError("%v", err)
	}
	text := search.Render(matches)
	fmt.Fprint(stdout, text)

	log := logger.From(cmd.Context())
	log.Info().Str("report", src).Int("queries", len(queries)).Int("matches", len(matches)).Msg("search done")

	if f.apply {
		if err := store.New(out, false).Write(store.SearchText, []byte(text)); err != nil {
			return failed(fmt.Errorf("写入 %s 失败：%w", store.SearchText, err))
		}
		if isTTY(stderr) {
			fmt.Fprintf(stderr, "search: %s\n", filepath.Join(out, store.SearchText))
		}
	}
	return nil
}

func absFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(base, p)
}

// isTTY 只对真实终端返回 true（包括 Cygwin/MSYS 终端）；测试中的 buffer 一律视为非交互。
func isTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
