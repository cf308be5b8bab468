// Package shell is the interactive lab console: tune the gain, period
// and setpoint, fire step responses against the simulator or a serial
// rig, and inspect stored runs.
package shell

import (
	"context"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/abiosoft/ishell/v2"

	"github.com/mecha04/motorlab/internal/config"
	"github.com/mecha04/motorlab/internal/rig"
	"github.com/mecha04/motorlab/internal/station"
	"github.com/mecha04/motorlab/internal/storage"
	"github.com/mecha04/motorlab/internal/tui"
)

type Console struct {
	cfg   *config.Config
	store *storage.Store
	port  string
	sh    *ishell.Shell
}

func New(cfg *config.Config, store *storage.Store, port string) *Console {
	c := &Console{cfg: cfg, store: store, port: port}

	sh := ishell.New()
	sh.Println("motorlab shell. 'help' lists commands.")
	sh.AddCmd(&ishell.Cmd{Name: "show", Help: "show current tuning", Func: c.show})
	sh.AddCmd(&ishell.Cmd{Name: "kp", Help: "kp <gain>", Func: c.setKp})
	sh.AddCmd(&ishell.Cmd{Name: "period", Help: "period <ms>", Func: c.setPeriod})
	sh.AddCmd(&ishell.Cmd{Name: "setpoint", Help: "setpoint <counts>", Func: c.setSetpoint})
	sh.AddCmd(&ishell.Cmd{Name: "points", Help: "points <n>", Func: c.setPoints})
	sh.AddCmd(&ishell.Cmd{Name: "run", Help: "run a simulated step response", Func: c.runSim})
	sh.AddCmd(&ishell.Cmd{Name: "collect", Help: "collect [port] - run on the serial rig", Func: c.collect})
	sh.AddCmd(&ishell.Cmd{Name: "runs", Help: "list stored runs", Func: c.listRuns})
	sh.AddCmd(&ishell.Cmd{Name: "plot", Help: "plot <run-id>", Func: c.plot})
	c.sh = sh
	return c
}

func (c *Console) Run() { c.sh.Run() }

func (c *Console) show(ctx *ishell.Context) {
	rep := c.cfg.Reported()
	ctx.Printf("motor     %s\n", rep.Name)
	ctx.Printf("kp        %g\n", rep.Kp)
	ctx.Printf("period    %dms\n", c.cfg.Scheduler.ControllerPeriodMs)
	ctx.Printf("setpoint  %d\n", rep.Setpoint)
	ctx.Printf("points    %d\n", rep.DataPoints)
}

func (c *Console) setKp(ctx *ishell.Context) {
	if len(ctx.Args) != 1 {
		ctx.Println("usage: kp <gain>")
		return
	}
	kp, err := strconv.ParseFloat(ctx.Args[0], 64)
	if err != nil || kp <= 0 {
		ctx.Println("kp must be a positive nonzero number")
		return
	}
	c.cfg.Reported().Kp = kp
	ctx.Printf("kp = %g\n", kp)
}

func (c *Console) setPeriod(ctx *ishell.Context) {
	if len(ctx.Args) != 1 {
		ctx.Println("usage: period <ms>")
		return
	}
	ms, err := strconv.Atoi(ctx.Args[0])
	if err != nil || ms <= 0 {
		ctx.Println("period must be a positive integer in milliseconds")
		return
	}
	c.cfg.Scheduler.ControllerPeriodMs = ms
	ctx.Printf("period = %dms\n", ms)
}

func (c *Console) setSetpoint(ctx *ishell.Context) {
	if len(ctx.Args) != 1 {
		ctx.Println("usage: setpoint <counts>")
		return
	}
	sp, err := strconv.ParseInt(ctx.Args[0], 10, 64)
	if err != nil {
		ctx.Println("setpoint must be an integer encoder count")
		return
	}
	c.cfg.Reported().Setpoint = sp
	ctx.Printf("setpoint = %d\n", sp)
}

func (c *Console) setPoints(ctx *ishell.Context) {
	if len(ctx.Args) != 1 {
		ctx.Println("usage: points <n>")
		return
	}
	n, err := strconv.Atoi(ctx.Args[0])
	if err != nil || n <= 0 {
		ctx.Println("points must be a positive integer")
		return
	}
	c.cfg.Reported().DataPoints = n
	ctx.Printf("points = %d\n", n)
}

func (c *Console) runSim(ctx *ishell.Context) {
	res, err := rig.RunSim(context.Background(), c.cfg, io.Discard)
	if err != nil {
		ctx.Printf("run failed: %v\n", err)
		return
	}
	ctx.Println(Summarize(res))

	runID, err := c.saveRun(res, "sim")
	if err != nil {
		ctx.Printf("save failed: %v\n", err)
		return
	}
	ctx.Printf("saved as %s\n", runID)
}

func (c *Console) collect(ctx *ishell.Context) {
	port := c.port
	if len(ctx.Args) == 1 {
		port = ctx.Args[0]
	}
	if port == "" {
		ctx.Println("usage: collect <port>")
		return
	}
	rep := c.cfg.Reported()

	link, err := station.Open(port, c.cfg.Station.Baud)
	if err != nil {
		ctx.Printf("open failed: %v\n", err)
		return
	}
	defer link.Close()

	if err := link.Restart(); err != nil {
		ctx.Printf("restart failed: %v\n", err)
		return
	}
	times, positions, err := link.Collect(rep.Kp, c.cfg.Scheduler.ControllerPeriodMs)
	if err != nil {
		ctx.Printf("collect failed: %v\n", err)
		return
	}

	res := &rig.Result{
		Motor:     rep.Name,
		Kp:        rep.Kp,
		PeriodMs:  c.cfg.Scheduler.ControllerPeriodMs,
		Setpoint:  rep.Setpoint,
		Times:     times,
		Positions: positions,
	}
	ctx.Println(Summarize(res))

	runID, err := c.saveRun(res, "serial")
	if err != nil {
		ctx.Printf("save failed: %v\n", err)
		return
	}
	ctx.Printf("saved as %s\n", runID)
}

func (c *Console) saveRun(res *rig.Result, source string) (string, error) {
	rep := c.cfg.Reported()
	return c.store.Save(storage.RunMetadata{
		Motor:      res.Motor,
		Timestamp:  time.Now(),
		Source:     source,
		Kp:         res.Kp,
		PeriodMs:   res.PeriodMs,
		Setpoint:   res.Setpoint,
		DataPoints: rep.DataPoints,
		Metrics:    res.Metrics,
	}, res.Times, res.Positions)
}

func (c *Console) listRuns(ctx *ishell.Context) {
	runs, err := c.store.List()
	if err != nil {
		ctx.Printf("list failed: %v\n", err)
		return
	}
	ctx.Println(FormatRuns(runs))
}

func (c *Console) plot(ctx *ishell.Context) {
	if len(ctx.Args) != 1 {
		ctx.Println("usage: plot <run-id>")
		return
	}
	meta, err := c.store.Load(ctx.Args[0])
	if err != nil {
		ctx.Printf("load failed: %v\n", err)
		return
	}
	_, positions, err := c.store.LoadSamples(ctx.Args[0])
	if err != nil {
		ctx.Printf("load failed: %v\n", err)
		return
	}
	ctx.Println(tui.RenderPlot(positions, meta.Setpoint, meta.ID))
}

// Summarize renders a finished run as a short report.
func Summarize(res *rig.Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %d samples, kp=%g, period=%dms, setpoint=%d",
		res.Motor, len(res.Times), res.Kp, res.PeriodMs, res.Setpoint)
	if len(res.Metrics) == 0 {
		return b.String()
	}

	keys := make([]string, 0, len(res.Metrics))
	for k := range res.Metrics {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v := res.Metrics[k]
		switch {
		case math.IsInf(v, 1):
			fmt.Fprintf(&b, "\n  %-20s never", k)
		case math.IsNaN(v):
			fmt.Fprintf(&b, "\n  %-20s n/a", k)
		default:
			fmt.Fprintf(&b, "\n  %-20s %.4g", k, v)
		}
	}
	return b.String()
}

// FormatRuns renders the stored run list as a table.
func FormatRuns(runs []storage.RunMetadata) string {
	if len(runs) == 0 {
		return "no stored runs"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%-22s %-8s %-8s %-10s %-10s %s", "id", "source", "kp", "period", "setpoint", "when")
	for _, r := range runs {
		fmt.Fprintf(&b, "\n%-22s %-8s %-8g %-10s %-10d %s",
			r.ID, r.Source, r.Kp, fmt.Sprintf("%dms", r.PeriodMs), r.Setpoint,
			r.Timestamp.Format("2006-01-02 15:04:05"))
	}
	return b.String()
}
