package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/mecha04/motorlab/internal/config"
	"github.com/mecha04/motorlab/internal/cotask"
	"github.com/mecha04/motorlab/internal/hal/periphhw"
	"github.com/mecha04/motorlab/internal/rig"
	"github.com/mecha04/motorlab/internal/shell"
	"github.com/mecha04/motorlab/internal/station"
	"github.com/mecha04/motorlab/internal/storage"
	"github.com/mecha04/motorlab/internal/tui"
	"github.com/mecha04/motorlab/internal/wire"
)

var (
	dataDir    string
	configFile string
	kp         float64
	periodMs   int
	setpoint   int64
	points     int
	port       string
	profile    bool
	noSave     bool
)

func main() {
	env, err := config.LoadEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:   "motorlab",
		Short: "closed-loop DC motor control lab",
		Run: func(cmd *cobra.Command, args []string) {
			runShell()
		},
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", env.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "rig config file (yaml)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "run a simulated step response",
		RunE:  runSim,
	}
	addTuningFlags(runCmd)
	runCmd.Flags().BoolVar(&profile, "profile", false, "print the scheduler report")
	runCmd.Flags().BoolVar(&noSave, "no-save", false, "do not store the run")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "run a simulated step response with a live plot",
		RunE:  runLive,
	}
	addTuningFlags(liveCmd)

	deviceCmd := &cobra.Command{
		Use:   "device",
		Short: "run the controller on real hardware, speaking the host protocol on stdio",
		RunE:  runDevice,
	}
	deviceCmd.Flags().BoolVar(&profile, "profile", false, "print the scheduler report to stderr")

	collectCmd := &cobra.Command{
		Use:   "collect",
		Short: "collect a step response from a serial rig",
		RunE:  runCollect,
	}
	addTuningFlags(collectCmd)
	collectCmd.Flags().StringVar(&port, "port", env.Port, "serial port")

	portsCmd := &cobra.Command{
		Use:   "ports",
		Short: "list serial ports",
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := station.Ports()
			if err != nil {
				return err
			}
			if len(ports) == 0 {
				fmt.Println("no serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Println(p)
			}
			return nil
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list stored runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a stored run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run samples as CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}

	shellCmd := &cobra.Command{
		Use:   "shell",
		Short: "interactive lab console",
		Run: func(cmd *cobra.Command, args []string) {
			runShell()
		},
	}

	initConfigCmd := &cobra.Command{
		Use:   "init-config [path]",
		Short: "write the default rig config",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.Save(args[0], config.Default()); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", args[0])
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, liveCmd, deviceCmd, collectCmd, portsCmd,
		listCmd, plotCmd, exportCmd, exportCSVCmd, shellCmd, initConfigCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func addTuningFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&kp, "kp", config.DefaultKp, "control gain")
	cmd.Flags().IntVar(&periodMs, "period", config.DefaultPeriodMs, "controller period in ms")
	cmd.Flags().Int64Var(&setpoint, "setpoint", config.DefaultSetpoint, "target position in encoder counts")
	cmd.Flags().IntVar(&points, "points", config.DefaultDataPoints, "samples to collect")
}

// loadConfig reads the rig config and lets explicitly set flags override
// it, the file overriding the built-in defaults.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	rep := cfg.Reported()
	if cmd.Flags().Changed("kp") {
		rep.Kp = kp
	}
	if cmd.Flags().Changed("period") {
		cfg.Scheduler.ControllerPeriodMs = periodMs
	}
	if cmd.Flags().Changed("setpoint") {
		rep.Setpoint = setpoint
	}
	if cmd.Flags().Changed("points") {
		rep.DataPoints = points
	}
	return cfg, cfg.Validate()
}

func openStore() (*storage.Store, error) {
	st := storage.New(dataDir)
	return st, st.Init()
}

func saveRun(st *storage.Store, cfg *config.Config, res *rig.Result, source string) (string, error) {
	return st.Save(storage.RunMetadata{
		Motor:      res.Motor,
		Timestamp:  time.Now(),
		Source:     source,
		Kp:         res.Kp,
		PeriodMs:   res.PeriodMs,
		Setpoint:   res.Setpoint,
		DataPoints: cfg.Reported().DataPoints,
		Metrics:    res.Metrics,
	}, res.Times, res.Positions)
}

func runSim(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Printf("running %s step response (kp=%g, period=%dms, setpoint=%d)...\n",
		cfg.Reported().Name, cfg.Reported().Kp, cfg.Scheduler.ControllerPeriodMs, cfg.Reported().Setpoint)
	start := time.Now()

	res, err := rig.RunSim(context.Background(), cfg, io.Discard)
	if err != nil {
		return err
	}
	fmt.Printf("completed in %v\n\n", time.Since(start))
	fmt.Println(tui.RenderPlot(res.Positions, res.Setpoint, "position, counts"))
	fmt.Println()
	fmt.Println(shell.Summarize(res))

	if profile {
		fmt.Println("\nscheduler:")
		fmt.Println(res.SchedReport)
	}

	if noSave {
		return nil
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := saveRun(st, cfg, res, "sim")
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	rep := cfg.Reported()

	res, err := tui.Live(rep.Name, rep.Kp, cfg.Scheduler.ControllerPeriodMs, rep.Setpoint,
		func(obs rig.Observer) (*rig.Result, error) {
			return rig.RunSim(context.Background(), cfg, io.Discard, obs)
		})
	if err != nil {
		return err
	}
	if res == nil {
		fmt.Println("run aborted")
		return nil
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := saveRun(st, cfg, res, "sim")
	if err != nil {
		return err
	}
	fmt.Printf("run id: %s\n", runID)
	return nil
}

// runDevice is the board side of the host protocol: prompt for the gain
// and period on stdout, then run the controller on real GPIO and stream
// samples back.
func runDevice(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	emit := wire.NewEmitter(os.Stdout)
	in := bufio.NewReader(os.Stdin)

	if err := emit.PromptKp(); err != nil {
		return err
	}
	hostKp, err := readFloat(in)
	if err != nil {
		return err
	}
	if err := emit.PromptPeriod(); err != nil {
		return err
	}
	hostPeriod, err := readInt(in)
	if err != nil {
		return err
	}
	cfg.Reported().Kp = hostKp
	cfg.Scheduler.ControllerPeriodMs = hostPeriod
	if err := cfg.Validate(); err != nil {
		return err
	}

	board, err := periphhw.New()
	if err != nil {
		return err
	}
	defer board.Close()

	r, err := rig.New(cfg, board, cotask.WallClock{}, rig.SleepIdler{}, os.Stdout)
	if err != nil {
		return err
	}
	res, err := r.Run(context.Background())
	if err != nil {
		return err
	}
	if profile {
		fmt.Fprintln(os.Stderr, res.SchedReport)
	}
	return nil
}

func runCollect(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if port == "" {
		port = cfg.Station.Port
	}
	rep := cfg.Reported()

	link, err := station.Open(port, cfg.Station.Baud)
	if err != nil {
		return err
	}
	defer link.Close()

	fmt.Printf("restarting board on %s...\n", port)
	if err := link.Restart(); err != nil {
		return err
	}
	fmt.Printf("collecting (kp=%g, period=%dms)...\n", rep.Kp, cfg.Scheduler.ControllerPeriodMs)

	times, positions, err := link.Collect(rep.Kp, cfg.Scheduler.ControllerPeriodMs)
	if err != nil {
		return err
	}

	res := &rig.Result{
		Motor:     rep.Name,
		Kp:        rep.Kp,
		PeriodMs:  cfg.Scheduler.ControllerPeriodMs,
		Setpoint:  rep.Setpoint,
		Times:     times,
		Positions: positions,
	}
	fmt.Println(shell.Summarize(res))

	st, err := openStore()
	if err != nil {
		return err
	}
	runID, err := saveRun(st, cfg, res, "serial")
	if err != nil {
		return err
	}
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSOURCE\tTIME\tKP\tPERIOD\tSETPOINT\tPOINTS")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%g\t%dms\t%d\t%d\n",
			run.ID,
			run.Source,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Kp,
			run.PeriodMs,
			run.Setpoint,
			run.DataPoints,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	_, positions, err := st.LoadSamples(args[0])
	if err != nil {
		return err
	}
	if len(positions) == 0 {
		return fmt.Errorf("no data to plot")
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("kp=%g period=%dms setpoint=%d\n\n", meta.Kp, meta.PeriodMs, meta.Setpoint)
	fmt.Println(tui.RenderPlot(positions, meta.Setpoint, "position, counts"))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	f, err := os.Open(st.SamplesPath(args[0]))
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(os.Stdout, f)
	return err
}

func runShell() {
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		cfg = loaded
	}
	env, _ := config.LoadEnv()
	shell.New(cfg, st, env.Port).Run()
}

func readFloat(in *bufio.Reader) (float64, error) {
	line, err := in.ReadString('\n')
	if err != nil {
		return 0, err
	}
	return strconv.ParseFloat(strings.TrimSpace(line), 64)
}

func readInt(in *bufio.Reader) (int, error) {
	line, err := in.ReadString('\n')
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(line))
}
