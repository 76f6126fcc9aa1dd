package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"
	"go.viam.com/utils"

	"go.viam.com/primitives/config"
	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/logging"
	"go.viam.com/primitives/primitives"
	"go.viam.com/primitives/robots/fake"
	rutils "go.viam.com/primitives/utils"
)

// session is a dispatcher over a fresh fake world built from the config.
type session struct {
	cfg     *config.Config
	world   *fake.World
	disp    *primitives.Dispatcher
	logger  logging.Logger
	logFile *logging.FileAppender
}

func newLogger(c *cli.Context) (logging.Logger, *logging.FileAppender) {
	logger := logging.NewBlankLogger("primitives")
	logger.AddAppender(logging.NewWriterAppender(c.App.ErrWriter))
	if !c.Bool(debugFlag) {
		logger.SetLevel(logging.INFO)
	}
	var file *logging.FileAppender
	if path := c.String(logFileFlag); path != "" {
		file = logging.NewFileAppender(path, logFileMaxSizeMB)
		logger.AddAppender(file)
	}
	return logger, file
}

func commandContext(c *cli.Context) context.Context {
	if c.Bool(debugFlag) {
		return logging.EnableDebugMode(c.Context, "")
	}
	return c.Context
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg := config.Default()
	if path := c.String(configFlag); path != "" {
		var err error
		if cfg, err = config.Read(path); err != nil {
			return nil, err
		}
	}
	if task := c.String(taskFlag); task != "" {
		cfg.Task = task
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid config")
	}
	return cfg, nil
}

func newSession(c *cli.Context, cfg *config.Config) (*session, error) {
	if cfg.World == nil {
		return nil, errors.New("config has no world to run in")
	}
	logger, logFile := newLogger(c)
	s := &session{cfg: cfg, logger: logger, logFile: logFile}
	var err error
	if s.world, err = fake.NewWorld(cfg.World, logger.Sublogger("world")); err != nil {
		return nil, multierr.Combine(err, s.close())
	}
	opts, err := cfg.PlannerOptions()
	if err != nil {
		return nil, multierr.Combine(err, s.close())
	}
	planners, err := primitives.NewPlanners(s.world, s.world.BaseFrame(), opts, logger)
	if err != nil {
		return nil, multierr.Combine(err, s.close())
	}
	if s.disp, err = primitives.NewDispatcher(cfg, s.world, planners, logger.Sublogger("dispatcher")); err != nil {
		return nil, multierr.Combine(err, s.close())
	}
	return s, nil
}

func (s *session) close() error {
	err := s.logger.Sync()
	if s.logFile != nil {
		err = multierr.Combine(err, s.logFile.Close())
	}
	return err
}

// TasksAction is the corresponding Action for 'tasks'.
func TasksAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.AppendHeader(table.Row{"Task", "Actions", ""})
	for _, name := range cfg.TaskNames() {
		t.AppendRow(table.Row{name, len(cfg.Tasks[name]), lo.Ternary(name == cfg.Task, "*", "")})
	}
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

// ActionsAction is the corresponding Action for 'actions'.
func ActionsAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	actions, err := cfg.Actions()
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetTitle(cfg.Task)
	t.AppendHeader(table.Row{"#", "Primitive", "Object", "Variant", "Offsets"})
	for i, a := range actions {
		t.AppendRow(table.Row{i, a.Primitive, a.Object, a.Variant, describeOffsets(cfg, a)})
	}
	t.AppendFooter(table.Row{int(primitives.Dummy), primitives.Dummy, "", "", "tucks the arm"})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}

func describeOffsets(cfg *config.Config, a config.Action) string {
	prim, err := primitives.ParsePrimitive(a.Primitive)
	if err != nil {
		return err.Error()
	}
	params, err := cfg.Offsets.Lookup(prim.OffsetTable(), a.Object, a.Variant)
	if err != nil {
		return "none"
	}
	return strings.Join(lo.Map(params, func(v float64, _ int) string {
		return fmt.Sprintf("%.3g", v)
	}), ", ")
}

// RunAction is the corresponding Action for 'run'. Each action is planned and executed in a fake world
// built from the config, and a summary is printed once the run stops.
func RunAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if c.Bool(planFullFlag) {
		if cfg.Planner == nil {
			cfg.Planner = map[string]interface{}{}
		}
		cfg.Planner["plan_full_pre_approach"] = true
	}
	s, err := newSession(c, cfg)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(s.close)
	ctx := commandContext(c)

	indices := c.IntSlice(actionFlag)
	if len(indices) == 0 {
		actions, err := cfg.Actions()
		if err != nil {
			return err
		}
		indices = lo.Range(len(actions))
	}

	t := table.NewWriter()
	t.SetTitle(cfg.Task)
	t.AppendHeader(table.Row{"#", "Action", "State", "Commands", "Ticks", "Failure"})
	var runErr error
	for _, i := range indices {
		before := s.world.Ticks()
		res, err := s.disp.Run(ctx, i)
		row := table.Row{i, res.Action, res.State, res.Commands, s.world.Ticks() - before, ""}
		if err != nil {
			row[5] = failure.ReasonOf(err)
			s.logger.Warnw("action failed", "index", i, "action", res.Action, "error", err)
		}
		t.AppendRow(row)
		if err != nil && (!c.Bool(keepGoing) || !failure.Recoverable(err)) {
			runErr = errors.Wrapf(err, "action %d", i)
			break
		}
	}

	held, holding, err := s.world.HeldObject(ctx, cfg.Arm)
	if err != nil {
		return err
	}
	t.AppendFooter(table.Row{"", "", "", "", s.world.Ticks(), lo.Ternary(holding, "holding "+held, "")})
	printf(c.App.Writer, "%s", t.Render())
	return runErr
}

// PlanBaseAction is the corresponding Action for 'plan-base'.
func PlanBaseAction(c *cli.Context) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	s, err := newSession(c, cfg)
	if err != nil {
		return err
	}
	defer utils.UncheckedErrorFunc(s.close)

	object := c.String(objectFlag)
	path, err := s.disp.PlanNavigation(commandContext(c), object, c.Int(variantFlag))
	if err != nil {
		return err
	}
	t := table.NewWriter()
	t.SetTitle("navigate_to " + object)
	t.AppendHeader(table.Row{"#", "X", "Y", "Yaw (deg)"})
	for i, w := range path {
		t.AppendRow(table.Row{i, fmt.Sprintf("%.3f", w.X), fmt.Sprintf("%.3f", w.Y), fmt.Sprintf("%.1f", rutils.RadToDeg(w.Yaw))})
	}
	t.AppendFooter(table.Row{"", "", "length", fmt.Sprintf("%.3f", path.Length())})
	printf(c.App.Writer, "%s", t.Render())
	return nil
}
