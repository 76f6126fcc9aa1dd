package config

import (
	"math"

	"go.viam.com/primitives/execution"
	"go.viam.com/primitives/robots/fake"
)

const (
	defaultArm  = "right"
	defaultTask = "installing_a_printer"
)

// Default returns the built-in configuration: the offset tables and action lists of the household
// tasks, and a fake world holding their objects.
func Default() *Config {
	return &Config{
		Arm:     defaultArm,
		Task:    defaultTask,
		Offsets: defaultOffsets(),
		Tasks:   defaultTasks(),
		// plan neither base nor arm motion in full unless asked to
		Planner: map[string]interface{}{
			"reduced_motion":         true,
			"plan_full_pre_approach": false,
		},
		Executor: execution.DefaultOptions(),
		Dispatch: Dispatch{
			PreGraspDistance:       0.1,
			PlaceDistance:          0.1,
			ToggleDistance:         0,
			PrePullDistance:        0.1,
			PullDistance:           0.3,
			PullSteps:              4,
			PullSlack:              0.1,
			SnapSettleSteps:        5,
			PoseCheck:              true,
			MovedDistanceThreshold: 0.1,
		},
		World: defaultWorld(),
	}
}

// navigation offsets are (dx, dy, dz, yaw) in the object frame; arm offsets are (dx, dy, dz) with
// an optional trailing flag marking the position as robot agnostic. Pull and push offsets carry the
// pulling direction after the position.
func defaultOffsets() Offsets {
	pi := math.Pi
	return Offsets{
		"navigate_to": {
			"printer.n.03_1":   {{-0.7, 0, 0, 0}},
			"table.n.02_1":     {{0, -0.6, 0, 0.5 * pi}},
			"hamburger.n.01_1": {{0, -0.8, 0, 0.5 * pi}},
			"hamburger.n.01_2": {{0, -0.7, 0, 0.5 * pi}},
			"hamburger.n.01_3": {{0, -0.8, 0, 0.5 * pi}},
			"ashcan.n.01_1":    {{0, 0.8, 0, -0.5 * pi}},
			"countertop.n.01_1": {
				{0, -0.8, 0, 0.5 * pi},
				{0, -0.8, 0, 0.1 * pi},
				{0, -0.8, 0, 0.5 * pi},
				{0, -0.8, 0, 0.8 * pi},
			},
			"pumpkin.n.02_1": {{0.5, 0, 0, 0.7 * pi}, {0.4, 0, 0, pi}},
			"pumpkin.n.02_2": {{0, -0.5, 0, 0.5 * pi}},
			"cabinet.n.01_1": {{0.6, -1.15, 0, 0.5 * pi}, {0.4, -1.15, 0, 0.5 * pi}},
		},
		"pick": {
			"printer.n.03_1":   {{-0.2, 0, 0.2}},
			"hamburger.n.01_1": {{0, 0, 0.025}},
			"hamburger.n.01_2": {{0, 0, 0.025}},
			"hamburger.n.01_3": {{0, 0, 0.025}},
			"pumpkin.n.02_1":   {{0, 0, -0.1}},
			"pumpkin.n.02_2":   {{0, 0, -0.1}},
		},
		"place": {
			"table.n.02_1":   {{0, 0, 0.5}},
			"ashcan.n.01_1":  {{0, 0, 0.5}},
			"cabinet.n.01_1": {{0.1, -1.0, 0.25}, {0.3, -0.6, 0.25}},
		},
		"toggle": {
			"printer.n.03_1": {{-0.3, -0.25, 0.23}},
		},
		"pull": {
			"cabinet.n.01_1": {{0.35, -0.3, 0.35, -1, 0, 0}},
		},
		"push": {
			"cabinet.n.01_1": {{0.3, -0.65, 0.35, 1, 0, 0}},
		},
	}
}

func nav(object string, variant ...int) Action {
	a := Action{Primitive: "navigate_to", Object: object}
	if len(variant) > 0 {
		a.Variant = variant[0]
	}
	return a
}

func act(primitive, object string, variant ...int) Action {
	a := Action{Primitive: primitive, Object: object}
	if len(variant) > 0 {
		a.Variant = variant[0]
	}
	return a
}

// A combined "navigate and pick" or "navigate and place" step is listed as its two actions.
func defaultTasks() map[string][]Action {
	leftovers := []Action{
		nav("countertop.n.01_1", 1),
		nav("hamburger.n.01_1"), act("pick", "hamburger.n.01_1"),
		nav("ashcan.n.01_1"), act("place", "ashcan.n.01_1"),
		nav("hamburger.n.01_2"), act("pick", "hamburger.n.01_2"),
		nav("hamburger.n.01_3"), act("pick", "hamburger.n.01_3"),
	}
	leftoversDiscrete := []Action{
		nav("countertop.n.01_1", 1),
		nav("countertop.n.01_1", 2),
		nav("countertop.n.01_1", 3),
		nav("hamburger.n.01_1"), act("pick", "hamburger.n.01_1"),
		nav("ashcan.n.01_1"),
		nav("ashcan.n.01_1"), act("place", "ashcan.n.01_1"),
		nav("hamburger.n.01_2"), act("pick", "hamburger.n.01_2"),
		nav("hamburger.n.01_3"), act("pick", "hamburger.n.01_3"),
	}
	var leftoversAway []Action
	for _, pasta := range []string{"pasta.n.02_1", "pasta.n.02_2", "pasta.n.02_2_3", "pasta.n.02_2_4"} {
		leftoversAway = append(leftoversAway,
			nav(pasta), act("pick", pasta),
			nav("countertop.n.01_1"), act("place", "countertop.n.01_1"))
	}
	return map[string][]Action{
		"installing_a_printer": {
			nav("printer.n.03_1"),
			act("pick", "printer.n.03_1"),
			nav("table.n.02_1"),
			act("place", "table.n.02_1"),
			act("toggle", "printer.n.03_1"),
		},
		"throwing_away_leftovers":          leftovers,
		"throwing_away_leftovers_discrete": leftoversDiscrete,
		"putting_leftovers_away":           leftoversAway,
		"putting_away_Halloween_decorations": {
			nav("cabinet.n.01_1"),
			act("pull", "cabinet.n.01_1"),
			nav("pumpkin.n.02_1"),
			act("pick", "pumpkin.n.02_1"),
			act("place", "cabinet.n.01_1"),
			nav("pumpkin.n.02_2"),
			act("pick", "pumpkin.n.02_2"),
			act("push", "cabinet.n.01_1"),
		},
		"room_rearrangement": {
			nav("cabinet.n.01_1"),
			act("pull", "cabinet.n.01_1"),
			nav("pumpkin.n.02_1"),
			act("pick", "pumpkin.n.02_1"),
			nav("cabinet.n.01_1", 1), act("place", "cabinet.n.01_1", 1),
			nav("pumpkin.n.02_2"), act("pick", "pumpkin.n.02_2"),
			act("push", "cabinet.n.01_1"),
		},
	}
}

// defaultWorld lays out the objects of every default task in one room. Object sizes are chosen so
// the default arm offsets land on their surfaces.
func defaultWorld() *fake.Config {
	return &fake.Config{
		XLimits: [2]float64{-5, 5},
		YLimits: [2]float64{-5, 5},
		Robot: fake.RobotConfig{
			Name:     fake.ModelName,
			Arm:      defaultArm,
			Tucked:   [3]float64{0.1, 0, 0.7},
			Untucked: [3]float64{0.5, 0, 1.0},
		},
		Objects: []fake.ObjectConfig{
			{ID: "printer_stand", Position: [3]float64{3, 0, 0.2}, Size: [3]float64{0.6, 0.5, 0.4}},
			{ID: "printer.n.03_1", Position: [3]float64{3, 0, 0.63}, Size: [3]float64{0.6, 0.5, 0.46}, Graspable: true},
			{ID: "table.n.02_1", Position: [3]float64{0, 3, 0.4}, Size: [3]float64{1.0, 0.6, 0.8}},
			{ID: "countertop.n.01_1", Position: [3]float64{3, -3, 0.45}, Size: [3]float64{1.2, 0.6, 0.9}},
			{ID: "hamburger.n.01_1", Position: [3]float64{2.7, -3, 0.925}, Size: [3]float64{0.1, 0.1, 0.05}, Graspable: true},
			{ID: "hamburger.n.01_2", Position: [3]float64{3.0, -3, 0.925}, Size: [3]float64{0.1, 0.1, 0.05}, Graspable: true},
			{ID: "hamburger.n.01_3", Position: [3]float64{3.3, -3, 0.925}, Size: [3]float64{0.1, 0.1, 0.05}, Graspable: true},
			{ID: "ashcan.n.01_1", Position: [3]float64{-3, -3, 0.3}, Size: [3]float64{0.4, 0.4, 0.6}},
			{
				ID: "cabinet.n.01_1", Position: [3]float64{-3, 3, 0.5}, Size: [3]float64{0.6, 0.5, 1.0},
				Joint: &fake.JointConfig{Lower: 0, Upper: 1.57},
			},
			{
				ID: "pumpkin.n.02_1", Position: [3]float64{-4, 0.5, 0.4}, Size: [3]float64{0.2, 0.2, 0.2},
				CenterOffset: [3]float64{0, 0, -0.2}, Graspable: true,
			},
			{
				ID: "pumpkin.n.02_2", Position: [3]float64{-4, -1, 0.4}, Size: [3]float64{0.2, 0.2, 0.2},
				CenterOffset: [3]float64{0, 0, -0.2}, Graspable: true,
			},
		},
	}
}
