package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.viam.com/test"

	"go.viam.com/primitives/failure"
	"go.viam.com/primitives/testutils"
)

func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err := NewApp(&out, &errOut).Run(append([]string{"primitives"}, args...))
	return out.String(), errOut.String(), err
}

func TestTasks(t *testing.T) {
	out, _, err := runApp(t, "tasks")
	test.That(t, err, test.ShouldBeNil)
	for _, task := range []string{"installing_a_printer", "room_rearrangement", "putting_leftovers_away"} {
		test.That(t, out, test.ShouldContainSubstring, task)
	}
}

func TestActions(t *testing.T) {
	out, _, err := runApp(t, "actions")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "printer.n.03_1")
	test.That(t, out, test.ShouldContainSubstring, "table.n.02_1")
	test.That(t, out, test.ShouldContainSubstring, "toggle")

	path := testutils.WriteTempFile(t, "primitives.json5", `{
		task: "mine",
		tasks: {mine: [{primitive: "pick", object: "apple.n.01_1"}, {primitive: "pick", object: "pear"}]},
		offsets: {pick: {"apple.n.01_1": [[0, 0, 0.125]]}},
	}`)
	out, _, err = runApp(t, "--config", path, "actions")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "apple.n.01_1")
	test.That(t, out, test.ShouldContainSubstring, "0, 0, 0.125")
	test.That(t, out, test.ShouldContainSubstring, "none")

	_, _, err = runApp(t, "--task", "juggling", "actions")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, err.Error(), test.ShouldContainSubstring, `task "juggling" has no action list`)
}

func TestRun(t *testing.T) {
	out, errOut, err := runApp(t, "run")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, strings.Count(out, "DONE"), test.ShouldEqual, 5)
	test.That(t, errOut, test.ShouldContainSubstring, "applying primitive")
	test.That(t, errOut, test.ShouldNotContainSubstring, "base path planned")

	// placing with an empty hand stops the run
	out, _, err = runApp(t, "run", "--action", "3", "--action", "0")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)
	test.That(t, out, test.ShouldContainSubstring, "precondition")
	test.That(t, out, test.ShouldNotContainSubstring, "DONE")

	out, _, err = runApp(t, "run", "--action", "3", "--action", "0", "--keep-going")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "precondition")
	test.That(t, strings.Count(out, "DONE"), test.ShouldEqual, 1)

	_, errOut, err = runApp(t, "--debug", "run", "--action", "0")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, errOut, test.ShouldContainSubstring, "base path planned")

	logPath := filepath.Join(testutils.TempDir(t, "cli"), "run.log")
	out, _, err = runApp(t, "--log-file", logPath, "run", "--action", "0", "--plan-full")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "DONE")
	logged, err := os.ReadFile(logPath)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(logged), test.ShouldContainSubstring, "applying primitive")
}

func TestPlanBase(t *testing.T) {
	out, _, err := runApp(t, "plan-base", "--object", "printer.n.03_1")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, out, test.ShouldContainSubstring, "2.300")

	_, _, err = runApp(t, "plan-base", "--object", "printer.n.03_1", "--variant", "4")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, failure.ReasonOf(err), test.ShouldEqual, failure.ReasonPreCondition)

	_, _, err = runApp(t, "plan-base")
	test.That(t, err, test.ShouldNotBeNil)
}
