package demo

import (
	"errors"
	"fmt"
	"io"
	"iter"
	"sort"
	"strings"

	cmdUtil "github.com/ValentinKolb/kolist/cmd/util"
	"github.com/ValentinKolb/kolist/lib/common"
	"github.com/ValentinKolb/kolist/lib/keyed"
	"github.com/ValentinKolb/kolist/lib/keyed/klist"
	"github.com/ValentinKolb/kolist/lib/keyed/observe"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var plog = logger.GetLogger(common.LoggerCLI)

var (
	DemoCmd = &cobra.Command{
		Use:   "demo",
		Short: "Walk through all list operations and print the change streams",
		Long: `Builds a list of tasks keyed by uuid, subscribes one typed handler and two
legacy handlers (console, audit) and runs a scripted series of operations.
Every notification is printed as it is raised. Expected failures (duplicate
batch, views) are reported but do not abort the demo.`,
		RunE: run,
	}
)

func init() {
	key := "metrics"
	DemoCmd.Flags().Bool(key, false, cmdUtil.WrapString("Print the Prometheus metrics of the list after the demo"))
	key = "async"
	DemoCmd.Flags().Bool(key, false, cmdUtil.WrapString("Additionally log every delta through an asynchronous observer queue (visible with --log-level info)"))
}

// --------------------------------------------------------------------------
// Items
// --------------------------------------------------------------------------

// Task is the item type of the demo list
type Task struct {
	ID    uuid.UUID
	Title string
	Done  bool
}

func (t *Task) Key() uuid.UUID { return t.ID }

func (t *Task) String() string {
	mark := " "
	if t.Done {
		mark = "x"
	}
	return fmt.Sprintf("[%s] %s", mark, t.Title)
}

// newTask derives the id from the title so repeated runs print the same keys
func newTask(title string) *Task {
	return &Task{ID: uuid.NewSHA1(uuid.NameSpaceOID, []byte(title)), Title: title}
}

func tasks(titles ...string) iter.Seq[*Task] {
	return func(yield func(*Task) bool) {
		for _, title := range titles {
			if !yield(newTask(title)) {
				return
			}
		}
	}
}

// --------------------------------------------------------------------------
// Demo
// --------------------------------------------------------------------------

type step struct {
	name      string
	expectErr bool
	run       func() error
}

func run(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	list := klist.New[uuid.UUID, *Task]()

	// typed stream
	unsubscribe := list.Subscribe(func(d keyed.Delta[*Task]) {
		fmt.Fprintf(out, "  typed   | %s\n", describe(d))
	})
	defer unsubscribe()

	// legacy stream
	audit := map[keyed.Action]int{}
	list.AddCollectionChanged("console", func(_ any, e keyed.ChangeEvent[*Task]) {
		fmt.Fprintf(out, "  legacy  | action=%s new=%v@%d old=%v@%d\n",
			e.Action, e.NewItems, e.NewStartingIndex, e.OldItems, e.OldStartingIndex)
	})
	list.AddCollectionChanged("audit", func(_ any, e keyed.ChangeEvent[*Task]) {
		audit[e.Action]++
	})
	defer list.RemoveCollectionChanged("console")
	defer list.RemoveCollectionChanged("audit")

	if viper.GetBool("async") {
		q, err := observe.NewQueue[uuid.UUID, *Task](list, func(d keyed.Delta[*Task]) {
			plog.Infof("async observer: %s", describe(d))
		})
		if err != nil {
			return fmt.Errorf("starting observer queue: %w", err)
		}
		defer q.Close()
	}

	var m *observe.Metrics[uuid.UUID, *Task]
	if viper.GetBool("metrics") {
		var err error
		if m, err = observe.NewMetrics[uuid.UUID, *Task]("demo", list); err != nil {
			return fmt.Errorf("registering metrics: %w", err)
		}
		defer m.Close()
	}

	review := newTask("review pull request")
	steps := []step{
		{name: "add", run: func() error {
			return list.Add(newTask("write spec"))
		}},
		{name: "add range (single pass sequence)", run: func() error {
			return list.AddSeq(tasks("implement list", "write tests", "update docs"))
		}},
		{name: "insert at 1", run: func() error {
			return list.Insert(1, review)
		}},
		{name: "move 0 -> 3", run: func() error {
			return list.Move(0, 3)
		}},
		{name: "update by key", run: func() error {
			done := *review
			done.Done = true
			return list.Update(&done)
		}},
		{name: "set by key (absent key appends)", run: func() error {
			t := newTask("release")
			return list.SetByKey(t.ID, t)
		}},
		{name: "remove range 1..2", run: func() error {
			return list.RemoveRange(1, 2)
		}},
		{name: "add range with a duplicate key", expectErr: true, run: func() error {
			return list.AddRange([]*Task{newTask("benchmark"), newTask("release")})
		}},
		{name: "remove by key", run: func() error {
			if !list.Remove(newTask("write spec")) {
				return keyed.NewError(keyed.RetCKeyNotFound, "write spec")
			}
			return nil
		}},
		{name: "create view", expectErr: true, run: func() error {
			_, err := list.CreateView(func(t *Task) any { return t.Title }, true)
			return err
		}},
		{name: "clear", run: func() error {
			list.Clear()
			return nil
		}},
	}

	for i, s := range steps {
		fmt.Fprintf(out, "\n%2d. %s\n", i+1, s.name)
		err := s.run()
		switch {
		case err != nil && s.expectErr:
			fmt.Fprintf(out, "  error   | %v (expected)\n", err)
		case err != nil:
			return fmt.Errorf("step %q: %w", s.name, err)
		case s.expectErr:
			return errors.New("step " + s.name + " should have failed")
		}
		printList(out, list)
	}

	fmt.Fprintln(out, "\naudit handler counted:")
	actions := make([]keyed.Action, 0, len(audit))
	for a := range audit {
		actions = append(actions, a)
	}
	sort.Slice(actions, func(i, j int) bool { return actions[i] < actions[j] })
	for _, a := range actions {
		fmt.Fprintf(out, "  %-8s %d\n", a, audit[a])
	}

	if m != nil {
		fmt.Fprintln(out, "\nmetrics:")
		m.WritePrometheus(out)
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

func describe(d keyed.Delta[*Task]) string {
	switch d := d.(type) {
	case keyed.Added[*Task]:
		return fmt.Sprintf("Added %v at %d", d.Items, d.StartIndex)
	case keyed.Removed[*Task]:
		return fmt.Sprintf("Removed %v from %d", d.Items, d.StartIndex)
	case keyed.Replaced[*Task]:
		return fmt.Sprintf("Replaced %v with %v at %d", d.OldItem, d.NewItem, d.Index)
	case keyed.Moved[*Task]:
		return fmt.Sprintf("Moved %v from %d to %d", d.Item, d.OldIndex, d.NewIndex)
	case keyed.Reset[*Task]:
		return "Reset"
	default:
		return fmt.Sprintf("unknown delta %T", d)
	}
}

func printList(out io.Writer, list *klist.KeyedList[uuid.UUID, *Task]) {
	var b strings.Builder
	for i, t := range list.All() {
		fmt.Fprintf(&b, "    %d: %s  %s\n", i, t, t.ID.String()[:8])
	}
	if b.Len() == 0 {
		b.WriteString("    (empty)\n")
	}
	fmt.Fprintf(out, "  list    | %d item(s)\n%s", list.Count(), b.String())
}
