// Package happiness is the kernel console: a small line oriented shell for
// poking at the scheduler's task lists.
package happiness

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"

	"calm/src/joy"
	"calm/src/lib/trust"
)

const defaultStackSize = 2048

var errQuit = errors.New("quit")

type command struct {
	args  string
	help  string
	nargs int // minimum
	run   func(s *Shell, args []string) error
}

var commands map[string]command

func init() {
	commands = map[string]command{
		"ps":     {"", "list every task", 0, (*Shell).ps},
		"spawn":  {"<name> <prio> [args...]", "create and activate a task", 2, (*Shell).spawn},
		"block":  {"<pid> <state>", "move a task to a wait state (sem, sig, mqnotempty, mqnotfull, fill)", 2, (*Shell).block},
		"wake":   {"<pid>", "make a waiting task ready", 1, (*Shell).wake},
		"kill":   {"<pid>", "delete a task", 1, (*Shell).kill},
		"lock":   {"", "lock the scheduler for the running task", 0, (*Shell).lock},
		"unlock": {"", "undo one lock", 0, (*Shell).unlock},
		"drain":  {"", "empty the deferred release queues", 0, (*Shell).drain},
		"check":  {"", "verify the scheduler bookkeeping", 0, (*Shell).check},
		"help":   {"", "this list", 0, (*Shell).help},
		"quit":   {"", "leave the console", 0, func(*Shell, []string) error { return errQuit }},
	}
}

// StackAllocator hands out task stacks.
type StackAllocator interface {
	Alloc(size int) ([]byte, error)
	Release(heap joy.Heap, b joy.Block)
}

// Shell runs console commands against a kernel.  Output, including error
// messages, goes to the writer given to New.
type Shell struct {
	k      *joy.Kernel
	out    io.Writer
	stacks StackAllocator
}

func New(k *joy.Kernel, out io.Writer) *Shell {
	return &Shell{k: k, out: out}
}

// SetStacks makes spawn take stacks from a instead of the Go heap.
func (s *Shell) SetStacks(a StackAllocator) {
	s.stacks = a
}

// Banner prints the boot summary.
func (s *Shell) Banner() {
	cfg := s.k.Config()
	s.printf("# Stage 1 kernel is running: Joy\n")
	s.printf("# %16s : %s\n", "Boot id", s.k.BootID())
	s.printf("# %16s : %d\n", "Max tasks", cfg.MaxTasks)
	s.printf("# %16s : %d\n", "Max pid", cfg.MaxPID)
	s.printf("# %16s : %d..%d\n", "Priorities", cfg.MinPriority, cfg.MaxPriority)
	s.printf("# %16s : %d\n", "Tasks alive", s.k.AliveCount())
}

// Exec runs one line.  It returns false when the line was quit.
func (s *Shell) Exec(line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return true
	}
	cmd, ok := commands[fields[0]]
	if !ok {
		s.printf("unknown command %q, try help\n", fields[0])
		return true
	}
	args := fields[1:]
	if len(args) < cmd.nargs {
		s.printf("usage: %s %s\n", fields[0], cmd.args)
		return true
	}
	err := cmd.run(s, args)
	if errors.Is(err, errQuit) {
		return false
	}
	if err != nil {
		trust.Debugf("console: %s: %v", fields[0], err)
		s.printf("%s: %v\n", fields[0], err)
	}
	return true
}

// Run executes lines from r until quit or the end of input.
func (s *Shell) Run(r io.Reader, prompt string) error {
	scanner := bufio.NewScanner(r)
	for {
		s.printf("%s", prompt)
		if !scanner.Scan() {
			return scanner.Err()
		}
		if !s.Exec(scanner.Text()) {
			return nil
		}
	}
}

func (s *Shell) printf(format string, params ...interface{}) {
	fmt.Fprintf(s.out, format, params...)
}

func (s *Shell) task(arg string) (*joy.TCB, error) {
	n, err := strconv.Atoi(arg)
	if err != nil {
		return nil, fmt.Errorf("bad pid %q", arg)
	}
	t := s.k.Lookup(joy.Pid(n))
	if t == nil {
		return nil, joy.MakeError(joy.ErrPidNotFound, joy.Pid(n))
	}
	return t, nil
}

func (s *Shell) ps(_ []string) error {
	return WritePS(s.out, s.k.Snapshot())
}

func (s *Shell) spawn(args []string) error {
	prio, err := strconv.Atoi(args[1])
	if err != nil || prio < 0 || prio >= joy.NumPriorities {
		return fmt.Errorf("bad priority %q", args[1])
	}
	size := defaultStackSize
	if floor := s.k.Config().MinStackSize; size < floor {
		size = floor
	}
	var stack []byte
	if s.stacks != nil {
		if stack, err = s.stacks.Alloc(size); err != nil {
			return err
		}
	} else {
		stack = make([]byte, size)
	}
	t, err := s.k.TaskCreate(args[0], joy.Priority(prio), stack, consoleTask, args[2:])
	if err != nil {
		if s.stacks != nil {
			s.stacks.Release(joy.HeapUser, joy.Block(stack))
		}
		return err
	}
	s.printf("pid %d\n", t.Pid())
	return nil
}

// consoleTask is the body of tasks made by spawn.  The hosted kernel never
// switches to them.
func consoleTask(argv []string) int {
	trust.Infof("%s running", argv[0])
	return 0
}

func (s *Shell) block(args []string) error {
	t, err := s.task(args[0])
	if err != nil {
		return err
	}
	state, ok := joy.ParseTaskState(args[1])
	if !ok {
		return fmt.Errorf("unknown state %q", args[1])
	}
	return s.k.Block(t, state)
}

func (s *Shell) wake(args []string) error {
	t, err := s.task(args[0])
	if err != nil {
		return err
	}
	if _, err := s.k.Unblock(t); err != nil {
		return err
	}
	return nil
}

func (s *Shell) kill(args []string) error {
	t, err := s.task(args[0])
	if err != nil {
		return err
	}
	return s.k.TaskDelete(t)
}

func (s *Shell) lock(_ []string) error {
	s.k.Lock()
	return nil
}

func (s *Shell) unlock(_ []string) error {
	changed, err := s.k.TryUnlock()
	if err != nil {
		return err
	}
	if changed {
		s.printf("pid %d is now highest ready\n", s.k.HighestReady().Pid())
	}
	return nil
}

func (s *Shell) drain(_ []string) error {
	var total uint64
	n := 0
	for _, heap := range []joy.Heap{joy.HeapUser, joy.HeapKernel} {
		for b := range s.k.Drain(heap) {
			total += uint64(len(b))
			n++
			if s.stacks != nil {
				s.stacks.Release(heap, b)
			}
		}
	}
	s.printf("released %d blocks, %s\n", n, humanize.IBytes(total))
	return nil
}

func (s *Shell) check(_ []string) error {
	if err := s.k.CheckInvariants(); err != nil {
		return err
	}
	s.printf("ok\n")
	return nil
}

func (s *Shell) help(_ []string) error {
	names := make([]string, 0, len(commands))
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)
	tw := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	for _, name := range names {
		c := commands[name]
		fmt.Fprintf(tw, "%s %s\t%s\n", name, c.args, c.help)
	}
	return tw.Flush()
}

// WritePS prints tasks as a table, one line per task.
func WritePS(w io.Writer, tasks []joy.TaskInfo) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PID\tPRI\tSTATE\tTYPE\tSTACK\tLOCK\tNAME")
	for _, t := range tasks {
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\t%s\t%d\t%s\n", t.Pid, t.Priority, t.State, t.Type,
			humanize.IBytes(uint64(t.StackSize)), t.LockCount, t.Name)
	}
	return tw.Flush()
}
