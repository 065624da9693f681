package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sirupsen/logrus"

	"rbtengine/display"
	"rbtengine/domain/rbtree"
	"rbtengine/service"
)

// REPL holds the state of the interactive session.
type REPL struct {
	svc *service.TreeService
	out io.Writer
	log logrus.FieldLogger
}

func main() {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(logrus.WarnLevel)

	fmt.Println("Red-Black Tree REPL")
	fmt.Println("Type 'help' for available commands, 'quit' to exit")
	fmt.Println()

	r := newREPL(os.Stdout, log)
	reader := bufio.NewReader(os.Stdin)
	for {
		fmt.Print("rbtree> ")
		input, err := reader.ReadString('\n')
		if err != nil {
			fmt.Println("\nGoodbye!")
			return
		}
		if !r.handleCommand(strings.TrimSpace(input)) {
			return
		}
	}
}

func newREPL(out io.Writer, log logrus.FieldLogger) *REPL {
	return &REPL{
		svc: service.NewTreeService(service.Options{Logger: log}),
		out: out,
		log: log.WithField("component", "repl"),
	}
}

// fail reports err on the session output, or through the logger when the
// output itself is broken.
func (r *REPL) fail(err error) {
	if _, werr := fmt.Fprintf(r.out, "Error: %v\n", err); werr != nil {
		r.log.WithError(err).WithField("write_error", werr).Error("command failed")
	}
}

func (r *REPL) handleCommand(input string) bool {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return true
	}
	ctx := context.Background()
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		r.printHelp()

	case "quit", "exit":
		fmt.Fprintln(r.out, "Goodbye!")
		return false

	case "insert", "i":
		if len(args) == 0 {
			fmt.Fprintln(r.out, "Usage: insert <key> [key...]")
			break
		}
		for _, k := range args {
			r.insert(ctx, k)
		}

	case "delete", "d":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "Usage: delete <key>")
			break
		}
		r.delete(ctx, args[0])

	case "search", "s":
		if len(args) != 1 {
			fmt.Fprintln(r.out, "Usage: search <key>")
			break
		}
		r.search(ctx, args[0])

	case "traverse", "t":
		orders := []rbtree.Order{rbtree.PreOrder, rbtree.InOrder, rbtree.PostOrder}
		if len(args) > 0 {
			o, err := rbtree.ParseOrder(args[0])
			if err != nil {
				r.fail(err)
				break
			}
			orders = []rbtree.Order{o}
		}
		for _, o := range orders {
			r.traverse(ctx, o)
		}

	case "print", "p":
		r.print(ctx)

	case "keys", "k":
		keys, err := r.svc.Keys(ctx)
		if err != nil {
			r.fail(err)
			break
		}
		if err := display.Sequence(r.out, fmt.Sprintf("Known keys (%d):", len(keys)), keys); err != nil {
			r.fail(err)
		}

	case "stats":
		st := r.svc.Stats()
		fmt.Fprintf(r.out, "keys=%d height=%d black-height=%d\n", st.Keys, st.Height, st.BlackHeight)

	case "verify", "v":
		if err := r.svc.Validate(ctx); err != nil {
			fmt.Fprintf(r.out, "Invalid: %v\n", err)
		} else {
			fmt.Fprintln(r.out, "OK: all red-black invariants hold")
		}

	case "demo":
		r.demo(ctx)

	default:
		fmt.Fprintf(r.out, "Unknown command: %s (type 'help')\n", cmd)
	}
	return true
}

func (r *REPL) insert(ctx context.Context, key string) {
	err := r.svc.Insert(ctx, key)
	switch {
	case err == nil:
		fmt.Fprintf(r.out, "Inserted %s\n", key)
	case errors.Is(err, rbtree.ErrDuplicateKey):
		fmt.Fprintf(r.out, "Key %s already present\n", key)
	default:
		r.fail(err)
	}
}

func (r *REPL) delete(ctx context.Context, key string) {
	err := r.svc.Delete(ctx, key)
	switch {
	case err == nil:
		fmt.Fprintf(r.out, "Deleted %s\n", key)
	case errors.Is(err, rbtree.ErrKeyNotFound):
		fmt.Fprintf(r.out, "Key %s not found\n", key)
	default:
		r.fail(err)
	}
}

func (r *REPL) search(ctx context.Context, key string) {
	n, err := r.svc.Search(ctx, key)
	switch {
	case err == nil:
		fmt.Fprintf(r.out, "Found %s (%s)\n", n.Key, n.Color)
	case errors.Is(err, rbtree.ErrKeyNotFound):
		fmt.Fprintf(r.out, "Key %s not found\n", key)
	default:
		r.fail(err)
	}
}

var orderLabels = map[rbtree.Order]string{
	rbtree.PreOrder:  "Pre-order Traversal:",
	rbtree.InOrder:   "In-order Traversal:",
	rbtree.PostOrder: "Post-order Traversal:",
}

func (r *REPL) traverse(ctx context.Context, o rbtree.Order) {
	keys, err := r.svc.Traverse(ctx, o)
	if err != nil {
		r.fail(err)
		return
	}
	if err := display.Sequence(r.out, orderLabels[o], keys); err != nil {
		r.fail(err)
	}
}

func (r *REPL) print(ctx context.Context) {
	shape, err := r.svc.Snapshot(ctx)
	if err != nil {
		r.fail(err)
		return
	}
	fmt.Fprintln(r.out, "Red-Black Tree Structure:")
	if err := display.Render(r.out, shape); err != nil {
		r.fail(err)
	}
}

// demo replays the classic walkthrough: a duplicate insert, a search, the
// three traversals and a delete.
func (r *REPL) demo(ctx context.Context) {
	for _, k := range []string{"A", "K", "Z", "A"} {
		r.insert(ctx, k)
	}
	r.search(ctx, "A")
	for _, o := range []rbtree.Order{rbtree.PreOrder, rbtree.InOrder, rbtree.PostOrder} {
		r.traverse(ctx, o)
	}
	r.print(ctx)
	r.delete(ctx, "A")
	r.print(ctx)
}

func (r *REPL) printHelp() {
	fmt.Fprint(r.out, `Commands:
  insert <key> [key...]   insert one or more keys (alias: i)
  delete <key>            delete a key (alias: d)
  search <key>            look a key up (alias: s)
  traverse [pre|in|post]  print traversals, all three by default (alias: t)
  print                   draw the tree sideways, [R]ed / [B]lack (alias: p)
  keys                    list the keys currently in the tree (alias: k)
  stats                   size, height and black height
  verify                  check the red-black invariants (alias: v)
  demo                    run the A K Z walkthrough
  help                    show this help
  quit                    leave
`)
}
