package cmd

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"

	"github.com/taskdeck/taskdeck/internal/ident"
)

// loginCommand authenticates and persists the session.
func loginCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskdeck login", flag.ContinueOnError)
	email := fs.String("email", "", "Account email")
	password := fs.String("password", "", "Account password")
	if err := fs.Parse(args); err != nil {
		return err
	}

	reader := bufio.NewReader(os.Stdin)
	if *email == "" {
		fmt.Print("Email: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading email: %w", err)
		}
		*email = strings.TrimSpace(line)
	}
	if *password == "" {
		fmt.Print("Password: ")
		line, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("reading password: %w", err)
		}
		*password = strings.TrimRight(line, "\r\n")
	}

	sess, err := a.sessions.Login(ctx, *email, *password)
	if err != nil {
		return fmt.Errorf("login failed: %w", err)
	}

	banner()
	fmt.Printf("Welcome, %s!\n", sess.Email)
	return nil
}

// logoutCommand clears the persisted session.
func logoutCommand(a *app) error {
	a.sessions.Logout()
	a.tasks.Clear()
	fmt.Println("Signed out")
	return nil
}

// whoamiCommand shows the active session.
func whoamiCommand(a *app) error {
	sess := a.sessions.Restore()
	if sess == nil {
		fmt.Println("Not signed in")
		return nil
	}
	fmt.Printf("%s (%s)\n", sess.Email, sess.ID)
	return nil
}

// lsCommand lists the tasks for the signed-in user.
func lsCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskdeck ls", flag.ContinueOnError)
	completed := fs.Bool("completed", false, "Show only completed tasks")
	pending := fs.Bool("pending", false, "Show only pending tasks")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := requireSession(a); err != nil {
		return err
	}

	a.tasks.Load(ctx)
	if err := a.tasks.Err(); err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	tasks := a.tasks.Tasks()
	shown := 0
	for _, t := range tasks {
		if *completed && !t.Completed {
			continue
		}
		if *pending && t.Completed {
			continue
		}
		check := "[ ]"
		if t.Completed {
			check = "[x]"
		}
		title := t.Title
		if strings.TrimSpace(title) == "" {
			title = "Untitled"
		}
		fmt.Printf("  %s %s  %s\n", check, t.ID, title)
		shown++
	}
	if shown == 0 {
		fmt.Println("No tasks yet. Add one!")
		return nil
	}

	stats := a.tasks.Stats()
	fmt.Printf("\nTotal: %d  Completed: %d  Pending: %d\n", stats.Total, stats.Completed, stats.Pending)
	return nil
}

// addCommand creates a task.
func addCommand(ctx context.Context, a *app, args []string) error {
	title := strings.TrimSpace(strings.Join(args, " "))
	if title == "" {
		return fmt.Errorf("usage: taskdeck add <title>")
	}

	if err := requireSession(a); err != nil {
		return err
	}

	task, err := a.tasks.Create(ctx, title, a.cfg.DefaultDescription)
	if err != nil {
		return fmt.Errorf("creating task: %w", err)
	}
	fmt.Printf("Created %s\n", task.ID)
	return nil
}

// toggleCommand flips a task's completion state.
func toggleCommand(ctx context.Context, a *app, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: taskdeck toggle <id>")
	}

	if err := requireSession(a); err != nil {
		return err
	}

	a.tasks.Load(ctx)
	if err := a.tasks.Err(); err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}
	return a.tasks.Toggle(ctx, ident.ID(args[0]))
}

// rmCommand deletes a task after confirmation.
func rmCommand(ctx context.Context, a *app, args []string) error {
	fs := flag.NewFlagSet("taskdeck rm", flag.ContinueOnError)
	yes := fs.Bool("y", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: taskdeck rm [-y] <id>")
	}
	id := ident.ID(fs.Arg(0))

	if err := requireSession(a); err != nil {
		return err
	}

	a.tasks.Load(ctx)
	if err := a.tasks.Err(); err != nil {
		return fmt.Errorf("loading tasks: %w", err)
	}

	confirm := func() bool { return true }
	if !*yes {
		confirm = func() bool {
			fmt.Printf("Delete task %s? [y/N] ", id)
			reader := bufio.NewReader(os.Stdin)
			line, err := reader.ReadString('\n')
			if err != nil {
				return false
			}
			answer := strings.ToLower(strings.TrimSpace(line))
			return answer == "y" || answer == "yes"
		}
	}

	return a.tasks.Delete(ctx, id, confirm)
}

// doctorCommand checks config, the stored session, and service reachability.
func doctorCommand(a *app) error {
	fmt.Println("TaskDeck Doctor")
	fmt.Println("===============")
	fmt.Println()

	allOK := true

	fmt.Printf("Base URL: %s\n", a.cfg.BaseURL)
	resp, err := http.Get(a.cfg.BaseURL)
	if err != nil {
		fmt.Printf("  ❌ Unreachable: %v\n", err)
		allOK = false
	} else {
		resp.Body.Close()
		fmt.Println("  ✅ Reachable")
	}
	fmt.Println()

	fmt.Printf("Session file: %s\n", a.cfg.SessionFile)
	data, err := os.ReadFile(a.cfg.SessionFile)
	switch {
	case os.IsNotExist(err):
		fmt.Println("  ⚠️  Not found (sign in with 'taskdeck login')")
	case err != nil:
		fmt.Printf("  ❌ Error: %v\n", err)
		allOK = false
	default:
		if err := a.sessions.Validate(data); err != nil {
			fmt.Printf("  ❌ Invalid (will be discarded on next start): %v\n", err)
			allOK = false
		} else {
			fmt.Println("  ✅ Valid")
		}
	}
	fmt.Println()

	fmt.Printf("Log file: %s\n", a.cfg.LogFile)
	if _, err := os.Stat(a.cfg.LogFile); err != nil {
		if os.IsNotExist(err) {
			fmt.Println("  ⚠️  Not found (will be created on run)")
		} else {
			fmt.Printf("  ❌ Error: %v\n", err)
			allOK = false
		}
	} else {
		fmt.Println("  ✅ OK")
	}
	fmt.Println()

	if allOK {
		fmt.Println("✅ All checks passed!")
		return nil
	}
	fmt.Println("⚠️  Some checks failed. TaskDeck may not function correctly.")
	return fmt.Errorf("doctor checks failed")
}

// requireSession restores the stored session and fails when none is usable.
func requireSession(a *app) error {
	if a.sessions.Current() != nil {
		return nil
	}
	if sess := a.sessions.Restore(); sess != nil {
		return nil
	}
	return fmt.Errorf("not signed in (run 'taskdeck login')")
}
